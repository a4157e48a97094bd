package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownUnit         = errors.New("unknown unit")
	ErrUnknownMultiplier   = errors.New("unknown multiplier")
	ErrUnknownModifier     = errors.New("unknown permanent modifier")
	ErrNotEligible         = errors.New("prestige not available: balance this run below threshold")
	ErrInvalidPurchaseMode = errors.New("purchase mode must be a positive count or \"max\"")
)

// PurchaseMode is either an exact unit count or BuyMax.
type PurchaseMode int

const BuyMax PurchaseMode = -1

// Modes cycled by the terminal UI.
var PurchaseModes = []PurchaseMode{1, 10, 100, BuyMax}

func ParsePurchaseMode(s string) (PurchaseMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 1, nil
	}
	if s == "max" {
		return BuyMax, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "x"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPurchaseMode, s)
	}
	return PurchaseMode(n), nil
}

func (m PurchaseMode) String() string {
	if m == BuyMax {
		return "max"
	}
	return strconv.Itoa(int(m))
}

// Next returns the mode after m in PurchaseModes, wrapping around.
func (m PurchaseMode) Next() PurchaseMode {
	for i, mode := range PurchaseModes {
		if mode == m {
			return PurchaseModes[(i+1)%len(PurchaseModes)]
		}
	}
	return PurchaseModes[0]
}

func (m PurchaseMode) valid(maxBulk int) bool {
	return m == BuyMax || (m > 0 && int(m) <= maxBulk)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
