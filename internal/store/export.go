package store

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrMalformedExport = errors.New("export string is malformed")
	ErrChecksum        = errors.New("export checksum mismatch")
)

const checksumLen = 8

// EncodeExport wraps a save for copy and paste: an 8-byte BLAKE2b-256 prefix
// followed by the payload, base64url without padding.
func EncodeExport(payload []byte) string {
	sum := blake2b.Sum256(payload)
	buf := make([]byte, 0, checksumLen+len(payload))
	buf = append(buf, sum[:checksumLen]...)
	buf = append(buf, payload...)
	return base64.RawURLEncoding.EncodeToString(buf)
}

func DecodeExport(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}
	if len(raw) <= checksumLen {
		return nil, ErrMalformedExport
	}
	payload := raw[checksumLen:]
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(sum[:checksumLen], raw[:checksumLen]) {
		return nil, ErrChecksum
	}
	return payload, nil
}
