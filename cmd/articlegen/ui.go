package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"articlegen/internal/game"
	"articlegen/internal/notify"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
	faint       = color.New(color.FgHiBlack)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptConfirm(label string) (bool, error) {
	fmt.Printf("%s [y/N]: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return false, err
	}
	text = strings.ToLower(strings.TrimSpace(text))
	return text == "y" || text == "yes", nil
}

func printEvents(rec *notify.Recorder) {
	for _, e := range rec.Events() {
		switch e.Kind {
		case game.EventOfflineCredited, game.EventIdleCompleted, game.EventBonusClaimed,
			game.EventPrestige, game.EventModifierPurchased:
			accent.Println(notify.Format(e))
		}
	}
}

func renderStatus(s game.Snapshot, slot string) {
	accent.Printf("\n== ARTICLE GENERATOR (%s) ==\n", slot)
	fmt.Printf("Articles:          %s\n", success.Sprint(s.Balance.Format()))
	fmt.Printf("Per second:        %s\n", s.TotalYield.Format())
	fmt.Printf("Per click:         %s\n", s.ClickPower.Format())
	fmt.Printf("This run:          %s\n", s.BalanceThisRun.Format())
	fmt.Printf("Lifetime:          %s\n", s.LifetimeBalance.Format())
	fmt.Printf("Clicks:            %d\n", s.ClickCount)

	fmt.Println()
	accent.Println("Writers")
	fmt.Printf("%-3s %-10s %-28s %7s %14s %14s\n", "#", "ID", "NAME", "OWNED", "NEXT", "PER SEC")
	for _, u := range s.Units {
		next := u.NextCost.Format()
		if u.NextCost.LTE(s.Balance) {
			next = success.Sprint(next)
		} else {
			next = faint.Sprint(next)
		}
		fmt.Printf("%-3d %-10s %-28s %7d %14s %14s\n",
			u.ID+1, u.Prefix, truncate(u.Name, 28), u.Owned, next, u.YieldPerSecond.Format())
	}

	fmt.Println()
	p := s.Prestige
	accent.Println("Ascension")
	fmt.Printf("Toku:              %s (%d ascensions)\n", p.MetaCurrency.Format(), p.PrestigeCount)
	if p.Eligible {
		fmt.Printf("Ready:             %s\n", success.Sprint("+"+p.PreviewGain.Format()+" toku"))
	} else {
		fmt.Printf("Threshold:         %s this run\n", p.Threshold.Format())
	}

	fmt.Println()
	accent.Println("Zen")
	fmt.Printf("Phase:             %s (%.0f%%, %d completed)\n", s.Idle.Phase, s.Idle.Progress*100, s.Idle.CompletedCount)
	switch {
	case s.Bonus.Boosted:
		fmt.Printf("Bell:              %s\n", warn.Sprintf("x%s for %ds", s.Bonus.Multiplier.Format(), s.Bonus.BoostRemainingSeconds))
	case s.Bonus.Visible:
		fmt.Printf("Bell:              %s\n", warn.Sprintf("ringing, %ds left", s.Bonus.VisibleRemainingSeconds))
	}
	fmt.Println()
}

func renderUpgrades(s game.Snapshot) {
	accent.Println("\n== UPGRADES ==")
	shown := 0
	fmt.Printf("%-18s %-36s %8s %14s\n", "ID", "NAME", "FACTOR", "COST")
	for _, m := range s.Multipliers {
		if !m.Unlocked || m.Purchased {
			continue
		}
		shown++
		cost := m.Cost.Format()
		if m.Cost.LTE(s.Balance) {
			cost = success.Sprint(cost)
		}
		fmt.Printf("%-18s %-36s %8s %14s\n", m.ID, truncate(m.Name, 36), "x"+m.Factor.Format(), cost)
	}
	if shown == 0 {
		printInfo("No upgrades available. Hire more writers to unlock some.")
	}
	fmt.Println()
}

func renderPerks(s game.Snapshot) {
	accent.Printf("\n== PERMANENT UPGRADES (%s toku) ==\n", s.Prestige.MetaCurrency.Format())
	for _, m := range s.Prestige.Modifiers {
		state := faint.Sprintf("%s toku", m.Cost.Format())
		if m.Owned {
			state = success.Sprint("owned")
		} else if m.Cost.LTE(s.Prestige.MetaCurrency) {
			state = warn.Sprintf("%s toku", m.Cost.Format())
		}
		fmt.Printf("%-22s %-26s %s\n", m.ID, m.Name, state)
		fmt.Printf("  %s\n", faint.Sprint(m.Description))
	}
	fmt.Println()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
