package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	cl "articlegen/internal/cli"
	"articlegen/internal/config"
	"articlegen/internal/game"
	"articlegen/internal/host"
	"articlegen/internal/notify"
	"articlegen/internal/store"
	"articlegen/internal/syncq"
	"articlegen/internal/tui"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type app struct {
	cfg     config.CLIConfig
	slot    string
	balance config.Balance
	logger  *slog.Logger
}

func main() {
	config.LoadDotEnv()
	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	a := &app{
		cfg:    cfg,
		slot:   cfg.Slot,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})),
	}

	root := &cobra.Command{
		Use:          "articlegen",
		Short:        "An idle game about writing articles",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			b, err := config.LoadBalance(a.cfg.BalanceFile)
			if err != nil {
				return err
			}
			a.balance = b
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.slot, "slot", cfg.Slot, "save slot name")

	root.AddCommand(
		a.newPlayCmd(),
		a.newStatusCmd(),
		a.newClickCmd(),
		a.newBuyCmd(),
		a.newUpgradeCmd(),
		a.newUpgradesCmd(),
		a.newPrestigeCmd(),
		a.newPerksCmd(),
		a.newPerkCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newResetCmd(),
		a.newSlotsCmd(),
		a.newTokenCmd(),
		a.newRemoteCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) openHost(ctx context.Context, sink game.EventSink) (*host.Host, store.Store, error) {
	st, err := store.Open(ctx, a.cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	h := host.New(host.Options{
		Store:         st,
		Balance:       a.balance,
		Sink:          sink,
		Logger:        a.logger,
		AutoSaveEvery: a.cfg.AutoSaveEvery,
	})
	return h, st, nil
}

func (a *app) withGame(cmd *cobra.Command, fn func(g *game.Game) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	rec := &notify.Recorder{}
	h, st, err := a.openHost(ctx, notify.Multi{notify.NewLogSink(a.logger), rec})
	if err != nil {
		return err
	}
	defer st.Close()

	g, err := h.Open(ctx, a.slot)
	if err != nil {
		return err
	}
	fnErr := fn(g)
	printEvents(rec)
	if err := h.Save(ctx, a.slot); err != nil {
		return errors.Join(fnErr, fmt.Errorf("save: %w", err))
	}
	return fnErr
}

func (a *app) newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("play needs an interactive terminal; try `articlegen status`")
			}
			ctx := cmd.Context()
			feed := &tui.Feed{}
			h, st, err := a.openHost(ctx, feed)
			if err != nil {
				return err
			}
			defer st.Close()
			g, err := h.Open(ctx, a.slot)
			if err != nil {
				return err
			}
			return tui.Run(ctx, tui.Options{
				Game:          g,
				Store:         st,
				Slot:          a.slot,
				Feed:          feed,
				AutoSaveEvery: a.cfg.AutoSaveEvery,
				Logger:        a.logger,
			})
		},
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withGame(cmd, func(g *game.Game) error {
				renderStatus(g.Snapshot(), a.slot)
				return nil
			})
		},
	}
}

func (a *app) newClickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "click [n]",
		Short: "Write articles by hand",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := countArg(args, 1000)
			if err != nil {
				return err
			}
			return a.withGame(cmd, func(g *game.Game) error {
				for i := 0; i < n; i++ {
					g.Click()
				}
				printSuccess(fmt.Sprintf("Wrote by hand %d times. Balance: %s", n, g.Snapshot().Balance.Format()))
				return nil
			})
		},
	}
}

func (a *app) newBuyCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "buy <unit>",
		Short: "Hire writers (unit number 1-9 or id such as ghost)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveUnit(a.balance, args[0])
			if err != nil {
				return err
			}
			m, err := game.ParsePurchaseMode(mode)
			if err != nil {
				return err
			}
			return a.withGame(cmd, func(g *game.Game) error {
				bought, spent, err := g.PurchaseUnit(id, m)
				if err != nil {
					return err
				}
				if bought == 0 {
					_, cost, _ := g.Quote(id, m)
					printWarn(fmt.Sprintf("Not enough articles: need %s, have %s.", cost.Format(), g.Snapshot().Balance.Format()))
					return nil
				}
				printSuccess(fmt.Sprintf("Hired %d x %s for %s.", bought, a.balance.Units[id].Name, spent.Format()))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "1", "how many to buy: 1, 10, 100 or max")
	return cmd
}

func (a *app) newUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <id|cheapest>",
		Short: "Buy a multiplier upgrade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withGame(cmd, func(g *game.Game) error {
				if strings.EqualFold(args[0], "cheapest") {
					id := g.PurchaseCheapestMultiplier()
					if id == "" {
						printWarn("No affordable upgrade.")
						return nil
					}
					printSuccess("Bought upgrade " + id + ".")
					return nil
				}
				ok, err := g.PurchaseMultiplier(args[0])
				if err != nil {
					return err
				}
				if !ok {
					printWarn("Upgrade " + args[0] + " is locked, owned or too expensive.")
					return nil
				}
				printSuccess("Bought upgrade " + args[0] + ".")
				return nil
			})
		},
	}
}

func (a *app) newUpgradesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrades",
		Short: "List available multiplier upgrades",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withGame(cmd, func(g *game.Game) error {
				renderUpgrades(g.Snapshot())
				return nil
			})
		},
	}
}

func (a *app) newPrestigeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "prestige",
		Aliases: []string{"ascend"},
		Short:   "Reset the run for toku",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withGame(cmd, func(g *game.Game) error {
				p := g.Snapshot().Prestige
				if !p.Eligible {
					printWarn(fmt.Sprintf("Not yet: %s articles needed this run.", p.Threshold.Format()))
					return nil
				}
				if !yes {
					ok, err := promptConfirm(fmt.Sprintf("Reset this run for +%s toku?", p.PreviewGain.Format()))
					if err != nil {
						return err
					}
					if !ok {
						printInfo("Cancelled.")
						return nil
					}
				}
				gain, err := g.CommitPrestige()
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Ascended for +%s toku.", gain.Format()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func (a *app) newPerksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "perks",
		Short: "List permanent upgrades",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withGame(cmd, func(g *game.Game) error {
				renderPerks(g.Snapshot())
				return nil
			})
		},
	}
}

func (a *app) newPerkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "perk <id>",
		Short: "Buy a permanent upgrade with toku",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withGame(cmd, func(g *game.Game) error {
				ok, err := g.PurchasePermanentModifier(args[0])
				if err != nil {
					return err
				}
				if !ok {
					printWarn("Already owned or not enough toku.")
					return nil
				}
				printSuccess("Acquired " + args[0] + ".")
				return nil
			})
		},
	}
}

func (a *app) newExportCmd() *cobra.Command {
	var qr bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the save as a portable string",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withGame(cmd, func(g *game.Game) error {
				raw, err := game.EncodeSave(g.Save())
				if err != nil {
					return err
				}
				data := store.EncodeExport(raw)
				if qr {
					printQR(data)
				}
				fmt.Println(data)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&qr, "qr", false, "also render the export as a QR code")
	return cmd
}

func (a *app) newImportCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <data>",
		Short: "Replace the slot with an exported save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := store.DecodeExport(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			_, warnings, err := game.DecodeSave(raw)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				printWarn("recovered: " + w)
			}
			if !yes {
				ok, err := promptConfirm(fmt.Sprintf("Overwrite slot %q?", a.slot))
				if err != nil {
					return err
				}
				if !ok {
					printInfo("Cancelled.")
					return nil
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := store.Open(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			err = st.Save(ctx, a.slot, raw)
			st.Close()
			if err != nil {
				return err
			}
			printSuccess("Imported into slot " + a.slot + ".")
			return a.withGame(cmd, func(g *game.Game) error {
				renderStatus(g.Snapshot(), a.slot)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func (a *app) newResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the slot and start over",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := promptConfirm(fmt.Sprintf("Delete everything in slot %q, including toku?", a.slot))
				if err != nil {
					return err
				}
				if !ok {
					printInfo("Cancelled.")
					return nil
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			h, st, err := a.openHost(ctx, notify.NewLogSink(a.logger))
			if err != nil {
				return err
			}
			defer st.Close()
			if err := h.Delete(ctx, a.slot); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			printSuccess("Slot " + a.slot + " reset.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func (a *app) newSlotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List local save slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := store.Open(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()
			slots, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(slots) == 0 {
				printInfo("No saves yet.")
				return nil
			}
			for _, s := range slots {
				if s == a.slot {
					success.Println("* " + s)
					continue
				}
				fmt.Println("  " + s)
			}
			return nil
		},
	}
}

func countArg(args []string, max int) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || n <= 0 || n > max {
		return 0, fmt.Errorf("count must be between 1 and %d", max)
	}
	return n, nil
}

// resolveUnit accepts a 1-based unit number or a unit id prefix.
func resolveUnit(b config.Balance, arg string) (int, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(b.Units) {
			return 0, fmt.Errorf("%w: %d", game.ErrUnknownUnit, n)
		}
		return n - 1, nil
	}
	for _, u := range b.Units {
		if u.Prefix == arg {
			return u.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", game.ErrUnknownUnit, arg)
}

func newIdempotencyKey() string {
	return uuid.NewString()
}

func queueOnNetworkError(err error, c syncq.Command) error {
	if err == nil {
		return nil
	}
	if cl.IsAPIError(err) {
		return err
	}
	if qerr := syncq.Push(c); qerr != nil {
		return fmt.Errorf("request failed and could not be queued: %w", errors.Join(err, qerr))
	}
	printWarn("API unreachable, queued for `articlegen remote sync`.")
	return nil
}
