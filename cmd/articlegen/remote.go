package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	cl "articlegen/internal/cli"
	"articlegen/internal/game"
	"articlegen/internal/num"
	"articlegen/internal/syncq"

	"github.com/spf13/cobra"
)

func (a *app) newRemoteCmd() *cobra.Command {
	remote := &cobra.Command{
		Use:   "remote",
		Short: "Play a slot hosted by articlegen-api",
	}
	remote.AddCommand(
		a.newRemoteLoginCmd(),
		a.newRemoteLogoutCmd(),
		a.newRemoteStatusCmd(),
		a.newRemoteClickCmd(),
		a.newRemoteBuyCmd(),
		a.newRemotePrestigeCmd(),
		a.newRemoteExportCmd(),
		a.newRemoteSyncCmd(),
	)
	return remote
}

func (a *app) remoteClient() (*cl.Client, cl.Session, error) {
	sess, err := cl.LoadSession()
	if err != nil {
		return nil, cl.Session{}, fmt.Errorf("login required (`articlegen remote login`): %w", err)
	}
	return cl.NewClient(sess.BaseURL, sess.Token), sess, nil
}

func (a *app) newRemoteLoginCmd() *cobra.Command {
	var baseURL, token, slot string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Remember an API address, token and slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(baseURL) == "" {
				baseURL = a.cfg.APIBaseURL
			}
			if token == "" {
				t, err := promptRequired("API token (- for none)")
				if err != nil {
					return err
				}
				if t != "-" {
					token = t
				}
			}
			client := cl.NewClient(baseURL, token)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if slot == "" {
				created, err := client.CreateSlot(ctx)
				if err != nil {
					return err
				}
				slot = created
				printInfo("Created remote slot " + slot + ".")
			} else if _, err := client.State(ctx, slot); err != nil {
				return err
			}
			if err := cl.SaveSession(cl.Session{BaseURL: client.BaseURL, Token: token, Slot: slot}); err != nil {
				return err
			}
			printSuccess("Logged in to " + client.BaseURL + " as slot " + slot + ".")
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "API base url (default $ARTICLEGEN_API_BASE_URL)")
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.Flags().StringVar(&slot, "remote-slot", "", "existing remote slot (default: create one)")
	return cmd
}

func (a *app) newRemoteLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remote session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Logged out.")
			return nil
		},
	}
}

func (a *app) newRemoteStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the remote game",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sess, err := a.remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			snap, err := client.State(ctx, sess.Slot)
			if err != nil {
				return err
			}
			renderStatus(snap, sess.Slot)
			if queued, err := syncq.Load(); err == nil && len(queued) > 0 {
				printWarn(fmt.Sprintf("%d writes queued; run `articlegen remote sync`.", len(queued)))
			}
			return nil
		},
	}
}

func (a *app) newRemoteClickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "click [n]",
		Short: "Write by hand on the remote game",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := countArg(args, 100)
			if err != nil {
				return err
			}
			client, sess, err := a.remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			idem := newIdempotencyKey()
			out, err := client.Click(ctx, sess.Slot, n, idem)
			if err != nil {
				return queueOnNetworkError(err, syncq.Command{
					Method:         http.MethodPost,
					Path:           cl.ClickPath(sess.Slot),
					Body:           map[string]any{"count": n},
					IdempotencyKey: idem,
				})
			}
			printSuccess(fmt.Sprintf("Wrote by hand %d times. Balance: %s", n, formatField(out, "balance")))
			return nil
		},
	}
}

func (a *app) newRemoteBuyCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "buy <unit>",
		Short: "Hire writers on the remote game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveUnit(a.balance, args[0])
			if err != nil {
				return err
			}
			if _, err := game.ParsePurchaseMode(mode); err != nil {
				return err
			}
			client, sess, err := a.remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			unit := strconv.Itoa(id)
			idem := newIdempotencyKey()
			out, err := client.BuyUnit(ctx, sess.Slot, unit, mode, idem)
			if err != nil {
				return queueOnNetworkError(err, syncq.Command{
					Method:         http.MethodPost,
					Path:           cl.BuyUnitPath(sess.Slot, unit),
					Body:           map[string]any{"mode": mode},
					IdempotencyKey: idem,
				})
			}
			if bought, _ := out["bought"].(float64); bought == 0 {
				printWarn("Not enough articles.")
				return nil
			}
			printSuccess(fmt.Sprintf("Hired %s for %s.", formatField(out, "bought"), formatField(out, "spent")))
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "1", "how many to buy: 1, 10, 100 or max")
	return cmd
}

func (a *app) newRemotePrestigeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "prestige",
		Short: "Ascend the remote game",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sess, err := a.remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			snap, err := client.State(ctx, sess.Slot)
			if err != nil {
				return err
			}
			if !snap.Prestige.Eligible {
				printWarn(fmt.Sprintf("Not yet: %s articles needed this run.", snap.Prestige.Threshold.Format()))
				return nil
			}
			if !yes {
				ok, err := promptConfirm(fmt.Sprintf("Reset this run for +%s toku?", snap.Prestige.PreviewGain.Format()))
				if err != nil || !ok {
					return err
				}
			}
			idem := newIdempotencyKey()
			out, err := client.Prestige(ctx, sess.Slot, idem)
			if err != nil {
				return queueOnNetworkError(err, syncq.Command{
					Method:         http.MethodPost,
					Path:           cl.PrestigePath(sess.Slot),
					IdempotencyKey: idem,
				})
			}
			printSuccess("Ascended for +" + formatField(out, "gain") + " toku.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func (a *app) newRemoteExportCmd() *cobra.Command {
	var qr bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the remote save",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sess, err := a.remoteClient()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			data, err := client.Export(ctx, sess.Slot)
			if err != nil {
				return err
			}
			if qr {
				printQR(data)
			}
			fmt.Println(data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&qr, "qr", false, "also render the export as a QR code")
	return cmd
}

func (a *app) newRemoteSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay writes queued while the API was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.remoteClient()
			if err != nil {
				return err
			}
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			sent, remaining, err := syncq.Replay(func(q syncq.Command) error {
				_, err := client.Do(ctx, q.Method, q.Path, q.Body, q.IdempotencyKey)
				if err != nil {
					printError(fmt.Sprintf("Sync failed for %s %s: %v", q.Method, q.Path, err))
				}
				return err
			}, func(err error) bool { return !cl.IsAPIError(err) })
			if err != nil {
				return err
			}
			dropped := len(queue) - sent - len(remaining)
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d rejected=%d remaining=%d", sent, dropped, len(remaining)))
			return nil
		},
	}
}

func formatField(out map[string]any, key string) string {
	switch v := out[key].(type) {
	case string:
		if n, err := num.Parse(v); err == nil {
			return n.Format()
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "?"
	}
}
