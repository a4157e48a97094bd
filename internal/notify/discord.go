package notify

import (
	"context"
	"fmt"
	"log/slog"

	"articlegen/internal/game"

	"github.com/bwmarrin/discordgo"
)

type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts notable events to a channel. Emit only queues; Run does the
// network calls so the game lock is never held across a request.
type Discord struct {
	sender  messageSender
	channel string
	queue   chan game.Event
	logger  *slog.Logger
}

func NewDiscord(token, channel string, logger *slog.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return newDiscord(session, channel, logger), nil
}

func newDiscord(sender messageSender, channel string, logger *slog.Logger) *Discord {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discord{
		sender:  sender,
		channel: channel,
		queue:   make(chan game.Event, 64),
		logger:  logger,
	}
}

func (d *Discord) Emit(e game.Event) {
	if !notable(e.Kind) {
		return
	}
	select {
	case d.queue <- e:
	default:
		d.logger.Warn("discord queue full, dropping event", "kind", string(e.Kind))
	}
}

// Run delivers queued events until ctx is done.
func (d *Discord) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-d.queue:
			if _, err := d.sender.ChannelMessageSend(d.channel, Format(e)); err != nil {
				d.logger.Error("discord send failed", "kind", string(e.Kind), "err", err)
			}
		}
	}
}

// Format renders an event as a one-line chat message.
func Format(e game.Event) string {
	prefix := ""
	if e.Slot != "" {
		prefix = "[" + e.Slot + "] "
	}
	switch e.Kind {
	case game.EventPrestige:
		return fmt.Sprintf("%sPrestige #%d: +%s toku", prefix, e.Count, e.Amount.Format())
	case game.EventIdleCompleted:
		return fmt.Sprintf("%sZen cycle %d complete: +%s toku", prefix, e.Count, e.Amount.Format())
	case game.EventBonusClaimed:
		return fmt.Sprintf("%sBell rung: x%s production for %.0fs", prefix, e.Amount.Format(), e.Seconds)
	case game.EventOfflineCredited:
		return fmt.Sprintf("%sWelcome back: %s articles written over %.0fs away", prefix, e.Amount.Format(), e.Seconds)
	case game.EventModifierPurchased:
		return fmt.Sprintf("%sPermanent upgrade unlocked: %s", prefix, e.ID)
	case game.EventReset:
		return prefix + "Save deleted, starting over"
	case game.EventBonusSpawned:
		return prefix + "A bell appeared, ring it before it fades"
	case game.EventBonusExpired:
		return prefix + "The bell faded"
	case game.EventBoostEnded:
		return prefix + "Bell boost ended"
	case game.EventIdleInterrupted:
		return fmt.Sprintf("%sZen interrupted after %.0fs", prefix, e.Seconds)
	default:
		return prefix + string(e.Kind)
	}
}
