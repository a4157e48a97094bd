package notify

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"articlegen/internal/config"
	"articlegen/internal/game"
	"articlegen/internal/num"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	sent     chan struct{}
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	f.messages = append(f.messages, channelID+": "+content)
	f.mu.Unlock()
	f.sent <- struct{}{}
	return &discordgo.Message{Content: content}, nil
}

func TestDiscordForwardsNotableEvents(t *testing.T) {
	sender := &fakeSender{sent: make(chan struct{}, 8)}
	d := newDiscord(sender, "chan-1", slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Emit(game.Event{Kind: game.EventUnitPurchased, Count: 3})
	d.Emit(game.Event{Kind: game.EventPrestige, Slot: "main", Count: 2, Amount: num.FromInt(7)})

	select {
	case <-sender.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "chan-1: [main] Prestige #2: +7 toku", sender.messages[0])
}

func TestLogSinkAndMulti(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	rec := &Recorder{}
	sink := Multi{NewLogSink(logger), rec, nil}

	sink.Emit(game.Event{Kind: game.EventBonusClaimed, Amount: num.FromInt(108), Seconds: 30})
	sink.Emit(game.Event{Kind: game.EventUnitPurchased, Count: 1})

	assert.Contains(t, buf.String(), `"kind":"bonus_claimed"`)
	assert.NotContains(t, buf.String(), "unit_purchased", "routine events log at debug")
	assert.Equal(t, 1, rec.Count(game.EventBonusClaimed))
	assert.Len(t, rec.Events(), 2)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		event game.Event
		want  string
	}{
		{event: game.Event{Kind: game.EventIdleCompleted, Count: 3, Amount: num.One}, want: "Zen cycle 3 complete: +1 toku"},
		{event: game.Event{Kind: game.EventBonusClaimed, Amount: num.FromInt(108), Seconds: 30}, want: "Bell rung: x108 production for 30s"},
		{event: game.Event{Kind: game.EventOfflineCredited, Amount: num.FromInt(432000), Seconds: 86400}, want: "Welcome back: 432,000 articles written over 86400s away"},
		{event: game.Event{Kind: game.EventModifierPurchased, Slot: "a", ID: "serverless_nirvana"}, want: "[a] Permanent upgrade unlocked: serverless_nirvana"},
	}
	for _, tc := range tests {
		if got := Format(tc.event); got != tc.want {
			t.Fatalf("kind=%s got=%q want=%q", tc.event.Kind, got, tc.want)
		}
	}
}

func TestBuildWithoutDiscord(t *testing.T) {
	sink, err := Build(context.Background(), config.NotifyConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	multi, ok := sink.(Multi)
	require.True(t, ok)
	assert.Len(t, multi, 1)
}
