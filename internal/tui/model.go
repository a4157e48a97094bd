package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"articlegen/internal/game"
	"articlegen/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const frameEvery = 50 * time.Millisecond

type Options struct {
	Game          *game.Game
	Store         store.Store
	Slot          string
	Feed          *Feed
	AutoSaveEvery time.Duration
	Logger        *slog.Logger
}

type frameMsg time.Time

type savedMsg struct {
	at  time.Time
	err error
}

type Model struct {
	opts   Options
	game   *game.Game
	keys   keyMap
	help   help.Model
	zen    progress.Model
	boost  progress.Model
	mode   game.PurchaseMode
	status string

	lastFrame time.Time
	lastSave  time.Time
	confirm   bool
	saving    bool
	width     int
	err       error
}

func New(opts Options) Model {
	if opts.AutoSaveEvery <= 0 {
		opts.AutoSaveEvery = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Feed == nil {
		opts.Feed = &Feed{}
	}
	now := time.Now()
	return Model{
		opts:      opts,
		game:      opts.Game,
		keys:      newKeyMap(),
		help:      help.New(),
		zen:       progress.New(progress.WithGradient("#5A56E0", "#7EE8C7"), progress.WithWidth(36)),
		boost:     progress.New(progress.WithGradient("#F2A900", "#FF5F87"), progress.WithWidth(36)),
		mode:      1,
		lastFrame: now,
		lastSave:  now,
	}
}

func (m Model) Err() error { return m.err }

func frame() tea.Cmd {
	return tea.Tick(frameEvery, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Init marks the game visible: terminals without focus reporting never send
// a FocusMsg.
func (m Model) Init() tea.Cmd {
	m.game.SetVisible(true)
	return frame()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		now := time.Time(msg)
		if dt := now.Sub(m.lastFrame); dt > 0 {
			m.game.Tick(dt)
		}
		m.lastFrame = now
		cmds := []tea.Cmd{frame()}
		if !m.saving && now.Sub(m.lastSave) >= m.opts.AutoSaveEvery {
			m.saving = true
			cmds = append(cmds, m.saveCmd())
		}
		return m, tea.Batch(cmds...)

	case savedMsg:
		m.saving = false
		m.lastSave = msg.at
		m.err = msg.err
		if msg.err != nil {
			m.status = "autosave failed: " + msg.err.Error()
		}
		return m, nil

	case tea.FocusMsg:
		m.game.SetVisible(true)
		return m, nil

	case tea.BlurMsg:
		m.game.SetVisible(false)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.err = m.save(context.Background())
		return m, tea.Quit
	}

	if m.confirm {
		m.confirm = false
		if msg.String() != "y" {
			m.game.NotifyUserAction()
			m.status = "ascension cancelled"
			return m, nil
		}
		gain, err := m.game.CommitPrestige()
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("ascended: +%s toku", gain.Format())
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Click):
		earned := m.game.Click()
		m.status = "+" + earned.Format()
	case key.Matches(msg, m.keys.Buy):
		id := int(msg.String()[0] - '1')
		bought, spent, err := m.game.PurchaseUnit(id, m.mode)
		switch {
		case err != nil:
			m.status = err.Error()
		case bought == 0:
			m.status = "not enough articles"
		default:
			m.status = fmt.Sprintf("bought %d for %s", bought, spent.Format())
		}
	case key.Matches(msg, m.keys.Mode):
		m.game.NotifyUserAction()
		m.mode = m.mode.Next()
		m.status = "buy mode x" + m.mode.String()
	case key.Matches(msg, m.keys.Upgrade):
		if id := m.game.PurchaseCheapestMultiplier(); id != "" {
			m.status = "upgrade " + id + " purchased"
		} else {
			m.status = "no affordable upgrade"
		}
	case key.Matches(msg, m.keys.Bell):
		if m.game.ClaimBonusEvent() {
			m.status = "the bell rings"
		} else {
			m.status = "no bell to ring"
		}
	case key.Matches(msg, m.keys.Prestige):
		m.game.NotifyUserAction()
		p := m.game.Snapshot().Prestige
		if !p.Eligible {
			m.status = fmt.Sprintf("need %s articles this run to ascend", p.Threshold.Format())
			return m, nil
		}
		m.confirm = true
		m.status = fmt.Sprintf("ascend for +%s toku? (y to confirm)", p.PreviewGain.Format())
	case key.Matches(msg, m.keys.Perk):
		mods := m.game.Snapshot().Prestige.Modifiers
		i := perkIndex(msg.String())
		if i < 0 || i >= len(mods) {
			m.game.NotifyUserAction()
			return m, nil
		}
		ok, err := m.game.PurchasePermanentModifier(mods[i].ID)
		switch {
		case err != nil:
			m.status = err.Error()
		case ok:
			m.status = mods[i].Name + " acquired"
		default:
			m.status = "cannot buy " + mods[i].Name
		}
	case key.Matches(msg, m.keys.Help):
		m.game.NotifyUserAction()
		m.help.ShowAll = !m.help.ShowAll
	default:
		m.game.NotifyUserAction()
	}
	return m, nil
}

func (m Model) saveCmd() tea.Cmd {
	g, st, slot := m.game, m.opts.Store, m.opts.Slot
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return savedMsg{at: time.Now(), err: saveGame(ctx, st, slot, g)}
	}
}

func (m Model) save(ctx context.Context) error {
	return saveGame(ctx, m.opts.Store, m.opts.Slot, m.game)
}

func saveGame(ctx context.Context, st store.Store, slot string, g *game.Game) error {
	if st == nil {
		return nil
	}
	raw, err := game.EncodeSave(g.Save())
	if err != nil {
		return err
	}
	return st.Save(ctx, slot, raw)
}

func (m Model) View() string {
	s := m.game.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render("ARTICLE GENERATOR") + "  " + dimStyle.Render("slot "+m.opts.Slot) + "\n\n")
	b.WriteString(balanceStyle.Render(s.Balance.Format()+" articles") + "\n")
	b.WriteString(fmt.Sprintf("%s/s   click %s   buy x%s\n\n",
		s.TotalYield.Format(), s.ClickPower.Format(), m.mode.String()))

	b.WriteString(headerStyle.Render("Writers") + "\n")
	for _, u := range s.Units {
		count, cost, err := m.game.Quote(u.ID, m.mode)
		price := dimStyle.Render("-")
		if err == nil && count > 0 {
			price = fmt.Sprintf("%d for %s", count, cost.Format())
			if cost.LTE(s.Balance) {
				price = affordStyle.Render(price)
			}
		} else if err == nil {
			price = dimStyle.Render(u.NextCost.Format())
		}
		b.WriteString(fmt.Sprintf(" %d %-28s %5d  %-22s %s/s\n",
			u.ID+1, u.Name, u.Owned, price, u.YieldPerSecond.Format()))
	}

	available := 0
	for _, mu := range s.Multipliers {
		if mu.Unlocked && !mu.Purchased {
			available++
		}
	}
	b.WriteString(fmt.Sprintf("\n%s %d unlocked\n", headerStyle.Render("Upgrades"), available))

	p := s.Prestige
	b.WriteString(fmt.Sprintf("%s %s toku, %d ascensions", headerStyle.Render("Ascension"),
		p.MetaCurrency.Format(), p.PrestigeCount))
	if p.Eligible {
		b.WriteString(affordStyle.Render(fmt.Sprintf("  ready: +%s", p.PreviewGain.Format())))
	}
	b.WriteString("\n")
	for i, mod := range p.Modifiers {
		mark := dimStyle.Render(fmt.Sprintf("%s toku", mod.Cost.Format()))
		if mod.Owned {
			mark = affordStyle.Render("owned")
		}
		b.WriteString(fmt.Sprintf(" F%d %-22s %s\n", i+1, mod.Name, mark))
	}

	b.WriteString("\n" + headerStyle.Render("Zen") + " " + string(s.Idle.Phase) + "\n")
	b.WriteString(" " + m.zen.ViewAs(s.Idle.Progress) + "\n")

	switch {
	case s.Bonus.Boosted:
		total := m.game.Balance().Bonus.BoostSeconds
		frac := 0.0
		if total > 0 {
			frac = float64(s.Bonus.BoostRemainingSeconds) / total
		}
		b.WriteString(bellStyle.Render(fmt.Sprintf("Bell boost x%s  %ds", s.Bonus.Multiplier.Format(), s.Bonus.BoostRemainingSeconds)) + "\n")
		b.WriteString(" " + m.boost.ViewAs(frac) + "\n")
	case s.Bonus.Visible:
		b.WriteString(bellStyle.Render(fmt.Sprintf("A bell! press b (%ds)", s.Bonus.VisibleRemainingSeconds)) + "\n")
	}

	if lines := m.opts.Feed.Lines(); len(lines) > 0 {
		b.WriteString("\n")
		for _, l := range lines {
			b.WriteString(dimStyle.Render(" · "+l) + "\n")
		}
	}
	if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return frameStyle.Render(b.String())
}

// Run plays until the user quits or ctx is cancelled. The game is saved on
// the way out either way.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithReportFocus())
	final, err := p.Run()
	if fm, ok := final.(Model); ok && fm.err != nil {
		m.opts.Logger.Error("save failed", "slot", m.opts.Slot, "err", fm.err)
	}
	if err != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := m.save(flushCtx); serr != nil {
			return fmt.Errorf("%w (save also failed: %v)", err, serr)
		}
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
