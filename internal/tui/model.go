// Package tui provides the Bubble Tea battle interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/venh/typeclash/internal/engine"
	"github.com/venh/typeclash/internal/model"
	"github.com/venh/typeclash/internal/store"
	"github.com/venh/typeclash/internal/typing"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	lockedPanelStyle = panelStyle.
				BorderForeground(lipgloss.Color("#C89A3A"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	typedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5AD67D"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	alertStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	flashStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	gameOverStyle = lipgloss.NewStyle().Bold(true).Padding(1, 2)
)

type tickMsg time.Time

// Model implements the Bubble Tea battle UI. It is also the engine's
// Presentation: domain events land here and become display state.
type Model struct {
	game  *engine.Game
	store *store.Store

	playerBar progress.Model
	enemyBar  progress.Model

	width  int
	height int

	flash     string
	actions   []store.ActionRecord
	lastCW    *model.CompletedWord
	lastFlags []string
	saved     bool
	detach    func()
}

// NewModel constructs a battle TUI bound to a mounted game. The store
// is optional; when present the finished battle is persisted.
func NewModel(g *engine.Game, st *store.Store) *Model {
	m := &Model{
		game:      g,
		store:     st,
		playerBar: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		enemyBar:  progress.New(progress.WithScaledGradient("#FF4D4F", "#FFB14D"), progress.WithoutPercentage()),
	}
	m.detach = engine.Attach(g, m)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if err := m.game.Start(); err != nil {
		m.flash = err.Error()
	}
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		barWidth := m.width/2 - 10
		if barWidth < 10 {
			barWidth = 10
		}
		m.playerBar.Width = barWidth
		m.enemyBar.Width = barWidth
		return m, nil
	case tickMsg:
		m.game.Tick()
		if m.game.State().Status == model.GameEnded {
			m.persist()
			return m, nil
		}
		return m, tickCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.game.Destroy()
		m.persist()
		m.detach()
		return m, tea.Quit
	case tea.KeyBackspace:
		m.game.ProcessKeystroke(typing.KeyBackspace)
	case tea.KeyEnter:
		if m.game.State().Status == model.GameEnded {
			m.detach()
			return m, tea.Quit
		}
		m.game.ProcessKeystroke(typing.KeyEnter)
	case tea.KeySpace:
		m.game.ProcessKeystroke(" ")
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.game.ProcessKeystroke(string(r))
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	state := m.game.State()
	if state.Status == model.GameEnded {
		return m.viewGameOver(state)
	}

	header := m.viewHP(state)
	words := m.viewWords(state)
	input := "> " + m.game.Input()
	footer := m.viewFooter(state)

	sections := []string{header, "", words, "", input}
	if dmg, left, ok := m.game.IncomingAttack(); ok {
		sections = append(sections, alertStyle.Render(
			fmt.Sprintf("Incoming attack: %d damage in %ds — type the guard word!", dmg, left)))
	}
	if m.flash != "" {
		sections = append(sections, flashStyle.Render(m.flash))
	}
	sections = append(sections, "", footer)

	content := strings.Join(sections, "\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) viewHP(state model.GameState) string {
	player := fmt.Sprintf("You %3d/%3d %s", state.HP.Player, state.HP.PlayerMax,
		m.playerBar.ViewAs(ratio(state.HP.Player, state.HP.PlayerMax)))
	enemy := fmt.Sprintf("Foe %3d/%3d %s", state.HP.Enemy, state.HP.EnemyMax,
		m.enemyBar.ViewAs(ratio(state.HP.Enemy, state.HP.EnemyMax)))
	return player + "\n" + enemy
}

func (m *Model) viewWords(state model.GameState) string {
	panels := []string{
		m.wordPanel("HEAL", state.Words.Heal.Text, state.Locked == model.WordTypeHeal),
		m.wordPanel("ATTACK", state.Words.Attack.Text, state.Locked == model.WordTypeAttack),
	}
	if state.Words.Guard != nil {
		panels = append(panels, m.wordPanel("GUARD", state.Words.Guard.Text, state.Locked == model.WordTypeGuard))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

func (m *Model) wordPanel(label, text string, locked bool) string {
	body := labelStyle.Render(label) + "\n" + renderWord(text, m.game.Input(), locked)
	if locked {
		return lockedPanelStyle.Render(body)
	}
	return panelStyle.Render(body)
}

// renderWord shows the typed prefix of a locked word in a distinct
// style; unlocked words render plain, padded to their display width.
func renderWord(text, input string, locked bool) string {
	if !locked || input == "" {
		return pendingStyle.Render(padWord(text))
	}
	runes := []rune(text)
	n := len([]rune(input))
	if n > len(runes) {
		n = len(runes)
	}
	typed := typedStyle.Render(string(runes[:n]))
	rest := pendingStyle.Render(padWord(string(runes[n:])))
	return typed + rest
}

// padWord keeps panels from collapsing on short words.
func padWord(text string) string {
	const minWidth = 10
	if w := runewidth.StringWidth(text); w < minWidth {
		return text + strings.Repeat(" ", minWidth-w)
	}
	return text
}

func (m *Model) viewFooter(state model.GameState) string {
	segments := []string{
		formatClock(state.TimeLeft),
		fmt.Sprintf("Round %d", state.Round),
		fmt.Sprintf("Combo x%d", state.Combo),
	}
	if state.Stats.WordsCompleted > 0 {
		segments = append(segments, fmt.Sprintf("%.1f WPM · %.1f%%",
			state.Stats.WPM, state.Stats.Accuracy*100))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) viewGameOver(state model.GameState) string {
	res, ok := m.game.Result()
	if !ok {
		return gameOverStyle.Render("Battle over.")
	}
	var title string
	switch res.Outcome {
	case model.OutcomeWin:
		title = "VICTORY"
	case model.OutcomeLose:
		title = "DEFEAT"
	default:
		title = "BATTLE ABORTED"
	}
	lines := []string{
		title,
		"",
		fmt.Sprintf("Rounds: %d   Max combo: %d", res.Rounds, state.Stats.MaxCombo),
		fmt.Sprintf("WPM: %.1f   Accuracy: %.1f%%", res.Stats.WPM, res.Stats.Accuracy*100),
		fmt.Sprintf("Damage dealt: %d   Healing: %d", res.Stats.TotalDamage, res.Stats.TotalHealing),
		"",
		footerStyle.Render("Press Enter to exit"),
	}
	content := gameOverStyle.Render(strings.Join(lines, "\n"))
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// formatClock renders remaining seconds as m:ss.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func ratio(v, max int) float64 {
	if max <= 0 {
		return 0
	}
	return float64(v) / float64(max)
}

func (m *Model) persist() {
	if m.saved || m.store == nil {
		return
	}
	res, ok := m.game.Result()
	if !ok {
		return
	}
	m.saved = true
	ctx := context.Background()
	if err := m.store.InsertBattle(ctx, res, m.actions); err != nil {
		logErrf("failed to save battle: %v\n", err)
	}
}

// Presentation implementation: events become display state.

// OnStateChange implements engine.Presentation.
func (m *Model) OnStateChange(prev, next model.GameState) {}

// OnWordStarted implements engine.Presentation.
func (m *Model) OnWordStarted(words model.WordPair, round int) {
	m.flash = ""
}

// OnWordLocked implements engine.Presentation.
func (m *Model) OnWordLocked(wordType model.WordType, word model.Word, input string) {
	m.flash = ""
}

// OnWordUnlocked implements engine.Presentation.
func (m *Model) OnWordUnlocked(wordType model.WordType) {}

// OnWordCompleted implements engine.Presentation.
func (m *Model) OnWordCompleted(word model.CompletedWord, flags []string) {
	cw := word
	m.lastCW = &cw
	m.lastFlags = flags
}

// OnWordFailed implements engine.Presentation.
func (m *Model) OnWordFailed(input, reason string) {
	m.flash = "Miss! Combo lost."
}

// OnActionExecuted implements engine.Presentation.
func (m *Model) OnActionExecuted(result model.ActionResult) {
	rec := store.ActionRecord{
		Seq:            len(m.actions) + 1,
		WordType:       result.Type,
		Value:          result.Value,
		DamageReceived: result.DamageReceived,
		Critical:       result.IsCritical,
		Success:        result.Success,
	}
	if m.lastCW != nil {
		rec.WordText = m.lastCW.Word.Text
		rec.Accuracy = m.lastCW.Accuracy
		rec.WPM = m.lastCW.WPM
		rec.TimeMs = m.lastCW.TimeMs
		rec.Flags = strings.Join(m.lastFlags, ",")
	}
	m.actions = append(m.actions, rec)
	m.lastCW = nil
	m.lastFlags = nil

	switch result.Type {
	case model.WordTypeAttack:
		m.flash = fmt.Sprintf("Hit for %d!", result.Value)
	case model.WordTypeHeal:
		m.flash = fmt.Sprintf("Healed %d.", result.Value)
	}
	if result.IsCritical {
		m.flash += " CRITICAL!"
	}
}

// OnGuardExecuted implements engine.Presentation.
func (m *Model) OnGuardExecuted(blocked, received int, perfect bool) {
	switch {
	case perfect:
		m.flash = "Perfect guard!"
	case blocked > 0:
		m.flash = fmt.Sprintf("Blocked %d, took %d.", blocked, received)
	default:
		m.flash = fmt.Sprintf("Took %d damage!", received)
	}
}

// OnComboChanged implements engine.Presentation.
func (m *Model) OnComboChanged(combo, maxCombo int) {}

// OnGameOver implements engine.Presentation.
func (m *Model) OnGameOver(outcome model.Outcome, state model.GameState) {
	m.persist()
}

func logErrf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
