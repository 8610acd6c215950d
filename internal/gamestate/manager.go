// Package gamestate owns the canonical battle state and validates
// every transition against the status graph and the global invariants.
package gamestate

import (
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"github.com/venh/typeclash/internal/events"
	"github.com/venh/typeclash/internal/model"
)

// Config tunes the state manager.
type Config struct {
	EnableHistory       bool
	MaxHistorySize      int
	ValidateTransitions bool
	EnableLogging       bool
	DefaultTimeLimit    int // seconds
	DefaultHP           int
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		EnableHistory:       true,
		MaxHistorySize:      100,
		ValidateTransitions: true,
		DefaultTimeLimit:    120,
		DefaultHP:           100,
	}
}

// Transition is one history record. The ring is bounded by
// MaxHistorySize; oldest entries are evicted first.
type Transition struct {
	From      model.GameState
	To        model.GameState
	Timestamp time.Time
	Trigger   string
	Valid     bool
}

// Update is a partial state change; nil fields are left untouched.
type Update struct {
	Status   *model.GameStatus
	HP       *model.HPState
	Words    *model.WordPair
	Locked   *model.WordType
	Combo    *int
	Stats    *model.GameStats
	TimeLeft *int
	Round    *int
}

// Subscriber receives a copy of every committed state.
type Subscriber func(model.GameState)

// Manager holds the canonical GameState. All mutation flows through
// its validated-update API; readers only ever get copies.
type Manager struct {
	cfg     Config
	state   model.GameState
	history []Transition
	subs    map[int]Subscriber
	nextSub int
	bus     *events.Bus
	machine *fsm.FSM
	log     zerolog.Logger
}

// Status graph event names.
const (
	evReady = "ready"
	evPlay  = "play"
	evPause = "pause"
	evEnd   = "end"
)

func newStatusMachine(initial model.GameStatus) *fsm.FSM {
	return fsm.NewFSM(
		string(initial),
		fsm.Events{
			{Name: evReady, Src: []string{string(model.GameLoading)}, Dst: string(model.GameReady)},
			{Name: evPlay, Src: []string{string(model.GameReady), string(model.GamePaused)}, Dst: string(model.GamePlaying)},
			{Name: evPause, Src: []string{string(model.GamePlaying)}, Dst: string(model.GamePaused)},
			{Name: evEnd, Src: []string{
				string(model.GameLoading), string(model.GameReady),
				string(model.GamePlaying), string(model.GamePaused),
			}, Dst: string(model.GameEnded)},
		},
		fsm.Callbacks{},
	)
}

func eventFor(status model.GameStatus) string {
	switch status {
	case model.GameReady:
		return evReady
	case model.GamePlaying:
		return evPlay
	case model.GamePaused:
		return evPause
	case model.GameEnded:
		return evEnd
	}
	return ""
}

// New builds a manager with a fresh default state. The bus is optional;
// when present every committed update emits a state-change event.
func New(cfg Config, bus *events.Bus, log zerolog.Logger) *Manager {
	if cfg.MaxHistorySize <= 0 {
		cfg.MaxHistorySize = 100
	}
	if cfg.DefaultTimeLimit <= 0 {
		cfg.DefaultTimeLimit = 120
	}
	if cfg.DefaultHP <= 0 {
		cfg.DefaultHP = 100
	}
	if !cfg.EnableLogging {
		log = zerolog.Nop()
	}
	m := &Manager{
		cfg:  cfg,
		subs: map[int]Subscriber{},
		bus:  bus,
		log:  log,
	}
	m.state = m.defaultState()
	m.machine = newStatusMachine(m.state.Status)
	return m
}

func (m *Manager) defaultState() model.GameState {
	hp := m.cfg.DefaultHP
	return model.GameState{
		Status:   model.GameLoading,
		HP:       model.HPState{Player: hp, PlayerMax: hp, Enemy: hp, EnemyMax: hp},
		Locked:   model.WordTypeNone,
		TimeLeft: m.cfg.DefaultTimeLimit,
		Round:    1,
	}
}

// State returns a copy of the current state.
func (m *Manager) State() model.GameState {
	return m.state.Clone()
}

// Subscribe registers a callback for every committed change and
// returns an unsubscribe function.
func (m *Manager) Subscribe(fn Subscriber) func() {
	m.nextSub++
	id := m.nextSub
	m.subs[id] = fn
	return func() { delete(m.subs, id) }
}

// History returns a copy of the transition records.
func (m *Manager) History() []Transition {
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// Apply merges the partial update, validates the result, and commits
// it. Invalid updates are rejected wholesale: the prior state is kept
// and the itemized problems are returned.
func (m *Manager) Apply(u Update, trigger string) (model.GameState, []string) {
	candidate := merge(m.state, u)
	problems := m.validate(m.state, candidate)
	m.record(m.state, candidate, trigger, len(problems) == 0)
	if len(problems) > 0 {
		m.log.Debug().Str("trigger", trigger).Strs("problems", problems).Msg("state update rejected")
		return m.state.Clone(), problems
	}
	m.commit(candidate, trigger)
	return m.state.Clone(), nil
}

// ApplyBatch validates a sequence of updates against a running
// hypothetical state and commits all of them or none.
func (m *Manager) ApplyBatch(updates []Update, trigger string) (model.GameState, []string) {
	hypothetical := m.state.Clone()
	for i, u := range updates {
		candidate := merge(hypothetical, u)
		if problems := m.validate(hypothetical, candidate); len(problems) > 0 {
			itemized := make([]string, 0, len(problems))
			for _, p := range problems {
				itemized = append(itemized, fmt.Sprintf("update %d: %s", i, p))
			}
			m.record(m.state, candidate, trigger, false)
			return m.state.Clone(), itemized
		}
		hypothetical = candidate
	}
	m.record(m.state, hypothetical, trigger, true)
	m.commit(hypothetical, trigger)
	return m.state.Clone(), nil
}

// UpdateHP clamps both sides into bounds rather than rejecting.
func (m *Manager) UpdateHP(player, enemy int, trigger string) model.GameState {
	hp := m.state.HP
	hp.Player = clampHP(player, hp.PlayerMax)
	hp.Enemy = clampHP(enemy, hp.EnemyMax)
	state, _ := m.Apply(Update{HP: &hp}, trigger)
	return state
}

// UpdateStats sanitizes the incoming stats (negatives floored to zero,
// accuracy clamped to [0,1]) before committing.
func (m *Manager) UpdateStats(stats model.GameStats, trigger string) model.GameState {
	stats.WPM = floorZero(stats.WPM)
	stats.Accuracy = clamp01(stats.Accuracy)
	stats.TotalDamage = floorZeroInt(stats.TotalDamage)
	stats.TotalHealing = floorZeroInt(stats.TotalHealing)
	stats.AttackCount = floorZeroInt(stats.AttackCount)
	stats.HealCount = floorZeroInt(stats.HealCount)
	stats.GuardCount = floorZeroInt(stats.GuardCount)
	stats.MaxCombo = floorZeroInt(stats.MaxCombo)
	stats.WordsCompleted = floorZeroInt(stats.WordsCompleted)
	state, _ := m.Apply(Update{Stats: &stats}, trigger)
	return state
}

// ApplyActionResult routes a completed action into HP, counters, and
// the combo, rolling the max combo forward.
func (m *Manager) ApplyActionResult(res model.ActionResult) model.GameState {
	hp := m.state.HP
	stats := m.state.Stats
	combo := m.state.Combo + 1

	switch res.Type {
	case model.WordTypeAttack:
		hp.Enemy = clampHP(hp.Enemy-res.Value, hp.EnemyMax)
		stats.TotalDamage += res.Value
		stats.AttackCount++
	case model.WordTypeHeal:
		hp.Player = clampHP(hp.Player+res.Value, hp.PlayerMax)
		stats.TotalHealing += res.Value
		stats.HealCount++
	case model.WordTypeGuard:
		hp.Player = clampHP(hp.Player-res.DamageReceived, hp.PlayerMax)
		stats.GuardCount++
	}
	stats.WordsCompleted++
	if combo > stats.MaxCombo {
		stats.MaxCombo = combo
	}

	state, _ := m.Apply(Update{HP: &hp, Stats: &stats, Combo: &combo}, "action:"+string(res.Type))
	return state
}

// SetWordLock commits a lock change; a no-op when already at the
// target value.
func (m *Manager) SetWordLock(wt model.WordType) model.GameState {
	if m.state.Locked == wt {
		return m.state.Clone()
	}
	state, _ := m.Apply(Update{Locked: &wt}, "word-lock")
	return state
}

// ResetCombo zeroes the combo counter.
func (m *Manager) ResetCombo(trigger string) model.GameState {
	zero := 0
	state, _ := m.Apply(Update{Combo: &zero}, trigger)
	return state
}

// Reset restores a fresh default state, or the supplied one.
func (m *Manager) Reset(state *model.GameState) model.GameState {
	next := m.defaultState()
	if state != nil {
		next = state.Clone()
	}
	old := m.state
	m.state = next
	m.machine.SetState(string(next.Status))
	m.record(old, next, "reset", true)
	m.notify(old, next)
	return m.state.Clone()
}

func (m *Manager) commit(next model.GameState, trigger string) {
	old := m.state
	m.state = next
	m.machine.SetState(string(next.Status))
	m.log.Debug().Str("trigger", trigger).Str("status", string(next.Status)).Msg("state committed")
	m.notify(old, next)
}

func (m *Manager) notify(old, next model.GameState) {
	for _, fn := range m.subs {
		m.safeNotify(fn, next)
	}
	if m.bus != nil {
		m.bus.Emit(events.StateChange{Old: old.Clone(), New: next.Clone()})
	}
}

// safeNotify keeps one faulty subscriber from breaking the others.
func (m *Manager) safeNotify(fn Subscriber, state model.GameState) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn().Interface("panic", r).Msg("subscriber panicked")
			if m.bus != nil {
				m.bus.Emit(events.Error{
					Err:    fmt.Errorf("subscriber panic: %v", r),
					Source: events.TypeStateChange,
				})
			}
		}
	}()
	fn(state.Clone())
}

func (m *Manager) validate(current, candidate model.GameState) []string {
	var problems []string

	if m.cfg.ValidateTransitions && candidate.Status != current.Status {
		if !m.canTransition(current.Status, candidate.Status) {
			problems = append(problems, fmt.Sprintf("illegal status transition %s -> %s", current.Status, candidate.Status))
		}
	}
	if candidate.HP.Player < 0 || candidate.HP.Player > candidate.HP.PlayerMax {
		problems = append(problems, fmt.Sprintf("player hp %d outside [0, %d]", candidate.HP.Player, candidate.HP.PlayerMax))
	}
	if candidate.HP.Enemy < 0 || candidate.HP.Enemy > candidate.HP.EnemyMax {
		problems = append(problems, fmt.Sprintf("enemy hp %d outside [0, %d]", candidate.HP.Enemy, candidate.HP.EnemyMax))
	}
	if candidate.Combo < 0 {
		problems = append(problems, fmt.Sprintf("combo %d negative", candidate.Combo))
	}
	if candidate.Stats.Accuracy < 0 || candidate.Stats.Accuracy > 1 {
		problems = append(problems, fmt.Sprintf("accuracy %v outside [0, 1]", candidate.Stats.Accuracy))
	}
	if candidate.TimeLeft < 0 {
		problems = append(problems, fmt.Sprintf("time left %d negative", candidate.TimeLeft))
	}
	if candidate.Round < 1 {
		problems = append(problems, fmt.Sprintf("round %d below 1", candidate.Round))
	}
	return problems
}

func (m *Manager) canTransition(from, to model.GameStatus) bool {
	if from == to {
		return true
	}
	ev := eventFor(to)
	if ev == "" {
		return false
	}
	m.machine.SetState(string(from))
	ok := m.machine.Can(ev)
	m.machine.SetState(string(m.state.Status))
	return ok
}

func (m *Manager) record(from, to model.GameState, trigger string, valid bool) {
	if !m.cfg.EnableHistory {
		return
	}
	m.history = append(m.history, Transition{
		From:      from.Clone(),
		To:        to.Clone(),
		Timestamp: time.Now(),
		Trigger:   trigger,
		Valid:     valid,
	})
	if len(m.history) > m.cfg.MaxHistorySize {
		m.history = m.history[len(m.history)-m.cfg.MaxHistorySize:]
	}
}

func merge(base model.GameState, u Update) model.GameState {
	next := base.Clone()
	if u.Status != nil {
		next.Status = *u.Status
	}
	if u.HP != nil {
		next.HP = *u.HP
	}
	if u.Words != nil {
		next.Words = *u.Words
		if u.Words.Guard != nil {
			g := *u.Words.Guard
			next.Words.Guard = &g
		}
	}
	if u.Locked != nil {
		next.Locked = *u.Locked
	}
	if u.Combo != nil {
		next.Combo = *u.Combo
	}
	if u.Stats != nil {
		next.Stats = *u.Stats
	}
	if u.TimeLeft != nil {
		next.TimeLeft = *u.TimeLeft
	}
	if u.Round != nil {
		next.Round = *u.Round
	}
	return next
}

func clampHP(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func floorZeroInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
