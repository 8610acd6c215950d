// Package engine orchestrates a battle: it owns the input buffer and
// word lock, drives the typing validator and combat math, applies
// results through the state manager, and emits domain events.
package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/venh/typeclash/internal/combat"
	"github.com/venh/typeclash/internal/events"
	"github.com/venh/typeclash/internal/gamestate"
	"github.com/venh/typeclash/internal/model"
	"github.com/venh/typeclash/internal/typing"
	"github.com/venh/typeclash/internal/wordpool"
)

// Config tunes a battle.
type Config struct {
	Difficulty  model.Difficulty
	PlayerLevel int
	TimeLimit   int // seconds, 0 means state-manager default
	// EnemyAttackEvery is the number of quiet seconds before the enemy
	// telegraphs an attack. The guard mini-event opens with it.
	EnemyAttackEvery int
	GuardWindow      int // seconds to finish the guard word
	EnemyBaseDamage  int
	AvoidRecent      bool

	State  gamestate.Config
	Typing typing.Config
}

// DefaultConfig returns the standard battle settings.
func DefaultConfig() Config {
	return Config{
		Difficulty:       model.DifficultyNormal,
		PlayerLevel:      1,
		EnemyAttackEvery: 8,
		GuardWindow:      5,
		EnemyBaseDamage:  10,
		AvoidRecent:      true,
		State:            gamestate.DefaultConfig(),
		Typing:           typing.DefaultConfig(),
	}
}

// Deps are the injectable collaborators: the clock and random source
// keep battles reproducible in tests.
type Deps struct {
	Clock func() time.Time
	Rand  *rand.Rand
	Log   zerolog.Logger
}

// pendingKey is a buffered keystroke typed before any lock resolved.
type pendingKey struct {
	key string
	at  time.Time
}

// telegraph is an announced enemy attack awaiting the guard word.
type telegraph struct {
	damage    int
	ticksLeft int
}

// Game is the per-session orchestrator. It is single-threaded: callers
// serialize ProcessKeystroke and Tick.
type Game struct {
	id  string
	cfg Config

	bus       *events.Bus
	state     *gamestate.Manager
	pool      *wordpool.Manager
	validator *typing.Validator
	calc      *combat.Calculator

	clock func() time.Time
	rnd   *rand.Rand
	log   zerolog.Logger

	buffer  string
	pending []pendingKey
	session *typing.Session
	locked  model.WordType

	incoming   *telegraph
	quietTicks int

	seed      model.SessionSeed
	startedAt time.Time
	sumWPM    float64
	sumAcc    float64
	scored    int
	result    *model.SessionResult
}

// New builds a game from a session seed. An empty or malformed word
// pool is fatal; everything after construction recovers locally.
func New(seed model.SessionSeed, cfg Config, deps Deps) (*Game, error) {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(deps.Clock().UnixNano()))
	}
	if seed.SessionID == "" {
		seed.SessionID = uuid.NewString()
	}
	if seed.Difficulty != "" {
		cfg.Difficulty = seed.Difficulty
	}
	if seed.TimeLimit > 0 {
		cfg.TimeLimit = seed.TimeLimit
	}
	if cfg.EnemyAttackEvery <= 0 {
		cfg.EnemyAttackEvery = 8
	}
	if cfg.GuardWindow <= 0 {
		cfg.GuardWindow = 5
	}
	if cfg.EnemyBaseDamage <= 0 {
		cfg.EnemyBaseDamage = 10
	}
	if cfg.TimeLimit > 0 {
		cfg.State.DefaultTimeLimit = cfg.TimeLimit
	}

	pool, err := wordpool.New(seed.Words, deps.Rand)
	if err != nil {
		return nil, fmt.Errorf("session seed: %w", err)
	}

	log := deps.Log.With().Str("session", seed.SessionID).Logger()
	bus := events.NewBus()
	g := &Game{
		id:        seed.SessionID,
		cfg:       cfg,
		bus:       bus,
		state:     gamestate.New(cfg.State, bus, log),
		pool:      pool,
		validator: typing.NewValidator(cfg.Typing),
		calc:      combat.New(deps.Rand),
		clock:     deps.Clock,
		rnd:       deps.Rand,
		log:       log,
		seed:      seed,
	}
	return g, nil
}

// ID returns the session id.
func (g *Game) ID() string { return g.id }

// Bus returns the session event bus.
func (g *Game) Bus() *events.Bus { return g.bus }

// State returns a copy of the current game state.
func (g *Game) State() model.GameState { return g.state.State() }

// IncomingAttack reports a telegraphed enemy attack and the seconds
// left to guard against it.
func (g *Game) IncomingAttack() (damage, secondsLeft int, ok bool) {
	if g.incoming == nil {
		return 0, 0, false
	}
	return g.incoming.damage, g.incoming.ticksLeft, true
}

// Input returns the current raw input buffer.
func (g *Game) Input() string { return g.buffer }

// Result returns the finalized session record once the game has ended.
func (g *Game) Result() (model.SessionResult, bool) {
	if g.result == nil {
		return model.SessionResult{}, false
	}
	return *g.result, true
}

// Mount selects the first word pair and moves the game to ready.
func (g *Game) Mount() error {
	if g.state.State().Status != model.GameLoading {
		return fmt.Errorf("mount: game already mounted")
	}
	if err := g.nextWords(1); err != nil {
		return err
	}
	status := model.GameReady
	if _, problems := g.state.Apply(gamestate.Update{Status: &status}, "mount"); len(problems) > 0 {
		return fmt.Errorf("mount: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Start begins play.
func (g *Game) Start() error {
	status := model.GamePlaying
	if _, problems := g.state.Apply(gamestate.Update{Status: &status}, "start"); len(problems) > 0 {
		return fmt.Errorf("start: %s", strings.Join(problems, "; "))
	}
	g.startedAt = g.clock()
	g.log.Info().Str("difficulty", string(g.cfg.Difficulty)).Msg("battle started")
	return nil
}

// Pause suspends play; keystrokes and ticks are ignored while paused.
func (g *Game) Pause() error {
	status := model.GamePaused
	if _, problems := g.state.Apply(gamestate.Update{Status: &status}, "pause"); len(problems) > 0 {
		return fmt.Errorf("pause: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Resume continues a paused game.
func (g *Game) Resume() error {
	status := model.GamePlaying
	if _, problems := g.state.Apply(gamestate.Update{Status: &status}, "resume"); len(problems) > 0 {
		return fmt.Errorf("resume: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Destroy aborts a running game and tears down the bus. Destroying an
// ended game only closes the bus.
func (g *Game) Destroy() {
	if g.state.State().Status != model.GameEnded {
		g.finish(model.OutcomeAbort)
	}
	g.bus.Close()
}

// ProcessKeystroke feeds one raw key event through the lock machine.
// All outcomes surface as events; invalid input never hard-fails.
func (g *Game) ProcessKeystroke(key string) {
	if g.state.State().Status != model.GamePlaying {
		return
	}
	now := g.clock()

	if key == typing.KeyBackspace {
		g.handleBackspace(now)
		return
	}
	if key == typing.KeyEnter {
		g.handleEnter(now)
		return
	}
	if err := g.validator.ValidateKeystroke(key, g.session, now); err != nil {
		g.failWord(g.buffer, err.Error())
		return
	}

	if g.incoming != nil {
		g.guardKeystroke(key, now)
		return
	}
	if g.locked != model.WordTypeNone {
		g.lockedKeystroke(key, now)
		return
	}
	g.unlockedKeystroke(key, now)
}

// Tick advances the turn timer by one second and drives the enemy
// attack telegraph. Callers invoke it once per second of play.
func (g *Game) Tick() {
	state := g.state.State()
	if state.Status != model.GamePlaying {
		return
	}

	left := state.TimeLeft - 1
	if left < 0 {
		left = 0
	}
	g.state.Apply(gamestate.Update{TimeLeft: &left}, "tick")

	if g.incoming != nil {
		g.incoming.ticksLeft--
		if g.incoming.ticksLeft <= 0 {
			g.resolveUnguarded()
		}
	} else {
		g.quietTicks++
		if g.canTelegraph(state) {
			g.startTelegraph(state)
		}
	}

	if left == 0 && g.state.State().Status == model.GamePlaying {
		g.finishByTimeout()
	}
}

// unlockedKeystroke resolves the two-candidate prefix race.
func (g *Game) unlockedKeystroke(key string, now time.Time) {
	candidate := g.buffer + key
	state := g.state.State()
	heal, attack := state.Words.Heal, state.Words.Attack

	// An exact completion wins even while still a prefix of the other
	// candidate ("cat" against "cat"/"cats").
	if equalFold(candidate, heal.Text) {
		g.lock(model.WordTypeHeal, heal, key, candidate, now)
		g.finalize(now)
		return
	}
	if equalFold(candidate, attack.Text) {
		g.lock(model.WordTypeAttack, attack, key, candidate, now)
		g.finalize(now)
		return
	}

	healMatch := prefixFold(heal.Text, candidate)
	attackMatch := prefixFold(attack.Text, candidate)
	switch {
	case healMatch && attackMatch:
		// Ambiguous: wait for a disambiguating character.
		g.buffer = candidate
		g.pending = append(g.pending, pendingKey{key: key, at: now})
	case healMatch:
		g.lock(model.WordTypeHeal, heal, key, candidate, now)
	case attackMatch:
		g.lock(model.WordTypeAttack, attack, key, candidate, now)
	default:
		g.failWord(candidate, "no candidate matches input")
	}
}

// lockedKeystroke extends a committed attempt. A single wrong
// character unlocks and resets the combo.
func (g *Game) lockedKeystroke(key string, now time.Time) {
	input := g.buffer + key
	word := g.session.Word
	if !prefixFold(word.Text, input) {
		g.unlock()
		g.failWord(input, "input diverged from locked word")
		return
	}
	g.session.Update(key, input, now)
	g.buffer = input
	if equalFold(input, word.Text) {
		g.finalize(now)
	}
}

// lock commits to one candidate, replaying any keystrokes buffered
// while the prefix race was ambiguous.
func (g *Game) lock(wt model.WordType, word model.Word, key, input string, now time.Time) {
	start := now
	if len(g.pending) > 0 {
		start = g.pending[0].at
	}
	g.session = typing.NewSession(word, start)
	partial := ""
	for _, pk := range g.pending {
		partial += pk.key
		g.session.Update(pk.key, partial, pk.at)
	}
	g.session.Update(key, input, now)
	g.pending = nil
	g.buffer = input
	g.locked = wt
	g.pool.Lock().Lock(wt)
	g.state.SetWordLock(wt)
	g.bus.Emit(events.WordLocked{WordType: wt, Word: word, Input: input})
}

// unlock releases the lock without completing the word.
func (g *Game) unlock() {
	wt := g.locked
	g.locked = model.WordTypeNone
	g.session = nil
	g.pool.Lock().Unlock()
	g.state.SetWordLock(model.WordTypeNone)
	if wt != model.WordTypeNone {
		g.bus.Emit(events.WordUnlocked{WordType: wt})
	}
}

// failWord is the shared incorrect-input path: combo resets, input
// clears, play continues with the same candidates.
func (g *Game) failWord(input, reason string) {
	if g.locked != model.WordTypeNone {
		g.unlock()
	}
	g.buffer = ""
	g.pending = nil
	state := g.state.ResetCombo("word-failed")
	g.bus.Emit(events.WordFailed{Input: input, Reason: reason})
	g.bus.Emit(events.ComboChanged{Combo: state.Combo, MaxCombo: state.Stats.MaxCombo})
}

func (g *Game) handleBackspace(now time.Time) {
	if g.buffer == "" {
		return
	}
	runes := []rune(g.buffer)
	g.buffer = string(runes[:len(runes)-1])
	if g.session != nil {
		// A backspace is a correction event; it never unlocks.
		g.session.Update(typing.KeyBackspace, g.buffer, now)
	} else if len(g.pending) > 0 {
		g.pending = g.pending[:len(g.pending)-1]
	}
}

func (g *Game) handleEnter(now time.Time) {
	if g.session == nil {
		return
	}
	if equalFold(g.buffer, g.session.Word.Text) {
		g.finalize(now)
	}
}

// finalize converts the session into a completed word, resolves the
// action, applies it, and advances the round.
func (g *Game) finalize(now time.Time) {
	wt := g.locked
	if g.incoming != nil {
		wt = model.WordTypeGuard
	}
	cw, flags := g.validator.CompleteWord(g.session, now)
	g.bus.Emit(events.WordCompleted{Word: cw, Flags: flags})

	state := g.state.State()
	cfg := combat.Config{
		Difficulty:  g.cfg.Difficulty,
		PlayerLevel: g.cfg.PlayerLevel,
		Combo:       state.Combo,
		TimeLeft:    state.TimeLeft,
		TimeTotal:   g.cfg.State.DefaultTimeLimit,
	}

	var action model.ActionResult
	switch wt {
	case model.WordTypeHeal:
		res := g.calc.HealingAmount(cw, cfg)
		action = combat.HealAction(cw, res)
	case model.WordTypeAttack:
		res := g.calc.AttackDamage(cw, cfg)
		action = combat.AttackAction(cw, res)
	case model.WordTypeGuard:
		incoming := g.incoming.damage
		res := g.calc.GuardEffectiveness(cw, incoming)
		action = combat.GuardAction(cw, res, incoming)
	default:
		return
	}

	applied := g.state.ApplyActionResult(action)
	g.bus.Emit(events.ActionExecuted{Result: action})
	switch wt {
	case model.WordTypeAttack:
		g.bus.Emit(events.DamageDealt{Amount: action.Value, Critical: action.IsCritical, EnemyHP: applied.HP.Enemy})
	case model.WordTypeHeal:
		g.bus.Emit(events.HealingApplied{Amount: action.Value, Critical: action.IsCritical, PlayerHP: applied.HP.Player})
	case model.WordTypeGuard:
		g.bus.Emit(events.GuardExecuted{Blocked: action.Value, Received: action.DamageReceived, Perfect: action.IsCritical})
		g.incoming = nil
		g.quietTicks = 0
	}
	g.bus.Emit(events.ComboChanged{Combo: applied.Combo, MaxCombo: applied.Stats.MaxCombo})

	g.sumWPM += cw.WPM
	g.sumAcc += cw.Accuracy
	g.scored++
	stats := applied.Stats
	stats.WPM = g.sumWPM / float64(g.scored)
	stats.Accuracy = g.sumAcc / float64(g.scored)
	g.state.UpdateStats(stats, "metrics")

	g.buffer = ""
	g.pending = nil
	g.session = nil
	g.locked = model.WordTypeNone
	g.pool.Lock().Unlock()
	g.state.SetWordLock(model.WordTypeNone)

	final := g.state.State()
	switch {
	case final.HP.Enemy <= 0:
		g.finish(model.OutcomeWin)
	case final.HP.Player <= 0:
		g.finish(model.OutcomeLose)
	case wt != model.WordTypeGuard:
		g.validator.NewRound()
		if err := g.nextWords(final.Round + 1); err != nil {
			g.log.Error().Err(err).Msg("word selection failed")
			g.bus.Emit(events.Error{Err: err, Source: events.TypeWordStarted})
		}
	}
}

// guardKeystroke runs the timed guard mini-event: the guard word is
// the only candidate while an attack is telegraphed. A wrong character
// clears the guard input without touching the combo.
func (g *Game) guardKeystroke(key string, now time.Time) {
	state := g.state.State()
	guard := state.Words.Guard
	if guard == nil {
		return
	}
	input := g.buffer + key
	if !prefixFold(guard.Text, input) {
		g.buffer = ""
		if g.session != nil {
			g.unlock()
		}
		g.bus.Emit(events.WordFailed{Input: input, Reason: "guard input mismatch"})
		return
	}
	if g.session == nil {
		g.session = typing.NewSession(*guard, now)
		g.locked = model.WordTypeGuard
		g.pool.Lock().Lock(model.WordTypeGuard)
		g.state.SetWordLock(model.WordTypeGuard)
		g.bus.Emit(events.WordLocked{WordType: model.WordTypeGuard, Word: *guard, Input: input})
	}
	g.session.Update(key, input, now)
	g.buffer = input
	if equalFold(input, guard.Text) {
		g.finalize(now)
	}
}

// canTelegraph gates the enemy attack: the quiet interval has elapsed,
// a guard word exists, and the player is not mid-word.
func (g *Game) canTelegraph(state model.GameState) bool {
	return g.quietTicks >= g.cfg.EnemyAttackEvery &&
		state.Words.Guard != nil &&
		g.locked == model.WordTypeNone &&
		g.buffer == ""
}

func (g *Game) startTelegraph(state model.GameState) {
	g.incoming = &telegraph{
		damage:    g.enemyDamage(state.Round),
		ticksLeft: g.cfg.GuardWindow,
	}
	g.quietTicks = 0
	g.log.Debug().Int("damage", g.incoming.damage).Msg("enemy attack telegraphed")
}

// resolveUnguarded lands the telegraphed attack at full strength.
func (g *Game) resolveUnguarded() {
	dmg := g.incoming.damage
	g.incoming = nil
	g.quietTicks = 0
	if g.locked == model.WordTypeGuard {
		g.unlock()
		g.buffer = ""
	}
	state := g.state.State()
	applied := g.state.UpdateHP(state.HP.Player-dmg, state.HP.Enemy, "enemy-attack")
	g.bus.Emit(events.GuardExecuted{Blocked: 0, Received: dmg})
	if applied.HP.Player <= 0 {
		g.finish(model.OutcomeLose)
	}
}

// enemyDamage scales with round and difficulty.
func (g *Game) enemyDamage(round int) int {
	dmg := float64(g.cfg.EnemyBaseDamage + round/2)
	switch g.cfg.Difficulty {
	case model.DifficultyEasy:
		dmg *= 0.8
	case model.DifficultyHard:
		dmg *= 1.3
	}
	if dmg < 1 {
		return 1
	}
	return int(dmg + 0.5)
}

// nextWords draws a fresh candidate pair and commits the new round.
func (g *Game) nextWords(round int) error {
	pair, err := g.pool.SelectWords(wordpool.SelectOptions{
		Difficulty:  g.cfg.Difficulty,
		PlayerLevel: g.cfg.PlayerLevel,
		Round:       round,
		AvoidRecent: g.cfg.AvoidRecent,
	})
	if err != nil {
		return fmt.Errorf("select words: %w", err)
	}
	if _, problems := g.state.Apply(gamestate.Update{Words: &pair, Round: &round}, "word-started"); len(problems) > 0 {
		return fmt.Errorf("commit words: %s", strings.Join(problems, "; "))
	}
	g.bus.Emit(events.WordStarted{Words: pair, Round: round})
	return nil
}

// finishByTimeout decides the outcome by remaining HP when the clock
// runs out. The tie goes to the enemy.
func (g *Game) finishByTimeout() {
	state := g.state.State()
	if state.HP.Player > state.HP.Enemy {
		g.finish(model.OutcomeWin)
		return
	}
	g.finish(model.OutcomeLose)
}

func (g *Game) finish(outcome model.Outcome) {
	status := model.GameEnded
	state, _ := g.state.Apply(gamestate.Update{Status: &status}, "game-over")
	g.buffer = ""
	g.pending = nil
	g.session = nil
	g.locked = model.WordTypeNone
	g.incoming = nil

	now := g.clock()
	started := g.startedAt
	if started.IsZero() {
		started = now
	}
	report := g.validator.Report()
	g.result = &model.SessionResult{
		SessionID:  g.id,
		PackID:     g.seed.PackID,
		Difficulty: g.cfg.Difficulty,
		StartedAt:  started,
		EndedAt:    now,
		Outcome:    outcome,
		Rounds:     state.Round,
		Stats:      state.Stats,
		Risk:       report.Risk,
		DurationMs: now.Sub(started).Milliseconds(),
	}
	g.log.Info().Str("outcome", string(outcome)).Int("rounds", state.Round).Str("risk", report.Risk).Msg("battle ended")
	g.bus.Emit(events.GameOver{Outcome: outcome, State: state})
	g.bus.Emit(events.SessionEnded{Result: *g.result})
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

func prefixFold(word, input string) bool {
	w := strings.ToLower(word)
	in := strings.ToLower(input)
	return strings.HasPrefix(w, in)
}
