// Package model defines shared data structures.
package model

import "time"

// Difficulty selects the battle difficulty tier.
type Difficulty string

// Difficulty tiers.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// WordType identifies which role a candidate word plays in a round.
type WordType string

// Word roles. WordTypeNone means no word is locked.
const (
	WordTypeNone   WordType = ""
	WordTypeHeal   WordType = "heal"
	WordTypeAttack WordType = "attack"
	WordTypeGuard  WordType = "guard"
)

// GameStatus is the lifecycle phase of a battle.
type GameStatus string

// Battle lifecycle phases. GameEnded is terminal.
const (
	GameLoading GameStatus = "loading"
	GameReady   GameStatus = "ready"
	GamePlaying GameStatus = "playing"
	GamePaused  GameStatus = "paused"
	GameEnded   GameStatus = "ended"
)

// Outcome is the final result of a battle.
type Outcome string

// Battle outcomes.
const (
	OutcomeWin   Outcome = "win"
	OutcomeLose  Outcome = "lose"
	OutcomeAbort Outcome = "abort"
)

// MinSuccessAccuracy is the accuracy below which an action is marked
// unsuccessful. The numeric effect still applies.
const MinSuccessAccuracy = 0.7

// Word is a unit of typing content drawn from the session pool.
type Word struct {
	ID          string
	Text        string
	Level       int // 1..5
	Category    string
	Length      int
	ExpectedWPM float64 // 0 means derive from level and length
}

// KeystrokePattern summarizes per-key timing of one attempt.
type KeystrokePattern struct {
	IntervalsMs []int64
	Corrections int
	Backspaces  int
	LongestRun  int
}

// CompletedWord is a word plus the outcome of one typing attempt.
type CompletedWord struct {
	Word      Word
	TypedText string
	TimeMs    int64
	Errors    int
	Accuracy  float64
	WPM       float64
	Score     float64
	Pattern   *KeystrokePattern
}

// HPState holds current and maximum hit points for both sides.
type HPState struct {
	Player    int
	PlayerMax int
	Enemy     int
	EnemyMax  int
}

// GameStats accumulates battle statistics.
type GameStats struct {
	WPM            float64
	Accuracy       float64
	TotalDamage    int
	TotalHealing   int
	AttackCount    int
	HealCount      int
	GuardCount     int
	MaxCombo       int
	WordsCompleted int
}

// WordPair is the candidate word set for one round. Guard is optional.
type WordPair struct {
	Heal   Word
	Attack Word
	Guard  *Word
}

// GameState is the canonical battle snapshot. It is owned by the state
// manager; external readers receive copies.
type GameState struct {
	Status   GameStatus
	HP       HPState
	Words    WordPair
	Locked   WordType
	Combo    int
	Stats    GameStats
	TimeLeft int // seconds
	Round    int
}

// Clone returns a deep copy of the state.
func (s GameState) Clone() GameState {
	out := s
	if s.Words.Guard != nil {
		g := *s.Words.Guard
		out.Words.Guard = &g
	}
	return out
}

// ActionResult is the applied effect of one completed word.
type ActionResult struct {
	Type           WordType
	Value          int // damage dealt, HP healed, or damage blocked
	DamageReceived int // guard only: incoming damage that got through
	IsCritical     bool
	Success        bool
}

// SessionSeed initializes the word pool and difficulty for a battle.
type SessionSeed struct {
	SessionID  string
	PackID     string
	Difficulty Difficulty
	Words      []Word
	TimeLimit  int // seconds, 0 means default
}

// SessionResult captures a finished battle for persistence.
type SessionResult struct {
	SessionID  string
	PackID     string
	Difficulty Difficulty
	StartedAt  time.Time
	EndedAt    time.Time
	Outcome    Outcome
	Rounds     int
	Stats      GameStats
	Risk       string
	DurationMs int64
}
