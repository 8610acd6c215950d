// Package events provides the per-session domain event bus.
package events

import (
	"github.com/venh/typeclash/internal/model"
)

// Type names a domain event. The set is closed: every type has exactly
// one payload struct in this package.
type Type string

// Domain event types.
const (
	TypeStateChange    Type = "state-change"
	TypeWordStarted    Type = "word-started"
	TypeWordLocked     Type = "word-locked"
	TypeWordUnlocked   Type = "word-unlocked"
	TypeWordCompleted  Type = "word-completed"
	TypeWordFailed     Type = "word-failed"
	TypeActionExecuted Type = "action-executed"
	TypeDamageDealt    Type = "damage-dealt"
	TypeHealingApplied Type = "healing-applied"
	TypeGuardExecuted  Type = "guard-executed"
	TypeComboChanged   Type = "combo-changed"
	TypeGameOver       Type = "game-over"
	TypeSessionEnded   Type = "session-ended"
	TypeError          Type = "error"
)

// Event is implemented by every payload struct in this package.
type Event interface {
	EventType() Type
}

// StateChange carries old and new snapshots of a committed update.
type StateChange struct {
	Old model.GameState
	New model.GameState
}

// WordStarted announces a fresh candidate pair for a round.
type WordStarted struct {
	Words model.WordPair
	Round int
}

// WordLocked fires when input commits to one candidate.
type WordLocked struct {
	WordType model.WordType
	Word     model.Word
	Input    string
}

// WordUnlocked fires when a lock is released without completion.
type WordUnlocked struct {
	WordType model.WordType
}

// WordCompleted carries the finalized attempt and any anti-cheat flags.
type WordCompleted struct {
	Word  model.CompletedWord
	Flags []string
}

// WordFailed fires on incorrect input; combo has been reset.
type WordFailed struct {
	Input  string
	Reason string
}

// ActionExecuted carries the applied effect of a completed word.
type ActionExecuted struct {
	Result model.ActionResult
}

// DamageDealt reports damage applied to the enemy.
type DamageDealt struct {
	Amount   int
	Critical bool
	EnemyHP  int
}

// HealingApplied reports HP restored to the player.
type HealingApplied struct {
	Amount   int
	Critical bool
	PlayerHP int
}

// GuardExecuted reports the outcome of a guard mini-event.
type GuardExecuted struct {
	Blocked  int
	Received int
	Perfect  bool
}

// ComboChanged reports the new combo counter.
type ComboChanged struct {
	Combo    int
	MaxCombo int
}

// GameOver reports the final outcome and state.
type GameOver struct {
	Outcome model.Outcome
	State   model.GameState
}

// SessionEnded carries the finalized session record.
type SessionEnded struct {
	Result model.SessionResult
}

// Error wraps a recovered listener failure.
type Error struct {
	Err    error
	Source Type
}

func (StateChange) EventType() Type    { return TypeStateChange }
func (WordStarted) EventType() Type    { return TypeWordStarted }
func (WordLocked) EventType() Type     { return TypeWordLocked }
func (WordUnlocked) EventType() Type   { return TypeWordUnlocked }
func (WordCompleted) EventType() Type  { return TypeWordCompleted }
func (WordFailed) EventType() Type     { return TypeWordFailed }
func (ActionExecuted) EventType() Type { return TypeActionExecuted }
func (DamageDealt) EventType() Type    { return TypeDamageDealt }
func (HealingApplied) EventType() Type { return TypeHealingApplied }
func (GuardExecuted) EventType() Type  { return TypeGuardExecuted }
func (ComboChanged) EventType() Type   { return TypeComboChanged }
func (GameOver) EventType() Type       { return TypeGameOver }
func (SessionEnded) EventType() Type   { return TypeSessionEnded }
func (Error) EventType() Type          { return TypeError }
