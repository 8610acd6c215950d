package engine

import (
	"github.com/venh/typeclash/internal/events"
	"github.com/venh/typeclash/internal/model"
)

// Presentation is the contract a rendering layer implements. The core
// never depends on a concrete renderer; it calls these capability
// methods through the session bus.
type Presentation interface {
	OnStateChange(prev, next model.GameState)
	OnWordStarted(words model.WordPair, round int)
	OnWordLocked(wordType model.WordType, word model.Word, input string)
	OnWordUnlocked(wordType model.WordType)
	OnWordCompleted(word model.CompletedWord, flags []string)
	OnWordFailed(input, reason string)
	OnActionExecuted(result model.ActionResult)
	OnGuardExecuted(blocked, received int, perfect bool)
	OnComboChanged(combo, maxCombo int)
	OnGameOver(outcome model.Outcome, state model.GameState)
}

// Attach subscribes a presentation to every event it renders and
// returns a closure detaching all of them.
func Attach(g *Game, p Presentation) func() {
	bus := g.Bus()
	unsubs := []func(){
		bus.Subscribe(events.TypeStateChange, func(e events.Event) {
			ev := e.(events.StateChange)
			p.OnStateChange(ev.Old, ev.New)
		}),
		bus.Subscribe(events.TypeWordStarted, func(e events.Event) {
			ev := e.(events.WordStarted)
			p.OnWordStarted(ev.Words, ev.Round)
		}),
		bus.Subscribe(events.TypeWordLocked, func(e events.Event) {
			ev := e.(events.WordLocked)
			p.OnWordLocked(ev.WordType, ev.Word, ev.Input)
		}),
		bus.Subscribe(events.TypeWordUnlocked, func(e events.Event) {
			p.OnWordUnlocked(e.(events.WordUnlocked).WordType)
		}),
		bus.Subscribe(events.TypeWordCompleted, func(e events.Event) {
			ev := e.(events.WordCompleted)
			p.OnWordCompleted(ev.Word, ev.Flags)
		}),
		bus.Subscribe(events.TypeWordFailed, func(e events.Event) {
			ev := e.(events.WordFailed)
			p.OnWordFailed(ev.Input, ev.Reason)
		}),
		bus.Subscribe(events.TypeActionExecuted, func(e events.Event) {
			p.OnActionExecuted(e.(events.ActionExecuted).Result)
		}),
		bus.Subscribe(events.TypeGuardExecuted, func(e events.Event) {
			ev := e.(events.GuardExecuted)
			p.OnGuardExecuted(ev.Blocked, ev.Received, ev.Perfect)
		}),
		bus.Subscribe(events.TypeComboChanged, func(e events.Event) {
			ev := e.(events.ComboChanged)
			p.OnComboChanged(ev.Combo, ev.MaxCombo)
		}),
		bus.Subscribe(events.TypeGameOver, func(e events.Event) {
			ev := e.(events.GameOver)
			p.OnGameOver(ev.Outcome, ev.State)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
