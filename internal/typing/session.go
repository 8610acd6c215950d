// Package typing tracks in-progress word attempts and validates typing
// performance for anti-cheat purposes.
package typing

import (
	"strings"
	"time"
	"unicode"

	"github.com/venh/typeclash/internal/model"
)

// Control keys accepted alongside printable input.
const (
	KeyBackspace = "Backspace"
	KeyDelete    = "Delete"
	KeyTab       = "Tab"
	KeyEnter     = "Enter"
)

const allowedPunct = ".,!?;:'\"-_()[]{}/@#&"

// KeyEvent records one keystroke inside a session.
type KeyEvent struct {
	Key          string
	Timestamp    time.Time
	InputLength  int
	IsCorrection bool
}

// Session is the mutable record of one typing attempt. It is created
// when a word is locked and discarded after conversion to a
// CompletedWord.
type Session struct {
	Word          model.Word
	StartTime     time.Time
	EndTime       time.Time
	CurrentInput  string
	Keystrokes    []KeyEvent
	Errors        int
	Corrections   int
	Backspaces    int
	PerfectStreak int
}

// NewSession starts an attempt against the given word.
func NewSession(word model.Word, now time.Time) *Session {
	return &Session{Word: word, StartTime: now}
}

// Update appends a keystroke and reclassifies the running input. A
// keystroke is a correction when it is a backspace or when the typed
// character does not match the target word at its position.
func (s *Session) Update(key, input string, now time.Time) {
	correction := false
	if isControlKey(key) {
		if key == KeyBackspace || key == KeyDelete {
			correction = true
			s.Corrections++
			s.Backspaces++
		}
	} else {
		pos := len([]rune(input)) - 1
		target := []rune(s.Word.Text)
		if pos >= 0 && pos < len(target) {
			typed := []rune(input)[pos]
			if !runeEqualFold(typed, target[pos]) {
				correction = true
				s.Errors++
				s.Corrections++
			}
		} else if pos >= len(target) {
			correction = true
			s.Errors++
		}
	}
	s.CurrentInput = input
	s.Keystrokes = append(s.Keystrokes, KeyEvent{
		Key:          key,
		Timestamp:    now,
		InputLength:  len([]rune(input)),
		IsCorrection: correction,
	})
}

// Pattern derives the keystroke pattern summary for the attempt.
func (s *Session) Pattern() *model.KeystrokePattern {
	p := &model.KeystrokePattern{
		Corrections: s.Corrections,
		Backspaces:  s.Backspaces,
	}
	run := 0
	var prev time.Time
	for i, ev := range s.Keystrokes {
		if i > 0 {
			p.IntervalsMs = append(p.IntervalsMs, ev.Timestamp.Sub(prev).Milliseconds())
		}
		prev = ev.Timestamp
		if ev.IsCorrection {
			run = 0
			continue
		}
		run++
		if run > p.LongestRun {
			p.LongestRun = run
		}
	}
	return p
}

func isControlKey(key string) bool {
	switch key {
	case KeyBackspace, KeyDelete, KeyTab, KeyEnter:
		return true
	}
	return false
}

func isAllowedRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
		return true
	}
	return strings.ContainsRune(allowedPunct, r)
}

func runeEqualFold(a, b rune) bool {
	return unicode.ToLower(a) == unicode.ToLower(b)
}
