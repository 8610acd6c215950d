package typing

import (
	"errors"
	"math"
	"time"
	"unicode"

	"github.com/venh/typeclash/internal/model"
)

// Keystroke rejection reasons.
var (
	ErrInvalidKey = errors.New("key outside allowed set")
	ErrTooLong    = errors.New("input exceeds target word length")
	ErrTooFast    = errors.New("keystrokes arriving faster than speed floor")
)

// Suspicion flags raised by completed-word validation.
const (
	FlagSpeed      = "speed_exceeded"
	FlagVariance   = "low_keystroke_variance"
	FlagNoCorrect  = "no_corrections"
	FlagComplexity = "complexity_speed_mismatch"
	FlagFewKeys    = "missing_keystrokes"
)

// Risk levels for the session report.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Config tunes the anti-cheat thresholds.
type Config struct {
	MaxWPM                float64
	MinCharTimeMs         int64
	MaxConsecutivePerfect int
	MinVarianceMs         float64
	// StreakResetPerRound resets the perfect-word streak at round
	// boundaries instead of letting it span the whole session.
	StreakResetPerRound bool
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MaxWPM:                250,
		MinCharTimeMs:         50,
		MaxConsecutivePerfect: 15,
		MinVarianceMs:         12,
	}
}

// Report aggregates flags fired over a game session.
type Report struct {
	Flags      map[string]int
	TotalFlags int
	Risk       string
}

// Validator checks keystrokes in real time and scores completed words.
// It is stateful per game session: the perfect-word streak and the
// accumulated flag set survive across words until Reset.
type Validator struct {
	cfg           Config
	perfectStreak int
	flags         map[string]int
	speedFlagged  bool
}

// NewValidator returns a validator with the given thresholds.
func NewValidator(cfg Config) *Validator {
	if cfg.MaxWPM <= 0 {
		cfg.MaxWPM = 250
	}
	if cfg.MinCharTimeMs <= 0 {
		cfg.MinCharTimeMs = 50
	}
	if cfg.MaxConsecutivePerfect <= 0 {
		cfg.MaxConsecutivePerfect = 15
	}
	return &Validator{cfg: cfg, flags: map[string]int{}}
}

// ValidateKeystroke applies the real-time acceptance rules for one key
// against the current session. Rejections are advisory: the caller
// drops the keystroke and play continues.
func (v *Validator) ValidateKeystroke(key string, s *Session, now time.Time) error {
	if isControlKey(key) {
		return nil
	}
	runes := []rune(key)
	if len(runes) != 1 || !isAllowedRune(runes[0]) {
		return ErrInvalidKey
	}
	if s == nil {
		return nil
	}
	inputLen := len([]rune(s.CurrentInput))
	if inputLen >= len([]rune(s.Word.Text)) {
		return ErrTooLong
	}
	// Coarse speed guard: the whole input so far cannot have arrived
	// faster than the per-character floor.
	elapsed := now.Sub(s.StartTime).Milliseconds()
	if inputLen > 0 && elapsed < int64(inputLen)*v.cfg.MinCharTimeMs {
		return ErrTooFast
	}
	return nil
}

// CompleteWord finalizes a session into a CompletedWord and runs the
// post-hoc fraud heuristics. The returned flag list is empty for a
// clean word; flags never block the word's effect.
func (v *Validator) CompleteWord(s *Session, now time.Time) (model.CompletedWord, []string) {
	s.EndTime = now
	timeMs := now.Sub(s.StartTime).Milliseconds()
	if timeMs <= 0 {
		timeMs = 1
	}

	word := s.Word
	if word.ExpectedWPM <= 0 {
		word.ExpectedWPM = ExpectedWPM(word)
	}
	targetLen := len([]rune(word.Text))
	wpm := WPM(targetLen, timeMs)
	accuracy := Accuracy(word.Text, s.CurrentInput)

	cw := model.CompletedWord{
		Word:      word,
		TypedText: s.CurrentInput,
		TimeMs:    timeMs,
		Errors:    s.Errors,
		Accuracy:  accuracy,
		WPM:       wpm,
		Pattern:   s.Pattern(),
	}
	cw.Score = Score(cw)

	flags := v.inspect(cw, s, targetLen, timeMs)
	for _, f := range flags {
		v.flags[f]++
		if f == FlagSpeed {
			v.speedFlagged = true
		}
	}
	return cw, flags
}

func (v *Validator) inspect(cw model.CompletedWord, s *Session, targetLen int, timeMs int64) []string {
	var flags []string

	if cw.WPM > v.cfg.MaxWPM || timeMs < int64(targetLen)*v.cfg.MinCharTimeMs {
		flags = append(flags, FlagSpeed)
	}

	if intervals := cw.Pattern.IntervalsMs; len(intervals) >= 4 {
		if stddev(intervals) < v.cfg.MinVarianceMs {
			flags = append(flags, FlagVariance)
		}
	}

	perfect := cw.Errors == 0 && cw.Accuracy >= 1.0
	if perfect {
		v.perfectStreak++
		if v.perfectStreak > v.cfg.MaxConsecutivePerfect {
			flags = append(flags, FlagNoCorrect)
		}
	} else {
		v.perfectStreak = 0
	}

	if cw.Accuracy >= 1.0 && Complexity(cw.Word) > 0.7 && timeMs < int64(targetLen)*80 {
		flags = append(flags, FlagComplexity)
	}

	if len(s.Keystrokes) < targetLen {
		flags = append(flags, FlagFewKeys)
	}

	return flags
}

// NewRound notifies the validator of a round boundary.
func (v *Validator) NewRound() {
	if v.cfg.StreakResetPerRound {
		v.perfectStreak = 0
	}
}

// PerfectStreak exposes the current run of perfect words.
func (v *Validator) PerfectStreak() int {
	return v.perfectStreak
}

// Report summarizes the flags fired so far with a risk classification.
func (v *Validator) Report() Report {
	r := Report{Flags: map[string]int{}, Risk: RiskLow}
	for f, n := range v.flags {
		r.Flags[f] = n
		r.TotalFlags += n
	}
	switch {
	case r.TotalFlags >= 3 || v.speedFlagged:
		r.Risk = RiskHigh
	case r.TotalFlags > 0:
		r.Risk = RiskMedium
	}
	return r
}

// Reset clears the streak and all accumulated flags.
func (v *Validator) Reset() {
	v.perfectStreak = 0
	v.flags = map[string]int{}
	v.speedFlagged = false
}

// WPM computes words-per-minute as (charCount/5) / minutes.
func WPM(charCount int, durationMs int64) float64 {
	if durationMs <= 0 {
		return 0
	}
	minutes := float64(durationMs) / 60000.0
	return (float64(charCount) / 5.0) / minutes
}

// Accuracy is the fraction of characters matching at aligned positions,
// penalized by length difference and clamped to [0, 1].
func Accuracy(target, typed string) float64 {
	tr := []rune(target)
	in := []rune(typed)
	if len(tr) == 0 {
		return 0
	}
	n := len(tr)
	if len(in) < n {
		n = len(in)
	}
	matches := 0
	for i := 0; i < n; i++ {
		if runeEqualFold(tr[i], in[i]) {
			matches++
		}
	}
	span := len(tr)
	if len(in) > span {
		span = len(in)
	}
	acc := float64(matches) / float64(span)
	if acc < 0 {
		return 0
	}
	if acc > 1 {
		return 1
	}
	return acc
}

// Complexity scores how demanding a word is to type, in [0, 1].
func Complexity(w model.Word) float64 {
	runes := []rune(w.Text)
	if len(runes) == 0 {
		return 0
	}
	unique := map[rune]struct{}{}
	specials := 0
	for _, r := range runes {
		unique[unicode.ToLower(r)] = struct{}{}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			specials++
		}
	}
	c := math.Min(1, float64(len(runes))/12.0)*0.4 +
		float64(len(unique))/float64(len(runes))*0.3 +
		float64(clampLevel(w.Level))/5.0*0.2
	if specials > 0 {
		c += 0.1
	}
	if c > 1 {
		c = 1
	}
	return c
}

func stddev(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 5 {
		return 5
	}
	return level
}
