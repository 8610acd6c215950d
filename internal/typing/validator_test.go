package typing

import (
	"testing"
	"time"

	"github.com/venh/typeclash/internal/model"
)

var testWord = model.Word{ID: "w1", Text: "castle", Level: 2, Length: 6}

// typeWord replays the word's characters into a fresh session with a
// fixed inter-key delay and returns the completed word plus flags.
func typeWord(t *testing.T, v *Validator, word model.Word, delays []time.Duration) (model.CompletedWord, []string) {
	t.Helper()
	now := time.Unix(100, 0)
	s := NewSession(word, now)
	input := ""
	for i, r := range word.Text {
		now = now.Add(delays[i%len(delays)])
		input += string(r)
		if err := v.ValidateKeystroke(string(r), s, now); err != nil {
			t.Fatalf("keystroke %q rejected: %v", r, err)
		}
		s.Update(string(r), input, now)
	}
	return v.CompleteWord(s, now)
}

func humanDelays() []time.Duration {
	return []time.Duration{
		180 * time.Millisecond, 140 * time.Millisecond, 210 * time.Millisecond,
		160 * time.Millisecond, 250 * time.Millisecond, 130 * time.Millisecond,
	}
}

func TestRoundTripPerfectWord(t *testing.T) {
	v := NewValidator(DefaultConfig())
	cw, flags := typeWord(t, v, testWord, humanDelays())
	if cw.Accuracy != 1.0 {
		t.Fatalf("accuracy = %v, want 1.0", cw.Accuracy)
	}
	if cw.Errors != 0 {
		t.Fatalf("errors = %d, want 0", cw.Errors)
	}
	if len(flags) != 0 {
		t.Fatalf("clean word raised flags: %v", flags)
	}
	if cw.WPM <= 0 {
		t.Fatalf("wpm = %v, want > 0", cw.WPM)
	}
}

func TestKeystrokeRejections(t *testing.T) {
	v := NewValidator(DefaultConfig())
	now := time.Unix(100, 0)
	s := NewSession(testWord, now)

	if err := v.ValidateKeystroke("\x1b", s, now); err != ErrInvalidKey {
		t.Fatalf("control rune: got %v, want ErrInvalidKey", err)
	}
	if err := v.ValidateKeystroke(KeyBackspace, s, now); err != nil {
		t.Fatalf("backspace must always be accepted: %v", err)
	}

	s.CurrentInput = "castle"
	if err := v.ValidateKeystroke("s", s, now.Add(5*time.Second)); err != ErrTooLong {
		t.Fatalf("full input: got %v, want ErrTooLong", err)
	}

	s.CurrentInput = "cast"
	// Four chars in 100ms is under the 50ms/char floor.
	if err := v.ValidateKeystroke("l", s, now.Add(100*time.Millisecond)); err != ErrTooFast {
		t.Fatalf("got %v, want ErrTooFast", err)
	}
}

func TestBackspaceCountsAsCorrection(t *testing.T) {
	now := time.Unix(100, 0)
	s := NewSession(testWord, now)
	s.Update("c", "c", now.Add(200*time.Millisecond))
	s.Update("x", "cx", now.Add(400*time.Millisecond))
	s.Update(KeyBackspace, "c", now.Add(600*time.Millisecond))
	if s.Errors != 1 {
		t.Fatalf("errors = %d, want 1", s.Errors)
	}
	if s.Corrections != 2 {
		t.Fatalf("corrections = %d, want 2 (wrong char + backspace)", s.Corrections)
	}
	if s.Backspaces != 1 {
		t.Fatalf("backspaces = %d, want 1", s.Backspaces)
	}
}

func TestSpeedFlagAndHighRisk(t *testing.T) {
	v := NewValidator(DefaultConfig())
	fast := []time.Duration{10 * time.Millisecond}
	_, flags := typeWord(t, v, testWord, fast)
	if !containsFlag(flags, FlagSpeed) {
		t.Fatalf("expected %s flag, got %v", FlagSpeed, flags)
	}
	if report := v.Report(); report.Risk != RiskHigh {
		t.Fatalf("speed flag must force HIGH risk, got %s", report.Risk)
	}
}

func TestVarianceFlag(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinVarianceMs = 12
	v := NewValidator(cfg)
	// Perfectly uniform 150ms intervals: bot-like.
	_, flags := typeWord(t, v, testWord, []time.Duration{150 * time.Millisecond})
	if !containsFlag(flags, FlagVariance) {
		t.Fatalf("expected %s flag, got %v", FlagVariance, flags)
	}
}

func TestPerfectStreakFlag(t *testing.T) {
	v := NewValidator(DefaultConfig())
	for i := 0; i < 15; i++ {
		_, flags := typeWord(t, v, testWord, humanDelays())
		if containsFlag(flags, FlagNoCorrect) {
			t.Fatalf("word %d flagged before threshold", i+1)
		}
	}
	_, flags := typeWord(t, v, testWord, humanDelays())
	if !containsFlag(flags, FlagNoCorrect) {
		t.Fatalf("16th consecutive perfect word must carry %s, got %v", FlagNoCorrect, flags)
	}
}

func TestPerfectStreakResetOnImperfect(t *testing.T) {
	v := NewValidator(DefaultConfig())
	for i := 0; i < 10; i++ {
		typeWord(t, v, testWord, humanDelays())
	}
	now := time.Unix(100, 0)
	s := NewSession(testWord, now)
	s.Update("x", "x", now.Add(200*time.Millisecond))
	v.CompleteWord(s, now.Add(2*time.Second))
	if v.PerfectStreak() != 0 {
		t.Fatalf("streak = %d after imperfect word, want 0", v.PerfectStreak())
	}
}

func TestStreakResetPerRoundPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StreakResetPerRound = true
	v := NewValidator(cfg)
	typeWord(t, v, testWord, humanDelays())
	typeWord(t, v, testWord, humanDelays())
	v.NewRound()
	if v.PerfectStreak() != 0 {
		t.Fatalf("per-round policy must reset streak at round boundary")
	}
}

func TestAccuracyPenalizesLengthDiff(t *testing.T) {
	if acc := Accuracy("castle", "castle"); acc != 1.0 {
		t.Fatalf("exact match accuracy = %v", acc)
	}
	if acc := Accuracy("castle", "cas"); acc != 0.5 {
		t.Fatalf("half-typed accuracy = %v, want 0.5", acc)
	}
	full := Accuracy("castle", "castle")
	long := Accuracy("castle", "castlexx")
	if long >= full {
		t.Fatalf("overshoot %v must score below exact %v", long, full)
	}
}

func TestExpectedWPMTable(t *testing.T) {
	cases := []struct {
		word model.Word
		want float64
	}{
		{model.Word{Text: "cat", Level: 1}, 45},
		{model.Word{Text: "sword", Level: 3}, 35},
		{model.Word{Text: "short", Level: 5}, 25},
		// 10 chars: 4 over threshold, 30 - 4*1.5 = 24.
		{model.Word{Text: "rhinoceros", Level: 4}, 24},
		// Floor at 20 no matter how long.
		{model.Word{Text: "incomprehensibilities", Level: 5}, 20},
	}
	for _, tc := range cases {
		if got := ExpectedWPM(tc.word); got != tc.want {
			t.Fatalf("ExpectedWPM(%q L%d) = %v, want %v", tc.word.Text, tc.word.Level, got, tc.want)
		}
	}
}

func TestScorePerfectBonus(t *testing.T) {
	base := model.CompletedWord{
		Word:     model.Word{Text: "castle", Level: 2, ExpectedWPM: 40},
		Accuracy: 1.0,
		WPM:      40,
		Pattern:  &model.KeystrokePattern{},
	}
	perfect := Score(base)

	corrected := base
	corrected.Pattern = &model.KeystrokePattern{Corrections: 1}
	if Score(corrected) >= perfect {
		t.Fatalf("zero-correction run must outscore a corrected one")
	}

	faster := base
	faster.WPM = 60
	if Score(faster) <= perfect {
		t.Fatalf("beating expected WPM must raise the score")
	}
}

func TestReportRiskLevels(t *testing.T) {
	v := NewValidator(DefaultConfig())
	if v.Report().Risk != RiskLow {
		t.Fatalf("fresh validator risk must be LOW")
	}
	v.flags[FlagVariance] = 1
	if v.Report().Risk != RiskMedium {
		t.Fatalf("one flag must be MEDIUM")
	}
	v.flags[FlagNoCorrect] = 2
	if v.Report().Risk != RiskHigh {
		t.Fatalf("three flags must be HIGH")
	}
	v.Reset()
	if got := v.Report(); got.Risk != RiskLow || got.TotalFlags != 0 {
		t.Fatalf("reset must clear the report, got %+v", got)
	}
}

func containsFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
