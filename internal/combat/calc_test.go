package combat

import (
	"math"
	"math/rand"
	"testing"

	"pgregory.net/rapid"

	"github.com/venh/typeclash/internal/model"
)

// fixedSource pins rand.Float64 to a constant so critical rolls are
// deterministic in tests.
type fixedSource struct{ v int64 }

func (s fixedSource) Int63() int64 { return s.v }
func (s fixedSource) Seed(int64)   {}

func noCritCalc() *Calculator {
	// Float64 resolves to 0.5, above the capped 50% critical chance.
	return New(rand.New(fixedSource{1 << 62}))
}

func alwaysCritCalc() *Calculator {
	return New(rand.New(fixedSource{0}))
}

func completed(level int, accuracy float64, wpm float64, expected float64, errors int) model.CompletedWord {
	return model.CompletedWord{
		Word:     model.Word{ID: "w", Text: "sample", Level: level, Length: 6, ExpectedWPM: expected},
		Accuracy: accuracy,
		WPM:      wpm,
		Errors:   errors,
		TimeMs:   1500,
	}
}

func TestAttackDamageBase(t *testing.T) {
	calc := noCritCalc()
	cfg := Config{Difficulty: model.DifficultyNormal, PlayerLevel: 1, Combo: 0}

	res := calc.AttackDamage(completed(2, 1.0, 60, 40, 0), cfg)
	if res.BaseValue != 20 {
		t.Fatalf("expected base 20 for level 2, got %v", res.BaseValue)
	}
	if res.IsCritical {
		t.Fatalf("critical fired with pinned no-crit source")
	}

	low := calc.AttackDamage(completed(2, 0.5, 60, 40, 3), cfg)
	if res.FinalValue <= low.FinalValue {
		t.Fatalf("perfect accuracy %d should beat accuracy 0.5 %d", res.FinalValue, low.FinalValue)
	}
}

func TestAttackCriticalMultiplier(t *testing.T) {
	cfg := Config{Difficulty: model.DifficultyNormal, PlayerLevel: 1}
	cw := completed(3, 1.0, 60, 40, 0)

	plain := noCritCalc().AttackDamage(cw, cfg)
	crit := alwaysCritCalc().AttackDamage(cw, cfg)
	if !crit.IsCritical {
		t.Fatalf("expected critical with pinned always-crit source")
	}
	want := int(math.Round(plain.BaseValue * plain.Modifiers.Accuracy * plain.Modifiers.Speed *
		plain.Modifiers.Combo * plain.Modifiers.Level * plain.Modifiers.Difficulty * critAttackMult))
	if crit.FinalValue != want {
		t.Fatalf("critical final = %d, want %d", crit.FinalValue, want)
	}
}

func TestComboModifierSteps(t *testing.T) {
	cases := []struct {
		combo int
		want  float64
	}{
		{0, 1.0}, {4, 1.0}, {5, 1.1}, {9, 1.1}, {10, 1.2},
		{19, 1.2}, {20, 1.4}, {35, 1.7}, {49, 1.7}, {50, 2.0}, {200, 2.0},
	}
	for _, tc := range cases {
		if got := comboMod(tc.combo); got != tc.want {
			t.Fatalf("comboMod(%d) = %v, want %v", tc.combo, got, tc.want)
		}
	}
}

func TestDifficultyModifiers(t *testing.T) {
	if difficultyMod(model.DifficultyEasy) != 1.2 {
		t.Fatalf("easy modifier wrong")
	}
	if difficultyMod(model.DifficultyNormal) != 1.0 {
		t.Fatalf("normal modifier wrong")
	}
	if difficultyMod(model.DifficultyHard) != 0.8 {
		t.Fatalf("hard modifier wrong")
	}
}

func TestAccuracyMonotonic(t *testing.T) {
	calc := noCritCalc()
	cfg := Config{Difficulty: model.DifficultyNormal, PlayerLevel: 3, Combo: 7}
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(0.7, 1.0).Draw(t, "a")
		b := rapid.Float64Range(0.7, 1.0).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		lower := calc.AttackDamage(completed(3, a, 50, 40, 1), cfg)
		higher := calc.AttackDamage(completed(3, b, 50, 40, 1), cfg)
		if higher.FinalValue < lower.FinalValue {
			t.Fatalf("accuracy %v -> %d, accuracy %v -> %d", a, lower.FinalValue, b, higher.FinalValue)
		}
		lowerHeal := calc.HealingAmount(completed(3, a, 50, 40, 1), cfg)
		higherHeal := calc.HealingAmount(completed(3, b, 50, 40, 1), cfg)
		if higherHeal.FinalValue < lowerHeal.FinalValue {
			t.Fatalf("heal accuracy %v -> %d, accuracy %v -> %d", a, lowerHeal.FinalValue, b, higherHeal.FinalValue)
		}
	})
}

func TestFinalValueFloor(t *testing.T) {
	calc := noCritCalc()
	rapid.Check(t, func(t *rapid.T) {
		cw := completed(
			rapid.IntRange(-2, 8).Draw(t, "level"),
			rapid.Float64Range(0, 1).Draw(t, "accuracy"),
			rapid.Float64Range(0, 300).Draw(t, "wpm"),
			rapid.Float64Range(20, 60).Draw(t, "expected"),
			rapid.IntRange(0, 10).Draw(t, "errors"),
		)
		cfg := Config{
			Difficulty:  model.DifficultyHard,
			PlayerLevel: rapid.IntRange(1, 20).Draw(t, "playerLevel"),
			Combo:       rapid.IntRange(0, 100).Draw(t, "combo"),
		}
		if got := calc.AttackDamage(cw, cfg).FinalValue; got < 1 {
			t.Fatalf("attack final %d below floor", got)
		}
		if got := calc.HealingAmount(cw, cfg).FinalValue; got < 1 {
			t.Fatalf("heal final %d below floor", got)
		}
	})
}

func TestGuardBlockBounds(t *testing.T) {
	calc := noCritCalc()
	rapid.Check(t, func(t *rapid.T) {
		cw := completed(
			rapid.IntRange(1, 5).Draw(t, "level"),
			rapid.Float64Range(0, 0.97).Draw(t, "accuracy"),
			rapid.Float64Range(0, 200).Draw(t, "wpm"),
			40,
			rapid.IntRange(1, 5).Draw(t, "errors"),
		)
		incoming := rapid.IntRange(1, 500).Draw(t, "incoming")
		res := calc.GuardEffectiveness(cw, incoming)
		lo := int(math.Floor(0.1 * float64(incoming)))
		hi := int(math.Ceil(0.95 * float64(incoming)))
		if res.FinalValue < lo || res.FinalValue > hi {
			t.Fatalf("blocked %d outside [%d, %d] for incoming %d", res.FinalValue, lo, hi, incoming)
		}
	})
}

func TestPerfectGuard(t *testing.T) {
	calc := noCritCalc()
	res := calc.GuardEffectiveness(completed(3, 0.98, 50, 40, 0), 50)
	if !res.IsCritical {
		t.Fatalf("perfect guard must flag critical")
	}
	if res.FinalValue != 50 {
		t.Fatalf("perfect guard blocked %d, want 50", res.FinalValue)
	}
	action := GuardAction(completed(3, 0.98, 50, 40, 0), res, 50)
	if action.DamageReceived != 0 {
		t.Fatalf("perfect guard let %d through", action.DamageReceived)
	}
}

func TestActionSuccessThreshold(t *testing.T) {
	calc := noCritCalc()
	cfg := Config{Difficulty: model.DifficultyNormal, PlayerLevel: 1}

	sloppy := completed(2, 0.6, 30, 40, 4)
	res := calc.AttackDamage(sloppy, cfg)
	action := AttackAction(sloppy, res)
	if action.Success {
		t.Fatalf("accuracy 0.6 should not be a success")
	}
	if action.Value < 1 {
		t.Fatalf("unsuccessful action must still carry its numeric effect, got %d", action.Value)
	}

	clean := completed(2, 0.9, 45, 40, 1)
	if got := HealAction(clean, calc.HealingAmount(clean, cfg)); !got.Success {
		t.Fatalf("accuracy 0.9 should be a success")
	}
}

func TestClampHP(t *testing.T) {
	if ClampHP(-5, 100) != 0 {
		t.Fatalf("negative HP must clamp to 0")
	}
	if ClampHP(150, 100) != 100 {
		t.Fatalf("HP above max must clamp to max")
	}
	if ClampHP(42, 100) != 42 {
		t.Fatalf("in-range HP must pass through")
	}
}
