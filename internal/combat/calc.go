// Package combat computes damage, healing, and guard mitigation from
// typing performance.
package combat

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/venh/typeclash/internal/model"
)

// Base values per word level (index 0 unused).
var (
	attackBase = [6]float64{0, 15, 20, 25, 30, 35}
	healBase   = [6]float64{0, 12, 16, 20, 24, 28}
)

// Combo multiplier steps: the highest threshold not exceeding the
// current combo selects the multiplier.
var (
	comboThresholds  = [6]int{0, 5, 10, 20, 35, 50}
	comboMultipliers = [6]float64{1.0, 1.1, 1.2, 1.4, 1.7, 2.0}
)

const (
	critBaseChance      = 0.05
	critChanceCap       = 0.50
	critAttackMult      = 1.8
	critHealMult        = 1.5
	critHealChanceScale = 0.6

	defaultExpectedWPM = 40.0
)

// Config carries the contextual inputs for one calculation.
type Config struct {
	Difficulty  model.Difficulty
	PlayerLevel int
	Combo       int
	TimeLeft    int
	TimeTotal   int
}

// Modifiers is the multiplicative breakdown of a calculation.
type Modifiers struct {
	Accuracy   float64
	Speed      float64
	Combo      float64
	Level      float64
	Difficulty float64
	Critical   float64
}

// Result is the outcome of one combat calculation.
type Result struct {
	BaseValue  float64
	FinalValue int
	IsCritical bool
	Modifiers  Modifiers
	Trace      []string
}

// Calculator evaluates combat formulas. The random source drives
// critical-hit rolls only; everything else is deterministic.
type Calculator struct {
	rnd *rand.Rand
}

// New returns a Calculator using the given random source.
func New(rnd *rand.Rand) *Calculator {
	return &Calculator{rnd: rnd}
}

// AttackDamage computes damage for a completed attack word.
func (c *Calculator) AttackDamage(cw model.CompletedWord, cfg Config) Result {
	base := attackBase[clampLevel(cw.Word.Level)]
	m := Modifiers{
		Accuracy:   attackAccuracyMod(cw.Accuracy),
		Speed:      attackSpeedMod(cw.WPM, expectedWPM(cw.Word)),
		Combo:      comboMod(cfg.Combo),
		Level:      levelMod(cfg.PlayerLevel, 1.0),
		Difficulty: difficultyMod(cfg.Difficulty),
		Critical:   1.0,
	}
	crit := c.rollCritical(cw, cfg, 1.0)
	if crit {
		m.Critical = critAttackMult
	}
	return buildResult(base, m, crit)
}

// HealingAmount computes HP restored for a completed heal word.
func (c *Calculator) HealingAmount(cw model.CompletedWord, cfg Config) Result {
	base := healBase[clampLevel(cw.Word.Level)]
	m := Modifiers{
		Accuracy:   healAccuracyMod(cw.Accuracy),
		Speed:      healSpeedMod(cw.WPM, expectedWPM(cw.Word)),
		Combo:      1 + (comboMod(cfg.Combo)-1)*0.7,
		Level:      levelMod(cfg.PlayerLevel, 0.8),
		Difficulty: difficultyMod(cfg.Difficulty),
		Critical:   1.0,
	}
	crit := c.rollCritical(cw, cfg, critHealChanceScale)
	if crit {
		m.Critical = critHealMult
	}
	return buildResult(base, m, crit)
}

// GuardEffectiveness computes mitigation for a completed guard word
// against the given incoming damage. FinalValue is the damage blocked.
func (c *Calculator) GuardEffectiveness(cw model.CompletedWord, incoming int) Result {
	if incoming < 0 {
		incoming = 0
	}
	if cw.Accuracy >= 0.98 && cw.Errors == 0 {
		// Perfect guard blocks everything.
		return Result{
			BaseValue:  float64(incoming),
			FinalValue: incoming,
			IsCritical: true,
			Modifiers:  Modifiers{Accuracy: 1, Speed: 1, Combo: 1, Level: 1, Difficulty: 1, Critical: 1},
			Trace:      []string{"perfect guard: blocked 100%"},
		}
	}
	accuracyBonus := (cw.Accuracy - 0.7) * 0.5
	speedBonus := 0.0
	if cw.WPM > expectedWPM(cw.Word) {
		speedBonus = 0.1
	}
	eff := 0.4 + 0.1*float64(clampLevel(cw.Word.Level)) + accuracyBonus + speedBonus
	eff = clamp(eff, 0.1, 0.95)
	blocked := int(math.Round(float64(incoming) * eff))
	return Result{
		BaseValue:  float64(incoming),
		FinalValue: blocked,
		Modifiers:  Modifiers{Accuracy: 1 + accuracyBonus, Speed: 1 + speedBonus, Combo: 1, Level: 1, Difficulty: 1, Critical: 1},
		Trace: []string{
			fmt.Sprintf("effectiveness %.2f of incoming %d", eff, incoming),
		},
	}
}

func buildResult(base float64, m Modifiers, crit bool) Result {
	product := base * m.Accuracy * m.Speed * m.Combo * m.Level * m.Difficulty * m.Critical
	final := int(math.Round(product))
	if final < 1 {
		final = 1
	}
	r := Result{
		BaseValue:  base,
		FinalValue: final,
		IsCritical: crit,
		Modifiers:  m,
	}
	r.Trace = append(r.Trace,
		fmt.Sprintf("base %.0f", base),
		fmt.Sprintf("accuracy x%.2f", m.Accuracy),
		fmt.Sprintf("speed x%.2f", m.Speed),
		fmt.Sprintf("combo x%.2f", m.Combo),
		fmt.Sprintf("level x%.2f", m.Level),
		fmt.Sprintf("difficulty x%.2f", m.Difficulty),
	)
	if crit {
		r.Trace = append(r.Trace, fmt.Sprintf("critical x%.2f", m.Critical))
	}
	return r
}

func (c *Calculator) rollCritical(cw model.CompletedWord, cfg Config, scale float64) bool {
	chance := critBaseChance
	if cw.Accuracy >= 0.95 {
		chance += 0.10
	}
	if cw.Errors == 0 && cw.Accuracy >= 1.0 {
		chance += 0.15
	}
	if cw.WPM > 1.3*expectedWPM(cw.Word) {
		chance += 0.08
	}
	comboBonus := float64(cfg.Combo) * 0.01
	if comboBonus > 0.20 {
		comboBonus = 0.20
	}
	chance += comboBonus
	if chance > critChanceCap {
		chance = critChanceCap
	}
	chance *= scale
	return c.rnd.Float64() < chance
}

func attackAccuracyMod(acc float64) float64 {
	switch {
	case acc < 0.7:
		return 0.5
	case acc >= 1.0:
		return 1.3
	default:
		return 0.8 + (acc-0.7)/0.3*0.5
	}
}

func attackSpeedMod(wpm, expected float64) float64 {
	if expected <= 0 {
		return 1.0
	}
	ratio := wpm / expected
	switch {
	case ratio < 0.8:
		return 0.7
	case ratio >= 1.2:
		bonus := 1 + (ratio-1)*0.5
		if bonus > 1.3 {
			bonus = 1.3
		}
		return bonus
	default:
		return 1.0
	}
}

func healAccuracyMod(acc float64) float64 {
	switch {
	case acc < 0.7:
		return 0.6
	case acc >= 1.0:
		return 1.2
	default:
		return 0.85 + (acc-0.7)/0.3*0.35
	}
}

func healSpeedMod(wpm, expected float64) float64 {
	if expected <= 0 {
		return 1.0
	}
	ratio := wpm / expected
	switch {
	case ratio < 0.8:
		return 0.8
	case ratio >= 1.2:
		bonus := 1 + (ratio-1)*0.35
		if bonus > 1.2 {
			bonus = 1.2
		}
		return bonus
	default:
		return 1.0
	}
}

func comboMod(combo int) float64 {
	mult := comboMultipliers[0]
	for i, threshold := range comboThresholds {
		if combo >= threshold {
			mult = comboMultipliers[i]
		}
	}
	return mult
}

func levelMod(playerLevel int, scale float64) float64 {
	if playerLevel < 1 {
		playerLevel = 1
	}
	return 1 + float64(playerLevel-1)*0.05*scale
}

func difficultyMod(d model.Difficulty) float64 {
	switch d {
	case model.DifficultyEasy:
		return 1.2
	case model.DifficultyHard:
		return 0.8
	default:
		return 1.0
	}
}

func expectedWPM(w model.Word) float64 {
	if w.ExpectedWPM > 0 {
		return w.ExpectedWPM
	}
	return defaultExpectedWPM
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

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
