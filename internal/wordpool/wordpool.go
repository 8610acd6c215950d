// Package wordpool selects and weights candidate words per round.
package wordpool

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/venh/typeclash/internal/model"
)

const (
	recentRounds    = 3
	recencyRetained = 10
	topFraction     = 0.3
	topMinimum      = 5
	jitterSpread    = 0.2
	guardChance     = 0.3
)

// LevelRange bounds eligible word levels and lengths for a round.
type LevelRange struct {
	MinLevel, MaxLevel int
	MinLen, MaxLen     int
}

// SelectOptions drives one round's selection.
type SelectOptions struct {
	Difficulty  model.Difficulty
	PlayerLevel int
	Round       int
	AvoidRecent bool
}

// Manager owns the session word pool and recency tracking. The random
// source is injected so selection is reproducible in tests.
type Manager struct {
	words    []model.Word
	rnd      *rand.Rand
	lastUsed map[string]int
	lock     LockState
}

// New validates the pool and builds a manager. Word lengths that do
// not match their text are corrected, not rejected.
func New(words []model.Word, rnd *rand.Rand) (*Manager, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("word pool is empty")
	}
	pool := make([]model.Word, len(words))
	for i, w := range words {
		if w.ID == "" {
			return nil, fmt.Errorf("word %d: missing id", i)
		}
		if w.Text == "" {
			return nil, fmt.Errorf("word %q: missing text", w.ID)
		}
		if w.Level < 1 || w.Level > 5 {
			return nil, fmt.Errorf("word %q: level %d outside 1..5", w.ID, w.Level)
		}
		if n := len([]rune(w.Text)); w.Length != n {
			w.Length = n
		}
		pool[i] = w
	}
	return &Manager{words: pool, rnd: rnd, lastUsed: map[string]int{}}, nil
}

// Size reports the pool size.
func (m *Manager) Size() int {
	return len(m.words)
}

// Lock exposes the advisory lock helper. The orchestrator's own lock
// state stays authoritative for gameplay.
func (m *Manager) Lock() *LockState {
	return &m.lock
}

// SelectWords picks a heal and an attack word, and a guard word when
// the round calls for one, then records their use for recency.
func (m *Manager) SelectWords(opts SelectOptions) (model.WordPair, error) {
	ranges := RangeFor(opts.Difficulty, opts.PlayerLevel, opts.Round)

	heal, err := m.pick(model.WordTypeHeal, ranges, opts, nil)
	if err != nil {
		return model.WordPair{}, err
	}
	attack, err := m.pick(model.WordTypeAttack, ranges, opts, map[string]struct{}{heal.ID: {}})
	if err != nil {
		return model.WordPair{}, err
	}

	pair := model.WordPair{Heal: heal, Attack: attack}
	if m.wantsGuard(opts) {
		exclude := map[string]struct{}{heal.ID: {}, attack.ID: {}}
		guard, err := m.pick(model.WordTypeGuard, ranges, opts, exclude)
		if err == nil {
			pair.Guard = &guard
			m.lastUsed[guard.ID] = opts.Round
		}
	}

	m.lastUsed[heal.ID] = opts.Round
	m.lastUsed[attack.ID] = opts.Round
	m.prune(opts.Round)
	return pair, nil
}

// RangeFor derives the eligible level and length ranges. The level
// floor rises with player level and the ceiling with round progress.
func RangeFor(d model.Difficulty, playerLevel, round int) LevelRange {
	var r LevelRange
	switch d {
	case model.DifficultyEasy:
		r = LevelRange{MinLevel: 1, MaxLevel: 3, MinLen: 3, MaxLen: 8}
	case model.DifficultyHard:
		r = LevelRange{MinLevel: 3, MaxLevel: 5, MinLen: 5, MaxLen: 15}
	default:
		r = LevelRange{MinLevel: 2, MaxLevel: 4, MinLen: 4, MaxLen: 12}
	}
	r.MinLevel += playerLevel / 5
	r.MaxLevel += round / 3
	r.MinLevel = clampLevel(r.MinLevel)
	r.MaxLevel = clampLevel(r.MaxLevel)
	if r.MinLevel > r.MaxLevel {
		r.MinLevel = r.MaxLevel
	}
	return r
}

type scored struct {
	word  model.Word
	score float64
}

func (m *Manager) pick(wt model.WordType, r LevelRange, opts SelectOptions, exclude map[string]struct{}) (model.Word, error) {
	candidates := m.eligible(r, opts, exclude)
	if len(candidates) == 0 {
		// Relax recency and ranges rather than failing the round.
		candidates = m.eligible(LevelRange{MinLevel: 1, MaxLevel: 5, MinLen: 1, MaxLen: 64},
			SelectOptions{Round: opts.Round}, exclude)
	}
	if len(candidates) == 0 {
		return model.Word{}, fmt.Errorf("no eligible %s word", wt)
	}

	entries := make([]scored, 0, len(candidates))
	for _, w := range candidates {
		s := m.baseScore(wt, w, r)
		s *= m.recencyFactor(w.ID, opts.Round)
		s *= 1 - jitterSpread + m.rnd.Float64()*2*jitterSpread
		if s < 1 {
			s = 1
		}
		entries = append(entries, scored{word: w, score: s})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].score > entries[j].score })

	top := int(float64(len(entries)) * topFraction)
	if top < topMinimum {
		top = topMinimum
	}
	if top > len(entries) {
		top = len(entries)
	}
	entries = entries[:top]

	return m.weightedDraw(entries), nil
}

func (m *Manager) eligible(r LevelRange, opts SelectOptions, exclude map[string]struct{}) []model.Word {
	var out []model.Word
	for _, w := range m.words {
		if _, skip := exclude[w.ID]; skip {
			continue
		}
		if w.Level < r.MinLevel || w.Level > r.MaxLevel {
			continue
		}
		if w.Length < r.MinLen || w.Length > r.MaxLen {
			continue
		}
		if opts.AvoidRecent {
			if used, ok := m.lastUsed[w.ID]; ok && opts.Round-used < recentRounds {
				continue
			}
		}
		out = append(out, w)
	}
	return out
}

func (m *Manager) baseScore(wt model.WordType, w model.Word, r LevelRange) float64 {
	score := 50.0
	switch wt {
	case model.WordTypeHeal:
		score += float64(r.MaxLen-w.Length) * 3
		score += float64(6-w.Level) * 5
		score += categoryBonus(w.Category, "common", "medical", "basic")
	case model.WordTypeAttack:
		score += float64(w.Length) * 3
		score += float64(w.Level) * 5
		score += categoryBonus(w.Category, "action", "power", "advanced")
	case model.WordTypeGuard:
		score += categoryBonus(w.Category, "defense", "shield", "protect")
	}
	return score
}

func (m *Manager) recencyFactor(id string, round int) float64 {
	used, ok := m.lastUsed[id]
	if !ok {
		return 1.0
	}
	since := round - used
	if since >= recencyRetained {
		return 1.0
	}
	// Older uses fade linearly back toward full weight.
	return 0.5 + 0.05*float64(since)
}

func (m *Manager) weightedDraw(entries []scored) model.Word {
	total := 0.0
	for _, e := range entries {
		total += e.score
	}
	target := m.rnd.Float64() * total
	acc := 0.0
	for _, e := range entries {
		acc += e.score
		if target <= acc {
			return e.word
		}
	}
	return entries[len(entries)-1].word
}

func (m *Manager) wantsGuard(opts SelectOptions) bool {
	if opts.Difficulty == model.DifficultyHard {
		return true
	}
	if opts.Round >= 3 || opts.PlayerLevel >= 5 {
		return true
	}
	if opts.Difficulty == model.DifficultyNormal {
		return m.rnd.Float64() < guardChance
	}
	return false
}

func (m *Manager) prune(round int) {
	for id, used := range m.lastUsed {
		if round-used >= recencyRetained {
			delete(m.lastUsed, id)
		}
	}
}

func categoryBonus(category string, wanted ...string) float64 {
	category = strings.ToLower(category)
	for _, w := range wanted {
		if category == w {
			return 20
		}
	}
	return 0
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
