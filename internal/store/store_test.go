package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/venh/typeclash/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "typeclash.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	})
	return s
}

func sampleResult(id string, outcome model.Outcome, endedAt time.Time) model.SessionResult {
	return model.SessionResult{
		SessionID:  id,
		PackID:     "core-en",
		Difficulty: model.DifficultyNormal,
		StartedAt:  endedAt.Add(-90 * time.Second),
		EndedAt:    endedAt,
		Outcome:    outcome,
		Rounds:     7,
		Stats: model.GameStats{
			WPM:            62.5,
			Accuracy:       0.94,
			TotalDamage:    120,
			TotalHealing:   35,
			AttackCount:    5,
			HealCount:      2,
			GuardCount:     1,
			MaxCombo:       6,
			WordsCompleted: 8,
		},
		Risk:       "LOW",
		DurationMs: 90_000,
	}
}

func TestInsertAndListBattles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	actions := []ActionRecord{
		{Seq: 1, WordText: "sword", WordType: model.WordTypeAttack, Value: 24, Success: true, Accuracy: 1, WPM: 70, TimeMs: 900},
		{Seq: 2, WordText: "bandage", WordType: model.WordTypeHeal, Value: 15, Success: true, Accuracy: 0.9, WPM: 55, TimeMs: 1400, Flags: "low_keystroke_variance"},
	}
	if err := s.InsertBattle(ctx, sampleResult("s1", model.OutcomeWin, base), actions); err != nil {
		t.Fatalf("InsertBattle: %v", err)
	}
	if err := s.InsertBattle(ctx, sampleResult("s2", model.OutcomeLose, base.Add(time.Hour)), nil); err != nil {
		t.Fatalf("InsertBattle: %v", err)
	}

	battles, err := s.ListBattles(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListBattles: %v", err)
	}
	if len(battles) != 2 {
		t.Fatalf("got %d battles, want 2", len(battles))
	}
	if battles[0].SessionID != "s1" || battles[1].SessionID != "s2" {
		t.Fatalf("wrong order: %s, %s", battles[0].SessionID, battles[1].SessionID)
	}
	got := battles[0]
	if got.Outcome != model.OutcomeWin || got.Stats.MaxCombo != 6 || got.Risk != "LOW" {
		t.Fatalf("battle round trip lost data: %+v", got)
	}
	if !got.EndedAt.Equal(base) {
		t.Fatalf("ended_at = %v, want %v", got.EndedAt, base)
	}
}

func TestListBattlesFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	early := sampleResult("early", model.OutcomeWin, base)
	late := sampleResult("late", model.OutcomeWin, base.Add(2*time.Hour))
	late.Difficulty = model.DifficultyHard
	for _, r := range []model.SessionResult{early, late} {
		if err := s.InsertBattle(ctx, r, nil); err != nil {
			t.Fatalf("InsertBattle: %v", err)
		}
	}

	hard, err := s.ListBattles(ctx, Filter{Difficulty: model.DifficultyHard})
	if err != nil {
		t.Fatalf("ListBattles: %v", err)
	}
	if len(hard) != 1 || hard[0].SessionID != "late" {
		t.Fatalf("difficulty filter wrong: %+v", hard)
	}

	since := base.Add(time.Hour)
	recent, err := s.ListBattles(ctx, Filter{Since: &since})
	if err != nil {
		t.Fatalf("ListBattles: %v", err)
	}
	if len(recent) != 1 || recent[0].SessionID != "late" {
		t.Fatalf("since filter wrong: %+v", recent)
	}
}

func TestListActions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	res := sampleResult("s1", model.OutcomeWin, time.Now().UTC())
	actions := []ActionRecord{
		{Seq: 1, WordText: "shield", WordType: model.WordTypeGuard, Value: 10, DamageReceived: 2, Critical: true, Success: true, Accuracy: 1, WPM: 66, TimeMs: 1100},
		{Seq: 2, WordText: "dragon", WordType: model.WordTypeAttack, Value: 28, Success: true, Accuracy: 0.97, WPM: 72, TimeMs: 950},
	}
	if err := s.InsertBattle(ctx, res, actions); err != nil {
		t.Fatalf("InsertBattle: %v", err)
	}

	got, err := s.ListActions(ctx, "s1")
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d actions, want 2", len(got))
	}
	if got[0].WordType != model.WordTypeGuard || !got[0].Critical || got[0].DamageReceived != 2 {
		t.Fatalf("guard action round trip lost data: %+v", got[0])
	}
	if got[1].WordText != "dragon" || got[1].Critical {
		t.Fatalf("attack action round trip lost data: %+v", got[1])
	}
}
