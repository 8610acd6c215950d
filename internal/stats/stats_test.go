package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/venh/typeclash/internal/model"
)

func battle(id string, outcome model.Outcome, wpm float64, combo int, risk string) model.SessionResult {
	return model.SessionResult{
		SessionID:  id,
		Difficulty: model.DifficultyNormal,
		EndedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Outcome:    outcome,
		Rounds:     5,
		Stats: model.GameStats{
			WPM:         wpm,
			Accuracy:    0.9,
			TotalDamage: 80,
			MaxCombo:    combo,
		},
		Risk: risk,
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4, 5}, 2)
	want := []float64{1, 1.5, 2.5, 3.5, 4.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSparklineFlatSeries(t *testing.T) {
	line := Sparkline([]float64{3, 3, 3})
	if len(line) != 3 {
		t.Fatalf("sparkline length = %d, want 3", len(line))
	}
	if line[0] != line[1] || line[1] != line[2] {
		t.Fatalf("flat series produced uneven sparkline: %q", line)
	}
}

func TestSparklineRange(t *testing.T) {
	line := Sparkline([]float64{0, 10})
	if line[0] != sparkChars[0] || line[1] != sparkChars[len(sparkChars)-1] {
		t.Fatalf("extremes not mapped to edges: %q", line)
	}
}

func TestSummarize(t *testing.T) {
	battles := []model.SessionResult{
		battle("a", model.OutcomeWin, 60, 8, "LOW"),
		battle("b", model.OutcomeLose, 40, 3, "HIGH"),
		battle("c", model.OutcomeAbort, 50, 5, "LOW"),
	}
	s := Summarize(battles)
	if s.Battles != 3 || s.Wins != 1 || s.Losses != 1 || s.Aborts != 1 {
		t.Fatalf("counts wrong: %+v", s)
	}
	if s.AvgWPM != 50 || s.BestWPM != 60 || s.BestCombo != 8 {
		t.Fatalf("aggregates wrong: %+v", s)
	}
	if s.HighRisk != 1 {
		t.Fatalf("high-risk count = %d, want 1", s.HighRisk)
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var b strings.Builder
	if err := RenderSummary(&b, nil); err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	if !strings.Contains(b.String(), "No battles") {
		t.Fatalf("unexpected output: %q", b.String())
	}
}

func TestRenderBattleTable(t *testing.T) {
	var b strings.Builder
	battles := []model.SessionResult{battle("a", model.OutcomeWin, 62.5, 6, "LOW")}
	if err := RenderBattleTable(&b, battles); err != nil {
		t.Fatalf("RenderBattleTable: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "Outcome") || !strings.Contains(out, "win") {
		t.Fatalf("table missing data: %q", out)
	}
	if !strings.Contains(out, "62.5") || !strings.Contains(out, "90.0%") {
		t.Fatalf("table missing metrics: %q", out)
	}
}

func TestRenderTrendsTruncates(t *testing.T) {
	battles := make([]model.SessionResult, 30)
	for i := range battles {
		battles[i] = battle("x", model.OutcomeWin, float64(40+i), 2, "LOW")
	}
	var b strings.Builder
	if err := RenderTrends(&b, battles, 3, 10); err != nil {
		t.Fatalf("RenderTrends: %v", err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	// "WPM      " prefix plus at most 10 spark characters.
	if got := len([]rune(lines[0])); got > 9+10 {
		t.Fatalf("trend line not truncated: %q", lines[0])
	}
}
