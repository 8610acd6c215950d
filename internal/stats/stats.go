// Package stats contains statistics calculations and reporting over
// stored battles.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/venh/typeclash/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Summary aggregates stored battle results.
type Summary struct {
	Battles      int
	Wins         int
	Losses       int
	Aborts       int
	AvgWPM       float64
	BestWPM      float64
	AvgAccuracy  float64
	BestCombo    int
	TotalDamage  int
	TotalHealing int
	HighRisk     int
}

// Summarize folds battles into a summary.
func Summarize(battles []model.SessionResult) Summary {
	var s Summary
	s.Battles = len(battles)
	for _, b := range battles {
		switch b.Outcome {
		case model.OutcomeWin:
			s.Wins++
		case model.OutcomeLose:
			s.Losses++
		default:
			s.Aborts++
		}
		s.AvgWPM += b.Stats.WPM
		s.AvgAccuracy += b.Stats.Accuracy
		if b.Stats.WPM > s.BestWPM {
			s.BestWPM = b.Stats.WPM
		}
		if b.Stats.MaxCombo > s.BestCombo {
			s.BestCombo = b.Stats.MaxCombo
		}
		s.TotalDamage += b.Stats.TotalDamage
		s.TotalHealing += b.Stats.TotalHealing
		if b.Risk == "HIGH" {
			s.HighRisk++
		}
	}
	if s.Battles > 0 {
		s.AvgWPM /= float64(s.Battles)
		s.AvgAccuracy /= float64(s.Battles)
	}
	return s
}

// RenderSummary prints a summary block for battles.
func RenderSummary(w io.Writer, battles []model.SessionResult) error {
	if len(battles) == 0 {
		_, err := fmt.Fprintln(w, "No battles found.")
		return err
	}
	s := Summarize(battles)
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Battles: %d (W %d / L %d / A %d)\n", s.Battles, s.Wins, s.Losses, s.Aborts); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg WPM: %.2f\n", s.AvgWPM); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best WPM: %.2f\n", s.BestWPM); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Accuracy: %.2f%%\n", s.AvgAccuracy*100); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best Combo: %d\n", s.BestCombo); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Damage/Healing: %d/%d\n", s.TotalDamage, s.TotalHealing); err != nil {
		return err
	}
	if s.HighRisk > 0 {
		if _, err := fmt.Fprintf(w, "High-risk battles: %d\n", s.HighRisk); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderBattleTable prints one row per battle.
func RenderBattleTable(w io.Writer, battles []model.SessionResult) error {
	if len(battles) == 0 {
		_, err := fmt.Fprintln(w, "No battles found.")
		return err
	}
	headers := []string{"Date", "Difficulty", "Outcome", "Rounds", "WPM", "Accuracy", "Combo", "Risk"}
	rows := make([][]string, 0, len(battles))
	for _, b := range battles {
		rows = append(rows, []string{
			b.EndedAt.Format("2006-01-02 15:04"),
			string(b.Difficulty),
			string(b.Outcome),
			fmt.Sprintf("%d", b.Rounds),
			fmt.Sprintf("%.1f", b.Stats.WPM),
			fmt.Sprintf("%.1f%%", b.Stats.Accuracy*100),
			fmt.Sprintf("%d", b.Stats.MaxCombo),
			b.Risk,
		})
	}
	rightAlign := map[int]bool{3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrends prints WPM and accuracy sparklines over battles, smoothed
// by a moving average and truncated to the terminal width.
func RenderTrends(w io.Writer, battles []model.SessionResult, window, width int) error {
	if len(battles) < 2 {
		return nil
	}
	wpms := make([]float64, len(battles))
	accs := make([]float64, len(battles))
	for i, b := range battles {
		wpms[i] = b.Stats.WPM
		accs[i] = b.Stats.Accuracy * 100
	}
	wpms = truncate(MovingAverage(wpms, window), width)
	accs = truncate(MovingAverage(accs, window), width)

	if _, err := fmt.Fprintf(w, "WPM      %s\n", Sparkline(wpms)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Accuracy %s\n", Sparkline(accs))
	return err
}

func truncate(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		return values
	}
	return values[len(values)-width:]
}
