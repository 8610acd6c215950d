package typing

import "github.com/venh/typeclash/internal/model"

// Expected WPM per word level (index 0 unused). Longer words get a
// per-character reduction, floored at 20.
var expectedBase = [6]float64{0, 45, 40, 35, 30, 25}

const (
	longWordThreshold = 6
	longWordPenalty   = 1.5
	expectedFloor     = 20
)

// ExpectedWPM derives the expected typing speed for a word.
func ExpectedWPM(w model.Word) float64 {
	wpm := expectedBase[clampLevel(w.Level)]
	length := len([]rune(w.Text))
	if length > longWordThreshold {
		wpm -= float64(length-longWordThreshold) * longWordPenalty
	}
	if wpm < expectedFloor {
		wpm = expectedFloor
	}
	return wpm
}

// Score rates a completed attempt. Base 100, scaled by accuracy,
// boosted for beating the expected WPM, for word level, and for a
// zero-correction perfect run.
func Score(cw model.CompletedWord) float64 {
	score := 100 * cw.Accuracy

	expected := cw.Word.ExpectedWPM
	if expected <= 0 {
		expected = ExpectedWPM(cw.Word)
	}
	if expected > 0 && cw.WPM > expected {
		ratio := cw.WPM / expected
		if ratio > 1.5 {
			ratio = 1.5
		}
		score *= ratio
	}

	score *= 1 + float64(clampLevel(cw.Word.Level)-1)*0.1

	corrections := 0
	if cw.Pattern != nil {
		corrections = cw.Pattern.Corrections
	}
	if corrections == 0 && cw.Errors == 0 && cw.Accuracy >= 1.0 {
		score *= 1.2
	}
	return score
}
