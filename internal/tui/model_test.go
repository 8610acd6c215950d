package tui

import (
	"strings"
	"testing"
)

func TestFormatClock(t *testing.T) {
	cases := map[int]string{
		0:   "0:00",
		9:   "0:09",
		65:  "1:05",
		120: "2:00",
		-3:  "0:00",
	}
	for seconds, want := range cases {
		if got := formatClock(seconds); got != want {
			t.Fatalf("formatClock(%d) = %q, want %q", seconds, got, want)
		}
	}
}

func TestPadWord(t *testing.T) {
	if got := padWord("cat"); len(got) != 10 {
		t.Fatalf("short word not padded: %q", got)
	}
	long := "thunderstrike"
	if got := padWord(long); got != long {
		t.Fatalf("long word changed: %q", got)
	}
	if got := padWord("猫"); !strings.HasPrefix(got, "猫") || len([]rune(got)) != 9 {
		// A double-width rune consumes two cells, leaving eight spaces.
		t.Fatalf("wide rune padding wrong: %q", got)
	}
}

func TestRatio(t *testing.T) {
	if got := ratio(50, 100); got != 0.5 {
		t.Fatalf("ratio = %v, want 0.5", got)
	}
	if got := ratio(10, 0); got != 0 {
		t.Fatalf("ratio with zero max = %v, want 0", got)
	}
}
