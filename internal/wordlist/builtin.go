package wordlist

import (
	"fmt"

	"github.com/venh/typeclash/internal/model"
)

// builtinWords is a starter English pool used when no word list file
// is installed. Categories feed the per-type selection weighting.
var builtinWords = []struct {
	text     string
	level    int
	category string
}{
	{"herb", 1, "common"}, {"rest", 1, "common"}, {"salve", 2, "medical"},
	{"tonic", 2, "medical"}, {"mend", 1, "basic"}, {"bandage", 3, "medical"},
	{"remedy", 2, "medical"}, {"potion", 2, "common"}, {"elixir", 3, "medical"},
	{"restore", 3, "medical"}, {"recovery", 4, "medical"}, {"rejuvenate", 5, "medical"},

	{"jab", 1, "action"}, {"kick", 1, "action"}, {"slash", 2, "action"},
	{"strike", 2, "action"}, {"pierce", 3, "action"}, {"barrage", 3, "power"},
	{"onslaught", 4, "power"}, {"decimate", 4, "power"}, {"annihilate", 5, "power"},
	{"cataclysm", 5, "advanced"}, {"devastation", 5, "advanced"}, {"thunderstrike", 5, "power"},

	{"block", 1, "defense"}, {"parry", 2, "defense"}, {"shield", 2, "shield"},
	{"bulwark", 3, "defense"}, {"barrier", 3, "shield"}, {"fortress", 4, "protect"},
	{"sanctuary", 4, "protect"}, {"aegis", 2, "shield"}, {"impenetrable", 5, "protect"},

	{"ember", 2, ""}, {"forest", 2, ""}, {"garnet", 2, ""}, {"harbor", 2, ""},
	{"island", 2, ""}, {"jungle", 2, ""}, {"keeper", 2, ""}, {"lantern", 3, ""},
	{"meadow", 2, ""}, {"nectar", 2, ""}, {"orchid", 2, ""}, {"prism", 2, ""},
}

// Builtin returns the embedded starter pool.
func Builtin() []model.Word {
	words := make([]model.Word, len(builtinWords))
	for i, w := range builtinWords {
		words[i] = model.Word{
			ID:       fmt.Sprintf("builtin-%d-%s", i, w.text),
			Text:     w.text,
			Level:    w.level,
			Category: w.category,
			Length:   len([]rune(w.text)),
		}
	}
	return words
}
