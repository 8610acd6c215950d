// Package wordlist provides word list filtering helpers.
package wordlist

import (
	"strings"

	"github.com/venh/typeclash/internal/model"
)

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns a language-specific filter for word lists.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglishASCII
	default:
		return func(string) bool { return true }
	}
}

// FilterWords keeps the pool entries whose text passes the filter.
func FilterWords(words []model.Word, keep FilterFunc) []model.Word {
	out := make([]model.Word, 0, len(words))
	for _, w := range words {
		if keep(w.Text) {
			out = append(out, w)
		}
	}
	return out
}

func filterEnglishASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}
