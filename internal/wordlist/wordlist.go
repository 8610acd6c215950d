// Package wordlist loads battle word pools from files.
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/venh/typeclash/internal/model"
)

// LoadWords reads one word per line from the provided file path. Each
// line is `text[,level[,category]]`; a missing level is inferred from
// the word length.
func LoadWords(path string) ([]model.Word, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()

	var words []model.Word
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w, err := parseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

func parseLine(line string, lineNo int) (model.Word, error) {
	parts := strings.Split(line, ",")
	text := strings.TrimSpace(parts[0])
	if text == "" {
		return model.Word{}, fmt.Errorf("line %d: empty word", lineNo)
	}

	level := 0
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		v, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return model.Word{}, fmt.Errorf("line %d: bad level %q", lineNo, parts[1])
		}
		if v < 1 || v > 5 {
			return model.Word{}, fmt.Errorf("line %d: level %d outside 1..5", lineNo, v)
		}
		level = v
	}
	if level == 0 {
		level = InferLevel(text)
	}

	category := ""
	if len(parts) > 2 {
		category = strings.TrimSpace(parts[2])
	}

	return model.Word{
		ID:       fmt.Sprintf("w%d-%s", lineNo, text),
		Text:     text,
		Level:    level,
		Category: category,
		Length:   len([]rune(text)),
	}, nil
}

// InferLevel derives a difficulty level from the word length.
func InferLevel(text string) int {
	switch n := len([]rune(text)); {
	case n <= 4:
		return 1
	case n <= 6:
		return 2
	case n <= 8:
		return 3
	case n <= 10:
		return 4
	default:
		return 5
	}
}
