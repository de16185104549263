package llm

import (
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("no JSON value found in reply")

// ExtractJSON locates the first JSON object or array inside free-form
// reply text. Completion replies routinely wrap JSON in prose or code
// fences even when a structured response was requested, so every parse
// boundary goes through this before unmarshaling.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrNoJSON
}
