package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxLoggedResponse = 2000

// ErrUndecodable indicates generated text held no decodable JSON payload.
var ErrUndecodable = errors.New("generated text is not valid JSON")

// DecodeJSON decodes a JSON payload from generated text into v. A failed
// first attempt is followed by one normalization pass that strips code
// fences and surrounding prose, then a single retry.
func DecodeJSON(text string, v any) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("%w: empty text", ErrUndecodable)
	}

	firstErr := json.Unmarshal([]byte(trimmed), v)
	if firstErr == nil {
		return nil
	}

	normalized := extractJSON(stripCodeFences(trimmed))
	if normalized == trimmed {
		return fmt.Errorf("%w: %w", ErrUndecodable, firstErr)
	}

	if err := json.Unmarshal([]byte(normalized), v); err != nil {
		return fmt.Errorf("%w: %w", ErrUndecodable, err)
	}

	return nil
}

func stripCodeFences(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}

		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// extractJSON trims text to the outermost JSON object or array, whichever
// opens first.
func extractJSON(text string) string {
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	type span struct{ open, close string }

	order := []span{{"{", "}"}, {"[", "]"}}
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		order = []span{{"[", "]"}, {"{", "}"}}
	}

	for _, s := range order {
		start := strings.Index(text, s.open)
		end := strings.LastIndex(text, s.close)

		if start != -1 && end != -1 && end > start {
			return text[start : end+1]
		}
	}

	return text
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	return string([]rune(s)[:maxRunes]) + "..."
}
