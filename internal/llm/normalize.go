package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// extractJSONObject extracts a JSON object from text that may contain markdown
// code blocks or other formatting. Returns the extracted JSON string or an error.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

// repairJSON fixes the two defects models produce most often: trailing
// commas and unquoted object keys. String literals are copied untouched, so
// copy such as "Soft, durable: light" survives.
func repairJSON(text string) string {
	var out strings.Builder
	out.Grow(len(text) + 16)

	var last byte // last significant byte emitted outside a string
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			end := stringEnd(text, i)
			out.WriteString(text[i:end])
			i, last = end-1, '"'
		case c == ',':
			if next := nextSignificant(text, i+1); next == '}' || next == ']' {
				continue
			}
			out.WriteByte(c)
			last = c
		case isIdentStart(c) && (last == '{' || last == ','):
			j := i + 1
			for j < len(text) && isIdentPart(text[j]) {
				j++
			}
			if nextSignificant(text, j) == ':' {
				out.WriteString(`"` + text[i:j] + `"`)
			} else {
				out.WriteString(text[i:j])
			}
			i, last = j-1, text[j-1]
		default:
			out.WriteByte(c)
			if !isSpace(c) {
				last = c
			}
		}
	}
	return out.String()
}

// stringEnd returns the index just past the string literal opening at start.
// An unterminated literal runs to the end of text.
func stringEnd(text string, start int) int {
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(text)
}

func nextSignificant(text string, from int) byte {
	for i := from; i < len(text); i++ {
		if !isSpace(text[i]) {
			return text[i]
		}
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}

// Normalize extracts the JSON object embedded in a model response and parses
// it into a loosely-typed map. The context names the calling stage and is
// included in errors. All failures match ErrMalformedResponse.
func Normalize(raw, context string) (map[string]any, error) {
	jsonStr, err := extractJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", context, ErrMalformedResponse, err)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &obj); err == nil {
		return obj, nil
	}

	repaired := repairJSON(jsonStr)
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return nil, fmt.Errorf("%s: %w: %w (response: %s)", context, ErrMalformedResponse, err, jsonStr)
	}

	log.Debug().Str("context", context).Msg("repaired malformed json response")
	return obj, nil
}
