package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/dedent"
)

// maxMessageLength is Telegram's limit for a single text message.
const maxMessageLength = 4096

func formatReplyText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

// parseCommand splits a command message into the command and its arguments.
// A "@botname" suffix on the command is dropped.
func parseCommand(s string) (string, []string) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return "", nil
	}
	command, _, _ := strings.Cut(parts[0], "@")
	return command, parts[1:]
}

// splitMessage breaks text into chunks Telegram accepts, preferring to cut
// at line breaks.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		cut := byteOffset(text, limit)
		if i := strings.LastIndex(text[:cut], "\n"); i > 0 {
			cut = i
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// byteOffset returns the byte index of the n'th rune.
func byteOffset(s string, n int) int {
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}
