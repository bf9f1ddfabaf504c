package telegram

import (
	"strings"

	"ocr-gateway/api/internal/ocr/types"
)

// maxMessageRunes stays under Telegram's 4096 limit with room for the suffix.
const maxMessageRunes = 3900

func formatResult(res types.Result) string {
	txt := strings.TrimSpace(res.Text)
	if txt == "" {
		return "(empty)"
	}
	return truncate(txt, maxMessageRunes)
}

func truncate(s string, max int) string {
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "…"
		}
		n++
	}
	return s
}

// esc escapes the legacy Markdown control characters.
func esc(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "[", "\\[")
	return s
}
