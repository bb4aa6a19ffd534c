// internal/ingest/extract.go
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"demand-radar/internal/models"
)

const (
	summaryLimit      = 500
	speakerScanWindow = 50
	speakerMaxLen     = 30
)

// ExtractConversation builds a conversation record plus its messages from raw
// notes. The summary keeps the first 500 characters; the hash covers the full
// text so re-submissions of the same notes are detectable.
func ExtractConversation(sourceType, text string) (models.Conversation, []models.Message) {
	hash := sha256.Sum256([]byte(text))

	summary := text
	if runes := []rune(summary); len(runes) > summaryLimit {
		summary = string(runes[:summaryLimit])
	}

	conv := models.Conversation{
		SourceType:  sourceType,
		RawSummary:  summary,
		RawTextHash: hex.EncodeToString(hash[:]),
	}
	return conv, ExtractMessages(text)
}

// ExtractMessages splits raw notes into one message per non-empty line.
// A line led by a short "speaker:" prefix is split into speaker and body.
func ExtractMessages(text string) []models.Message {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	messages := make([]models.Message, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		speaker, body := splitSpeaker(line)
		messages = append(messages, models.Message{
			Speaker:  speaker,
			Text:     body,
			Position: len(messages),
		})
	}
	return messages
}

// splitSpeaker detects a leading speaker label: a colon inside the first
// 50 characters with a prefix under 30. Anything longer is left in the
// body untouched.
func splitSpeaker(line string) (speaker, body string) {
	window := line
	if len(window) > speakerScanWindow {
		window = window[:speakerScanWindow]
	}
	if !strings.Contains(window, ":") {
		return "", line
	}

	prefix, rest, _ := strings.Cut(line, ":")
	if len(prefix) >= speakerMaxLen {
		return "", line
	}
	return strings.TrimSpace(prefix), strings.TrimSpace(rest)
}
