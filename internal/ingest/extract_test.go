// internal/ingest/extract_test.go
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMessages_SpeakerHeuristic(t *testing.T) {
	text := "Alice: we keep losing invoices\nBob: yeah the billing tool is a mess\njust a note line"

	messages := ExtractMessages(text)

	assert.Len(t, messages, 3)

	assert.Equal(t, "Alice", messages[0].Speaker)
	assert.Equal(t, "we keep losing invoices", messages[0].Text)
	assert.Equal(t, 0, messages[0].Position)

	assert.Equal(t, "Bob", messages[1].Speaker)
	assert.Equal(t, "yeah the billing tool is a mess", messages[1].Text)

	assert.Equal(t, "", messages[2].Speaker)
	assert.Equal(t, "just a note line", messages[2].Text)
	assert.Equal(t, 2, messages[2].Position)
}

func TestExtractMessages_LongPrefixIsNotASpeaker(t *testing.T) {
	line := "the quarterly compliance report: still missing two sections"

	messages := ExtractMessages(line)

	assert.Len(t, messages, 1)
	assert.Equal(t, "", messages[0].Speaker)
	assert.Equal(t, line, messages[0].Text)
}

func TestExtractMessages_ColonBeyondWindowIgnored(t *testing.T) {
	line := strings.Repeat("a", 55) + ": trailing part"

	messages := ExtractMessages(line)

	assert.Len(t, messages, 1)
	assert.Equal(t, "", messages[0].Speaker)
	assert.Equal(t, line, messages[0].Text)
}

func TestExtractMessages_EmptyLinesSkipped(t *testing.T) {
	messages := ExtractMessages("\n\n   \nfirst\n\nsecond\n")

	assert.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Text)
	assert.Equal(t, 0, messages[0].Position)
	assert.Equal(t, "second", messages[1].Text)
	assert.Equal(t, 1, messages[1].Position)
}

func TestExtractConversation_HashAndSummary(t *testing.T) {
	text := strings.Repeat("x", 600)

	conv, messages := ExtractConversation("call", text)

	sum := sha256.Sum256([]byte(text))
	assert.Equal(t, hex.EncodeToString(sum[:]), conv.RawTextHash)
	assert.Equal(t, "call", conv.SourceType)
	assert.Len(t, conv.RawSummary, 500)
	assert.Len(t, messages, 1)
}

func TestExtractConversation_ShortTextKeptWhole(t *testing.T) {
	conv, messages := ExtractConversation("manual", "one line of notes")

	assert.Equal(t, "one line of notes", conv.RawSummary)
	assert.Len(t, messages, 1)
	assert.Equal(t, "one line of notes", messages[0].Text)
}
