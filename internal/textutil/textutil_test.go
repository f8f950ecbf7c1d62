package textutil_test

import (
	"strings"
	"testing"

	"github.com/contesa/callanalyzer/internal/textutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortTextUnchanged(t *testing.T) {
	chunks := textutil.ChunkText("Customer asked about loan status.", 8000)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Customer asked about loan status.", chunks[0])
}

func TestChunkText_EmptyInput(t *testing.T) {
	assert.Nil(t, textutil.ChunkText("", 8000))
}

func TestChunkText_LongTranscriptSplitsAtSentences(t *testing.T) {
	sentence := "The caller explained that the withdrawal request failed again today. "
	var b strings.Builder
	for b.Len() < 20000 {
		b.WriteString(sentence)
	}
	text := b.String()

	chunks := textutil.ChunkText(text, 8000)
	require.Greater(t, len(chunks), 1)

	assert.LessOrEqual(t, len(chunks[0]), 8000)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(chunks[0]), "."))

	// Nothing is lost: total content length is preserved modulo the
	// whitespace collapsed at the split points.
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	assert.InDelta(t, len(text), total, float64(len(chunks)*2))
}

func TestChunkText_SingleOversizedSentence(t *testing.T) {
	text := strings.Repeat("a", 9000)
	chunks := textutil.ChunkText(text, 8000)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestExtractDateFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		want     string
	}{
		{"iso dashes", "call_2024-03-15_agent7.mp3", "2024-03-15"},
		{"iso underscores", "call_2024_03_15.mp3", "2024_03_15"},
		{"us style", "recording-03-15-2024.wav", "03-15-2024"},
		{"compact", "20240315_081233.mp3", "2024-03-15"},
		{"no date", "customer_call_final.mp3", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textutil.ExtractDateFromFilename(tt.fileName))
		})
	}
}
