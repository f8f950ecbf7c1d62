// Package textutil holds transcript text helpers: sentence-boundary
// chunking for prompt budgets and date extraction from source file names.
package textutil

import (
	"regexp"
	"strings"
)

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// ChunkText splits text into chunks of at most maxLen characters, breaking
// at sentence boundaries. A single sentence longer than maxLen becomes its
// own oversized chunk rather than being cut mid-sentence. Returns nil for
// empty input and the text unchanged when it already fits.
func ChunkText(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	marked := sentenceEnd.ReplaceAllString(text, "$1\x1f")
	sentences := strings.Split(marked, "\x1f")

	var chunks []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		if currentLen+len(sentence)+1 <= maxLen {
			current = append(current, sentence)
			currentLen += len(sentence) + 1
			continue
		}
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}
		current = []string{sentence}
		currentLen = len(sentence)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4}[-_/]\d{1,2}[-_/]\d{1,2})`), // YYYY-MM-DD and _ / variants
	regexp.MustCompile(`(\d{1,2}[-_/]\d{1,2}[-_/]\d{4})`), // MM-DD-YYYY and _ / variants
	regexp.MustCompile(`(\d{8})`),                         // YYYYMMDD
}

// ExtractDateFromFilename pulls a call date out of a recording file name.
// Returns "" when no recognizable date pattern is present.
func ExtractDateFromFilename(fileName string) string {
	for _, pattern := range datePatterns {
		match := pattern.FindStringSubmatch(fileName)
		if match == nil {
			continue
		}
		dateStr := match[1]
		if len(dateStr) == 8 && !strings.ContainsAny(dateStr, "-_/") {
			return dateStr[:4] + "-" + dateStr[4:6] + "-" + dateStr[6:]
		}
		return dateStr
	}
	return ""
}
