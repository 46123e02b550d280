package sequencer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLength is the largest chunk revealed as a single message
const DefaultMaxLength = 150

// SplitSentences breaks text at '.', '!' or '?' followed by whitespace. The
// punctuation stays with its sentence; a trailing fragment without terminal
// punctuation is kept as its own unit.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i, r := range runes {
		if !isTerminal(r) {
			continue
		}
		if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Pack greedily joins sentences with a space until the next one would push
// the chunk past maxLen characters. A sentence longer than maxLen becomes a
// chunk of its own.
func Pack(sentences []string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if currentLen > 0 && currentLen+1+n > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(s)
		currentLen += n
	}

	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// Chunk splits and packs a narrative in one step
func Chunk(narrative string, maxLen int) []string {
	return Pack(SplitSentences(narrative), maxLen)
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
