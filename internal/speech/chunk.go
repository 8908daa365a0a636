// Package speech synthesizes Hindi text aloud chunk by chunk.
package speech

import "strings"

const (
	// singleChunkLimit is the rune length under which text is spoken whole.
	singleChunkLimit = 100
	// chunkPackLimit caps how many runes are packed into one spoken chunk.
	chunkPackLimit = 150
)

// sentenceTerminators end a sentence for chunk-splitting purposes. The
// danda (।) is the Devanagari full stop.
var sentenceTerminators = map[rune]bool{
	'।': true,
	'.': true,
	'!': true,
	'?': true,
}

// Chunk splits text into speakable pieces.
//
// The input is cleaned first: runs of whitespace collapse to single spaces.
// Short cleaned text stays whole. Longer text is cut at sentence boundaries
// and packed greedily up to the chunk limit; a sentence is never split, so
// one oversized sentence becomes its own oversized chunk.
func Chunk(text string) []string {
	text = clean(text)
	if text == "" {
		return nil
	}
	if len([]rune(text)) <= singleChunkLimit {
		return []string{text}
	}

	sentences := splitSentences(text)
	chunks := make([]string, 0, len(sentences))
	var current strings.Builder
	currentLen := 0

	for _, sentence := range sentences {
		sentenceLen := len([]rune(sentence))
		if currentLen > 0 && currentLen+1+sentenceLen > chunkPackLimit {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += sentenceLen
	}
	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// clean collapses whitespace runs to single spaces and trims the ends.
func clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// splitSentences cuts text after each terminator run, so an ellipsis ends
// one sentence rather than producing bare "." fragments.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !sentenceTerminators[runes[i]] {
			continue
		}
		for i+1 < len(runes) && sentenceTerminators[runes[i+1]] {
			i++
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
