package speech

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkEmpty(t *testing.T) {
	require.Nil(t, Chunk(""))
	require.Nil(t, Chunk("   \n  "))
}

func TestChunkShortTextStaysWhole(t *testing.T) {
	text := "नमस्ते दुनिया। यह एक परीक्षण है।"
	require.Equal(t, []string{text}, Chunk(text))
}

func TestChunkExactlyAtSingleLimit(t *testing.T) {
	text := strings.Repeat("क", singleChunkLimit)
	require.Equal(t, []string{text}, Chunk(text))
}

func TestChunkSplitsOnSentenceBoundaries(t *testing.T) {
	sentence := strings.Repeat("शब्द ", 15) + "अंत।" // ~80 runes
	text := sentence + " " + sentence + " " + sentence

	chunks := Chunk(text)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		require.LessOrEqual(t, len([]rune(chunk)), chunkPackLimit)
		require.True(t, strings.HasSuffix(chunk, "।"), "chunk should end at a sentence boundary: %q", chunk)
	}
	require.Equal(t, strings.ReplaceAll(text, "  ", " "), strings.Join(chunks, " "))
}

func TestChunkNeverSplitsOversizedSentence(t *testing.T) {
	long := strings.Repeat("अ", 200) + "।"
	text := "पहला वाक्य। " + long

	chunks := Chunk(text)
	require.Contains(t, chunks, long, "an oversized sentence must stay intact as its own chunk")
}

func TestChunkHandlesMixedTerminators(t *testing.T) {
	text := strings.Repeat("x", 60) + ". " + strings.Repeat("y", 60) + "! " + strings.Repeat("z", 60) + "?"
	chunks := Chunk(text)
	require.Len(t, chunks, 2)
	require.Equal(t, strings.Repeat("x", 60)+". "+strings.Repeat("y", 60)+"!", chunks[0])
	require.Equal(t, strings.Repeat("z", 60)+"?", chunks[1])
}

func TestChunkCollapsesWhitespaceBeforeLengthGate(t *testing.T) {
	// 123 runes raw, 89 once whitespace runs collapse: one cleaned chunk.
	words := make([]string, 18)
	for i := range words {
		words[i] = "word"
	}
	raw := strings.Join(words, "   ")
	cleaned := strings.Join(words, " ")
	require.Equal(t, 123, len([]rune(raw)))
	require.Equal(t, 89, len([]rune(cleaned)))

	require.Equal(t, []string{cleaned}, Chunk(raw))
}

func TestChunkCollapsesNewlinesAndTabs(t *testing.T) {
	require.Equal(t, []string{"एक दो तीन"}, Chunk("एक\n\tदो \n तीन"))
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("एक। दो. तीन! चार? पाँच")
	require.Equal(t, []string{"एक।", "दो.", "तीन!", "चार?", "पाँच"}, got)
}

func TestSplitSentencesKeepsTerminatorRunsTogether(t *testing.T) {
	got := splitSentences("रुको... ठीक है?! आगे")
	require.Equal(t, []string{"रुको...", "ठीक है?!", "आगे"}, got)
}

func TestChunkNoBareTerminatorFragments(t *testing.T) {
	text := strings.Repeat("x", 60) + "... " + strings.Repeat("y", 60) + "?! " + strings.Repeat("z", 60) + "."
	for _, chunk := range Chunk(text) {
		trimmed := strings.TrimLeft(chunk, "।.!? ")
		require.NotEmpty(t, trimmed, "chunk must carry words, not bare terminators: %q", chunk)
	}
}
