package tts

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "Hello there. How are you?", []string{"Hello there.", "How are you?"}},
		{"abbreviation", "Dr. Smith went home. He slept.", []string{"Dr. Smith went home.", "He slept."}},
		{"dotted abbreviation", "Bring fruit, e.g. apples. Thanks!", []string{"Bring fruit, e.g. apples.", "Thanks!"}},
		{"decimal", "Pi is 3.14 roughly. Nice.", []string{"Pi is 3.14 roughly.", "Nice."}},
		{"ellipsis", "Wait... what happened?", []string{"Wait... what happened?"}},
		{"mixed punctuation", "Really?! Yes.", []string{"Really?!", "Yes."}},
		{"quoted", `He said "Hi." Then left.`, []string{`He said "Hi."`, "Then left."}},
		{"lower case after period", "version 2. then more", []string{"version 2. then more"}},
		{"no terminator", "just words", []string{"just words"}},
		{"blank", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.in))
		})
	}
}

func TestChunk_PacksSentences(t *testing.T) {
	text := "One two. Three four. Five six."
	assert.Equal(t, []string{"One two. Three four.", "Five six."}, Chunk(text, 20))
	assert.Equal(t, []string{text}, Chunk(text, 100))
}

func TestChunk_SplitsLongSentences(t *testing.T) {
	text := strings.Repeat("word ", 50) + "end."
	chunks := Chunk(text, 32)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 32)
	}
	assert.Equal(t, strings.Join(strings.Fields(text), " "), strings.Join(chunks, " "))
}

func TestChunk_CutsLongWordsOnRuneBoundaries(t *testing.T) {
	word := strings.Repeat("é", 20) // 40 bytes
	chunks := Chunk(word, 9)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 9)
		assert.True(t, utf8.ValidString(c), c)
	}
	assert.Equal(t, word, strings.Join(chunks, ""))
}

func TestChunk_Empty(t *testing.T) {
	assert.Empty(t, Chunk("  ", 10))
}
