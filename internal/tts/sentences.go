package tts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations never end a sentence when followed by a period.
var abbreviations = func() map[string]bool {
	m := make(map[string]bool)
	for _, a := range []string{
		"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st",
		"inc", "ltd", "co", "corp", "llc",
		"e.g", "i.e", "etc", "vs", "cf", "al", "approx",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
		"no", "vol", "fig", "p", "pp",
		"u.s", "u.k", "ph.d", "a.m", "p.m",
	} {
		m[a] = true
	}
	return m
}()

// SplitSentences breaks plain text into sentences. Abbreviations, decimals
// and ellipses do not end a sentence; a period must be followed by space
// and an upper-case letter (or the end of the text) to count.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0

	emit := func(end int) {
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		end := i + 1
		for end < len(runes) && strings.ContainsRune(".!?", runes[end]) {
			end++
		}
		for end < len(runes) && strings.ContainsRune(`"')]`, runes[end]) {
			end++
		}

		if isSentenceEnd(runes, i, end) {
			emit(end)
		}
		i = end - 1
	}
	emit(len(runes))
	return out
}

// isSentenceEnd reports whether the punctuation run runes[pos:end] closes a
// sentence.
func isSentenceEnd(runes []rune, pos, end int) bool {
	if end >= len(runes) {
		return true
	}
	if !unicode.IsSpace(runes[end]) {
		return false
	}

	if runes[pos] == '.' {
		if end-pos >= 3 && string(runes[pos:pos+3]) == "..." {
			return false
		}
		if abbreviations[strings.ToLower(wordBefore(runes, pos))] {
			return false
		}
	}
	if runes[pos] != '.' {
		return true
	}

	next := end
	for next < len(runes) && unicode.IsSpace(runes[next]) {
		next++
	}
	return next >= len(runes) || unicode.IsUpper(runes[next]) || unicode.IsDigit(runes[next])
}

// wordBefore returns the word ending at pos, without trailing dots.
func wordBefore(runes []rune, pos int) string {
	start := pos
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	return strings.TrimRight(strings.TrimLeft(string(runes[start:pos]), `"'([`), ".")
}

// Chunk packs sentences into pieces of at most limit bytes. A sentence longer
// than limit is split between words, and a single word longer than limit is
// cut at a rune boundary.
func Chunk(text string, limit int) []string {
	if limit <= 0 {
		limit = 1
	}

	var (
		chunks []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}
	add := func(piece string) {
		if cur.Len() > 0 && cur.Len()+1+len(piece) > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(piece)
	}

	for _, s := range SplitSentences(text) {
		if len(s) <= limit {
			add(s)
			continue
		}
		for _, w := range strings.Fields(s) {
			for len(w) > limit {
				cut := limit
				for cut > 0 && !utf8.RuneStart(w[cut]) {
					cut--
				}
				if cut == 0 {
					cut = limit
				}
				flush()
				chunks = append(chunks, w[:cut])
				w = w[cut:]
			}
			add(w)
		}
	}
	flush()
	return chunks
}
