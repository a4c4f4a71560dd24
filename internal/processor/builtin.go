package processor

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// WordReverser reverses the characters of every word while keeping word order.
type WordReverser struct{}

// Process implements Processor.
func (WordReverser) Process(_ context.Context, text string) (string, error) {
	return ReverseWords(text), nil
}

// Name implements Processor.
func (WordReverser) Name() string { return "Word Reverser" }

// Description implements Processor.
func (WordReverser) Description() string {
	return "Reverses each word in the text while maintaining word order."
}

// SentenceReverser reverses the order of sentences.
type SentenceReverser struct{}

// Process implements Processor.
func (SentenceReverser) Process(_ context.Context, text string) (string, error) {
	return ReverseSentences(text), nil
}

// Name implements Processor.
func (SentenceReverser) Name() string { return "Sentence Reverser" }

// Description implements Processor.
func (SentenceReverser) Description() string {
	return "Reverses the order of sentences in the text."
}

// Builtins returns the processors implemented in Go.
func Builtins() []Processor {
	return []Processor{WordReverser{}, SentenceReverser{}}
}

// ReverseWords splits text on runs of Unicode whitespace, reverses each word
// by grapheme cluster and joins the words with single spaces. The bundled
// word_reverser.lua script approximates the cluster rules (combining marks,
// emoji sequences and flags) and matches this on those inputs.
func ReverseWords(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = reverseGraphemes(w)
	}
	return strings.Join(words, " ")
}

func reverseGraphemes(s string) string {
	var clusters []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := len(clusters) - 1; i >= 0; i-- {
		b.WriteString(clusters[i])
	}
	return b.String()
}

// ReverseSentences reverses the order of sentences in text and joins them
// with single spaces. A sentence ends at '.', '!' or '?' followed by
// whitespace; the whitespace run is the separator. Text with no boundary is
// returned unchanged.
func ReverseSentences(text string) string {
	sentences := SplitSentences(text)
	if len(sentences) <= 1 {
		if len(sentences) == 1 && sentences[0] != text {
			return sentences[0]
		}
		return text
	}

	for i, j := 0, len(sentences)-1; i < j; i, j = i+1, j-1 {
		sentences[i], sentences[j] = sentences[j], sentences[i]
	}
	return strings.Join(sentences, " ")
}

// SplitSentences splits text at sentence boundaries. Empty fragments, such
// as the one left by trailing whitespace, are dropped.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		// Consume the whitespace run after the terminator.
		end := i
		j := i
		for j < len(text) {
			ws, n := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(ws) {
				break
			}
			j += n
		}
		if j == end {
			continue
		}

		if s := text[start:end]; s != "" {
			out = append(out, s)
		}
		start = j
		i = j
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}
