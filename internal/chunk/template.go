package chunk

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Template placeholder tokens, replaced per chunk at render time.
const (
	tokenIndex = "{i}" // 1-based chunk index
	tokenTotal = "{n}" // total chunk count
)

// Piece is one rendered chunk handed to a display or export consumer.
type Piece struct {
	Index int    `json:"index"` // 1-based
	Total int    `json:"total"`
	Text  string `json:"text"`
	Chars int    `json:"chars"` // rune count of Text
}

// ApplyTemplate wraps chunk with the expanded prefix and suffix. Expansion is
// plain single-pass substitution of the literal tokens {i} and {n}; replacement
// values are never re-scanned for further tokens.
func ApplyTemplate(chunk string, index, total int, prefix, suffix string) string {
	return expand(prefix, index, total) + chunk + expand(suffix, index, total)
}

func expand(s string, index, total int) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, tokenIndex, strconv.Itoa(index))
	return strings.ReplaceAll(s, tokenTotal, strconv.Itoa(total))
}

// Render splits text and applies the prefix/suffix template to every chunk.
// Edits to prefix/suffix only require re-rendering, not re-splitting, but the
// split is cheap enough that callers just use this.
func Render(text string, maxLength int, prefix, suffix string) []Piece {
	chunks := Split(text, maxLength)
	if len(chunks) == 0 {
		return nil
	}

	pieces := make([]Piece, len(chunks))
	for i, c := range chunks {
		rendered := ApplyTemplate(c, i+1, len(chunks), prefix, suffix)
		pieces[i] = Piece{
			Index: i + 1,
			Total: len(chunks),
			Text:  rendered,
			Chars: utf8.RuneCountInString(rendered),
		}
	}
	return pieces
}
