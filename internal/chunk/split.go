// Package chunk splits text into bounded-length pieces along word and line
// boundaries and expands per-chunk prefix/suffix templates.
package chunk

// Boundary thresholds as fractions of maxLength. A newline close enough to
// the cut wins over a space; a space close enough wins over a hard cut.
const (
	newlineThreshold = 0.7
	spaceThreshold   = 0.5
)

// Split partitions text into chunks of at most maxLength runes. Chunks
// concatenate back to text exactly: nothing is dropped, duplicated, or
// reordered. Cuts prefer the newline nearest the limit, then the nearest
// space, and fall back to a hard cut mid-word. The boundary character stays
// with the preceding chunk.
//
// Empty text yields nil. Text no longer than maxLength yields a single chunk.
func Split(text string, maxLength int) []string {
	if text == "" {
		return nil
	}
	if maxLength < 1 {
		return []string{text}
	}

	runes := []rune(text)
	var chunks []string

	offset := 0
	for offset < len(runes) {
		if len(runes)-offset <= maxLength {
			chunks = append(chunks, string(runes[offset:]))
			break
		}

		cutEnd := offset + maxLength
		cut := cutEnd

		// Search the current window only, so no chunk exceeds maxLength.
		newline := lastIndexBefore(runes, '\n', offset, cutEnd)
		space := lastIndexBefore(runes, ' ', offset, cutEnd)

		if newline >= 0 && float64(newline-offset) > newlineThreshold*float64(maxLength) {
			cut = newline + 1
		} else if space >= 0 && float64(space-offset) > spaceThreshold*float64(maxLength) {
			cut = space + 1
		}

		chunks = append(chunks, string(runes[offset:cut]))
		offset = cut
	}

	return chunks
}

// lastIndexBefore returns the largest index i in [from, to) with runes[i] == r,
// or -1 if none exists.
func lastIndexBefore(runes []rune, r rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
