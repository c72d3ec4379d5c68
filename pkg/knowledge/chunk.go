package knowledge

import (
	"strings"
	"unicode"
)

// Split cuts text into chunks of at most size runes where consecutive
// chunks share overlap runes. Cuts prefer paragraph, line and word
// boundaries in the back half of a window.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = boundary(runes, start+size/2, end)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := wordStart(runes, end-overlap, end)
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// boundary returns the cut position in runes[from:to], just after the
// strongest separator found, or to when there is none.
func boundary(runes []rune, from, to int) int {
	for _, sep := range []string{"\n\n", "\n", " "} {
		s := []rune(sep)
		for i := to - len(s); i >= from; i-- {
			if matchAt(runes, i, s) {
				return i + len(s)
			}
		}
	}
	return to
}

// wordStart moves from forward to the start of the next word, staying
// below limit.
func wordStart(runes []rune, from, limit int) int {
	if from <= 0 {
		return 0
	}
	if unicode.IsSpace(runes[from-1]) {
		return from
	}
	for i := from; i < limit; i++ {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return from
}

func matchAt(runes []rune, i int, sep []rune) bool {
	for j, r := range sep {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}
