package utils

import (
	"strings"
	"unicode"
)

// SplitText splits text into chunks of at most chunkSize runes, each sharing
// overlap runes with the previous one. A cut is moved back to the nearest
// whitespace in the last fifth of the window so words stay whole.
func SplitText(text string, chunkSize int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if chunkSize <= 0 || len(runes) <= chunkSize {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = backToSpace(runes, start, end, chunkSize/5)
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func backToSpace(runes []rune, start, end, window int) int {
	for i := end; i > end-window && i > start+1; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
