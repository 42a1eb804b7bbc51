package chunking

import (
	"fmt"
	"strings"
	"unicode"
)

// maxWindows bounds the sliding-window loops. Hitting it truncates the chunk
// sequence instead of looping forever on a pathological configuration.
const maxWindows = 1000

// splitOversized breaks a unit that exceeds the budget into overlapping
// chunks. Token spans are used when a tokenizer is available, rune offsets
// otherwise; a tokenizer failure downgrades the call to the rune path.
func (s *Splitter) splitOversized(unit string) []string {
	if s.tokenizer != nil {
		tokens, err := s.tokenizer.Encode(unit)
		if err == nil {
			return s.splitTokenWindows(tokens)
		}
		s.notify(Notice{
			Kind:    NoticeMeasurementFallback,
			Message: fmt.Sprintf("tokenizer encode failed, splitting by characters: %v", err),
		})
	}
	return s.splitRuneWindows(unit)
}

// splitTokenWindows slides a window of maxSize tokens forward by
// maxSize-overlap per step, decoding each window back to text. Decoded chunks
// may differ byte-wise from the original text at window boundaries; that
// divergence is accepted.
func (s *Splitter) splitTokenWindows(tokens []int) []string {
	step := s.step()
	chunks := make([]string, 0, len(tokens)/step+1)

	start := 0
	for windows := 0; start < len(tokens); windows++ {
		if windows >= maxWindows {
			s.notifyWindowCap(len(chunks))
			break
		}
		end := start + s.maxSize
		if end > len(tokens) {
			end = len(tokens)
		}
		text, err := s.tokenizer.Decode(tokens[start:end])
		if err != nil {
			// Undecodable window: re-split the remainder by characters.
			remainder, decodeErr := s.tokenizer.Decode(tokens[start:])
			if decodeErr != nil {
				s.notify(Notice{
					Kind:    NoticeMeasurementFallback,
					Message: fmt.Sprintf("tokenizer decode failed, dropping remainder: %v", err),
				})
				break
			}
			return append(chunks, s.splitRuneWindows(remainder)...)
		}
		if chunk := strings.TrimSpace(text); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(tokens) {
			break
		}
		start += step
	}
	return chunks
}

// splitRuneWindows is the character-offset variant of the same algorithm,
// with one refinement: each new window start skips leading whitespace so no
// chunk begins mid-whitespace.
func (s *Splitter) splitRuneWindows(unit string) []string {
	runes := []rune(unit)
	step := s.step()
	chunks := make([]string, 0, len(runes)/step+1)

	start := 0
	for windows := 0; start < len(runes); windows++ {
		if windows >= maxWindows {
			s.notifyWindowCap(len(chunks))
			break
		}
		end := start + s.maxSize
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}
		start += step
		for start < len(runes) && unicode.IsSpace(runes[start]) {
			start++
		}
	}
	return chunks
}

// step is the forward advance per window. Construction clamps overlap below
// maxSize, so this stays positive.
func (s *Splitter) step() int {
	step := s.maxSize - s.overlap
	if step <= 0 {
		step = s.maxSize
	}
	return step
}

func (s *Splitter) notifyWindowCap(produced int) {
	s.notify(Notice{
		Kind:    NoticeWindowCapExceeded,
		Message: fmt.Sprintf("window cap %d reached after %d chunks, output truncated", maxWindows, produced),
	})
}
