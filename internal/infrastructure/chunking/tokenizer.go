package chunking

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer is the optional token-measurement capability. When present, chunk
// sizes are expressed in tokens; when absent (or failing), the splitter falls
// back to rune counts.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(tokens []int) (string, error)
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// LoadTokenizer resolves id first as a tiktoken encoding name (for example
// "cl100k_base") and then as a model identifier. Callers are expected to
// degrade to character measurement when this fails rather than abort.
func LoadTokenizer(id string) (Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(id)
	if err != nil {
		enc, err = tiktoken.EncodingForModel(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %q: %w", id, err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

func (t *tiktokenTokenizer) Encode(text string) ([]int, error) {
	return t.enc.Encode(text, nil, nil), nil
}

func (t *tiktokenTokenizer) Decode(tokens []int) (string, error) {
	return t.enc.Decode(tokens), nil
}
