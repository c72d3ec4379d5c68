// Package tokens provides tiktoken-based token counting.
package tokens

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Counter counts tokens with a fixed encoding.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter creates a counter. Every provider we talk to is approximated
// with the cl100k encoding used by GPT-4.
func NewCounter() (*Counter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec: %w", err)
	}
	return &Counter{codec: codec}, nil
}

// Count returns the number of tokens in text. It falls back to four
// characters per token when the codec is unavailable or fails.
func (c *Counter) Count(text string) int {
	if c == nil || c.codec == nil {
		return estimate(text)
	}
	n, err := c.codec.Count(text)
	if err != nil {
		return estimate(text)
	}
	return n
}

func estimate(text string) int {
	return (len(text) + 3) / 4
}

//nolint:gochecknoglobals // codec construction is expensive, share one
var (
	shared     *Counter
	sharedOnce sync.Once
)

// Count counts tokens with a process-wide counter.
func Count(text string) int {
	sharedOnce.Do(func() {
		c, err := NewCounter()
		if err == nil {
			shared = c
		}
	})
	return shared.Count(text)
}
