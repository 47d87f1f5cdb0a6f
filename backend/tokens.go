package backend

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultTokenEncoding is the tiktoken encoding used for budget accounting
const DefaultTokenEncoding = "cl100k_base"

// TokenCounter counts tokens with tiktoken. The encoding is initialized
// lazily because tiktoken may download its data on first use; if that
// fails the counter degrades to a four-characters-per-token estimate.
type TokenCounter struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
	initErr  error
}

// NewTokenCounter creates a token counter for the given encoding.
// An empty encoding uses DefaultTokenEncoding.
func NewTokenCounter(encoding string) *TokenCounter {
	if encoding == "" {
		encoding = DefaultTokenEncoding
	}
	return &TokenCounter{encoding: encoding}
}

// Count returns the token count of a text
func (t *TokenCounter) Count(text string) int {
	t.once.Do(func() {
		t.enc, t.initErr = tiktoken.GetEncoding(t.encoding)
	})

	if t.initErr != nil || t.enc == nil {
		return len(text) / 4
	}

	return len(t.enc.Encode(text, nil, nil))
}
