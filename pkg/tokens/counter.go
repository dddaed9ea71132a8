// Package tokens estimates prompt token counts so the UI can show an
// expected input cost before a send.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/polyfold/polychat/pkg/api"
)

// Counter counts tokens in outbound payloads
type Counter struct {
	encoder *tiktoken.Tiktoken
	mu      sync.RWMutex
}

// NewCounter creates a counter using the cl100k_base encoding, which is
// a close enough estimate across the catalog's model families
func NewCounter() (*Counter, error) {
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &Counter{encoder: encoder}, nil
}

// CountText counts the tokens in a single string
func (c *Counter) CountText(text string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.encoder == nil {
		return estimateTokens(text)
	}
	return len(c.encoder.Encode(text, nil, nil))
}

// CountMessages estimates the token count of an outbound payload.
// Image parts are ignored; only text contributes.
func (c *Counter) CountMessages(msgs []api.ChatMessage) int {
	total := 0
	for _, m := range msgs {
		// Message boundaries cost a few tokens on most models
		total += 4
		switch content := m.Content.(type) {
		case string:
			total += c.CountText(content)
		case []api.ContentPart:
			for _, part := range content {
				if part.Text != "" {
					total += c.CountText(part.Text)
				}
			}
		}
	}
	return total
}

// estimateTokens is a rough fallback when no encoder is available
func estimateTokens(text string) int {
	return len(text) / 4
}
