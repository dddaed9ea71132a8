// Package history loads persisted conversations and caches the
// reconstructed turn lists across navigation. The cache has an explicit
// lifecycle: entries are overwritten on successful refetch and removed
// on delete.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/polyfold/polychat/pkg/api"
	"github.com/polyfold/polychat/pkg/conversation"
)

// Cache fronts the backend conversation-history API
type Cache struct {
	client *api.Client

	mu      sync.Mutex
	entries map[string][]conversation.Turn
}

// NewCache creates an empty history cache
func NewCache(client *api.Client) *Cache {
	return &Cache{
		client:  client,
		entries: make(map[string][]conversation.Turn),
	}
}

// Load returns the turn list for a conversation, from cache when
// available. A fetch failure leaves any cached entry intact.
func (c *Cache) Load(ctx context.Context, conversationID string) ([]conversation.Turn, error) {
	c.mu.Lock()
	if turns, ok := c.entries[conversationID]; ok {
		c.mu.Unlock()
		return turns, nil
	}
	c.mu.Unlock()

	return c.Reload(ctx, conversationID)
}

// Reload fetches a conversation from the backend, regroups it into
// turns, and overwrites the cached entry.
func (c *Cache) Reload(ctx context.Context, conversationID string) ([]conversation.Turn, error) {
	msgs, err := c.client.History(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", conversationID, err)
	}

	turns := conversation.FromHistory(toHistoryMessages(msgs))

	c.mu.Lock()
	c.entries[conversationID] = turns
	c.mu.Unlock()
	return turns, nil
}

// Invalidate drops a cached entry
func (c *Cache) Invalidate(conversationID string) {
	c.mu.Lock()
	delete(c.entries, conversationID)
	c.mu.Unlock()
}

// Delete removes a conversation on the backend and drops it from the
// cache
func (c *Cache) Delete(ctx context.Context, conversationID string) error {
	if err := c.client.DeleteConversation(ctx, conversationID); err != nil {
		return err
	}
	c.Invalidate(conversationID)
	return nil
}

func toHistoryMessages(msgs []api.HistoryMessage) []conversation.HistoryMessage {
	out := make([]conversation.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		hm := conversation.HistoryMessage{
			Role:      m.Role,
			Content:   m.Content,
			Model:     m.Model,
			ModelName: m.ModelName,
			Reasoning: m.Reasoning,
			Sources:   m.Sources,
			CreatedAt: m.CreatedAt,
		}
		if m.Billing != nil {
			hm.Billing = &conversation.Billing{
				CostUSD:      m.Billing.CostUSD,
				InputTokens:  m.Billing.InputTokens,
				OutputTokens: m.Billing.OutputTokens,
				NodeAddress:  m.Billing.NodeAddress,
				Mode:         m.Billing.Mode,
			}
		}
		out = append(out, hm)
	}
	return out
}
