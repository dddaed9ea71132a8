package conversation

import (
	"time"

	"github.com/google/uuid"
)

// HistoryMessage is one entry of a persisted flat message list, as the
// backend stores conversations.
type HistoryMessage struct {
	Role      string
	Content   string
	Model     string
	ModelName string
	Reasoning string
	Sources   []string
	Billing   *Billing
	CreatedAt time.Time
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FromHistory regroups a flat chronological message list into turns.
// Consecutive assistant messages immediately following a user message
// become the slots of one comparison turn, all marked done. An assistant
// message with no preceding user message is kept as a standalone
// assistant turn.
func FromHistory(msgs []HistoryMessage) []Turn {
	var turns []Turn
	var group *ComparisonTurn

	flush := func() {
		if group != nil && len(group.Slots) > 0 {
			turns = append(turns, group)
		}
		group = nil
	}

	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			flush()
			turns = append(turns, &UserTurn{
				ID:      uuid.NewString(),
				Content: m.Content,
				Created: m.CreatedAt,
			})
			group = &ComparisonTurn{ID: uuid.NewString(), Created: m.CreatedAt}

		case RoleAssistant:
			if group == nil {
				turns = append(turns, &AssistantTurn{
					ID:        uuid.NewString(),
					ModelID:   m.Model,
					Content:   m.Content,
					Reasoning: m.Reasoning,
					Sources:   append([]string(nil), m.Sources...),
					Billing:   m.Billing,
					Created:   m.CreatedAt,
				})
				continue
			}
			group.Slots = append(group.Slots, historySlot(m))

		default:
			// Unknown roles in persisted history are skipped
		}
	}
	flush()

	return turns
}

// historySlot builds a completed slot from a persisted assistant message
func historySlot(m HistoryMessage) *ResponseSlot {
	name := m.ModelName
	if name == "" {
		name = m.Model
	}
	s := newResponseSlot(m.Model, name)
	s.Status = StatusDone
	s.Content = m.Content
	s.Reasoning = m.Reasoning
	for _, src := range m.Sources {
		if _, seen := s.sourceSeen[src]; seen {
			continue
		}
		s.sourceSeen[src] = struct{}{}
		s.Sources = append(s.Sources, src)
	}
	if m.Billing != nil {
		b := *m.Billing
		s.Billing = &b
	}
	return s
}
