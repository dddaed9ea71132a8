package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one entry in a conversation: a user message, a multi-model
// comparison, or a plain single-model assistant message.
type Turn interface {
	TurnID() string
	CreatedAt() time.Time
	turn()
}

// UserTurn is a literal user message. Immutable once created.
type UserTurn struct {
	ID             string
	Content        string
	AttachmentURL  string
	AttachmentKind string
	Created        time.Time
}

func (t *UserTurn) TurnID() string       { return t.ID }
func (t *UserTurn) CreatedAt() time.Time { return t.Created }
func (t *UserTurn) turn()                {}

// NewUserTurn creates a user turn with a fresh id
func NewUserTurn(content string) *UserTurn {
	return &UserTurn{
		ID:      uuid.NewString(),
		Content: content,
		Created: time.Now(),
	}
}

// NewUserTurnWithAttachment creates a user turn carrying an attachment reference
func NewUserTurnWithAttachment(content, attachmentURL, attachmentKind string) *UserTurn {
	t := NewUserTurn(content)
	t.AttachmentURL = attachmentURL
	t.AttachmentKind = attachmentKind
	return t
}

// SelectedModel identifies one model chosen for a comparison, in selection order.
type SelectedModel struct {
	ID   string
	Name string
}

// ComparisonTurn bundles one response slot per model selected at send time.
// Slot count and order are fixed at creation.
type ComparisonTurn struct {
	ID      string
	Created time.Time
	Slots   []*ResponseSlot
}

func (t *ComparisonTurn) TurnID() string       { return t.ID }
func (t *ComparisonTurn) CreatedAt() time.Time { return t.Created }
func (t *ComparisonTurn) turn()                {}

// NewComparisonTurn creates a comparison turn with one pending slot per model
func NewComparisonTurn(models []SelectedModel) *ComparisonTurn {
	slots := make([]*ResponseSlot, 0, len(models))
	for _, m := range models {
		slots = append(slots, newResponseSlot(m.ID, m.Name))
	}
	return &ComparisonTurn{
		ID:      uuid.NewString(),
		Created: time.Now(),
		Slots:   slots,
	}
}

// Slot returns the slot addressed by modelID, or nil if the turn has no
// slot for that model.
func (t *ComparisonTurn) Slot(modelID string) *ResponseSlot {
	for _, s := range t.Slots {
		if s.ModelID == modelID {
			return s
		}
	}
	return nil
}

// Settled reports whether every slot has reached a terminal status
func (t *ComparisonTurn) Settled() bool {
	for _, s := range t.Slots {
		if !s.Status.Terminal() {
			return false
		}
	}
	return true
}

// AssistantTurn is a turn with exactly one implicit response, used when
// reconstructing history that predates multi-model comparison.
type AssistantTurn struct {
	ID        string
	ModelID   string
	Content   string
	Reasoning string
	Sources   []string
	Billing   *Billing
	Created   time.Time
}

func (t *AssistantTurn) TurnID() string       { return t.ID }
func (t *AssistantTurn) CreatedAt() time.Time { return t.Created }
func (t *AssistantTurn) turn()                {}
