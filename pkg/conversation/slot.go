package conversation

// Billing describes what a completed response cost
type Billing struct {
	CostUSD      float64
	InputTokens  int
	OutputTokens int
	NodeAddress  string
	Mode         string
}

// ResponseSlot is one model's in-progress or completed answer within a
// comparison turn. Slots are mutated only through Store.Apply.
type ResponseSlot struct {
	ModelID   string
	ModelName string

	Status SlotStatus

	Content         string
	Reasoning       string
	Sources         []string
	AttachmentURL   string
	AttachmentType  string
	GeneratedImages []string
	WebSearchType   string
	Billing         *Billing
	ErrMsg          string

	sourceSeen map[string]struct{}
}

func newResponseSlot(modelID, modelName string) *ResponseSlot {
	return &ResponseSlot{
		ModelID:    modelID,
		ModelName:  modelName,
		Status:     StatusPending,
		sourceSeen: make(map[string]struct{}),
	}
}

// apply mutates the slot according to a patch, enforcing the status
// transition table. A slot that has reached a terminal status is frozen
// and ignores all further patches. Field updates are applied before the
// status transition so a merged patch carrying both a final delta and a
// terminal status does not lose the delta. Returns true if anything
// changed.
func (s *ResponseSlot) apply(p *SlotPatch) bool {
	if s.Status.Terminal() {
		return false
	}

	changed := false

	if p.ContentDelta != "" {
		s.Content += p.ContentDelta
		changed = true
	}
	if p.ReasoningDelta != "" {
		s.Reasoning += p.ReasoningDelta
		changed = true
	}

	for _, src := range p.Sources {
		if _, seen := s.sourceSeen[src]; seen {
			continue
		}
		s.sourceSeen[src] = struct{}{}
		s.Sources = append(s.Sources, src)
		changed = true
	}

	// Last write wins if the backend sends more than one attachment
	if p.AttachmentURL != nil {
		s.AttachmentURL = *p.AttachmentURL
		changed = true
	}
	if p.AttachmentType != nil {
		s.AttachmentType = *p.AttachmentType
		changed = true
	}

	if len(p.GeneratedImages) > 0 {
		s.GeneratedImages = append(s.GeneratedImages, p.GeneratedImages...)
		changed = true
	}

	// Set at most once
	if p.WebSearchType != nil && s.WebSearchType == "" {
		s.WebSearchType = *p.WebSearchType
		changed = true
	}

	if p.Billing != nil {
		b := *p.Billing
		s.Billing = &b
		changed = true
	}

	if p.Status != nil && *p.Status != s.Status && s.Status.CanTransition(*p.Status) {
		s.Status = *p.Status
		changed = true
		if s.Status == StatusError && p.ErrMsg != nil {
			s.ErrMsg = *p.ErrMsg
		}
	}

	return changed
}

// Clone returns an independent copy of the slot for read-side snapshots
func (s *ResponseSlot) Clone() *ResponseSlot {
	c := *s
	c.Sources = append([]string(nil), s.Sources...)
	c.GeneratedImages = append([]string(nil), s.GeneratedImages...)
	if s.Billing != nil {
		b := *s.Billing
		c.Billing = &b
	}
	c.sourceSeen = nil
	return &c
}
