package conversation

// SlotPatch is one partial update addressed to a single response slot.
// Drivers emit patches; the update scheduler merges bursts of them; the
// store applies them.
type SlotPatch struct {
	TurnID  string
	ModelID string

	Status          *SlotStatus
	ContentDelta    string
	ReasoningDelta  string
	Sources         []string
	AttachmentURL   *string
	AttachmentType  *string
	GeneratedImages []string
	WebSearchType   *string
	Billing         *Billing
	ErrMsg          *string
}

// Terminal reports whether the patch moves its slot into a final status
func (p *SlotPatch) Terminal() bool {
	return p.Status != nil && p.Status.Terminal()
}

// Empty reports whether the patch carries no update at all
func (p *SlotPatch) Empty() bool {
	return p.Status == nil &&
		p.ContentDelta == "" &&
		p.ReasoningDelta == "" &&
		len(p.Sources) == 0 &&
		p.AttachmentURL == nil &&
		p.AttachmentType == nil &&
		len(p.GeneratedImages) == 0 &&
		p.WebSearchType == nil &&
		p.Billing == nil &&
		p.ErrMsg == nil
}

// Merge folds next into p. Text deltas concatenate, list fields append,
// scalar fields take the later value.
func (p *SlotPatch) Merge(next *SlotPatch) {
	if next.Status != nil {
		p.Status = next.Status
	}
	p.ContentDelta += next.ContentDelta
	p.ReasoningDelta += next.ReasoningDelta
	p.Sources = append(p.Sources, next.Sources...)
	if next.AttachmentURL != nil {
		p.AttachmentURL = next.AttachmentURL
	}
	if next.AttachmentType != nil {
		p.AttachmentType = next.AttachmentType
	}
	p.GeneratedImages = append(p.GeneratedImages, next.GeneratedImages...)
	if next.WebSearchType != nil {
		p.WebSearchType = next.WebSearchType
	}
	if next.Billing != nil {
		p.Billing = next.Billing
	}
	if next.ErrMsg != nil {
		p.ErrMsg = next.ErrMsg
	}
}
