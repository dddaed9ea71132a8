package sse

// BillingInfo is the billing object attached near stream completion
type BillingInfo struct {
	CostUSD      float64 `json:"costUSD"`
	InputTokens  int     `json:"inputTokens,omitempty"`
	OutputTokens int     `json:"outputTokens,omitempty"`
	NodeAddress  string  `json:"nodeAddress,omitempty"`
	Mode         string  `json:"mode,omitempty"`
}

// Delta is the incremental text fragment of a chat-completion choice
type Delta struct {
	Content string `json:"content"`
}

// Choice wraps one delta in the OpenAI-style chat-completion shape
type Choice struct {
	Delta Delta `json:"delta"`
}

// Frame is one decoded event from a model's streaming response. All
// fields are optional; unknown fields in the payload are dropped at the
// decode boundary.
type Frame struct {
	ConversationID string       `json:"conversationId,omitempty"`
	Reasoning      string       `json:"reasoning,omitempty"`
	Sources        []string     `json:"sources,omitempty"`
	AttachmentURL  string       `json:"attachmentUrl,omitempty"`
	AttachmentType string       `json:"attachmentType,omitempty"`
	GeneratedImage string       `json:"generatedImage,omitempty"`
	Billing        *BillingInfo `json:"billing,omitempty"`
	WebSearchType  string       `json:"webSearchType,omitempty"`
	Choices        []Choice     `json:"choices,omitempty"`
}

// DeltaContent returns the incremental text token carried by the frame,
// if any
func (f *Frame) DeltaContent() string {
	if len(f.Choices) == 0 {
		return ""
	}
	return f.Choices[0].Delta.Content
}
