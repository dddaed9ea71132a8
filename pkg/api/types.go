package api

import "time"

// Model is one entry of the model catalog
type Model struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Provider         string  `json:"provider,omitempty"`
	InputPricePerM   float64 `json:"inputPricePerM,omitempty"`
	OutputPricePerM  float64 `json:"outputPricePerM,omitempty"`
	SupportsImages   bool    `json:"supportsImages,omitempty"`
	GeneratesImages  bool    `json:"generatesImages,omitempty"`
	SupportsThinking bool    `json:"supportsThinking,omitempty"`
}

// ModelsResponse wraps the catalog listing
type ModelsResponse struct {
	Models []Model `json:"models"`
}

// CreateConversationResponse carries the backend-assigned conversation id
type CreateConversationResponse struct {
	ID string `json:"id"`
}

// BillingInfo mirrors the billing object of a persisted message
type BillingInfo struct {
	CostUSD      float64 `json:"costUSD"`
	InputTokens  int     `json:"inputTokens,omitempty"`
	OutputTokens int     `json:"outputTokens,omitempty"`
	NodeAddress  string  `json:"nodeAddress,omitempty"`
	Mode         string  `json:"mode,omitempty"`
}

// HistoryMessage is one entry of a persisted conversation's flat message list
type HistoryMessage struct {
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Model     string       `json:"model,omitempty"`
	ModelName string       `json:"modelName,omitempty"`
	Reasoning string       `json:"reasoning,omitempty"`
	Sources   []string     `json:"sources,omitempty"`
	Billing   *BillingInfo `json:"billing,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// HistoryResponse wraps a loaded conversation
type HistoryResponse struct {
	Messages []HistoryMessage `json:"messages"`
}

// Balance is the wallet balance snapshot
type Balance struct {
	AvailableUSD float64 `json:"availableUSD"`
	PendingUSD   float64 `json:"pendingUSD,omitempty"`
}

// ContentPart is one part of a structured multi-part message content
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// ImageRef references an uploaded image by URL
type ImageRef struct {
	URL string `json:"url"`
}

// ChatMessage is one role-addressable entry of the outbound payload.
// Content is either a plain string or a []ContentPart when the message
// carries an image.
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// CompletionRequest is the body of a streaming chat-completion request.
// Standard mode sends {conversationId, webSearch}; decentralized mode
// sends {mode, preferredNode} instead. The two shapes are mutually
// exclusive and share one decoding contract.
type CompletionRequest struct {
	Messages       []ChatMessage `json:"messages"`
	Model          string        `json:"model"`
	ConversationID string        `json:"conversationId,omitempty"`
	WebSearch      bool          `json:"webSearch,omitempty"`
	Mode           string        `json:"mode,omitempty"`
	PreferredNode  string        `json:"preferredNode,omitempty"`
}

// TextMessage builds a plain text chat message
func TextMessage(role, content string) ChatMessage {
	return ChatMessage{Role: role, Content: content}
}

// ImageMessage builds a multi-part chat message with a text part and an
// image-reference part
func ImageMessage(role, text, imageURL string) ChatMessage {
	return ChatMessage{
		Role: role,
		Content: []ContentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &ImageRef{URL: imageURL}},
		},
	}
}
