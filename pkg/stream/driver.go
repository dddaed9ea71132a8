// Package stream runs one chat-completion request per model and turns
// the decoded event stream into slot patches.
package stream

import (
	"context"
	"errors"
	"io"

	"github.com/polyfold/polychat/pkg/api"
	"github.com/polyfold/polychat/pkg/conversation"
	"github.com/polyfold/polychat/pkg/logger"
	"github.com/polyfold/polychat/pkg/sse"
)

// ErrReason is the fixed user-facing message for any transport failure.
// Slot-level errors carry no diagnostic detail; that goes to the log.
const ErrReason = "Connection Failed"

// RouteMode selects the request shape sent to the completion endpoint
type RouteMode string

const (
	ModeStandard      RouteMode = "standard"
	ModeDecentralized RouteMode = "decentralized"
)

// Sink receives partial updates as the stream progresses. The update
// scheduler implements this.
type Sink interface {
	Enqueue(*conversation.SlotPatch)
}

// Driver owns the full lifecycle of one model's streaming request.
// Drivers are fully independent: one model's failure never touches a
// sibling's stream.
type Driver struct {
	client *api.Client
	sink   Sink

	model          string
	turnID         string
	conversationID string
	payload        []api.ChatMessage

	mode          RouteMode
	webSearch     bool
	preferredNode string

	// onConversationID fires at most once per stream, when the backend
	// assigns a conversation id the driver did not already know
	onConversationID func(string)
	// onBilling fires when the stream reports billing, for a
	// fire-and-forget balance refresh
	onBilling func()
}

// Config carries everything a driver needs for one run
type Config struct {
	Client           *api.Client
	Sink             Sink
	Model            string
	TurnID           string
	ConversationID   string
	Payload          []api.ChatMessage
	Mode             RouteMode
	WebSearch        bool
	PreferredNode    string
	OnConversationID func(string)
	OnBilling        func()
}

// NewDriver creates a driver for one model's request
func NewDriver(cfg Config) *Driver {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeStandard
	}
	return &Driver{
		client:           cfg.Client,
		sink:             cfg.Sink,
		model:            cfg.Model,
		turnID:           cfg.TurnID,
		conversationID:   cfg.ConversationID,
		payload:          cfg.Payload,
		mode:             mode,
		webSearch:        cfg.WebSearch,
		preferredNode:    cfg.PreferredNode,
		onConversationID: cfg.OnConversationID,
		onBilling:        cfg.OnBilling,
	}
}

// Run drives the request to completion. It never returns an error: any
// failure surfaces as the slot's error status. Run blocks until the
// stream ends one way or the other.
func (d *Driver) Run(ctx context.Context) {
	// Show activity before the first byte arrives
	d.emitStatus(conversation.StatusStreaming, "")

	body, err := d.client.OpenCompletionStream(ctx, d.buildRequest())
	if err != nil {
		logger.Error("stream request failed for model %s: %v", d.model, err)
		d.emitStatus(conversation.StatusError, ErrReason)
		return
	}
	defer body.Close()

	dec := sse.NewDecoder()
	idAssigned := false
	buf := make([]byte, 4096)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, frame := range dec.Feed(string(buf[:n])) {
				d.dispatch(frame, &idAssigned)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if dropped := dec.Dropped(); dropped > 0 {
					logger.Debug("model %s: dropped %d malformed frames", d.model, dropped)
				}
				d.emitStatus(conversation.StatusDone, "")
				return
			}
			logger.Error("stream read failed for model %s: %v", d.model, err)
			d.emitStatus(conversation.StatusError, ErrReason)
			return
		}
	}
}

// buildRequest assembles the mode-specific request shape
func (d *Driver) buildRequest() api.CompletionRequest {
	req := api.CompletionRequest{
		Messages: d.payload,
		Model:    d.model,
	}
	if d.mode == ModeDecentralized {
		req.Mode = string(ModeDecentralized)
		req.PreferredNode = d.preferredNode
	} else {
		req.ConversationID = d.conversationID
		req.WebSearch = d.webSearch
	}
	return req
}

// dispatch maps one decoded frame's fields onto a slot patch. Fields are
// independent; a frame may carry several at once. An empty frame emits
// nothing.
func (d *Driver) dispatch(frame sse.Frame, idAssigned *bool) {
	if frame.ConversationID != "" && frame.ConversationID != d.conversationID && !*idAssigned {
		*idAssigned = true
		if d.onConversationID != nil {
			d.onConversationID(frame.ConversationID)
		}
	}

	p := &conversation.SlotPatch{TurnID: d.turnID, ModelID: d.model}

	if delta := frame.DeltaContent(); delta != "" {
		p.ContentDelta = delta
	}
	if frame.Reasoning != "" {
		p.ReasoningDelta = frame.Reasoning
	}
	if len(frame.Sources) > 0 {
		p.Sources = frame.Sources
	}
	if frame.AttachmentURL != "" {
		u := frame.AttachmentURL
		p.AttachmentURL = &u
		if frame.AttachmentType != "" {
			t := frame.AttachmentType
			p.AttachmentType = &t
		}
	}
	if frame.GeneratedImage != "" {
		p.GeneratedImages = []string{frame.GeneratedImage}
	}
	if frame.WebSearchType != "" {
		w := frame.WebSearchType
		p.WebSearchType = &w
	}
	if frame.Billing != nil {
		p.Billing = &conversation.Billing{
			CostUSD:      frame.Billing.CostUSD,
			InputTokens:  frame.Billing.InputTokens,
			OutputTokens: frame.Billing.OutputTokens,
			NodeAddress:  frame.Billing.NodeAddress,
			Mode:         frame.Billing.Mode,
		}
		if d.onBilling != nil {
			go d.onBilling()
		}
	}

	if p.Empty() {
		return
	}
	d.sink.Enqueue(p)
}

func (d *Driver) emitStatus(status conversation.SlotStatus, errMsg string) {
	p := &conversation.SlotPatch{
		TurnID:  d.turnID,
		ModelID: d.model,
		Status:  &status,
	}
	if errMsg != "" {
		p.ErrMsg = &errMsg
	}
	d.sink.Enqueue(p)
}
