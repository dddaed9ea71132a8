// Package orchestrator turns one user submission into a user turn, a
// comparison turn, and one concurrent stream driver per selected model.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/polyfold/polychat/pkg/api"
	"github.com/polyfold/polychat/pkg/conversation"
	"github.com/polyfold/polychat/pkg/logger"
	"github.com/polyfold/polychat/pkg/stream"
)

var (
	ErrEmptyPrompt  = errors.New("prompt is empty")
	ErrNoModels     = errors.New("no models selected")
	ErrSendInFlight = errors.New("a send is already in flight")
)

// Attachment references an uploaded image included with a prompt
type Attachment struct {
	URL  string
	Kind string
}

// Orchestrator owns the fan-out of one prompt to N model streams and the
// bookkeeping around it. One orchestrator serves one active conversation.
type Orchestrator struct {
	store  *conversation.Store
	sink   stream.Sink
	client *api.Client

	mode          stream.RouteMode
	webSearch     bool
	preferredNode string

	// onRefresh is the external balance/user refresh signal, fired once
	// after all drivers settle and on every billing frame
	onRefresh func()

	mu             sync.Mutex
	inFlight       bool
	conversationID string
	cancelSend     context.CancelFunc
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithDecentralized routes sends through the decentralized mode, which
// has no server-side conversation tracking
func WithDecentralized(preferredNode string) Option {
	return func(o *Orchestrator) {
		o.mode = stream.ModeDecentralized
		o.preferredNode = preferredNode
	}
}

// WithWebSearch enables web search on standard-mode requests
func WithWebSearch(enabled bool) Option {
	return func(o *Orchestrator) { o.webSearch = enabled }
}

// WithRefreshSignal sets the fire-and-forget balance/user refresh hook
func WithRefreshSignal(fn func()) Option {
	return func(o *Orchestrator) { o.onRefresh = fn }
}

// New creates an orchestrator committing through sink into store
func New(store *conversation.Store, sink stream.Sink, client *api.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  store,
		sink:   sink,
		client: client,
		mode:   stream.ModeStandard,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ConversationID returns the backend conversation id, if one is known
func (o *Orchestrator) ConversationID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conversationID
}

// SetConversationID adopts an externally known conversation id, e.g.
// when resuming a persisted conversation
func (o *Orchestrator) SetConversationID(id string) {
	o.mu.Lock()
	o.conversationID = id
	o.mu.Unlock()
}

// Reset abandons the active conversation: outstanding drivers are
// cancelled and the next send starts from a blank id.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	cancel := o.cancelSend
	o.cancelSend = nil
	o.conversationID = ""
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Send fans one prompt out to every selected model and blocks until all
// streams settle. Partial failure is expected: a failed model shows up
// as its slot's error status and never aborts a sibling. Send itself
// only fails on validation.
func (o *Orchestrator) Send(ctx context.Context, prompt string, models []conversation.SelectedModel, att *Attachment) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if len(models) == 0 {
		return ErrNoModels
	}

	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return ErrSendInFlight
	}
	o.inFlight = true
	sendCtx, cancel := context.WithCancel(ctx)
	o.cancelSend = cancel
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.cancelSend = nil
		o.mu.Unlock()
		cancel()
	}()

	// Decentralized mode has no server-side conversation tracking.
	// Creation failure is non-fatal: the first driver that reports an id
	// assigns it instead.
	if o.mode != stream.ModeDecentralized && o.ConversationID() == "" {
		id, err := o.client.CreateConversation(sendCtx)
		if err != nil {
			logger.Warn("failed to create conversation, proceeding without id: %v", err)
		} else {
			o.SetConversationID(id)
		}
	}

	payload := o.buildPayload(prompt, att)

	userTurn := newUserTurn(prompt, att)
	compTurn := conversation.NewComparisonTurn(models)
	o.store.Append(userTurn)
	o.store.Append(compTurn)

	convID := o.ConversationID()

	var wg conc.WaitGroup
	for _, m := range models {
		driver := stream.NewDriver(stream.Config{
			Client:           o.client,
			Sink:             o.sink,
			Model:            m.ID,
			TurnID:           compTurn.ID,
			ConversationID:   convID,
			Payload:          payload,
			Mode:             o.mode,
			WebSearch:        o.webSearch,
			PreferredNode:    o.preferredNode,
			OnConversationID: o.adoptConversationID,
			OnBilling:        o.refresh,
		})
		wg.Go(func() {
			driver.Run(sendCtx)
		})
	}
	wg.Wait()

	o.refresh()
	return nil
}

// adoptConversationID records a backend-assigned id the first time any
// driver reports one
func (o *Orchestrator) adoptConversationID(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conversationID == "" {
		o.conversationID = id
	}
}

func (o *Orchestrator) refresh() {
	if o.onRefresh != nil {
		o.onRefresh()
	}
}

// buildPayload assembles the outbound message list: prior
// role-addressable turns plus the new user message. Comparison turns are
// excluded, they are not valid history entries. An image attachment
// turns the new message into structured multi-part content; the stored
// turn keeps plain text for display.
func (o *Orchestrator) buildPayload(prompt string, att *Attachment) []api.ChatMessage {
	var msgs []api.ChatMessage
	for _, t := range o.store.Snapshot() {
		switch tt := t.(type) {
		case *conversation.UserTurn:
			msgs = append(msgs, api.TextMessage(conversation.RoleUser, tt.Content))
		case *conversation.AssistantTurn:
			msgs = append(msgs, api.TextMessage(conversation.RoleAssistant, tt.Content))
		}
	}

	if att != nil && att.URL != "" {
		msgs = append(msgs, api.ImageMessage(conversation.RoleUser, prompt, att.URL))
	} else {
		msgs = append(msgs, api.TextMessage(conversation.RoleUser, prompt))
	}
	return msgs
}

func newUserTurn(prompt string, att *Attachment) *conversation.UserTurn {
	if att != nil && att.URL != "" {
		return conversation.NewUserTurnWithAttachment(prompt, att.URL, att.Kind)
	}
	return conversation.NewUserTurn(prompt)
}
