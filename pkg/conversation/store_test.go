package conversation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/polyfold/polychat/pkg/conversation"
)

func statusPtr(s conversation.SlotStatus) *conversation.SlotStatus { return &s }

func strPtr(s string) *string { return &s }

var _ = Describe("Store", func() {
	var (
		store *conversation.Store
		turn  *conversation.ComparisonTurn
	)

	BeforeEach(func() {
		store = conversation.NewStore()
		turn = conversation.NewComparisonTurn([]conversation.SelectedModel{
			{ID: "gpt-x", Name: "GPT X"},
			{ID: "claude-y", Name: "Claude Y"},
		})
		store.Append(conversation.NewUserTurn("hello"))
		store.Append(turn)
	})

	Describe("Append", func() {
		It("should keep turns in order", func() {
			turns := store.Snapshot()
			Expect(turns).To(HaveLen(2))
			Expect(turns[0]).To(BeAssignableToTypeOf(&conversation.UserTurn{}))
			Expect(turns[1]).To(BeAssignableToTypeOf(&conversation.ComparisonTurn{}))
		})

		It("should create all slots pending in selection order", func() {
			ct := store.Comparison(turn.ID)
			Expect(ct.Slots).To(HaveLen(2))
			Expect(ct.Slots[0].ModelID).To(Equal("gpt-x"))
			Expect(ct.Slots[1].ModelID).To(Equal("claude-y"))
			for _, slot := range ct.Slots {
				Expect(slot.Status).To(Equal(conversation.StatusPending))
			}
		})
	})

	Describe("Apply", func() {
		It("should accumulate content deltas in arrival order", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				Status: statusPtr(conversation.StatusStreaming),
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", ContentDelta: "Hi",
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", ContentDelta: " there",
			}})

			slot := store.Comparison(turn.ID).Slot("gpt-x")
			Expect(slot.Content).To(Equal("Hi there"))
			Expect(slot.Status).To(Equal(conversation.StatusStreaming))
		})

		It("should accumulate reasoning separately from content", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				Status:         statusPtr(conversation.StatusStreaming),
				ReasoningDelta: "thinking...",
				ContentDelta:   "answer",
			}})

			slot := store.Comparison(turn.ID).Slot("gpt-x")
			Expect(slot.Reasoning).To(Equal("thinking..."))
			Expect(slot.Content).To(Equal("answer"))
		})

		It("should union sources preserving first-seen order", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				Status:  statusPtr(conversation.StatusStreaming),
				Sources: []string{"https://a.example", "https://b.example"},
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				Sources: []string{"https://b.example", "https://c.example"},
			}})

			slot := store.Comparison(turn.ID).Slot("gpt-x")
			Expect(slot.Sources).To(Equal([]string{
				"https://a.example", "https://b.example", "https://c.example",
			}))
		})

		It("should ignore patches addressed to unknown models", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "nope", ContentDelta: "lost",
			}})

			ct := store.Comparison(turn.ID)
			Expect(ct.Slot("nope")).To(BeNil())
			Expect(ct.Slot("gpt-x").Content).To(BeEmpty())
		})

		It("should ignore patches addressed to unknown turns", func() {
			Expect(func() {
				store.Apply([]*conversation.SlotPatch{{
					TurnID: "missing", ModelID: "gpt-x", ContentDelta: "lost",
				}})
			}).ToNot(Panic())
		})

		It("should set attachment last-write-wins", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				Status:        statusPtr(conversation.StatusStreaming),
				AttachmentURL: strPtr("https://v.example/a.mp4"), AttachmentType: strPtr("video"),
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				AttachmentURL: strPtr("https://v.example/b.mp4"),
			}})

			slot := store.Comparison(turn.ID).Slot("gpt-x")
			Expect(slot.AttachmentURL).To(Equal("https://v.example/b.mp4"))
			Expect(slot.AttachmentType).To(Equal("video"))
		})

		It("should append generated images in order", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				Status:          statusPtr(conversation.StatusStreaming),
				GeneratedImages: []string{"https://img.example/1.png"},
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				GeneratedImages: []string{"https://img.example/2.png"},
			}})

			slot := store.Comparison(turn.ID).Slot("gpt-x")
			Expect(slot.GeneratedImages).To(Equal([]string{
				"https://img.example/1.png", "https://img.example/2.png",
			}))
		})

		It("should set webSearchType at most once", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				Status:        statusPtr(conversation.StatusStreaming),
				WebSearchType: strPtr("native"),
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				WebSearchType: strPtr("exa"),
			}})

			Expect(store.Comparison(turn.ID).Slot("gpt-x").WebSearchType).To(Equal("native"))
		})
	})

	Describe("status transitions", func() {
		It("should follow pending to streaming to done", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", Status: statusPtr(conversation.StatusStreaming),
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", Status: statusPtr(conversation.StatusDone),
			}})

			Expect(store.Comparison(turn.ID).Slot("gpt-x").Status).To(Equal(conversation.StatusDone))
		})

		It("should never leave a terminal status", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", Status: statusPtr(conversation.StatusStreaming),
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", Status: statusPtr(conversation.StatusDone),
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", Status: statusPtr(conversation.StatusStreaming),
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", Status: statusPtr(conversation.StatusError),
			}})

			Expect(store.Comparison(turn.ID).Slot("gpt-x").Status).To(Equal(conversation.StatusDone))
		})

		It("should freeze content after a terminal status", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				Status: statusPtr(conversation.StatusStreaming), ContentDelta: "final",
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", Status: statusPtr(conversation.StatusDone),
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", ContentDelta: " extra", ReasoningDelta: "late",
			}})

			slot := store.Comparison(turn.ID).Slot("gpt-x")
			Expect(slot.Content).To(Equal("final"))
			Expect(slot.Reasoning).To(BeEmpty())
		})

		It("should apply a final delta merged with its terminal status", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", Status: statusPtr(conversation.StatusStreaming),
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				ContentDelta: "tail", Status: statusPtr(conversation.StatusDone),
			}})

			slot := store.Comparison(turn.ID).Slot("gpt-x")
			Expect(slot.Content).To(Equal("tail"))
			Expect(slot.Status).To(Equal(conversation.StatusDone))
		})

		It("should record the error message with the error status", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "claude-y",
				Status: statusPtr(conversation.StatusError), ErrMsg: strPtr("Connection Failed"),
			}})

			slot := store.Comparison(turn.ID).Slot("claude-y")
			Expect(slot.Status).To(Equal(conversation.StatusError))
			Expect(slot.ErrMsg).To(Equal("Connection Failed"))
		})

		It("should keep sibling slots independent", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "claude-y",
				Status: statusPtr(conversation.StatusError), ErrMsg: strPtr("Connection Failed"),
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				Status: statusPtr(conversation.StatusStreaming), ContentDelta: "fine",
			}})
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", Status: statusPtr(conversation.StatusDone),
			}})

			ct := store.Comparison(turn.ID)
			Expect(ct.Slot("gpt-x").Status).To(Equal(conversation.StatusDone))
			Expect(ct.Slot("gpt-x").Content).To(Equal("fine"))
			Expect(ct.Slot("claude-y").Status).To(Equal(conversation.StatusError))
			Expect(ct.Settled()).To(BeTrue())
		})
	})

	Describe("Subscribe", func() {
		It("should notify once per batch commit", func() {
			count := 0
			unsubscribe := store.Subscribe(func() { count++ })
			defer unsubscribe()

			store.Apply([]*conversation.SlotPatch{
				{TurnID: turn.ID, ModelID: "gpt-x", Status: statusPtr(conversation.StatusStreaming)},
				{TurnID: turn.ID, ModelID: "claude-y", Status: statusPtr(conversation.StatusStreaming)},
			})

			Expect(count).To(Equal(1))
		})

		It("should not notify when nothing changed", func() {
			count := 0
			unsubscribe := store.Subscribe(func() { count++ })
			defer unsubscribe()

			store.Apply([]*conversation.SlotPatch{
				{TurnID: "missing", ModelID: "gpt-x", ContentDelta: "x"},
			})

			Expect(count).To(BeZero())
		})

		It("should stop notifying after unsubscribe", func() {
			count := 0
			unsubscribe := store.Subscribe(func() { count++ })
			unsubscribe()

			store.Append(conversation.NewUserTurn("again"))
			Expect(count).To(BeZero())
		})
	})

	Describe("Snapshot", func() {
		It("should return slots independent of later mutation", func() {
			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x",
				Status: statusPtr(conversation.StatusStreaming), ContentDelta: "before",
			}})

			snap := store.Comparison(turn.ID)

			store.Apply([]*conversation.SlotPatch{{
				TurnID: turn.ID, ModelID: "gpt-x", ContentDelta: " after",
			}})

			Expect(snap.Slot("gpt-x").Content).To(Equal("before"))
			Expect(store.Comparison(turn.ID).Slot("gpt-x").Content).To(Equal("before after"))
		})
	})
})
