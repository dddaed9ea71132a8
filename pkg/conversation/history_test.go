package conversation_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/polyfold/polychat/pkg/conversation"
)

var _ = Describe("FromHistory", func() {
	var base time.Time

	BeforeEach(func() {
		base = time.Date(2025, 3, 14, 9, 26, 0, 0, time.UTC)
	})

	msg := func(role, content, model string, offset int) conversation.HistoryMessage {
		return conversation.HistoryMessage{
			Role:      role,
			Content:   content,
			Model:     model,
			CreatedAt: base.Add(time.Duration(offset) * time.Second),
		}
	}

	It("should group consecutive assistant messages into one comparison turn", func() {
		turns := conversation.FromHistory([]conversation.HistoryMessage{
			msg("user", "compare these", "", 0),
			msg("assistant", "answer A", "model-a", 1),
			msg("assistant", "answer B", "model-b", 2),
			msg("user", "follow up", "", 3),
			msg("assistant", "answer C", "model-c", 4),
		})

		Expect(turns).To(HaveLen(4))

		first, ok := turns[1].(*conversation.ComparisonTurn)
		Expect(ok).To(BeTrue())
		Expect(first.Slots).To(HaveLen(2))
		Expect(first.Slots[0].ModelID).To(Equal("model-a"))
		Expect(first.Slots[0].Content).To(Equal("answer A"))
		Expect(first.Slots[1].ModelID).To(Equal("model-b"))

		second, ok := turns[3].(*conversation.ComparisonTurn)
		Expect(ok).To(BeTrue())
		Expect(second.Slots).To(HaveLen(1))
		Expect(second.Slots[0].Content).To(Equal("answer C"))
	})

	It("should mark every reconstructed slot done", func() {
		turns := conversation.FromHistory([]conversation.HistoryMessage{
			msg("user", "q", "", 0),
			msg("assistant", "a", "model-a", 1),
			msg("assistant", "b", "model-b", 2),
		})

		ct := turns[1].(*conversation.ComparisonTurn)
		for _, slot := range ct.Slots {
			Expect(slot.Status).To(Equal(conversation.StatusDone))
		}
		Expect(ct.Settled()).To(BeTrue())
	})

	It("should keep a leading assistant greeting as a standalone turn", func() {
		turns := conversation.FromHistory([]conversation.HistoryMessage{
			msg("assistant", "welcome!", "model-a", 0),
			msg("user", "hi", "", 1),
			msg("assistant", "hello", "model-a", 2),
		})

		Expect(turns).To(HaveLen(3))
		greeting, ok := turns[0].(*conversation.AssistantTurn)
		Expect(ok).To(BeTrue())
		Expect(greeting.Content).To(Equal("welcome!"))
		Expect(greeting.ModelID).To(Equal("model-a"))

		Expect(turns[2]).To(BeAssignableToTypeOf(&conversation.ComparisonTurn{}))
	})

	It("should not emit a comparison turn for a trailing user message", func() {
		turns := conversation.FromHistory([]conversation.HistoryMessage{
			msg("user", "first", "", 0),
			msg("assistant", "reply", "model-a", 1),
			msg("user", "unanswered", "", 2),
		})

		Expect(turns).To(HaveLen(3))
		Expect(turns[2]).To(BeAssignableToTypeOf(&conversation.UserTurn{}))
	})

	It("should carry billing and sources into reconstructed slots", func() {
		billing := &conversation.Billing{CostUSD: 0.003, InputTokens: 12, OutputTokens: 40}
		turns := conversation.FromHistory([]conversation.HistoryMessage{
			msg("user", "q", "", 0),
			{
				Role:      "assistant",
				Content:   "a",
				Model:     "model-a",
				Reasoning: "thought",
				Sources:   []string{"https://s.example", "https://s.example"},
				Billing:   billing,
				CreatedAt: base,
			},
		})

		slot := turns[1].(*conversation.ComparisonTurn).Slots[0]
		Expect(slot.Reasoning).To(Equal("thought"))
		Expect(slot.Sources).To(Equal([]string{"https://s.example"}))
		Expect(slot.Billing.CostUSD).To(Equal(0.003))
	})

	It("should return an empty list for empty history", func() {
		Expect(conversation.FromHistory(nil)).To(BeEmpty())
	})
})
