package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"

	"github.com/polyfold/polychat/pkg/conversation"
)

var (
	modelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Underline(true)
)

// renderer prints comparison turns to a plain console. It deliberately
// does not chase rendering fidelity; it exists to exercise the store's
// subscription surface from a real front-end.
type renderer struct {
	out   io.Writer
	ticks atomic.Int64
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

// tick is the store subscription callback; it counts commits so the
// interactive loop can show stream activity without reprinting content
func (r *renderer) tick() {
	n := r.ticks.Add(1)
	if n%10 == 0 {
		fmt.Fprint(r.out, dimStyle.Render("."))
	}
}

func (r *renderer) printBanner(models []conversation.SelectedModel) {
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	fmt.Fprintf(r.out, "comparing: %s\n", modelStyle.Render(strings.Join(names, ", ")))
	fmt.Fprintln(r.out, dimStyle.Render("/new starts a fresh conversation, /quit exits"))
}

func (r *renderer) printPrompt() {
	fmt.Fprint(r.out, "\n> ")
}

func (r *renderer) printEstimate(count int) {
	fmt.Fprintln(r.out, dimStyle.Render(fmt.Sprintf("~%d input tokens", count)))
}

func (r *renderer) printInfo(msg string) {
	fmt.Fprintln(r.out, dimStyle.Render(msg))
}

func (r *renderer) printError(err error) {
	fmt.Fprintln(r.out, errorStyle.Render(fmt.Sprintf("error: %v", err)))
}

// printComparison renders every slot of a settled comparison turn
func (r *renderer) printComparison(turn *conversation.ComparisonTurn) {
	fmt.Fprintln(r.out)
	for _, slot := range turn.Slots {
		header := modelStyle.Render(slot.ModelName)
		switch slot.Status {
		case conversation.StatusDone:
			header += " " + doneStyle.Render("done")
		case conversation.StatusError:
			header += " " + errorStyle.Render("error")
		default:
			header += " " + dimStyle.Render(slot.Status.String())
		}
		fmt.Fprintln(r.out, header)

		if slot.Status == conversation.StatusError {
			fmt.Fprintln(r.out, errorStyle.Render(slot.ErrMsg))
			continue
		}

		if slot.Reasoning != "" {
			fmt.Fprintln(r.out, dimStyle.Render(slot.Reasoning))
		}
		fmt.Fprintln(r.out, slot.Content)

		for _, src := range slot.Sources {
			fmt.Fprintln(r.out, sourceStyle.Render(src))
		}
		for _, img := range slot.GeneratedImages {
			fmt.Fprintln(r.out, sourceStyle.Render(img))
		}
		if slot.Billing != nil {
			fmt.Fprintln(r.out, dimStyle.Render(fmt.Sprintf("cost: $%.6f", slot.Billing.CostUSD)))
		}
		fmt.Fprintln(r.out)
	}
}
