package conversation

// SlotStatus represents the lifecycle state of one model's response slot.
type SlotStatus int

const (
	StatusPending SlotStatus = iota
	StatusStreaming
	StatusDone
	StatusError
)

// String returns the string representation of the status
func (s SlotStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusStreaming:
		return "streaming"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a final state
func (s SlotStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// legalTransitions is the table of allowed status moves. Terminal states
// have no successors.
var legalTransitions = map[SlotStatus][]SlotStatus{
	StatusPending:   {StatusStreaming, StatusDone, StatusError},
	StatusStreaming: {StatusDone, StatusError},
	StatusDone:      {},
	StatusError:     {},
}

// CanTransition reports whether moving from s to next is legal
func (s SlotStatus) CanTransition(next SlotStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
