package models

// ThreadHandle is an opaque capability owned by the upstream gateway: an
// assistant id paired with a thread id. The core never overwrites a
// handle in place once it is set; a zero-value
// ThreadHandle means "not yet created", not an error.
type ThreadHandle struct {
	AssistantID string `json:"assistant_id"`
	ThreadID    string `json:"thread_id"`
}

// IsSet reports whether both halves of the handle have been created.
func (h ThreadHandle) IsSet() bool {
	return h.AssistantID != "" && h.ThreadID != ""
}

// PairKey canonicalizes an ordered pair (a, b) into the unordered key used
// for direct-message threads: {min(a,b), max(a,b)}.
type PairKey struct {
	A string
	B string
}

// NewPairKey builds the canonical, order-independent key for a DM thread.
func NewPairKey(from, to string) PairKey {
	if from <= to {
		return PairKey{A: from, B: to}
	}
	return PairKey{A: to, B: from}
}
