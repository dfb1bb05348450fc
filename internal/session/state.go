package session

import (
	"encoding/json"
	"sort"
	"strings"
)

// Value is one stored answer: a scalar string for single-answer questions or
// a set of selected option indices for multi-select checkbox groups. The two
// shapes share one wire representation so the answer map round-trips through
// JSON unchanged.
type Value struct {
	Text    string
	Indices []int
	multi   bool
}

// Scalar wraps a single-answer value.
func Scalar(text string) Value {
	return Value{Text: text}
}

// Multi wraps a multi-select value. The index set is copied and kept sorted
// so equality and JSON output are deterministic.
func Multi(indices []int) Value {
	out := make([]int, len(indices))
	copy(out, indices)
	sort.Ints(out)
	return Value{Indices: out, multi: true}
}

// IsMulti reports whether the value holds option indices.
func (v Value) IsMulti() bool {
	return v.multi
}

// Empty reports whether the value counts as unanswered.
func (v Value) Empty() bool {
	if v.multi {
		return len(v.Indices) == 0
	}
	return strings.TrimSpace(v.Text) == ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.multi {
		if v.Indices == nil {
			return json.Marshal([]int{})
		}
		return json.Marshal(v.Indices)
	}
	return json.Marshal(v.Text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var indices []int
	if err := json.Unmarshal(data, &indices); err == nil {
		*v = Value{Indices: indices, multi: true}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*v = Value{Text: text}
	return nil
}

// State is the answer map keyed by storage key ("q" + global number).
type State map[string]Value

// Clone deep-copies the state.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		if v.multi {
			out[k] = Multi(v.Indices)
		} else {
			out[k] = v
		}
	}
	return out
}

// PersistedState is the durable blob written per (test, user): everything a
// reload or a second tab needs to resume the attempt. Created on the first
// save after the student starts, deleted on submit.
type PersistedState struct {
	Answers      State        `json:"answers"`
	ExpiresAt    int64        `json:"expiresAt,omitempty"` // epoch ms, 0 = timer not started
	AudioPlayed  map[int]bool `json:"audioPlayed,omitempty"`
	Started      bool         `json:"started,omitempty"`
	SubmissionID int64        `json:"submissionId,omitempty"`
	LastSavedAt  int64        `json:"lastSavedAt,omitempty"`
}

// DecodePersistedState parses a stored blob. Malformed JSON is treated as
// absent state so a corrupt blob can never break rendering.
func DecodePersistedState(raw []byte) *PersistedState {
	if len(raw) == 0 {
		return nil
	}
	var st PersistedState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil
	}
	if st.Answers == nil {
		st.Answers = State{}
	}
	return &st
}
