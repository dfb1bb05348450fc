package session

import (
	"sync"

	"github.com/leonthanh/listening-service/internal/numbering"
)

// AnswerStore holds the in-memory answer map for one attempt. It is the
// single source of truth rendered into persistence; every mutation notifies
// the dirty hook so the reconciler can schedule its debounced writes.
type AnswerStore struct {
	mu        sync.Mutex
	answers   State
	submitted bool
	onDirty   func()
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: State{}}
}

// OnDirty registers the mutation callback. The hook runs outside the store
// lock.
func (s *AnswerStore) OnDirty(fn func()) {
	s.mu.Lock()
	s.onDirty = fn
	s.mu.Unlock()
}

// SetAnswer overwrites a scalar answer. Writes after submission are no-ops.
func (s *AnswerStore) SetAnswer(key, text string) {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return
	}
	s.answers[key] = Scalar(text)
	hook := s.onDirty
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// ToggleMultiSelect checks or unchecks one option of a multi-select group.
// Checking beyond max is silently refused; the checkbox is the only feedback.
// Unchecking always removes the index, even from an over-full set.
func (s *AnswerStore) ToggleMultiSelect(key string, optionIndex int, checked bool, max int) {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return
	}
	current := s.answers[key].Indices
	next := make([]int, 0, len(current)+1)
	found := false
	for _, idx := range current {
		if idx == optionIndex {
			found = true
			if !checked {
				continue
			}
		}
		next = append(next, idx)
	}
	if checked && !found {
		if max > 0 && len(next) >= max {
			s.mu.Unlock()
			return
		}
		next = append(next, optionIndex)
	}
	s.answers[key] = Multi(next)
	hook := s.onDirty
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// Get returns the stored value for a key.
func (s *AnswerStore) Get(key string) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.answers[key]
	return v, ok
}

// Len returns the number of stored answer entries.
func (s *AnswerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// CountAnswered reports how many of a part's question slots hold answers.
// A multi-select slot contributes min(selected, width); a single slot
// contributes one when non-empty.
func (s *AnswerStore) CountAnswered(slots []numbering.Slot) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, slot := range slots {
		v, ok := s.answers[slot.Key]
		if !ok || v.Empty() {
			continue
		}
		if slot.Type == numbering.SlotMultiSelect {
			n := len(v.Indices)
			if n > slot.Slots {
				n = slot.Slots
			}
			count += n
			continue
		}
		count++
	}
	return count
}

// Snapshot deep-copies the current answer map.
func (s *AnswerStore) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// Restore replaces the answer map wholesale. Used only for initial hydration
// and cross-tab blob adoption; live edits mutate key by key.
func (s *AnswerStore) Restore(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == nil {
		s.answers = State{}
		return
	}
	s.answers = state.Clone()
}

// MarkSubmitted freezes the store; subsequent mutations are ignored.
func (s *AnswerStore) MarkSubmitted() {
	s.mu.Lock()
	s.submitted = true
	s.mu.Unlock()
}

// Submitted reports whether the store is frozen.
func (s *AnswerStore) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}
