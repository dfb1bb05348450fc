package session

import (
	"encoding/json"
	"testing"

	"github.com/leonthanh/listening-service/internal/numbering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerStoreSetAndGet(t *testing.T) {
	store := NewAnswerStore()
	store.SetAnswer("q1", "library")

	v, ok := store.Get("q1")
	require.True(t, ok)
	assert.Equal(t, "library", v.Text)
	assert.False(t, v.IsMulti())
}

func TestAnswerStoreRejectsWritesAfterSubmit(t *testing.T) {
	store := NewAnswerStore()
	store.SetAnswer("q1", "before")
	store.MarkSubmitted()

	store.SetAnswer("q1", "after")
	store.ToggleMultiSelect("q6", 0, true, 3)

	v, _ := store.Get("q1")
	assert.Equal(t, "before", v.Text)
	_, ok := store.Get("q6")
	assert.False(t, ok)
}

func TestToggleMultiSelectCap(t *testing.T) {
	store := NewAnswerStore()
	store.ToggleMultiSelect("q6", 0, true, 2)
	store.ToggleMultiSelect("q6", 3, true, 2)
	// Third selection is silently refused.
	store.ToggleMultiSelect("q6", 1, true, 2)

	v, _ := store.Get("q6")
	assert.Equal(t, []int{0, 3}, v.Indices)

	// Uncheck always removes, then a new selection fits again.
	store.ToggleMultiSelect("q6", 0, false, 2)
	store.ToggleMultiSelect("q6", 1, true, 2)
	v, _ = store.Get("q6")
	assert.Equal(t, []int{1, 3}, v.Indices)
}

func TestToggleMultiSelectUncheckOverfull(t *testing.T) {
	// An over-full stored set (e.g. adopted from another tab) still honors
	// unchecking.
	store := NewAnswerStore()
	store.Restore(State{"q6": Multi([]int{0, 1, 2, 3})})

	store.ToggleMultiSelect("q6", 2, false, 2)
	v, _ := store.Get("q6")
	assert.Equal(t, []int{0, 1, 3}, v.Indices)
}

func TestCountAnswered(t *testing.T) {
	slots := []numbering.Slot{
		{Type: numbering.SlotSingle, Key: "q1", Number: 1},
		{Type: numbering.SlotSingle, Key: "q2", Number: 2},
		{Type: numbering.SlotMultiSelect, Key: "q3", Number: 3, Slots: 3},
	}

	store := NewAnswerStore()
	assert.Equal(t, 0, store.CountAnswered(slots))

	store.SetAnswer("q1", "yes")
	store.SetAnswer("q2", "   ") // whitespace is unanswered
	store.ToggleMultiSelect("q3", 0, true, 3)
	store.ToggleMultiSelect("q3", 2, true, 3)
	assert.Equal(t, 3, store.CountAnswered(slots))

	// A stored set larger than the slot width never counts above the width.
	store.Restore(State{"q3": Multi([]int{0, 1, 2, 3, 4})})
	assert.Equal(t, 3, store.CountAnswered(slots))
}

func TestStateRoundTrip(t *testing.T) {
	original := State{
		"q1":  Scalar("a quiet street"),
		"q2":  Scalar("B"),
		"q6":  Multi([]int{2, 0}),
		"q9":  Multi(nil),
		"q10": Scalar(""),
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var restored State
	require.NoError(t, json.Unmarshal(raw, &restored))

	require.Len(t, restored, len(original))
	for key, want := range original {
		got := restored[key]
		assert.Equal(t, want.IsMulti(), got.IsMulti(), key)
		if want.IsMulti() {
			assert.ElementsMatch(t, want.Indices, got.Indices, key)
		} else {
			assert.Equal(t, want.Text, got.Text, key)
		}
	}
}

func TestDecodePersistedStateMalformed(t *testing.T) {
	assert.Nil(t, DecodePersistedState(nil))
	assert.Nil(t, DecodePersistedState([]byte("{not json")))

	st := DecodePersistedState([]byte(`{"answers":{"q1":"a"},"expiresAt":123,"started":true}`))
	require.NotNil(t, st)
	assert.True(t, st.Started)
	assert.Equal(t, int64(123), st.ExpiresAt)
	assert.Equal(t, "a", st.Answers["q1"].Text)
}
