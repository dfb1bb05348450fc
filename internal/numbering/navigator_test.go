package numbering

import (
	"testing"

	"github.com/leonthanh/listening-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotNumbers(slots []Slot) []int {
	nums := make([]int, len(slots))
	for i, s := range slots {
		nums[i] = s.Number
	}
	return nums
}

func TestBuildSlotsContiguity(t *testing.T) {
	// Without overrides, concatenating every part's slots covers 1..N with no
	// gaps or repeats, where multi-select entries consume their full width.
	parts, records := fixtureTest()
	all := BuildAllSlots(parts, records)

	next := 1
	covered := 0
	for _, slot := range all {
		assert.Equal(t, next, slot.Number)
		assert.Equal(t, AnswerKey(next), slot.Key)
		width := 1
		if slot.Type == SlotMultiSelect {
			width = slot.Slots
		}
		next += width
		covered += width
	}
	assert.Equal(t, TotalQuestions(parts, records), covered)
}

func TestBuildSlotsMultiSelectWidth(t *testing.T) {
	parts, records := fixtureTest()
	slots := BuildSlots(parts, records, 1)

	require.Len(t, slots, 3)
	assert.Equal(t, SlotMultiSelect, slots[0].Type)
	assert.Equal(t, "q6", slots[0].Key)
	assert.Equal(t, 3, slots[0].Slots)
	// Map items follow after the multi-select range.
	assert.Equal(t, []int{6, 9, 10}, slotNumbers(slots))
	assert.Equal(t, SlotSingle, slots[1].Type)
}

func TestBuildSlotsNotesUsesEmbeddedNumbers(t *testing.T) {
	parts := []models.Part{{Sections: []models.Section{
		{QuestionType: "notes-completion"},
	}}}
	records := []models.QuestionRecord{
		{PartIndex: 0, SectionIndex: 0, NotesText: "14___ then 15___ then 16___"},
	}

	slots := BuildSlots(parts, records, 0)
	assert.Equal(t, []int{14, 15, 16}, slotNumbers(slots))
}

func TestBuildSlotsNotesSequentialWhenUnnumbered(t *testing.T) {
	parts := []models.Part{{Sections: []models.Section{
		{QuestionType: "fill"},
		{QuestionType: "notes-completion"},
	}}}
	records := []models.QuestionRecord{
		{PartIndex: 0, SectionIndex: 0},
		{PartIndex: 0, SectionIndex: 0},
		{PartIndex: 0, SectionIndex: 1, NotesText: "costs ____ and opens at ____"},
	}

	slots := BuildSlots(parts, records, 0)
	assert.Equal(t, []int{1, 2, 3, 4}, slotNumbers(slots))
}

func TestBuildSlotsFormBlankNumbers(t *testing.T) {
	parts := []models.Part{{Sections: []models.Section{
		{QuestionType: "form-completion", StartingQuestionNumber: 11},
	}}}
	records := []models.QuestionRecord{
		{PartIndex: 0, SectionIndex: 0, FormRows: models.FormRows{
			{Label: "Name", Value: "Sarah Chen"},
			{Label: "Phone", IsBlank: true, BlankNumber: 1},
			{Label: "Postcode", IsBlank: true, BlankNumber: 2},
			{Label: "Move-in date", IsBlank: true, BlankNumber: 3},
		}},
	}

	slots := BuildSlots(parts, records, 0)
	// sectionStart + blankNumber - 1
	assert.Equal(t, []int{11, 12, 13}, slotNumbers(slots))
}

func TestBuildSlotsTableRowMajorOrder(t *testing.T) {
	parts := []models.Part{{Sections: []models.Section{
		{QuestionType: "table-completion"},
	}}}
	records := []models.QuestionRecord{
		{PartIndex: 0, SectionIndex: 0, Rows: models.TableRows{
			{Cells: []string{"Car", "$40 ____ per day", "- ____ fun"}},
		}},
	}

	slots := BuildSlots(parts, records, 0)
	require.Len(t, slots, 2)
	// Left-to-right: the cost blank takes the lower number.
	assert.Equal(t, 1, slots[0].Number)
	assert.Equal(t, 0, slots[0].Sub)
	assert.Equal(t, 2, slots[1].Number)
	assert.Equal(t, 1, slots[1].Sub)
}

func TestBuildSlotsMatchingAnswerKeys(t *testing.T) {
	parts := []models.Part{{Sections: []models.Section{
		{QuestionType: "matching"},
	}}}
	records := []models.QuestionRecord{
		{PartIndex: 0, SectionIndex: 0,
			LeftItems: models.StringList{"one", "two", "three"},
			Answers:   models.AnswerMap{"22": "B", "21": "A", "23": "F"}},
	}

	slots := BuildSlots(parts, records, 0)
	assert.Equal(t, []int{21, 22, 23}, slotNumbers(slots))
}

func TestBuildSlotsDeduplicatesCollidingNumbers(t *testing.T) {
	// Two sections authored to overlap via an inconsistent override: the
	// navigator must keep the first occurrence and not crash.
	parts := []models.Part{{Sections: []models.Section{
		{QuestionType: "fill"},
		{QuestionType: "fill", StartingQuestionNumber: 1},
	}}}
	records := []models.QuestionRecord{
		{PartIndex: 0, SectionIndex: 0},
		{PartIndex: 0, SectionIndex: 0},
		{PartIndex: 0, SectionIndex: 1},
	}

	slots := BuildSlots(parts, records, 0)
	assert.Equal(t, []int{1, 2}, slotNumbers(slots))
	assert.Equal(t, 0, slots[0].SectionIndex)
}

func TestBuildSlotsOverrideStart(t *testing.T) {
	parts, records := fixtureTest()
	parts[1].Sections[0].StartingQuestionNumber = 50

	slots := BuildSlots(parts, records, 1)
	// First slot starts exactly at the override; the following section
	// resumes at override + width.
	assert.Equal(t, []int{50, 53, 54}, slotNumbers(slots))
}

func TestBuildSlotsOutOfRangePart(t *testing.T) {
	parts, records := fixtureTest()
	assert.Nil(t, BuildSlots(parts, records, 7))
	assert.Nil(t, BuildSlots(parts, records, -1))
}
