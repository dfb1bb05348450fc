package numbering

import (
	"testing"

	"github.com/leonthanh/listening-service/internal/models"
	"github.com/stretchr/testify/assert"
)

// fixtureTest builds a two-part structure:
//
//	part 0: abc x2 (q1-2), notes "3___ 4___ 5___" (q3-5)
//	part 1: multi-select required=3 (q6-8), map-labeling x2 (q9-10)
func fixtureTest() ([]models.Part, []models.QuestionRecord) {
	parts := []models.Part{
		{Title: "Part 1", Sections: []models.Section{
			{QuestionType: "abc"},
			{QuestionType: "notes-completion"},
		}},
		{Title: "Part 2", Sections: []models.Section{
			{QuestionType: "multi-select"},
			{QuestionType: "map-labeling"},
		}},
	}
	records := []models.QuestionRecord{
		{PartIndex: 0, SectionIndex: 0, QuestionIndex: 0, CorrectAnswer: "A"},
		{PartIndex: 0, SectionIndex: 0, QuestionIndex: 1, CorrectAnswer: "B"},
		{PartIndex: 0, SectionIndex: 1, QuestionIndex: 0, NotesText: "3___ 4___ 5___"},
		{PartIndex: 1, SectionIndex: 0, QuestionIndex: 0, RequiredAnswers: 3, CorrectAnswer: "A,C,E"},
		{PartIndex: 1, SectionIndex: 1, QuestionIndex: 0, Items: models.MapItems{
			{Label: "Reception", CorrectAnswer: "B"},
			{Label: "Car park", CorrectAnswer: "F"},
		}},
	}
	return parts, records
}

func TestResolveStartAccumulates(t *testing.T) {
	parts, records := fixtureTest()

	assert.Equal(t, 1, ResolveStart(parts, records, 0, 0))
	// Preceded by one abc section of 2 questions, the notes section starts at 3.
	assert.Equal(t, 3, ResolveStart(parts, records, 0, 1))
	assert.Equal(t, 6, ResolveStart(parts, records, 1, 0))
	assert.Equal(t, 9, ResolveStart(parts, records, 1, 1))
	assert.Equal(t, 10, TotalQuestions(parts, records))
}

func TestResolveStartNotesAfterChoiceSection(t *testing.T) {
	// Notes section with locally-numbered tokens and no answers map,
	// preceded by one abc section of 2 questions: starts at 3, occupies 3.
	parts := []models.Part{{Sections: []models.Section{
		{QuestionType: "abc"},
		{QuestionType: "notes-completion"},
	}}}
	records := []models.QuestionRecord{
		{PartIndex: 0, SectionIndex: 0},
		{PartIndex: 0, SectionIndex: 0, QuestionIndex: 1},
		{PartIndex: 0, SectionIndex: 1, NotesText: "1___ 2___ 3___"},
	}

	assert.Equal(t, 3, ResolveStart(parts, records, 0, 1))
	assert.Equal(t, 3, CountSectionQuestions(parts[0].Sections[1], records[2:]))
}

func TestResolveStartIndependentCalls(t *testing.T) {
	parts, records := fixtureTest()

	// Out-of-order calls must not depend on hidden state.
	assert.Equal(t, 9, ResolveStart(parts, records, 1, 1))
	assert.Equal(t, 1, ResolveStart(parts, records, 0, 0))
	assert.Equal(t, 9, ResolveStart(parts, records, 1, 1))
}

func TestResolveStartOverride(t *testing.T) {
	parts, records := fixtureTest()
	parts[1].Sections[0].StartingQuestionNumber = 50

	// The override is verbatim for the section itself.
	assert.Equal(t, 50, ResolveStart(parts, records, 1, 0))
	// The next un-overridden section resumes at override + slot count.
	assert.Equal(t, 53, ResolveStart(parts, records, 1, 1))
	// Earlier coordinates are unaffected.
	assert.Equal(t, 3, ResolveStart(parts, records, 0, 1))
}

func TestResolveStartOverrideDoesNotRewriteAccumulator(t *testing.T) {
	// An override smaller than the running total may create an overlapping
	// run. That is accepted authored input; downstream still resumes from
	// override + count.
	parts := []models.Part{{Sections: []models.Section{
		{QuestionType: "fill"},
		{QuestionType: "fill", StartingQuestionNumber: 2},
		{QuestionType: "fill"},
	}}}
	records := []models.QuestionRecord{
		{PartIndex: 0, SectionIndex: 0},
		{PartIndex: 0, SectionIndex: 0},
		{PartIndex: 0, SectionIndex: 0},
		{PartIndex: 0, SectionIndex: 1},
		{PartIndex: 0, SectionIndex: 2},
	}

	assert.Equal(t, 1, ResolveStart(parts, records, 0, 0))
	assert.Equal(t, 2, ResolveStart(parts, records, 0, 1))
	assert.Equal(t, 3, ResolveStart(parts, records, 0, 2))
}
