package numbering

import (
	"testing"

	"github.com/leonthanh/listening-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func section(qtype string) models.Section {
	return models.Section{SectionTitle: "Section", QuestionType: qtype}
}

func rec(part, sec, q int) models.QuestionRecord {
	return models.QuestionRecord{PartIndex: part, SectionIndex: sec, QuestionIndex: q}
}

func TestCountSectionQuestions(t *testing.T) {
	tests := []struct {
		name    string
		section models.Section
		recs    []models.QuestionRecord
		want    int
	}{
		{
			name:    "fill counts one per record",
			section: section("fill"),
			recs:    []models.QuestionRecord{rec(0, 0, 0), rec(0, 0, 1), rec(0, 0, 2)},
			want:    3,
		},
		{
			name:    "unknown type falls back to fill",
			section: section("cloze-deluxe"),
			recs:    []models.QuestionRecord{rec(0, 0, 0), rec(0, 0, 1)},
			want:    2,
		},
		{
			name:    "empty section counts zero",
			section: section("abc"),
			recs:    nil,
			want:    0,
		},
		{
			name:    "multi-select sums requiredAnswers over all records",
			section: section("multi-select"),
			recs: []models.QuestionRecord{
				{RequiredAnswers: 2},
				{RequiredAnswers: 3},
			},
			want: 5,
		},
		{
			name:    "multi-select defaults requiredAnswers to 2",
			section: section("multi-select"),
			recs:    []models.QuestionRecord{{}},
			want:    2,
		},
		{
			name:    "matching uses left items",
			section: section("matching"),
			recs: []models.QuestionRecord{
				{LeftItems: models.StringList{"A speaker", "B speaker", "C speaker"}},
			},
			want: 3,
		},
		{
			name:    "matching prefers explicit answers keys over left items",
			section: section("matching"),
			recs: []models.QuestionRecord{
				{
					LeftItems: models.StringList{"one", "two", "three"},
					Answers:   models.AnswerMap{"11": "A", "12": "C"},
				},
			},
			want: 2,
		},
		{
			name:    "notes counts numbered blank tokens",
			section: section("notes-completion"),
			recs:    []models.QuestionRecord{{NotesText: "1___ 2___ 3___"}},
			want:    3,
		},
		{
			name:    "notes counts bare underscore runs",
			section: section("notes-completion"),
			recs:    []models.QuestionRecord{{NotesText: "Name: ____ lives near ____"}},
			want:    2,
		},
		{
			name:    "notes ignores single underscores and strips html",
			section: section("notes-completion"),
			recs:    []models.QuestionRecord{{NotesText: "<p>snake_case is not a blank, but 5<b>___</b> is</p>"}},
			want:    1,
		},
		{
			name:    "notes prefers answers keys over blank count",
			section: section("notes-completion"),
			recs: []models.QuestionRecord{
				{NotesText: "____ and ____ and ____", Answers: models.AnswerMap{"1": "a", "2": "b"}},
			},
			want: 2,
		},
		{
			name:    "form counts blank rows only",
			section: section("form-completion"),
			recs: []models.QuestionRecord{
				{FormRows: models.FormRows{
					{Label: "Name", Value: "Sarah", IsBlank: false},
					{Label: "Phone", IsBlank: true, BlankNumber: 1},
					{Label: "Street", IsBlank: true, BlankNumber: 2},
				}},
			},
			want: 2,
		},
		{
			name:    "table counts blank markers across all cells",
			section: section("table-completion"),
			recs: []models.QuestionRecord{
				{Rows: models.TableRows{
					{Cells: []string{"Car", "$40 ____ per day", "- ____ fun"}},
				}},
			},
			want: 2,
		},
		{
			name:    "table with BLANK markers",
			section: section("table-completion"),
			recs: []models.QuestionRecord{
				{Rows: models.TableRows{
					{Cells: []string{"Bus", "[BLANK]", "cheap"}},
					{Cells: []string{"Bike", "[BLANK]", "[BLANK]"}},
				}},
			},
			want: 3,
		},
		{
			name:    "table without markers falls back to one per row",
			section: section("table-completion"),
			recs: []models.QuestionRecord{
				{Rows: models.TableRows{
					{Cells: []string{"Bus", "cheap"}},
					{Cells: []string{"Train", "fast"}},
				}},
			},
			want: 2,
		},
		{
			name:    "map labeling counts items",
			section: section("map-labeling"),
			recs: []models.QuestionRecord{
				{Items: models.MapItems{{Label: "Library"}, {Label: "Cafe"}, {Label: "Gym"}, {Label: "Pool"}}},
			},
			want: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountSectionQuestions(tt.section, tt.recs))
		})
	}
}

func TestCountSectionQuestionsMissingPayloads(t *testing.T) {
	// Absent collections must count as zero, never propagate nils.
	for _, qtype := range []string{"matching", "notes-completion", "form-completion", "table-completion", "map-labeling"} {
		t.Run(qtype, func(t *testing.T) {
			assert.Equal(t, 0, CountSectionQuestions(section(qtype), []models.QuestionRecord{{}}))
		})
	}
}
