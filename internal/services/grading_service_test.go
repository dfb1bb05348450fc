package services

import (
	"log/slog"
	"testing"

	"github.com/leonthanh/listening-service/internal/models"
	"github.com/leonthanh/listening-service/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// gradingFixture builds a small two-part test:
//
//	part 1: abc x2 (q1-q2), notes with authored answers (q3-q4)
//	part 2: multi-select requiring 2 (q5-q6), map labeling x2 (q7-q8)
func gradingFixture() *models.ParsedTest {
	return &models.ParsedTest{
		Parts: []models.Part{
			{Sections: []models.Section{
				{QuestionType: "abc"},
				{QuestionType: "notes-completion"},
			}},
			{Sections: []models.Section{
				{QuestionType: "multi-select"},
				{QuestionType: "map-labeling"},
			}},
		},
		Records: []models.QuestionRecord{
			{PartIndex: 0, SectionIndex: 0, QuestionIndex: 0, CorrectAnswer: "B",
				Options: models.StringList{"at home", "in the library", "at work"}},
			{PartIndex: 0, SectionIndex: 0, QuestionIndex: 1, CorrectAnswer: "C",
				Options: models.StringList{"monday", "tuesday", "wednesday"}},
			{PartIndex: 0, SectionIndex: 1, QuestionIndex: 0,
				Answers: models.AnswerMap{"3": "library", "4": "garden/bus stop"}},
			{PartIndex: 1, SectionIndex: 0, QuestionIndex: 0, RequiredAnswers: 2,
				CorrectAnswer: "A, C",
				Options:       models.StringList{"heating", "parking", "lighting", "noise"}},
			{PartIndex: 1, SectionIndex: 1, QuestionIndex: 0, Items: models.MapItems{
				{Label: "reception", CorrectAnswer: "x"},
				{Label: "cafe", CorrectAnswer: "y"},
			}},
		},
	}
}

func TestGradeScoresAcrossTypes(t *testing.T) {
	svc := NewGradingService(discardLogger())

	answers := session.State{
		"q1": session.Scalar("b) in the library"), // letter prefix matches "B"
		"q2": session.Scalar("A"),                 // wrong
		"q3": session.Scalar("  LIBRARY "),        // case/space insensitive
		"q4": session.Scalar("bus stop"),          // alternative answer
		"q5": session.Multi([]int{0, 2}),          // both correct
		"q7": session.Scalar("x"),
		"q8": session.Scalar("z"), // wrong
	}

	result := svc.Grade(gradingFixture(), answers)

	assert.Equal(t, 8, result.TotalQuestions)
	assert.Equal(t, 6, result.Correct)
	assert.InDelta(t, 75.0, result.Percentage, 0.01)
	// 6/8 scales to 30/40, band 7.0
	assert.Equal(t, 7.0, result.Band)
	require.Len(t, result.Details, 8)

	byNumber := map[int]QuestionResult{}
	for _, d := range result.Details {
		byNumber[d.Number] = d
	}
	assert.True(t, byNumber[1].Correct)
	assert.False(t, byNumber[2].Correct)
	assert.True(t, byNumber[3].Correct)
	assert.True(t, byNumber[4].Correct)
	assert.True(t, byNumber[5].Correct)
	assert.True(t, byNumber[6].Correct)
	assert.True(t, byNumber[7].Correct)
	assert.False(t, byNumber[8].Correct)
}

func TestGradeMultiSelectPartialCredit(t *testing.T) {
	svc := NewGradingService(discardLogger())

	// One correct and one wrong selection earns one of the two points.
	answers := session.State{"q5": session.Multi([]int{0, 3})}
	result := svc.Grade(gradingFixture(), answers)

	byNumber := map[int]QuestionResult{}
	for _, d := range result.Details {
		byNumber[d.Number] = d
	}
	assert.True(t, byNumber[5].Correct)
	assert.False(t, byNumber[6].Correct)
	assert.Equal(t, 1, result.Correct)
}

func TestGradeEmptyAnswers(t *testing.T) {
	svc := NewGradingService(discardLogger())
	result := svc.Grade(gradingFixture(), session.State{})

	assert.Equal(t, 8, result.TotalQuestions)
	assert.Equal(t, 0, result.Correct)
	assert.Equal(t, 0.0, result.Band)
}

func TestAnswerMatches(t *testing.T) {
	tests := []struct {
		given    string
		expected string
		want     bool
	}{
		{"library", "library", true},
		{"  Library ", "library", true},
		{"bus  stop", "bus stop", true},
		{"b", "B", true},
		{"b) in the library", "B", true},
		{"b", "b) in the library", true},
		{"blue", "B", false}, // not a bare letter answer
		{"garden", "garden/bus stop", true},
		{"bus stop", "garden/bus stop", true},
		{"park", "garden/bus stop", false},
		{"", "library", false},
		{"library", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, answerMatches(tt.given, tt.expected),
			"given=%q expected=%q", tt.given, tt.expected)
	}
}

func TestBandConversion(t *testing.T) {
	tests := []struct {
		correct, total int
		want           float64
	}{
		{40, 40, 9.0},
		{39, 40, 9.0},
		{37, 40, 8.5},
		{30, 40, 7.0},
		{23, 40, 6.0},
		{16, 40, 5.0},
		{10, 40, 4.0},
		{0, 40, 0},
		{10, 20, 5.5}, // scales to 20/40
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.correct, tt.total),
			"correct=%d total=%d", tt.correct, tt.total)
	}
}
