package services

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/leonthanh/listening-service/internal/models"
	"github.com/leonthanh/listening-service/internal/numbering"
	"github.com/leonthanh/listening-service/internal/session"
)

// QuestionResult is the graded outcome of one global question number.
type QuestionResult struct {
	Number   int    `json:"number"`
	Key      string `json:"key"`
	Given    string `json:"given"`
	Expected string `json:"expected"`
	Correct  bool   `json:"correct"`
}

// GradeResult is the graded outcome of a whole attempt.
type GradeResult struct {
	TotalQuestions int              `json:"total_questions"`
	Correct        int              `json:"correct"`
	Percentage     float64          `json:"percentage"`
	Band           float64          `json:"band"`
	Details        []QuestionResult `json:"details"`
}

// GradingService scores an answer map against a parsed test.
type GradingService interface {
	Grade(parsed *models.ParsedTest, answers session.State) *GradeResult
}

type gradingService struct {
	logger *slog.Logger
}

func NewGradingService(logger *slog.Logger) GradingService {
	return &gradingService{logger: logger}
}

func (s *gradingService) Grade(parsed *models.ParsedTest, answers session.State) *GradeResult {
	result := &GradeResult{
		TotalQuestions: numbering.TotalQuestions(parsed.Parts, parsed.Records),
	}

	for _, slot := range numbering.BuildAllSlots(parsed.Parts, parsed.Records) {
		rec, ok := slotRecord(parsed, slot)
		if !ok {
			continue
		}
		sectionType := parsed.Parts[slot.PartIndex].Sections[slot.SectionIndex].Type()

		if slot.Type == numbering.SlotMultiSelect {
			result.Details = append(result.Details, s.gradeMultiSelect(slot, rec, answers)...)
			continue
		}

		expected := expectedAnswer(sectionType, rec, slot)
		given := ""
		if v, ok := answers[slot.Key]; ok && !v.IsMulti() {
			given = v.Text
		}
		result.Details = append(result.Details, QuestionResult{
			Number:   slot.Number,
			Key:      slot.Key,
			Given:    given,
			Expected: expected,
			Correct:  answerMatches(given, expected),
		})
	}

	for _, d := range result.Details {
		if d.Correct {
			result.Correct++
		}
	}
	if result.TotalQuestions > 0 {
		result.Percentage = float64(result.Correct) / float64(result.TotalQuestions) * 100
	}
	result.Band = Band(result.Correct, result.TotalQuestions)
	return result
}

// gradeMultiSelect awards one point per global number of the group for each
// correctly selected option, in ascending option order.
func (s *gradingService) gradeMultiSelect(slot numbering.Slot, rec models.QuestionRecord, answers session.State) []QuestionResult {
	expected := expectedLetters(rec)

	var selected []string
	if v, ok := answers[slot.Key]; ok && v.IsMulti() {
		for _, idx := range v.Indices {
			selected = append(selected, optionLetter(idx))
		}
	}

	matched := 0
	for _, letter := range selected {
		if _, ok := expected[letter]; ok {
			matched++
		}
	}
	width := slot.Slots
	if width <= 0 {
		width = rec.Required()
	}
	if matched > width {
		matched = width
	}

	out := make([]QuestionResult, 0, width)
	for i := 0; i < width; i++ {
		out = append(out, QuestionResult{
			Number:   slot.Number + i,
			Key:      slot.Key,
			Given:    strings.Join(selected, ","),
			Expected: letterSetString(expected),
			Correct:  i < matched,
		})
	}
	return out
}

// slotRecord resolves a slot back to its question record. The authored
// questionIndex is matched first; a record list without explicit indices
// falls back to position.
func slotRecord(parsed *models.ParsedTest, slot numbering.Slot) (models.QuestionRecord, bool) {
	recs := parsed.SectionRecords(slot.PartIndex, slot.SectionIndex)
	for _, rec := range recs {
		if rec.QuestionIndex == slot.QuestionIndex {
			return rec, true
		}
	}
	if slot.QuestionIndex >= 0 && slot.QuestionIndex < len(recs) {
		return recs[slot.QuestionIndex], true
	}
	return models.QuestionRecord{}, false
}

// expectedAnswer returns the authored correct answer for a single slot.
func expectedAnswer(t models.QuestionType, rec models.QuestionRecord, slot numbering.Slot) string {
	key := strconv.Itoa(slot.Number)
	switch t {
	case models.QuestionMatching, models.QuestionNotesCompletion, models.QuestionTableCompletion:
		if v, ok := rec.Answers[key]; ok {
			return v
		}
		return rec.CorrectAnswer
	case models.QuestionFormCompletion:
		blanks := blankRows(rec.FormRows)
		if slot.Sub >= 0 && slot.Sub < len(blanks) {
			return blanks[slot.Sub].Value
		}
		return ""
	case models.QuestionMapLabeling:
		if slot.Sub >= 0 && slot.Sub < len(rec.Items) {
			return rec.Items[slot.Sub].CorrectAnswer
		}
		return ""
	default:
		if rec.CorrectAnswer != "" {
			return rec.CorrectAnswer
		}
		return rec.Answers[key]
	}
}

func blankRows(rows models.FormRows) []models.FormRow {
	var out []models.FormRow
	for _, row := range rows {
		if row.IsBlank {
			out = append(out, row)
		}
	}
	return out
}

// answerMatches compares a student answer with the authored one. Comparison
// is case- and whitespace-insensitive; the authored answer may list
// alternatives separated by "/".
func answerMatches(given, expected string) bool {
	g := normalizeAnswer(given)
	if g == "" || expected == "" {
		return false
	}
	for _, alt := range strings.Split(expected, "/") {
		e := normalizeAnswer(alt)
		if e == "" {
			continue
		}
		if g == e {
			return true
		}
		// A bare option letter matches the letter prefix of a full option
		// text ("b" vs "b) in the library").
		if len(e) == 1 && strings.HasPrefix(g, e) && (len(g) == 1 || !isWordByte(g[1])) {
			return true
		}
		if len(g) == 1 && strings.HasPrefix(e, g) && (len(e) == 1 || !isWordByte(e[1])) {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func normalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// expectedLetters extracts the correct option letters of a multi-select
// question from its authored answer ("A, C" / "AC" / answers map values).
func expectedLetters(rec models.QuestionRecord) map[string]struct{} {
	out := map[string]struct{}{}
	add := func(raw string) {
		for _, tok := range strings.FieldsFunc(raw, func(r rune) bool {
			return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z')
		}) {
			if len(tok) == 1 {
				out[strings.ToLower(tok)] = struct{}{}
			}
		}
		// Compact form without separators: "AC"
		if len(raw) > 1 && len(strings.Fields(raw)) == 1 && isAllLetters(raw) && len(raw) <= 5 {
			for _, r := range strings.ToLower(raw) {
				out[string(r)] = struct{}{}
			}
		}
	}
	add(rec.CorrectAnswer)
	for _, v := range rec.Answers {
		add(v)
	}
	return out
}

func isAllLetters(s string) bool {
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return false
		}
	}
	return len(s) > 0
}

func optionLetter(idx int) string {
	if idx < 0 || idx >= 26 {
		return ""
	}
	return string(rune('a' + idx))
}

func letterSetString(set map[string]struct{}) string {
	letters := make([]string, 0, len(set))
	for l := range set {
		letters = append(letters, l)
	}
	// Small fixed alphabet, simple insertion order is not stable; sort it.
	for i := 1; i < len(letters); i++ {
		for j := i; j > 0 && letters[j] < letters[j-1]; j-- {
			letters[j], letters[j-1] = letters[j-1], letters[j]
		}
	}
	return strings.Join(letters, ",")
}

// ===== IELTS BAND CONVERSION =====

var bandThresholds = []struct {
	minRaw int
	band   float64
}{
	{39, 9.0},
	{37, 8.5},
	{35, 8.0},
	{32, 7.5},
	{30, 7.0},
	{26, 6.5},
	{23, 6.0},
	{18, 5.5},
	{16, 5.0},
	{13, 4.5},
	{10, 4.0},
	{8, 3.5},
	{6, 3.0},
	{4, 2.5},
	{2, 2.0},
	{1, 1.0},
}

// Band converts a raw score to the IELTS listening band. Tests that do not
// have the standard 40 questions are scaled proportionally before lookup.
func Band(correct, total int) float64 {
	if total <= 0 || correct <= 0 {
		return 0
	}
	raw := correct
	if total != 40 {
		raw = int(float64(correct)*40/float64(total) + 0.5)
	}
	if raw > 40 {
		raw = 40
	}
	for _, t := range bandThresholds {
		if raw >= t.minRaw {
			return t.band
		}
	}
	return 0
}
