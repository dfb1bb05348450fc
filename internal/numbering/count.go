package numbering

import (
	"github.com/leonthanh/listening-service/internal/models"
)

// CountSectionQuestions returns how many global question-number slots a
// section occupies. It dispatches on the section's normalized question type
// and never panics on missing collections; absent payloads count as zero.
//
// Where an explicit answers map and a structural signal disagree, the answers
// map wins: it reflects what was actually wired into grading.
func CountSectionQuestions(section models.Section, recs []models.QuestionRecord) int {
	return defFor(section.Type()).count(recs)
}

// fill / abc / abcd: one slot per question record.
func countPerRecord(recs []models.QuestionRecord) int {
	return len(recs)
}

// multi-select: requiredAnswers slots per record, summed over every record in
// the section. A section can hold several multi-select groups.
func countMultiSelect(recs []models.QuestionRecord) int {
	total := 0
	for _, rec := range recs {
		total += rec.Required()
	}
	return total
}

// matching: explicit answers keys win over the left-item count.
func countMatching(recs []models.QuestionRecord) int {
	total := 0
	for _, rec := range recs {
		if n := len(rec.Answers); n > 0 {
			total += n
			continue
		}
		total += len(rec.LeftItems)
	}
	return total
}

// notes-completion: explicit answers keys win over the embedded blank count.
func countNotes(recs []models.QuestionRecord) int {
	total := 0
	for _, rec := range recs {
		if n := len(rec.Answers); n > 0 {
			total += n
			continue
		}
		total += countNotesBlanks(rec.NotesText)
	}
	return total
}

// form-completion: one slot per blank row.
func countForm(recs []models.QuestionRecord) int {
	total := 0
	for _, rec := range recs {
		for _, row := range rec.FormRows {
			if row.IsBlank {
				total++
			}
		}
	}
	return total
}

// table-completion: blank markers across every cell of every row; a table
// authored without markers falls back to one slot per row.
func countTable(recs []models.QuestionRecord) int {
	total := 0
	for _, rec := range recs {
		blanks := 0
		for _, row := range rec.Rows {
			for _, cell := range row.Cells {
				blanks += countCellBlanks(cell)
			}
		}
		if blanks == 0 {
			blanks = len(rec.Rows)
		}
		total += blanks
	}
	return total
}

// map-labeling: one slot per labeled item.
func countMap(recs []models.QuestionRecord) int {
	total := 0
	for _, rec := range recs {
		total += len(rec.Items)
	}
	return total
}
