package numbering

import (
	"github.com/leonthanh/listening-service/internal/models"
)

// ResolveStart computes the starting global question number for the section
// at (partIndex, sectionIndex). Numbering is 1-based and accumulates slot
// counts across every section before the target, in document order.
//
// A positive startingQuestionNumber on a section is authoritative for that
// section's own start. It does not rewrite history: the section after it
// resumes from override + that section's slot count, whether or not the
// override collides with an earlier run. Inconsistent authored overrides are
// accepted input, not corrected here.
func ResolveStart(parts []models.Part, records []models.QuestionRecord, partIndex, sectionIndex int) int {
	start := 1
	for p := 0; p < len(parts) && p <= partIndex; p++ {
		for s := range parts[p].Sections {
			section := parts[p].Sections[s]
			if p == partIndex && s == sectionIndex {
				if section.StartingQuestionNumber > 0 {
					return section.StartingQuestionNumber
				}
				return start
			}
			n := CountSectionQuestions(section, sectionRecords(records, p, s))
			if section.StartingQuestionNumber > 0 {
				start = section.StartingQuestionNumber + n
			} else {
				start += n
			}
		}
	}
	return start
}

// TotalQuestions sums the slot counts of every section of the test.
func TotalQuestions(parts []models.Part, records []models.QuestionRecord) int {
	total := 0
	for p := range parts {
		for s := range parts[p].Sections {
			total += CountSectionQuestions(parts[p].Sections[s], sectionRecords(records, p, s))
		}
	}
	return total
}

func sectionRecords(records []models.QuestionRecord, partIndex, sectionIndex int) []models.QuestionRecord {
	var out []models.QuestionRecord
	for _, rec := range records {
		if rec.PartIndex == partIndex && rec.SectionIndex == sectionIndex {
			out = append(out, rec)
		}
	}
	return out
}
