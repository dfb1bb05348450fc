package validator

import (
	"fmt"

	"github.com/leonthanh/listening-service/internal/models"
)

// TestValidator handles listening-test structure validation
type TestValidator struct{}

// NewTestValidator creates a new test validator
func NewTestValidator() *TestValidator {
	return &TestValidator{}
}

// ValidateTest checks a stored test document: the JSON structure fields must
// parse, and every question record must address an existing section.
func (v *TestValidator) ValidateTest(test *models.ListeningTest) error {
	if test.Title == "" {
		return fmt.Errorf("test title is required")
	}
	if test.Duration < 1 || test.Duration > 300 {
		return fmt.Errorf("test duration must be between 1 and 300 minutes")
	}

	parsed, err := test.Parse()
	if err != nil {
		return err
	}
	return v.ValidateStructure(parsed)
}

// ValidateStructure checks a parsed test's internal consistency.
func (v *TestValidator) ValidateStructure(parsed *models.ParsedTest) error {
	for i, rec := range parsed.Records {
		if rec.PartIndex < 0 || rec.PartIndex >= len(parsed.Parts) {
			return fmt.Errorf("question %d references part %d, test has %d parts",
				i+1, rec.PartIndex, len(parsed.Parts))
		}
		sections := parsed.Parts[rec.PartIndex].Sections
		if rec.SectionIndex < 0 || rec.SectionIndex >= len(sections) {
			return fmt.Errorf("question %d references section %d of part %d, part has %d sections",
				i+1, rec.SectionIndex, rec.PartIndex, len(sections))
		}
	}

	for pi, part := range parsed.Parts {
		for si, section := range part.Sections {
			if err := v.validateSection(parsed, pi, si, section); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *TestValidator) validateSection(parsed *models.ParsedTest, partIndex, sectionIndex int, section models.Section) error {
	records := parsed.SectionRecords(partIndex, sectionIndex)

	switch section.Type() {
	case models.QuestionABC, models.QuestionABCD:
		for _, rec := range records {
			if len(rec.Options) == 0 {
				return fmt.Errorf("choice question in part %d section %d has no options",
					partIndex+1, sectionIndex+1)
			}
		}
	case models.QuestionMultiSelect:
		for _, rec := range records {
			if rec.Required() > len(rec.Options) && len(rec.Options) > 0 {
				return fmt.Errorf("multi-select question in part %d section %d requires %d answers but offers %d options",
					partIndex+1, sectionIndex+1, rec.Required(), len(rec.Options))
			}
		}
	case models.QuestionMatching:
		for _, rec := range records {
			if len(rec.LeftItems) == 0 && len(rec.Answers) == 0 {
				return fmt.Errorf("matching question in part %d section %d has neither items nor answers",
					partIndex+1, sectionIndex+1)
			}
		}
	case models.QuestionMapLabeling:
		for _, rec := range records {
			if len(rec.Items) == 0 {
				return fmt.Errorf("map question in part %d section %d has no labeled items",
					partIndex+1, sectionIndex+1)
			}
		}
	}
	return nil
}
