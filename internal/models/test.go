package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ListeningTest is the stored test document. The structure fields are
// persisted as JSON-encoded strings, matching what the browser editor sends;
// they are parsed on demand rather than at load so a malformed question blob
// surfaces as a parse error for that request instead of poisoning the row.
type ListeningTest struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Title    string `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Duration int    `json:"duration" gorm:"not null;default:30" validate:"required,min=1,max=300"`

	// JSON-encoded []Part
	PartInstructions string `json:"partInstructions" gorm:"type:text"`
	// JSON-encoded []QuestionRecord
	Questions string `json:"questions" gorm:"type:text"`
	// JSON-encoded []string
	PartAudioURLs string `json:"partAudioUrls" gorm:"type:text"`

	CreatedBy string         `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ListeningTest) TableName() string {
	return "listening_tests"
}

// ParsedTest is the decoded, immutable view of a test used by the numbering
// and grading engines.
type ParsedTest struct {
	ID            uint
	Title         string
	Duration      int
	Parts         []Part
	Records       []QuestionRecord
	PartAudioURLs []string
}

// Parse decodes the JSON-encoded structure fields. Absent fields decode to
// empty collections; a syntactically broken field is a hard error because a
// partially rendered test would mis-number every question after the break.
func (t *ListeningTest) Parse() (*ParsedTest, error) {
	parsed := &ParsedTest{
		ID:       t.ID,
		Title:    t.Title,
		Duration: t.Duration,
	}

	if t.PartInstructions != "" {
		if err := json.Unmarshal([]byte(t.PartInstructions), &parsed.Parts); err != nil {
			return nil, fmt.Errorf("failed to parse part instructions: %w", err)
		}
	}
	if t.Questions != "" {
		if err := json.Unmarshal([]byte(t.Questions), &parsed.Records); err != nil {
			return nil, fmt.Errorf("failed to parse questions: %w", err)
		}
	}
	if t.PartAudioURLs != "" {
		if err := json.Unmarshal([]byte(t.PartAudioURLs), &parsed.PartAudioURLs); err != nil {
			return nil, fmt.Errorf("failed to parse part audio urls: %w", err)
		}
	}

	return parsed, nil
}

// SectionRecords returns the question records addressed to one
// (partIndex, sectionIndex) coordinate, in authored order.
func (p *ParsedTest) SectionRecords(partIndex, sectionIndex int) []QuestionRecord {
	var out []QuestionRecord
	for _, rec := range p.Records {
		if rec.PartIndex == partIndex && rec.SectionIndex == sectionIndex {
			out = append(out, rec)
		}
	}
	return out
}
