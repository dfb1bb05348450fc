package models

import (
	"encoding/json"
	"strings"
)

// QuestionType identifies how a section's questions are authored, numbered
// and graded.
type QuestionType string

const (
	QuestionFill            QuestionType = "fill"
	QuestionABC             QuestionType = "abc"
	QuestionABCD            QuestionType = "abcd"
	QuestionMatching        QuestionType = "matching"
	QuestionMultiSelect     QuestionType = "multi-select"
	QuestionNotesCompletion QuestionType = "notes-completion"
	QuestionFormCompletion  QuestionType = "form-completion"
	QuestionTableCompletion QuestionType = "table-completion"
	QuestionMapLabeling     QuestionType = "map-labeling"
)

// NormalizeQuestionType lower-cases a raw type string. Unknown or empty types
// fall back to fill, which numbers one slot per question record.
func NormalizeQuestionType(raw string) QuestionType {
	switch t := QuestionType(strings.ToLower(strings.TrimSpace(raw))); t {
	case QuestionFill, QuestionABC, QuestionABCD, QuestionMatching,
		QuestionMultiSelect, QuestionNotesCompletion, QuestionFormCompletion,
		QuestionTableCompletion, QuestionMapLabeling:
		return t
	default:
		return QuestionFill
	}
}

// Part is one listening part: an ordered list of sections sharing an audio
// track. Its position in the test's part list is its partIndex.
type Part struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section groups questions of a single type under one instruction block.
// StartingQuestionNumber, when positive, is authoritative: it overrides the
// computed numbering for this section and downstream sections resume from
// override + slot count.
type Section struct {
	SectionTitle           string `json:"sectionTitle"`
	SectionInstruction     string `json:"sectionInstruction"`
	QuestionType           string `json:"questionType"`
	StartingQuestionNumber int    `json:"startingQuestionNumber,omitempty"`
}

// Type returns the section's normalized question type.
func (s Section) Type() QuestionType {
	return NormalizeQuestionType(s.QuestionType)
}

// FormRow is one row of a form-completion question. BlankNumber is 1-based
// and sequential within the row set.
type FormRow struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	IsBlank     bool   `json:"isBlank"`
	BlankNumber int    `json:"blankNumber,omitempty"`
}

// TableRow is one row of a table-completion question.
type TableRow struct {
	Cells []string `json:"cells"`
}

// MapItem is one labeled point of a map-labeling question.
type MapItem struct {
	Label         string          `json:"label"`
	CorrectAnswer string          `json:"correctAnswer"`
	Position      json.RawMessage `json:"position,omitempty"`
}

// QuestionRecord is one element of a test's flat question list, addressed by
// the (partIndex, sectionIndex, questionIndex) triple. Global question numbers
// are never stored on the record; they are always derived from the structure.
// The payload fields populated depend on the owning section's question type.
type QuestionRecord struct {
	PartIndex     int `json:"partIndex"`
	SectionIndex  int `json:"sectionIndex"`
	QuestionIndex int `json:"questionIndex"`

	QuestionText  string `json:"questionText,omitempty"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`

	// multi-select
	RequiredAnswers int `json:"requiredAnswers,omitempty"`

	// The client editor serializes these as JSON-encoded strings inside the
	// question blob, so they are decoded through FlexString fields.
	Options    StringList `json:"options,omitempty"`
	LeftItems  StringList `json:"leftItems,omitempty"`
	RightItems StringList `json:"rightItems,omitempty"`
	Answers    AnswerMap  `json:"answers,omitempty"`
	FormRows   FormRows   `json:"formRows,omitempty"`

	// notes-completion
	NotesText string `json:"notesText,omitempty"`

	// table-completion
	Title       string     `json:"title,omitempty"`
	Instruction string     `json:"instruction,omitempty"`
	Columns     StringList `json:"columns,omitempty"`
	Rows        TableRows  `json:"rows,omitempty"`

	// map-labeling
	ImageURL string   `json:"imageUrl,omitempty"`
	Items    MapItems `json:"items,omitempty"`
}

// Required returns the multi-select slot width, defaulting to 2.
func (q QuestionRecord) Required() int {
	if q.RequiredAnswers > 0 {
		return q.RequiredAnswers
	}
	return 2
}

// ===== FLEXIBLE JSON DECODING =====
//
// The editor persists nested collections either natively or as JSON-encoded
// strings depending on which client version authored the test. These wrappers
// accept both shapes and never fail the whole test load on a malformed field.

func flexUnmarshal(data []byte, dest interface{}) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return nil
		}
		return json.Unmarshal([]byte(inner), dest)
	}
	return json.Unmarshal(data, dest)
}

// StringList decodes from a JSON array or a JSON-encoded array string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var out []string
	if err := flexUnmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// AnswerMap maps a question-number key to its expected answer. Keys are kept
// as strings because authored blobs mix numeric and string keys.
type AnswerMap map[string]string

func (m *AnswerMap) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := flexUnmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			// Non-string values (numbers, nested objects) are stored verbatim.
			s = strings.Trim(string(v), `"`)
		}
		out[k] = s
	}
	*m = out
	return nil
}

// FormRows decodes from a JSON array or a JSON-encoded array string.
type FormRows []FormRow

func (r *FormRows) UnmarshalJSON(data []byte) error {
	var out []FormRow
	if err := flexUnmarshal(data, &out); err != nil {
		return err
	}
	*r = out
	return nil
}

// TableRows decodes from a JSON array or a JSON-encoded array string. Rows
// may be authored either as {cells: [...]} objects or as bare string arrays.
type TableRows []TableRow

func (r *TableRows) UnmarshalJSON(data []byte) error {
	var rows []json.RawMessage
	if err := flexUnmarshal(data, &rows); err != nil {
		return err
	}
	out := make([]TableRow, 0, len(rows))
	for _, raw := range rows {
		var row TableRow
		if err := json.Unmarshal(raw, &row); err == nil && row.Cells != nil {
			out = append(out, row)
			continue
		}
		var cells []string
		if err := json.Unmarshal(raw, &cells); err == nil {
			out = append(out, TableRow{Cells: cells})
		}
	}
	*r = out
	return nil
}

// MapItems decodes from a JSON array or a JSON-encoded array string.
type MapItems []MapItem

func (m *MapItems) UnmarshalJSON(data []byte) error {
	var out []MapItem
	if err := flexUnmarshal(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}
