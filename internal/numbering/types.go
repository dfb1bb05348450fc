package numbering

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/leonthanh/listening-service/internal/models"
)

// SlotType distinguishes navigator entries that hold one answer from
// multi-select groups spanning several global numbers.
type SlotType string

const (
	SlotSingle      SlotType = "single"
	SlotMultiSelect SlotType = "multi-select"
)

// Slot is one navigator item: a single question occasion or a multi-select
// range. Key is the answer-storage key for the slot's first global number.
type Slot struct {
	Type   SlotType `json:"type"`
	Key    string   `json:"key"`
	Number int      `json:"number"`
	// Slots is the requiredAnswers width of a multi-select entry; zero for
	// single entries.
	Slots int `json:"slots,omitempty"`

	PartIndex     int `json:"partIndex"`
	SectionIndex  int `json:"sectionIndex"`
	QuestionIndex int `json:"questionIndex"`
	// Sub is the ordinal of this occasion within its question record
	// (blank index, matching row, map item).
	Sub int `json:"-"`
}

// AnswerKey formats the storage key for a global question number.
func AnswerKey(number int) string {
	return fmt.Sprintf("q%d", number)
}

// typeDef binds a question type's slot-count rule to its navigator expansion
// rule. Counting, range resolution and navigation all dispatch through this
// one table so the three can never disagree on a type's width.
type typeDef struct {
	count  func(recs []models.QuestionRecord) int
	expand func(recs []models.QuestionRecord, start int) []Slot
}

var typeDefs = map[models.QuestionType]typeDef{
	models.QuestionFill:            {countPerRecord, expandSingles},
	models.QuestionABC:             {countPerRecord, expandSingles},
	models.QuestionABCD:            {countPerRecord, expandSingles},
	models.QuestionMultiSelect:     {countMultiSelect, expandMultiSelect},
	models.QuestionMatching:        {countMatching, expandMatching},
	models.QuestionNotesCompletion: {countNotes, expandNotes},
	models.QuestionFormCompletion:  {countForm, expandForm},
	models.QuestionTableCompletion: {countTable, expandTable},
	models.QuestionMapLabeling:     {countMap, expandMap},
}

func defFor(t models.QuestionType) typeDef {
	if def, ok := typeDefs[t]; ok {
		return def
	}
	return typeDefs[models.QuestionFill]
}

// numericAnswerKeys returns the numeric keys of an authored answers map in
// ascending order. Non-numeric keys are ignored.
func numericAnswerKeys(answers models.AnswerMap) []int {
	if len(answers) == 0 {
		return nil
	}
	nums := make([]int, 0, len(answers))
	for k := range answers {
		if n, err := strconv.Atoi(k); err == nil {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums
}
