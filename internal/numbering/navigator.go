package numbering

import (
	"github.com/leonthanh/listening-service/internal/models"
)

// BuildSlots expands one part into its ordered navigator items. Each atomic
// question occasion becomes a Slot carrying its global number and storage key;
// multi-select groups become one Slot spanning requiredAnswers numbers.
//
// Malformed authored data (colliding numbers) must not break navigation:
// slots are deduplicated by starting number, first occurrence wins.
func BuildSlots(parts []models.Part, records []models.QuestionRecord, partIndex int) []Slot {
	if partIndex < 0 || partIndex >= len(parts) {
		return nil
	}

	var slots []Slot
	seen := map[int]bool{}
	for s := range parts[partIndex].Sections {
		section := parts[partIndex].Sections[s]
		recs := sectionRecords(records, partIndex, s)
		start := ResolveStart(parts, records, partIndex, s)
		for _, slot := range defFor(section.Type()).expand(recs, start) {
			if seen[slot.Number] {
				continue
			}
			seen[slot.Number] = true
			slot.PartIndex = partIndex
			slot.SectionIndex = s
			slots = append(slots, slot)
		}
	}
	return slots
}

// BuildAllSlots flattens every part's slots into one cross-part list, the
// basis for prev/next traversal and whole-test grading.
func BuildAllSlots(parts []models.Part, records []models.QuestionRecord) []Slot {
	var all []Slot
	for p := range parts {
		all = append(all, BuildSlots(parts, records, p)...)
	}
	return all
}

// ===== PER-TYPE EXPANSION =====
//
// Expansion mirrors the counting rules in count.go: every expand function
// emits exactly count() slots for well-formed input, using the same
// preference order for explicit signals.

func expandSingles(recs []models.QuestionRecord, start int) []Slot {
	slots := make([]Slot, 0, len(recs))
	for i, rec := range recs {
		slots = append(slots, singleSlot(start, rec.QuestionIndex, i))
		start++
	}
	return slots
}

func expandMultiSelect(recs []models.QuestionRecord, start int) []Slot {
	slots := make([]Slot, 0, len(recs))
	for i, rec := range recs {
		req := rec.Required()
		slots = append(slots, Slot{
			Type:          SlotMultiSelect,
			Key:           AnswerKey(start),
			Number:        start,
			Slots:         req,
			QuestionIndex: rec.QuestionIndex,
			Sub:           i,
		})
		start += req
	}
	return slots
}

// matching: authored answers keys carry the slot numbers when present,
// otherwise one slot per left item from the section start.
func expandMatching(recs []models.QuestionRecord, start int) []Slot {
	var slots []Slot
	for _, rec := range recs {
		if nums := numericAnswerKeys(rec.Answers); len(nums) > 0 {
			for i, n := range nums {
				slots = append(slots, singleSlot(n, rec.QuestionIndex, i))
			}
			start = nextAfter(nums, start)
			continue
		}
		for i := range rec.LeftItems {
			slots = append(slots, singleSlot(start, rec.QuestionIndex, i))
			start++
		}
	}
	return slots
}

// notes-completion: numbers come from the embedded digit tokens when every
// blank is numbered, else from answers keys, else sequentially from the
// section start.
func expandNotes(recs []models.QuestionRecord, start int) []Slot {
	var slots []Slot
	for _, rec := range recs {
		nums := notesBlankNumbers(rec.NotesText)
		if len(nums) == 0 {
			nums = numericAnswerKeys(rec.Answers)
		}
		if len(nums) > 0 {
			for i, n := range nums {
				slots = append(slots, singleSlot(n, rec.QuestionIndex, i))
			}
			start = nextAfter(nums, start)
			continue
		}
		blanks := countNotesBlanks(rec.NotesText)
		for i := 0; i < blanks; i++ {
			slots = append(slots, singleSlot(start, rec.QuestionIndex, i))
			start++
		}
	}
	return slots
}

// form-completion: a blank row's number is sectionStart + blankNumber - 1;
// rows authored without a blankNumber fall back to the next free sequential
// position.
func expandForm(recs []models.QuestionRecord, start int) []Slot {
	var slots []Slot
	for _, rec := range recs {
		seq := 0
		sub := 0
		for _, row := range rec.FormRows {
			if !row.IsBlank {
				continue
			}
			n := start + seq
			if row.BlankNumber > 0 {
				n = start + row.BlankNumber - 1
			}
			slots = append(slots, singleSlot(n, rec.QuestionIndex, sub))
			seq++
			sub++
		}
		start += seq
	}
	return slots
}

// table-completion: blanks number row-major, left to right; a table without
// markers numbers one slot per row.
func expandTable(recs []models.QuestionRecord, start int) []Slot {
	var slots []Slot
	for _, rec := range recs {
		blanks := 0
		sub := 0
		for _, row := range rec.Rows {
			for _, cell := range row.Cells {
				for i := 0; i < countCellBlanks(cell); i++ {
					slots = append(slots, singleSlot(start+blanks, rec.QuestionIndex, sub))
					blanks++
					sub++
				}
			}
		}
		if blanks == 0 {
			for range rec.Rows {
				slots = append(slots, singleSlot(start+blanks, rec.QuestionIndex, sub))
				blanks++
				sub++
			}
		}
		start += blanks
	}
	return slots
}

func expandMap(recs []models.QuestionRecord, start int) []Slot {
	var slots []Slot
	for _, rec := range recs {
		for i := range rec.Items {
			slots = append(slots, singleSlot(start, rec.QuestionIndex, i))
			start++
		}
	}
	return slots
}

func singleSlot(number, questionIndex, sub int) Slot {
	return Slot{
		Type:          SlotSingle,
		Key:           AnswerKey(number),
		Number:        number,
		QuestionIndex: questionIndex,
		Sub:           sub,
	}
}

// nextAfter keeps sequential numbering moving past an explicitly numbered
// record within the same section.
func nextAfter(nums []int, start int) int {
	for _, n := range nums {
		if n+1 > start {
			start = n + 1
		}
	}
	return start
}
