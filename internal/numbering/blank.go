package numbering

import (
	"html"
	"regexp"
	"strconv"
)

// Blank-token grammar shared by notes-completion and table-completion text.
// A blank is either a numbered token (digits followed by underscores or an
// ellipsis run) or a bare run of at least two underscore/ellipsis characters.
var (
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

	numberedBlankPattern = regexp.MustCompile(`(\d+)\s*(?:[_…]+|\.{3,})`)
	notesBlankPattern    = regexp.MustCompile(`\d+\s*(?:[_…]+|\.{3,})|[_…]{2,}|\.{3,}`)

	// Table cells additionally support an explicit [BLANK] marker.
	tableBlankPattern = regexp.MustCompile(`\[BLANK\]|[_…]{2,}|\.{3,}`)
)

// stripHTML removes tags and unescapes entities so blank runs split across
// inline markup still match.
func stripHTML(s string) string {
	return html.UnescapeString(htmlTagPattern.ReplaceAllString(s, " "))
}

// countNotesBlanks counts blank tokens in notes-completion text.
func countNotesBlanks(text string) int {
	return len(notesBlankPattern.FindAllString(stripHTML(text), -1))
}

// notesBlankNumbers extracts the authored numbers of the embedded digit
// tokens, in document order. It returns nil unless every blank in the text is
// numbered; mixed numbered/bare blanks fall back to sequential numbering.
func notesBlankNumbers(text string) []int {
	clean := stripHTML(text)
	total := len(notesBlankPattern.FindAllString(clean, -1))
	matches := numberedBlankPattern.FindAllStringSubmatch(clean, -1)
	if total == 0 || len(matches) != total {
		return nil
	}
	nums := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		nums = append(nums, n)
	}
	return nums
}

// countCellBlanks counts blank markers in one table cell.
func countCellBlanks(cell string) int {
	return len(tableBlankPattern.FindAllString(stripHTML(cell), -1))
}
