// Package sheets parses spreadsheet A1 references.
package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Cell an A1 cell reference. Row is zero when the reference names a whole
// column ("D" in "A2:D").
type Cell struct {
	Column string
	Row    int
}

// ParseCell parses references like "B12" or "D".
func ParseCell(text string) (Cell, error) {
	text = strings.TrimSpace(text)

	i := 0
	for i < len(text) && unicode.IsLetter(rune(text[i])) {
		i++
	}
	if i == 0 {
		return Cell{}, errors.Errorf("cell %q has no column", text)
	}

	cell := Cell{Column: strings.ToUpper(text[:i])}
	if i == len(text) {
		return cell, nil
	}

	row, err := strconv.Atoi(text[i:])
	if err != nil || row < 1 {
		return Cell{}, errors.Errorf("cell %q has an invalid row", text)
	}
	cell.Row = row

	return cell, nil
}

func (c Cell) String() string {
	if c.Row == 0 {
		return c.Column
	}
	return fmt.Sprintf("%s%d", c.Column, c.Row)
}

// Range an A1 range, optionally sheet-qualified. End is nil for single cells.
type Range struct {
	Sheet string
	Start Cell
	End   *Cell
}

// ParseRange parses "Sheet!A1", "Sheet!A1:B2", "A1" or "A1:B2".
func ParseRange(text string) (Range, error) {
	var r Range

	rest := strings.TrimSpace(text)
	if bang := strings.LastIndex(rest, "!"); bang != -1 {
		r.Sheet = strings.Trim(rest[:bang], "'")
		rest = rest[bang+1:]
	}

	start, end, hasEnd := strings.Cut(rest, ":")

	cell, err := ParseCell(start)
	if err != nil {
		return Range{}, errors.Wrapf(err, "range %q", text)
	}
	r.Start = cell

	if hasEnd {
		endCell, err := ParseCell(end)
		if err != nil {
			return Range{}, errors.Wrapf(err, "range %q", text)
		}
		r.End = &endCell
	}

	return r, nil
}

func (r Range) String() string {
	var b strings.Builder
	if r.Sheet != "" {
		if strings.ContainsAny(r.Sheet, " -") {
			b.WriteString("'" + r.Sheet + "'")
		} else {
			b.WriteString(r.Sheet)
		}
		b.WriteByte('!')
	}
	b.WriteString(r.Start.String())
	if r.End != nil {
		b.WriteByte(':')
		b.WriteString(r.End.String())
	}
	return b.String()
}

// StartRef returns the range collapsed to its top-left cell.
func (r Range) StartRef() string {
	return Range{Sheet: r.Sheet, Start: r.Start}.String()
}

// Tail returns the part of the range starting skip rows below its first row,
// keeping its columns and bottom edge. ok is false when no rows are left.
func (r Range) Tail(skip int) (tail Range, ok bool) {
	first := max(r.Start.Row, 1)
	start := Cell{Column: r.Start.Column, Row: first + skip}

	end := Cell{Column: r.Start.Column, Row: first}
	if r.End != nil {
		end = *r.End
	}
	if end.Row != 0 && start.Row > end.Row {
		return Range{}, false
	}

	return Range{Sheet: r.Sheet, Start: start, End: &end}, true
}

// NextRow returns the first row after tableRange, or 2 (the row below a
// header) when there is no table yet.
func NextRow(tableRange string) (int, error) {
	if strings.TrimSpace(tableRange) == "" {
		return 2, nil
	}

	r, err := ParseRange(tableRange)
	if err != nil {
		return 0, err
	}

	last := r.Start
	if r.End != nil {
		last = *r.End
	}
	if last.Row == 0 {
		return 0, errors.Errorf("table range %q has an open-ended row", tableRange)
	}

	return last.Row + 1, nil
}
