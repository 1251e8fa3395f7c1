package ot

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"github.com/serroba/richdocs/internal/textpos"
)

// Common errors.
var (
	ErrInvalidPosition  = errors.New("invalid position")
	ErrInvalidRange     = textpos.ErrInvalidRange
	ErrUnknownOperation = errors.New("unknown operation type")
)

type line struct {
	text []rune
	runs []Run
}

// Document is the editable content: an ordered list of lines, each with its
// own formatting runs. A document always has at least one line.
//
// Document is not safe for concurrent use; the editor serializes access.
type Document struct {
	lines      []line
	generation uint64
}

// NewDocument creates a document with the given initial content. Lines are
// separated by '\n'.
func NewDocument(initial string) *Document {
	d := &Document{}
	d.reset(initial)

	return d
}

// SetText replaces the whole content and drops all formatting.
func (d *Document) SetText(text string) {
	d.reset(text)
	d.generation++
}

func (d *Document) reset(text string) {
	parts := strings.Split(text, "\n")
	d.lines = make([]line, len(parts))

	for i, p := range parts {
		d.lines[i] = line{text: []rune(p)}
	}
}

// Generation increases on every mutation. Derived structures use it as a
// cache key.
func (d *Document) Generation() uint64 {
	return d.generation
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Line returns the text of line i, or "" when i is out of range.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}

	return string(d.lines[i].text)
}

// LineLen returns the character count of line i, or 0 when out of range.
func (d *Document) LineLen(i int) int {
	if i < 0 || i >= len(d.lines) {
		return 0
	}

	return len(d.lines[i].text)
}

// Lines returns the text of every line.
func (d *Document) Lines() []string {
	out := make([]string, len(d.lines))
	for i := range d.lines {
		out[i] = string(d.lines[i].text)
	}

	return out
}

// Text returns the whole content joined with '\n'.
func (d *Document) Text() string {
	return strings.Join(d.Lines(), "\n")
}

// Len returns the number of characters including line breaks.
func (d *Document) Len() int {
	n := len(d.lines) - 1
	for _, l := range d.lines {
		n += len(l.text)
	}

	return n
}

// Runs returns a copy of the formatting runs of line i.
func (d *Document) Runs(i int) []Run {
	if i < 0 || i >= len(d.lines) {
		return nil
	}

	return cloneRuns(d.lines[i].runs)
}

// AllRuns returns the runs of every line that has any.
func (d *Document) AllRuns() []LineRuns {
	var out []LineRuns

	for i, l := range d.lines {
		if len(l.runs) > 0 {
			out = append(out, LineRuns{Line: i, Runs: cloneRuns(l.runs)})
		}
	}

	return out
}

// RestoreRuns overwrites the runs of the listed lines. Lines out of range
// are ignored and runs are clamped to the line length.
func (d *Document) RestoreRuns(runs []LineRuns) {
	for _, lr := range runs {
		if lr.Line < 0 || lr.Line >= len(d.lines) {
			continue
		}

		n := len(d.lines[lr.Line].text)
		clamped := make([]Run, 0, len(lr.Runs))

		for _, r := range lr.Runs {
			clamped = append(clamped, Run{Start: clamp(r.Start, 0, n), End: clamp(r.End, 0, n), Style: r.Style})
		}

		d.lines[lr.Line].runs = normalizeRuns(clamped)
	}

	d.generation++
}

// ValidatePosition returns ErrInvalidPosition if p is outside the document.
func (d *Document) ValidatePosition(p textpos.Position) error {
	if p.Line < 0 || p.Line >= len(d.lines) || p.Char < 0 || p.Char > len(d.lines[p.Line].text) {
		return fmt.Errorf("%w: %s", ErrInvalidPosition, p)
	}

	return nil
}

// ValidateRange checks ordering and bounds of r.
func (d *Document) ValidateRange(r textpos.Range) error {
	if r.End.Less(r.Start) {
		return fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}

	if err := d.ValidatePosition(r.Start); err != nil {
		return err
	}

	return d.ValidatePosition(r.End)
}

// ClampPosition moves p to the nearest position inside the document.
func (d *Document) ClampPosition(p textpos.Position) textpos.Position {
	lineIdx := clamp(p.Line, 0, len(d.lines)-1)

	return textpos.Position{Line: lineIdx, Char: clamp(p.Char, 0, len(d.lines[lineIdx].text))}
}

// End returns the position after the last character.
func (d *Document) End() textpos.Position {
	last := len(d.lines) - 1

	return textpos.Position{Line: last, Char: len(d.lines[last].text)}
}

// Offset converts p to a flat character index, counting one character per
// line break. p is clamped into the document first.
func (d *Document) Offset(p textpos.Position) int {
	p = d.ClampPosition(p)

	offset := 0
	for i := range p.Line {
		offset += len(d.lines[i].text) + 1
	}

	return offset + p.Char
}

// PositionAt converts a flat character index back to a position, clamping
// indices outside the document.
func (d *Document) PositionAt(index int) textpos.Position {
	if index <= 0 {
		return textpos.Position{}
	}

	for i, l := range d.lines {
		if index <= len(l.text) {
			return textpos.Position{Line: i, Char: index}
		}

		index -= len(l.text) + 1
	}

	return d.End()
}

// TextInRange returns the text covered by r.
func (d *Document) TextInRange(r textpos.Range) (string, error) {
	if err := d.ValidateRange(r); err != nil {
		return "", err
	}

	if r.IsSingleLine() {
		return string(d.lines[r.Start.Line].text[r.Start.Char:r.End.Char]), nil
	}

	var b strings.Builder

	b.WriteString(string(d.lines[r.Start.Line].text[r.Start.Char:]))

	for i := r.Start.Line + 1; i < r.End.Line; i++ {
		b.WriteByte('\n')
		b.WriteString(string(d.lines[i].text))
	}

	b.WriteByte('\n')
	b.WriteString(string(d.lines[r.End.Line].text[:r.End.Char]))

	return b.String(), nil
}

// NewInsert validates and builds an insert of text at at.
func (d *Document) NewInsert(at textpos.Position, text string, cursor textpos.Position) (Insert, error) {
	if err := d.ValidatePosition(at); err != nil {
		return Insert{}, err
	}

	return Insert{At: at, Text: text, Before: cursor, After: EndOf(at, text)}, nil
}

// NewDelete validates and builds a delete of r, capturing the removed text.
func (d *Document) NewDelete(r textpos.Range, cursor textpos.Position) (Delete, error) {
	text, err := d.TextInRange(r)
	if err != nil {
		return Delete{}, err
	}

	return Delete{Range: r, Text: text, Before: cursor, After: r.Start}, nil
}

// NewReplace validates and builds a replacement of r by text.
func (d *Document) NewReplace(r textpos.Range, text string, inherit bool, cursor textpos.Position) (Replace, error) {
	old, err := d.TextInRange(r)
	if err != nil {
		return Replace{}, err
	}

	return Replace{
		Range:        r,
		NewText:      text,
		OldText:      old,
		InheritStyle: inherit,
		Before:       cursor,
		After:        EndOf(r.Start, text),
	}, nil
}

// NewStyleSpan validates and builds a formatting change over r.
func (d *Document) NewStyleSpan(r textpos.Range, style Style, add bool, cursor textpos.Position) (StyleSpan, error) {
	if err := d.ValidateRange(r); err != nil {
		return StyleSpan{}, err
	}

	return StyleSpan{Range: r, Style: style, Add: add, Before: cursor, After: cursor}, nil
}

// Apply executes op. It either mutates the document completely and returns
// the metadata needed to invert it, or returns an error and leaves the
// document untouched.
func (d *Document) Apply(op Operation) (Metadata, error) {
	switch o := op.(type) {
	case Insert:
		if err := d.ValidatePosition(o.At); err != nil {
			return Metadata{}, err
		}

		meta := Metadata{PriorRuns: d.captureRuns(o.At.Line, o.At.Line)}
		d.insertText(o.At, o.Text)
		d.generation++

		return meta, nil
	case Delete:
		removed, err := d.TextInRange(o.Range)
		if err != nil {
			return Metadata{}, err
		}

		meta := Metadata{DeletedText: removed, PriorRuns: d.captureRuns(o.Range.Start.Line, o.Range.End.Line)}
		d.deleteText(o.Range)
		d.generation++

		return meta, nil
	case Replace:
		removed, err := d.TextInRange(o.Range)
		if err != nil {
			return Metadata{}, err
		}

		meta := Metadata{DeletedText: removed, PriorRuns: d.captureRuns(o.Range.Start.Line, o.Range.End.Line)}
		inherited := d.StylesAt(o.Range.Start)

		d.deleteText(o.Range)
		d.insertText(o.Range.Start, o.NewText)

		if o.InheritStyle {
			for _, s := range inherited {
				d.applyStyle(textpos.Range{Start: o.Range.Start, End: o.NewEnd()}, s, true)
			}
		}

		d.generation++

		return meta, nil
	case StyleSpan:
		if err := d.ValidateRange(o.Range); err != nil {
			return Metadata{}, err
		}

		meta := Metadata{PriorRuns: d.captureRuns(o.Range.Start.Line, o.Range.End.Line)}
		d.applyStyle(o.Range, o.Style, o.Add)
		d.generation++

		return meta, nil
	default:
		return Metadata{}, ErrUnknownOperation
	}
}

func (d *Document) captureRuns(from, to int) []LineRuns {
	out := make([]LineRuns, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, LineRuns{Line: i, Runs: cloneRuns(d.lines[i].runs)})
	}

	return out
}

// insertText writes text at a validated position. A single-line insert
// strictly inside a run extends it; a multi-line insert splits the runs of
// the line between its first and last pieces.
func (d *Document) insertText(at textpos.Position, text string) {
	if text == "" {
		return
	}

	cur := d.lines[at.Line]
	pieces := strings.Split(text, "\n")
	pre := cur.text[:at.Char]
	post := cur.text[at.Char:]

	if len(pieces) == 1 {
		ins := []rune(text)
		merged := make([]rune, 0, len(cur.text)+len(ins))
		merged = append(merged, pre...)
		merged = append(merged, ins...)
		merged = append(merged, post...)

		d.lines[at.Line] = line{text: merged, runs: insertRuns(cur.runs, at.Char, len(ins))}

		return
	}

	left, right := splitRuns(cur.runs, at.Char)

	added := make([]line, len(pieces))

	first := make([]rune, 0, len(pre)+len(pieces[0]))
	first = append(first, pre...)
	first = append(first, []rune(pieces[0])...)
	added[0] = line{text: first, runs: left}

	for i := 1; i < len(pieces)-1; i++ {
		added[i] = line{text: []rune(pieces[i])}
	}

	tail := []rune(pieces[len(pieces)-1])
	last := make([]rune, 0, len(tail)+len(post))
	last = append(last, tail...)
	last = append(last, post...)
	added[len(pieces)-1] = line{text: last, runs: normalizeRuns(shiftRuns(right, len(tail)))}

	lines := make([]line, 0, len(d.lines)+len(pieces)-1)
	lines = append(lines, d.lines[:at.Line]...)
	lines = append(lines, added...)
	lines = append(lines, d.lines[at.Line+1:]...)
	d.lines = lines
}

// deleteText removes a validated range, joining its first and last lines.
func (d *Document) deleteText(r textpos.Range) {
	if r.IsEmpty() {
		return
	}

	first := d.lines[r.Start.Line]
	last := d.lines[r.End.Line]

	left, _ := splitRuns(first.runs, r.Start.Char)
	_, right := splitRuns(last.runs, r.End.Char)

	text := make([]rune, 0, r.Start.Char+len(last.text)-r.End.Char)
	text = append(text, first.text[:r.Start.Char]...)
	text = append(text, last.text[r.End.Char:]...)

	runs := append(left, shiftRuns(right, r.Start.Char)...)
	joined := line{text: text, runs: normalizeRuns(runs)}

	lines := make([]line, 0, len(d.lines)-(r.End.Line-r.Start.Line))
	lines = append(lines, d.lines[:r.Start.Line]...)
	lines = append(lines, joined)
	lines = append(lines, d.lines[r.End.Line+1:]...)
	d.lines = lines
}

// applyStyle adds or removes style over r: the first line from the start
// character to its end, middle lines wholly, the last line up to the end
// character.
func (d *Document) applyStyle(r textpos.Range, style Style, add bool) {
	for i := r.Start.Line; i <= r.End.Line; i++ {
		from, to := lineSlice(r, i, len(d.lines[i].text))

		if add {
			d.lines[i].runs = addRun(d.lines[i].runs, from, to, style)
		} else {
			d.lines[i].runs = removeRun(d.lines[i].runs, from, to, style)
		}
	}
}

// HasStyle reports whether every character of r carries style. An empty
// range never does.
func (d *Document) HasStyle(r textpos.Range, style Style) bool {
	if r.IsEmpty() || d.ValidateRange(r) != nil {
		return false
	}

	for i := r.Start.Line; i <= r.End.Line; i++ {
		from, to := lineSlice(r, i, len(d.lines[i].text))
		if from < to && !covered(d.lines[i].runs, from, to, style) {
			return false
		}
	}

	return true
}

// StylesAt returns the styles whose runs contain the character at p.
func (d *Document) StylesAt(p textpos.Position) []Style {
	if d.ValidatePosition(p) != nil {
		return nil
	}

	var out []Style

	for _, r := range d.lines[p.Line].runs {
		if p.Char >= r.Start && p.Char < r.End {
			out = append(out, r.Style)
		}
	}

	return sortStyles(out)
}

// StylesInRange returns every style with a run touching r. On multi-line
// ranges the first line is read from the start character to its end, middle
// lines wholly and the last line up to the end character.
func (d *Document) StylesInRange(r textpos.Range) []Style {
	if d.ValidateRange(r) != nil {
		return nil
	}

	var out []Style

	if r.IsSingleLine() {
		for _, run := range d.lines[r.Start.Line].runs {
			if run.Start < r.End.Char && run.End > r.Start.Char {
				out = append(out, run.Style)
			}
		}

		return sortStyles(out)
	}

	for _, run := range d.lines[r.Start.Line].runs {
		if run.End > r.Start.Char {
			out = append(out, run.Style)
		}
	}

	for i := r.Start.Line + 1; i < r.End.Line; i++ {
		for _, run := range d.lines[i].runs {
			out = append(out, run.Style)
		}
	}

	for _, run := range d.lines[r.End.Line].runs {
		if run.Start < r.End.Char {
			out = append(out, run.Style)
		}
	}

	return sortStyles(out)
}

// Word is a word-like segment of a line.
type Word struct {
	Text  string
	Range textpos.Range
}

// Words splits line i into words using Unicode word boundaries. Whitespace
// and punctuation-only segments are skipped.
func (d *Document) Words(i int) []Word {
	if i < 0 || i >= len(d.lines) {
		return nil
	}

	var (
		out   []Word
		state = -1
		char  int
		word  string
	)

	rest := string(d.lines[i].text)

	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		n := utf8.RuneCountInString(word)

		if isWordLike(word) {
			out = append(out, Word{
				Text:  word,
				Range: textpos.Range{Start: textpos.Pos(i, char), End: textpos.Pos(i, char+n)},
			})
		}

		char += n
	}

	return out
}

// WordAt returns the word containing p, if any.
func (d *Document) WordAt(p textpos.Position) (Word, bool) {
	for _, w := range d.Words(p.Line) {
		if w.Range.Start.Char <= p.Char && p.Char < w.Range.End.Char {
			return w, true
		}
	}

	return Word{}, false
}

func isWordLike(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return true
		}
	}

	return false
}

// lineSlice returns the character interval of line i covered by r.
func lineSlice(r textpos.Range, i, lineLen int) (from, to int) {
	from, to = 0, lineLen
	if i == r.Start.Line {
		from = r.Start.Char
	}

	if i == r.End.Line {
		to = r.End.Char
	}

	return from, to
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
