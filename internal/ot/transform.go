package ot

import (
	"strings"
	"unicode/utf8"

	"github.com/serroba/richdocs/internal/textpos"
)

// Transform relocates p, a position in the document before op was applied,
// to the equivalent position afterwards.
//
// Rules:
//   - Insert: positions before the insertion point are unchanged; later
//     lines shift by the inserted line count; positions on the insertion
//     line at or after the point move past the inserted text.
//   - Delete: positions before the range are unchanged; positions inside
//     the closed range collapse to its start; positions after it are rebased
//     onto the start line.
//   - Replace: like Delete then Insert, except that positions inside the
//     replaced range keep their offset from the start, clamped to the new
//     text.
//   - StyleSpan: no position changes.
func Transform(p textpos.Position, op Operation) textpos.Position {
	switch o := op.(type) {
	case Insert:
		return transformInsert(p, o.At, o.Text)
	case Delete:
		return transformDelete(p, o.Range)
	case Replace:
		return transformReplace(p, o)
	case StyleSpan:
		return p
	default:
		return p
	}
}

// TransformRange relocates both endpoints of r through op.
func TransformRange(r textpos.Range, op Operation) textpos.Range {
	return textpos.Range{Start: Transform(r.Start, op), End: Transform(r.End, op)}
}

func transformInsert(p, at textpos.Position, text string) textpos.Position {
	if p.Less(at) {
		return p
	}

	lineShift := strings.Count(text, "\n")

	if p.Line > at.Line {
		return textpos.Position{Line: p.Line + lineShift, Char: p.Char}
	}

	if lineShift == 0 {
		return textpos.Position{Line: p.Line, Char: p.Char + utf8.RuneCountInString(text)}
	}

	end := EndOf(at, text)

	return textpos.Position{Line: end.Line, Char: end.Char + (p.Char - at.Char)}
}

func transformDelete(p textpos.Position, r textpos.Range) textpos.Position {
	if p.Less(r.Start) {
		return p
	}

	if p.Line > r.End.Line {
		return textpos.Position{Line: p.Line - (r.End.Line - r.Start.Line), Char: p.Char}
	}

	if p.Line == r.End.Line && p.Char > r.End.Char {
		return textpos.Position{Line: r.Start.Line, Char: r.Start.Char + (p.Char - r.End.Char)}
	}

	return r.Start
}

func transformReplace(p textpos.Position, o Replace) textpos.Position {
	r := o.Range
	if p.Less(r.Start) {
		return p
	}

	newEnd := o.NewEnd()

	if r.End.Less(p) {
		if p.Line == r.End.Line {
			return textpos.Position{Line: newEnd.Line, Char: newEnd.Char + (p.Char - r.End.Char)}
		}

		return textpos.Position{Line: p.Line + (newEnd.Line - r.End.Line), Char: p.Char}
	}

	rel := min(offsetWithin(o.OldText, r.Start, p), utf8.RuneCountInString(o.NewText))

	return advance(r.Start, o.NewText, rel)
}

// offsetWithin returns the character offset of p from start, where text is
// the content that begins at start and p lies inside it.
func offsetWithin(text string, start, p textpos.Position) int {
	k := p.Line - start.Line
	if k == 0 {
		return max(p.Char-start.Char, 0)
	}

	lines := strings.Split(text, "\n")
	if k >= len(lines) {
		return utf8.RuneCountInString(text)
	}

	offset := 0
	for i := range k {
		offset += utf8.RuneCountInString(lines[i]) + 1
	}

	return offset + min(p.Char, utf8.RuneCountInString(lines[k]))
}

// advance returns the position n characters into text written at start.
func advance(start textpos.Position, text string, n int) textpos.Position {
	pos := start

	for _, r := range text {
		if n == 0 {
			break
		}

		if r == '\n' {
			pos = textpos.Position{Line: pos.Line + 1, Char: 0}
		} else {
			pos.Char++
		}

		n--
	}

	return pos
}
