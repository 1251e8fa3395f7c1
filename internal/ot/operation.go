package ot

import (
	"strings"
	"unicode/utf8"

	"github.com/serroba/richdocs/internal/textpos"
)

// OpType identifies the variant of an Operation.
type OpType int

const (
	OpInsert OpType = iota
	OpDelete
	OpReplace
	OpStyleSpan
)

// String returns the string representation of the operation type.
func (t OpType) String() string {
	switch t {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpReplace:
		return "replace"
	case OpStyleSpan:
		return "style"
	default:
		return "unknown"
	}
}

// Operation is one immutable edit. The set of implementations is closed:
// Insert, Delete, Replace and StyleSpan. Switch on the concrete type.
type Operation interface {
	Type() OpType
	// CursorBefore is the cursor position immediately before the edit.
	CursorBefore() textpos.Position
	// CursorAfter is the cursor position immediately after the edit.
	CursorAfter() textpos.Position

	isOperation()
}

// Insert adds Text at At.
type Insert struct {
	At     textpos.Position
	Text   string
	Before textpos.Position
	After  textpos.Position
}

// Delete removes the characters in Range. Text holds the removed text when
// the operation was built against a document.
type Delete struct {
	Range  textpos.Range
	Text   string
	Before textpos.Position
	After  textpos.Position
}

// Replace swaps the characters in Range (OldText) for NewText. With
// InheritStyle the new text takes the formatting active at Range.Start.
type Replace struct {
	Range        textpos.Range
	NewText      string
	OldText      string
	InheritStyle bool
	Before       textpos.Position
	After        textpos.Position
}

// StyleSpan adds (Add) or removes a formatting run over Range.
type StyleSpan struct {
	Range  textpos.Range
	Style  Style
	Add    bool
	Before textpos.Position
	After  textpos.Position
}

func (Insert) Type() OpType    { return OpInsert }
func (Delete) Type() OpType    { return OpDelete }
func (Replace) Type() OpType   { return OpReplace }
func (StyleSpan) Type() OpType { return OpStyleSpan }

func (o Insert) CursorBefore() textpos.Position    { return o.Before }
func (o Delete) CursorBefore() textpos.Position    { return o.Before }
func (o Replace) CursorBefore() textpos.Position   { return o.Before }
func (o StyleSpan) CursorBefore() textpos.Position { return o.Before }

func (o Insert) CursorAfter() textpos.Position    { return o.After }
func (o Delete) CursorAfter() textpos.Position    { return o.After }
func (o Replace) CursorAfter() textpos.Position   { return o.After }
func (o StyleSpan) CursorAfter() textpos.Position { return o.After }

func (Insert) isOperation()    {}
func (Delete) isOperation()    {}
func (Replace) isOperation()   {}
func (StyleSpan) isOperation() {}

// IsNewline reports whether the insert is a single line break.
func (o Insert) IsNewline() bool {
	return o.Text == "\n"
}

// End returns the position just after the inserted text.
func (o Insert) End() textpos.Position {
	return EndOf(o.At, o.Text)
}

// NewEnd returns the position just after the replacement text.
func (o Replace) NewEnd() textpos.Position {
	return EndOf(o.Range.Start, o.NewText)
}

// Invert returns the operation that undoes op. Delete and Replace must carry
// the removed text for the inverse to restore content.
func Invert(op Operation) Operation {
	switch o := op.(type) {
	case Insert:
		return Delete{
			Range:  textpos.Range{Start: o.At, End: o.End()},
			Text:   o.Text,
			Before: o.After,
			After:  o.Before,
		}
	case Delete:
		return Insert{
			At:     o.Range.Start,
			Text:   o.Text,
			Before: o.After,
			After:  o.Before,
		}
	case Replace:
		return Replace{
			Range:   textpos.Range{Start: o.Range.Start, End: o.NewEnd()},
			NewText: o.OldText,
			OldText: o.NewText,
			Before:  o.After,
			After:   o.Before,
		}
	case StyleSpan:
		return StyleSpan{
			Range:  o.Range,
			Style:  o.Style,
			Add:    !o.Add,
			Before: o.After,
			After:  o.Before,
		}
	default:
		return op
	}
}

// EndOf returns the position reached after writing text starting at start.
func EndOf(start textpos.Position, text string) textpos.Position {
	n := strings.Count(text, "\n")
	if n == 0 {
		return textpos.Position{Line: start.Line, Char: start.Char + utf8.RuneCountInString(text)}
	}

	last := text[strings.LastIndexByte(text, '\n')+1:]

	return textpos.Position{Line: start.Line + n, Char: utf8.RuneCountInString(last)}
}
