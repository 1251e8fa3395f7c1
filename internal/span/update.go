// Package span keeps annotation spans consistent with edits to a document.
package span

import (
	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
)

// Result is the outcome of running a span set through one operation.
type Result struct {
	// Spans is the new set, sorted and free of duplicates.
	Spans []ot.Span
	// Deleted holds the input spans the operation dropped or reshaped.
	Deleted []ot.Span
	// Preserved holds what the reshaped spans became.
	Preserved []ot.Span
}

// Update derives the span set that results from applying op. Each input span
// becomes zero, one or two output spans; empty outputs are dropped. The input
// slice is not modified.
//
// A span is stable when op moves both of its endpoints by the plain position
// transform and neither endpoint lies inside the edited range. All other
// spans are reported in Deleted, with their outputs in Preserved, so that
// Revert can restore the set exactly.
func Update(spans []ot.Span, op ot.Operation, meta ot.Metadata) Result {
	var (
		res       Result
		stable    = make(map[ot.Span]ot.Span, len(spans))
		preserved = make(map[ot.Span]struct{})
		out       = make(map[ot.Span]struct{}, len(spans))
	)

	for _, s := range dedupe(spans) {
		derived := derive(s, op, meta)

		if isStable(s, derived, op) {
			stable[s] = derived[0]

			continue
		}

		res.Deleted = append(res.Deleted, s)

		for _, d := range derived {
			preserved[d] = struct{}{}
			out[d] = struct{}{}
		}
	}

	for src, d := range stable {
		if _, clash := preserved[d]; clash {
			res.Deleted = append(res.Deleted, src)
		}

		out[d] = struct{}{}
	}

	for d := range preserved {
		res.Preserved = append(res.Preserved, d)
	}

	res.Spans = fromSet(out)
	ot.SortSpans(res.Deleted)
	ot.SortSpans(res.Preserved)

	return res
}

// Revert undoes an Update given the operation and the metadata it produced.
// spans is the current set; the result is the set before op.
func Revert(spans []ot.Span, op ot.Operation, meta ot.Metadata) []ot.Span {
	inverse := ot.Invert(op)
	drop := toSet(meta.PreservedSpans)
	out := make(map[ot.Span]struct{}, len(spans))

	for _, s := range spans {
		if _, ok := drop[s]; ok {
			continue
		}

		moved := ot.Span{Range: ot.TransformRange(s.Range, inverse), Style: s.Style}
		if !moved.Range.IsEmpty() {
			out[moved] = struct{}{}
		}
	}

	for _, s := range meta.DeletedSpans {
		out[s] = struct{}{}
	}

	return fromSet(out)
}

// derive applies the per-operation case analysis to one span.
func derive(s ot.Span, op ot.Operation, meta ot.Metadata) []ot.Span {
	var ranges []textpos.Range

	switch o := op.(type) {
	case ot.Insert:
		ranges = deriveInsert(s.Range, o)
	case ot.Delete:
		ranges = deriveDelete(s.Range, o, meta)
	case ot.Replace:
		ranges = deriveReplace(s.Range, o)
	default:
		ranges = []textpos.Range{s.Range}
	}

	out := make([]ot.Span, 0, len(ranges))

	for _, r := range ranges {
		if r.IsEmpty() || r.End.Less(r.Start) {
			continue
		}

		out = append(out, ot.Span{Range: r, Style: s.Style})
	}

	return out
}

func deriveInsert(r textpos.Range, o ot.Insert) []textpos.Range {
	if !o.IsNewline() {
		return []textpos.Range{ot.TransformRange(r, o)}
	}

	p := o.At

	switch {
	case p.IsBeforeOrEqual(r.Start):
		return []textpos.Range{ot.TransformRange(r, o)}
	case p.IsAfterOrEqual(r.End):
		return []textpos.Range{r}
	default:
		return []textpos.Range{
			{Start: r.Start, End: p},
			{Start: textpos.Pos(p.Line+1, 0), End: ot.Transform(r.End, o)},
		}
	}
}

func deriveDelete(r textpos.Range, o ot.Delete, meta ot.Metadata) []textpos.Range {
	if meta.IsNewlineDelete() || o.Text == "\n" {
		joint, next := o.Range.Start, o.Range.End

		switch {
		case r.End.IsBeforeOrEqual(joint):
			return []textpos.Range{r}
		case r.Start.IsAfterOrEqual(next):
			return []textpos.Range{ot.TransformRange(r, o)}
		case r.Start.IsBeforeOrEqual(joint):
			return []textpos.Range{{Start: r.Start, End: ot.Transform(r.End, o)}}
		}
	}

	return []textpos.Range{ot.TransformRange(r, o)}
}

func deriveReplace(r textpos.Range, o ot.Replace) []textpos.Range {
	s, e := o.Range.Start, o.Range.End

	switch {
	case r.End.IsBeforeOrEqual(s):
		return []textpos.Range{r}
	case r.Start.IsAfterOrEqual(e):
		return []textpos.Range{ot.TransformRange(r, o)}
	case r.Start.Less(s) && e.Less(r.End):
		return []textpos.Range{{Start: r.Start, End: ot.Transform(r.End, o)}}
	case r.Start.Less(s):
		return []textpos.Range{{Start: r.Start, End: s}}
	case e.Less(r.End):
		return []textpos.Range{{Start: o.NewEnd(), End: ot.Transform(r.End, o)}}
	default:
		return nil
	}
}

func isStable(s ot.Span, derived []ot.Span, op ot.Operation) bool {
	if len(derived) != 1 {
		return false
	}

	if derived[0] != (ot.Span{Range: ot.TransformRange(s.Range, op), Style: s.Style}) {
		return false
	}

	var edited textpos.Range

	switch o := op.(type) {
	case ot.Delete:
		edited = o.Range
	case ot.Replace:
		edited = o.Range
	default:
		return true
	}

	return !edited.Contains(s.Range.Start) && !edited.Contains(s.Range.End)
}

func dedupe(spans []ot.Span) []ot.Span {
	return fromSet(toSet(spans))
}

func toSet(spans []ot.Span) map[ot.Span]struct{} {
	set := make(map[ot.Span]struct{}, len(spans))
	for _, s := range spans {
		set[s] = struct{}{}
	}

	return set
}

func fromSet(set map[ot.Span]struct{}) []ot.Span {
	if len(set) == 0 {
		return nil
	}

	out := make([]ot.Span, 0, len(set))
	for s := range set {
		out = append(out, s)
	}

	ot.SortSpans(out)

	return out
}
