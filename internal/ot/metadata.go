package ot

// Metadata is captured when an operation is applied and holds what cannot be
// recomputed from the operation alone.
type Metadata struct {
	// DeletedText is the text removed by a Delete or Replace.
	DeletedText string
	// DeletedSpans are the spans as they were before the operation for every
	// span the operation dropped or reshaped.
	DeletedSpans []Span
	// PreservedSpans are the reshaped survivors of DeletedSpans as they exist
	// after the operation (truncated, bridged or split spans).
	PreservedSpans []Span
	// PriorRuns holds the formatting runs of every line the operation
	// touched, keyed by their line index before the operation.
	PriorRuns []LineRuns
}

// IsNewlineDelete reports whether the operation removed exactly one line
// break, joining two lines.
func (m Metadata) IsNewlineDelete() bool {
	return m.DeletedText == "\n"
}
