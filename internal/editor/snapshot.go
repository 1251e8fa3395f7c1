package editor

import (
	"github.com/serroba/richdocs/internal/ot"
)

// Snapshot is the persistent state of an editor: content, formatting and
// spans. History and cursor are not part of it.
type Snapshot struct {
	Text  string        `json:"text"`
	Runs  []ot.LineRuns `json:"runs,omitempty"`
	Spans []ot.Span     `json:"spans,omitempty"`
}

// Snapshot captures the current state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		Text:  e.doc.Text(),
		Runs:  e.doc.AllRuns(),
		Spans: e.spans.All(),
	}
}

// Restore replaces the whole state with s and clears history.
func (e *Editor) Restore(s Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.doc.SetText(s.Text)
	e.doc.RestoreRuns(s.Runs)
	e.spans.Reset(s.Spans)
	e.history.Clear()
	e.pos = e.doc.ClampPosition(e.pos)
	e.selection = nil
	e.touch()
}
