package editor

import (
	"context"

	"github.com/serroba/richdocs/internal/layout"
	"github.com/serroba/richdocs/internal/textpos"
)

// Wraps returns the visual rows of the document. Measurement runs outside
// the editor lock; a mutation while it runs cancels it and Wraps returns
// layout.ErrStaleLayout.
func (e *Editor) Wraps(ctx context.Context) ([]layout.LineWrap, error) {
	e.mu.Lock()

	snap := layout.Snapshot{Version: e.version, Lines: e.doc.Lines(), Spans: e.spans.All()}
	if wraps, ok := e.mapper.Cached(snap.Version); ok {
		e.mu.Unlock()

		return wraps, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	id := e.nextID
	e.nextID++
	e.measuring[id] = cancel
	e.mu.Unlock()

	wraps, err := e.mapper.Wraps(ctx, snap)

	e.mu.Lock()
	defer e.mu.Unlock()

	cancel()
	delete(e.measuring, id)

	if e.version != snap.Version {
		return nil, layout.ErrStaleLayout
	}

	if err != nil {
		return nil, err
	}

	return wraps, nil
}

// SetWrapWidth changes the width rows wrap at.
func (e *Editor) SetWrapWidth(width float64) {
	e.mapper.SetWidth(width)
}

// CursorMetrics places the cursor in visual coordinates. A cursor on a line
// that has no layout yet yields zero metrics.
func (e *Editor) CursorMetrics(ctx context.Context) (layout.Metrics, error) {
	wraps, err := e.Wraps(ctx)
	if err != nil {
		return layout.Metrics{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return layout.CursorMetrics(wraps, e.pos), nil
}

// PositionAtPoint returns the document position under a visual point.
func (e *Editor) PositionAtPoint(ctx context.Context, x, y float64) (textpos.Position, error) {
	wraps, err := e.Wraps(ctx)
	if err != nil {
		return textpos.Position{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p, _ := layout.PositionAt(wraps, x, y)

	return e.doc.ClampPosition(p), nil
}
