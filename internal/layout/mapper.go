package layout

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/span"
	"go.uber.org/zap"
)

// Snapshot is the read-only document state a layout is computed from.
type Snapshot struct {
	// Version identifies the editor state; any mutation changes it.
	Version uint64
	Lines   []string
	Spans   []ot.Span
}

// Config holds configuration for Mapper.
type Config struct {
	// Measurer lays out lines. Nil means CellMeasurer{}.
	Measurer Measurer
	// Decorator is applied to every line before measuring. Optional.
	Decorator Decorator
	// Width is the wrap width. Zero or less disables wrapping.
	Width  float64
	Logger *zap.Logger
}

type lineKey struct {
	text  string
	width float64
}

// Mapper builds and caches the LineWrap sequence of a document. The cache is
// keyed by snapshot version and width; lines whose text did not change reuse
// their previous layout.
//
// Mapper is safe for concurrent use. Measurement runs without holding its
// lock.
type Mapper struct {
	measurer  Measurer
	decorator Decorator
	logger    *zap.Logger

	mu      sync.Mutex
	width   float64
	version uint64
	wraps   []LineWrap
	valid   bool
	lines   map[lineKey]Layout
}

// NewMapper creates a mapper.
func NewMapper(cfg Config) *Mapper {
	if cfg.Measurer == nil {
		cfg.Measurer = CellMeasurer{}
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Mapper{
		measurer:  cfg.Measurer,
		decorator: cfg.Decorator,
		logger:    cfg.Logger,
		width:     cfg.Width,
		lines:     make(map[lineKey]Layout),
	}
}

// Width returns the wrap width.
func (m *Mapper) Width() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.width
}

// SetWidth changes the wrap width, invalidating the cache.
func (m *Mapper) SetWidth(width float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if width != m.width {
		m.width = width
		m.valid = false
	}
}

// Cached returns the wraps computed for version, if any.
func (m *Mapper) Cached(version uint64) ([]LineWrap, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.valid || m.version != version {
		return nil, false
	}

	return m.wraps, true
}

// Wraps returns the LineWraps of snap, measuring lines as needed. It returns
// ctx.Err() if ctx is canceled mid-measurement; nothing is cached then.
func (m *Mapper) Wraps(ctx context.Context, snap Snapshot) ([]LineWrap, error) {
	m.mu.Lock()
	if m.valid && m.version == snap.Version {
		wraps := m.wraps
		m.mu.Unlock()

		return wraps, nil
	}

	width := m.width
	known := m.lines
	m.mu.Unlock()

	measured := make(map[lineKey]Layout, len(snap.Lines))

	var (
		wraps []LineWrap
		top   float64
	)

	for i, raw := range snap.Lines {
		text := m.decorate(i, raw)
		key := lineKey{text: text, width: width}

		l, ok := measured[key]
		if !ok {
			l, ok = known[key]
		}

		if !ok {
			var err error

			l, err = m.measurer.Measure(ctx, text, width)
			if err != nil {
				return nil, err
			}
		}

		measured[key] = l

		rows := l.Rows()
		if !partitions(rows, utf8.RuneCountInString(text)) {
			m.logger.Debug("measurer returned bad rows, using a single row",
				zap.Int("line", i), zap.Int("rows", len(rows)))

			rows = []Row{{End: utf8.RuneCountInString(text), Height: extent(rows)}}
			l = fixedLayout{inner: l, rows: rows}
		}

		lineTop := top

		for k, row := range rows {
			wraps = append(wraps, LineWrap{
				Line:             i,
				WrapStart:        row.Start,
				VirtualLength:    row.End - row.Start,
				VirtualLineIndex: k,
				Offset:           Offset{Y: lineTop + row.Top},
				Layout:           l,
				Spans:            span.Intersecting(snap.Spans, i, row.Start, row.End),
			})

			top = max(top, lineTop+row.Top+row.Height)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if width == m.width && (!m.valid || snap.Version >= m.version) {
		m.version = snap.Version
		m.wraps = wraps
		m.valid = true
		m.lines = measured
	}

	return wraps, nil
}

// Invalidate drops the cached wraps. Per-line layouts are kept.
func (m *Mapper) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.valid = false
}

func (m *Mapper) decorate(line int, text string) string {
	if m.decorator == nil {
		return text
	}

	out := m.decorator(line, text)
	if utf8.RuneCountInString(out) != utf8.RuneCountInString(text) {
		m.logger.Debug("decorator changed line length, ignoring it", zap.Int("line", line))

		return text
	}

	return out
}

// partitions reports whether rows cover [0, n) in order without gaps.
func partitions(rows []Row, n int) bool {
	if len(rows) == 0 {
		return false
	}

	next := 0

	for _, r := range rows {
		if r.Start != next || r.End < r.Start {
			return false
		}

		next = r.End
	}

	return next == n
}

// extent returns the total height covered by rows.
func extent(rows []Row) float64 {
	var h float64
	for _, r := range rows {
		h = max(h, r.Top+r.Height)
	}

	return h
}

// fixedLayout overrides the rows of a layout whose own rows were unusable.
type fixedLayout struct {
	inner Layout
	rows  []Row
}

func (f fixedLayout) Rows() []Row                  { return f.rows }
func (f fixedLayout) X(i int) float64              { return f.inner.X(i) }
func (f fixedLayout) IndexAt(_ int, x float64) int { return f.inner.IndexAt(0, x) }
