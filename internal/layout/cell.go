package layout

import (
	"context"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// CellMeasurer lays text out on a fixed grid of terminal-style cells. Widths
// come from the East Asian width tables and rows break at Unicode line break
// opportunities. Segments wider than a row are broken between characters.
type CellMeasurer struct {
	// TabWidth is the number of cells a tab occupies. Zero means 4.
	TabWidth int
	// RowHeight is the height of every row. Zero means 1.
	RowHeight float64
	// EastAsian treats ambiguous-width characters as wide.
	EastAsian bool
}

var _ Measurer = CellMeasurer{}

// Measure implements Measurer. A width of zero or less disables wrapping.
func (m CellMeasurer) Measure(ctx context.Context, text string, width float64) (Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cond := runewidth.NewCondition()
	cond.EastAsianWidth = m.EastAsian

	tabWidth := m.TabWidth
	if tabWidth <= 0 {
		tabWidth = 4
	}

	rowHeight := m.RowHeight
	if rowHeight <= 0 {
		rowHeight = 1
	}

	l := &cellLayout{}

	var (
		pos      int
		rowStart int
		rowW     float64
		state    = -1
		segment  string
		rest     = text
	)

	closeRow := func() {
		l.rows = append(l.rows, Row{
			Start:  rowStart,
			End:    pos,
			Top:    float64(len(l.rows)) * rowHeight,
			Height: rowHeight,
			Width:  rowW,
		})
		rowStart = pos
		rowW = 0
	}

	for len(rest) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		segment, rest, _, state = uniseg.FirstLineSegmentInString(rest, state)

		runes := []rune(segment)
		widths := make([]float64, len(runes))

		var fit float64

		for i, r := range runes {
			widths[i] = cellWidth(cond, r, tabWidth)
			if !unicode.IsSpace(r) {
				fit = sum(widths[:i+1])
			}
		}

		if width > 0 && pos > rowStart && rowW+fit > width {
			closeRow()
		}

		for i, r := range runes {
			if width > 0 && pos > rowStart && rowW+widths[i] > width && !unicode.IsSpace(r) {
				closeRow()
			}

			l.xs = append(l.xs, rowW)
			l.widths = append(l.widths, widths[i])
			rowW += widths[i]
			pos++
		}
	}

	l.xs = append(l.xs, rowW)
	closeRow()

	return l, nil
}

func cellWidth(cond *runewidth.Condition, r rune, tabWidth int) float64 {
	if r == '\t' {
		return float64(tabWidth)
	}

	return float64(cond.RuneWidth(r))
}

func sum(v []float64) float64 {
	var total float64
	for _, f := range v {
		total += f
	}

	return total
}

type cellLayout struct {
	rows   []Row
	xs     []float64 // x of each character boundary within its row
	widths []float64
}

func (l *cellLayout) Rows() []Row {
	return l.rows
}

func (l *cellLayout) X(i int) float64 {
	return l.xs[min(max(i, 0), len(l.xs)-1)]
}

func (l *cellLayout) IndexAt(row int, x float64) int {
	row = min(max(row, 0), len(l.rows)-1)
	r := l.rows[row]

	for i := r.Start; i < r.End; i++ {
		if x < l.xs[i]+l.widths[i]/2 {
			return i
		}
	}

	if row < len(l.rows)-1 && r.End > r.Start {
		return r.End - 1
	}

	return r.End
}
