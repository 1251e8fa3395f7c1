package ot_test

import (
	"testing"

	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
	"github.com/stretchr/testify/assert"
)

func TestOpType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "insert", ot.OpInsert.String())
	assert.Equal(t, "delete", ot.OpDelete.String())
	assert.Equal(t, "replace", ot.OpReplace.String())
	assert.Equal(t, "style", ot.OpStyleSpan.String())
	assert.Equal(t, "unknown", ot.OpType(42).String())
}

func TestInvert(t *testing.T) {
	t.Parallel()

	before, after := textpos.Pos(0, 1), textpos.Pos(1, 2)

	tests := []struct {
		name string
		op   ot.Operation
		want ot.Operation
	}{
		{
			name: "insert becomes delete",
			op:   ot.Insert{At: textpos.Pos(0, 1), Text: "a\nbc", Before: before, After: after},
			want: ot.Delete{Range: textpos.MustRange(textpos.Pos(0, 1), textpos.Pos(1, 2)), Text: "a\nbc", Before: after, After: before},
		},
		{
			name: "delete becomes insert",
			op:   ot.Delete{Range: textpos.MustRange(textpos.Pos(0, 1), textpos.Pos(0, 3)), Text: "xy", Before: before, After: after},
			want: ot.Insert{At: textpos.Pos(0, 1), Text: "xy", Before: after, After: before},
		},
		{
			name: "replace swaps texts",
			op:   ot.Replace{Range: textpos.MustRange(textpos.Pos(0, 1), textpos.Pos(0, 4)), OldText: "abc", NewText: "Z", Before: before, After: after},
			want: ot.Replace{Range: textpos.MustRange(textpos.Pos(0, 1), textpos.Pos(0, 2)), OldText: "Z", NewText: "abc", Before: after, After: before},
		},
		{
			name: "style flips add",
			op:   ot.StyleSpan{Range: textpos.MustRange(textpos.Pos(0, 1), textpos.Pos(0, 4)), Style: bold, Add: true, Before: before, After: after},
			want: ot.StyleSpan{Range: textpos.MustRange(textpos.Pos(0, 1), textpos.Pos(0, 4)), Style: bold, Add: false, Before: after, After: before},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ot.Invert(tt.op)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.op, ot.Invert(got))
			assert.Equal(t, tt.op.CursorBefore(), got.CursorAfter())
		})
	}
}

func TestEndOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, textpos.Pos(2, 3), ot.EndOf(textpos.Pos(2, 1), "ab"))
	assert.Equal(t, textpos.Pos(4, 2), ot.EndOf(textpos.Pos(2, 1), "x\n\nyz"))
	assert.Equal(t, textpos.Pos(3, 0), ot.EndOf(textpos.Pos(2, 5), "\n"))
	assert.Equal(t, textpos.Pos(0, 5), ot.EndOf(textpos.Pos(0, 0), "héllo"))
}
