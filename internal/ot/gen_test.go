package ot_test

import (
	"strings"

	"github.com/serroba/richdocs/internal/ot"
	"github.com/serroba/richdocs/internal/textpos"
	"pgregory.net/rapid"
)

func genText(t *rapid.T, label string) string {
	return rapid.StringMatching(`[abc \n]{0,12}`).Draw(t, label)
}

func genDocument(t *rapid.T) *ot.Document {
	lines := rapid.SliceOfN(rapid.StringMatching(`[a-e ]{0,8}`), 1, 5).Draw(t, "lines")

	return ot.NewDocument(strings.Join(lines, "\n"))
}

func genPosition(t *rapid.T, doc *ot.Document, label string) textpos.Position {
	line := rapid.IntRange(0, doc.LineCount()-1).Draw(t, label+".line")
	char := rapid.IntRange(0, doc.LineLen(line)).Draw(t, label+".char")

	return textpos.Pos(line, char)
}

func genRange(t *rapid.T, doc *ot.Document, label string) textpos.Range {
	a := genPosition(t, doc, label+".a")
	b := genPosition(t, doc, label+".b")

	return textpos.Normalize(a, b)
}
