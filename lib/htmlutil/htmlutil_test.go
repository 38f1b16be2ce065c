package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestGetText(t *testing.T) {
	doc := parseFixture(t, `<table><tr><td><a><span>C.E. São José</span> - EFM</a></td></tr></table>`)

	nodes := doc.Find("td").Nodes
	require.Len(t, nodes, 1)
	require.Equal(t, "C.E. São José - EFM", GetText(nodes[0]))
}

func TestCellText(t *testing.T) {
	testCases := []struct {
		html     string
		expected string
	}{
		{`<table><tr><td>  Matemática  -  Professor </td></tr></table>`, "Matemática - Professor"},
		{`<table><tr><td><div><span>Manhã</span></div></td></tr></table>`, "Manhã"},
		{`<table><tr><td></td></tr></table>`, ""},
	}

	for _, tc := range testCases {
		doc := parseFixture(t, tc.html)
		require.Equal(t, tc.expected, CellText(doc.Find("td")), tc.html)
	}
}

func TestInputValue(t *testing.T) {
	doc := parseFixture(t, `<form><input id="j_id1:javax.faces.ViewState:0" value="vs-0" /></form>`)

	value, ok := InputValue(doc, "input[id='j_id1:javax.faces.ViewState:0']")
	require.True(t, ok)
	require.Equal(t, "vs-0", value)

	_, ok = InputValue(doc, "input[id='missing']")
	require.False(t, ok)
}
