package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CellText returns a selection's rendered text with non-printable
// runes removed and whitespace collapsed, the way a table cell reads.
func CellText(sel *goquery.Selection) string {
	text := strings.Builder{}
	for _, n := range sel.Nodes {
		text.WriteString(GetText(n))
	}
	out := removeNonPrintable(text.String())
	out = strings.Trim(out, " \t\n")
	return innerWhitespace.ReplaceAllString(out, " ")
}

// InputValue returns the value attribute of the first element matched
// by the selector, and whether such an element exists.
func InputValue(doc *goquery.Document, selector string) (string, bool) {
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return "", false
	}
	return sel.First().AttrOr("value", ""), true
}
