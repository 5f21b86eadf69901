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

// CompactText flattens a selection's text into a single printable line.
func CompactText(sel *goquery.Selection) string {
	return Compact(sel.Text())
}

func Compact(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || c == ' ' {
			out.WriteRune(c)
		} else {
			out.WriteRune(' ')
		}
	}
	compacted := strings.Trim(out.String(), " \t\n")
	return innerWhitespace.ReplaceAllString(compacted, " ")
}

// FirstText returns the compacted text of the first selector in
// `selectors` that matches a non-empty node under `root`.
func FirstText(root *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		text := CompactText(root.Find(selector).First())
		if text != "" {
			return text
		}
	}
	return ""
}
