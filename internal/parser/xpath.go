package parser

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// XPath returns a strategy evaluating expr relative to the card's root node.
// It is used for structural fallbacks that CSS cannot express, such as
// "the second link whose text contains a currency sign". The expression is
// compiled once and panics if invalid.
func XPath(expr string, attrs ...string) Strategy {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		panic(fmt.Sprintf("invalid xpath %q: %v", expr, err))
	}
	if len(attrs) == 0 {
		attrs = []string{AttrText}
	}
	return func(card *goquery.Selection) string {
		if card.Length() == 0 {
			return ""
		}
		node := htmlquery.QuerySelector(card.Nodes[0], compiled)
		if node == nil {
			return ""
		}
		for _, attr := range attrs {
			if v := nodeValue(node, attr); v != "" {
				return v
			}
		}
		return ""
	}
}

// nodeValue reads attr from n. Text nodes matched by text() expressions
// yield their own data.
func nodeValue(n *html.Node, attr string) string {
	if n.Type == html.TextNode {
		if attr == AttrText || attr == "" {
			return NormalizeSpace(n.Data)
		}
		return ""
	}
	if attr == AttrText || attr == "" {
		return NormalizeSpace(htmlquery.InnerText(n))
	}
	return NormalizeSpace(htmlquery.SelectAttr(n, attr))
}
