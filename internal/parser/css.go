package parser

import (
	"github.com/PuerkitoBio/goquery"
)

// AttrText selects the element's normalized text instead of an attribute.
const AttrText = "text"

// CSS returns a strategy that reads the first element matching selector
// within the card. attrs are tried in order; "text" means the element text.
// With no attrs the text is used.
func CSS(selector string, attrs ...string) Strategy {
	if len(attrs) == 0 {
		attrs = []string{AttrText}
	}
	return func(card *goquery.Selection) string {
		sel := card.Find(selector).First()
		if sel.Length() == 0 {
			return ""
		}
		return readValue(sel, attrs)
	}
}

// Each returns a strategy that reads every element matching selector and
// passes the values to pick, which returns the chosen one or "".
func Each(selector string, attr string, pick func(values []string) string) Strategy {
	return func(card *goquery.Selection) string {
		var values []string
		card.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if v := readValue(sel, []string{attr}); v != "" {
				values = append(values, v)
			}
		})
		if len(values) == 0 {
			return ""
		}
		return pick(values)
	}
}

func readValue(sel *goquery.Selection, attrs []string) string {
	for _, attr := range attrs {
		var v string
		if attr == AttrText || attr == "" {
			v = NormalizeSpace(sel.Text())
		} else {
			raw, _ := sel.Attr(attr)
			v = NormalizeSpace(raw)
		}
		if v != "" {
			return v
		}
	}
	return ""
}
