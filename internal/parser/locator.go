package parser

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// CardQuery matches product cards by CSS selector, optionally narrowed by a
// regular expression on the class attribute.
type CardQuery struct {
	Selector     string
	ClassPattern *regexp.Regexp
}

// String describes the query for logging.
func (q CardQuery) String() string {
	if q.ClassPattern != nil {
		return q.Selector + "[class~/" + q.ClassPattern.String() + "/]"
	}
	return q.Selector
}

func (q CardQuery) find(root *goquery.Selection) *goquery.Selection {
	found := root.Find(q.Selector)
	if q.ClassPattern == nil {
		return found
	}
	return found.FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return q.ClassPattern.MatchString(class)
	})
}

// CardLocator finds the product cards on a results page. Queries are tried
// in order and the first one matching at least one element wins.
type CardLocator struct {
	Queries []CardQuery
	// Sponsored, when set, marks promoted cards. They are dropped as long
	// as at least one unmarked card remains.
	Sponsored string
}

// Locate returns the cards found under root and the query that matched.
func (l CardLocator) Locate(root *goquery.Selection) ([]*goquery.Selection, string) {
	for _, q := range l.Queries {
		found := q.find(root)
		if found.Length() == 0 {
			continue
		}
		cards := make([]*goquery.Selection, 0, found.Length())
		found.Each(func(_ int, s *goquery.Selection) {
			cards = append(cards, s)
		})
		return l.filterSponsored(cards), q.String()
	}
	return nil, ""
}

func (l CardLocator) filterSponsored(cards []*goquery.Selection) []*goquery.Selection {
	if l.Sponsored == "" {
		return cards
	}
	organic := make([]*goquery.Selection, 0, len(cards))
	for _, c := range cards {
		if c.Find(l.Sponsored).Length() == 0 {
			organic = append(organic, c)
		}
	}
	if len(organic) == 0 {
		return cards
	}
	return organic
}
