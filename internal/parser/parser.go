// Package parser extracts listing fields from product cards with ordered
// fallback selectors.
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy extracts one candidate value from a card. An empty string means
// the strategy found nothing.
type Strategy func(card *goquery.Selection) string

// Cascade tries its strategies in order and returns the first value that is
// non-empty and accepted. Each field of a listing owns its own cascade.
type Cascade struct {
	Name       string
	Strategies []Strategy
	// Accept filters candidate values. Nil accepts any non-empty value.
	Accept func(string) bool
}

// Extract runs the cascade against card.
func (c Cascade) Extract(card *goquery.Selection) (string, bool) {
	for _, strategy := range c.Strategies {
		v := strategy(card)
		if v == "" {
			continue
		}
		if c.Accept == nil || c.Accept(v) {
			return v, true
		}
	}
	return "", false
}

// ExtractOr runs the cascade and returns fallback when nothing is accepted.
func (c Cascade) ExtractOr(card *goquery.Selection, fallback string) string {
	if v, ok := c.Extract(card); ok {
		return v
	}
	return fallback
}

// First returns a strategy yielding the first non-empty value of the given
// strategies, without any acceptance check between them.
func First(strategies ...Strategy) Strategy {
	return func(card *goquery.Selection) string {
		for _, s := range strategies {
			if v := s(card); v != "" {
				return v
			}
		}
		return ""
	}
}

// NormalizeSpace trims s and collapses internal whitespace runs.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
