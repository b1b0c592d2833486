// Package scraper holds the per-site search and listing extraction logic.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PriceGoat/internal/fetcher"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// Scraper searches one retail site for a product.
type Scraper interface {
	// ID returns the site identifier used as the results key.
	ID() string

	// Delay returns the pause applied before every request to the site.
	Delay() time.Duration

	// Search returns at most limit listings in page order. It never fails:
	// fetch or parse problems yield fewer (possibly zero) listings.
	Search(ctx context.Context, session fetcher.Session, productName string, limit int) []types.Listing

	// ParseListing extracts a listing from one product card.
	ParseListing(card *goquery.Selection) (types.Listing, bool)
}

// nonTitles are labels that sites render where a title is expected.
var nonTitles = map[string]bool{
	"patrocinado":   true,
	"sponsored":     true,
	"ad":            true,
	"publicidad":    true,
	"promo":         true,
	"advertisement": true,
}

// titleAccept accepts titles longer than minLen runes that are not known
// ad labels.
func titleAccept(minLen int) func(string) bool {
	return func(v string) bool {
		if utf8.RuneCountInString(v) <= minLen {
			return false
		}
		return !nonTitles[strings.ToLower(v)]
	}
}

// navigable reports whether href points at a page rather than a script,
// fragment or contact handler.
func navigable(href string) bool {
	for _, skip := range []string{"javascript:", "#", "mailto:", "tel:"} {
		if strings.Contains(href, skip) {
			return false
		}
	}
	return href != ""
}

// collect parses at most limit cards, skipping cards that fail.
func collect(site string, cards []*goquery.Selection, limit int, parse func(*goquery.Selection) (types.Listing, bool), logger *slog.Logger) []types.Listing {
	n := min(limit, len(cards))
	listings := make([]types.Listing, 0, n)
	for _, card := range cards[:n] {
		if l, ok := parseSafely(site, card, parse, logger); ok {
			listings = append(listings, l)
		}
	}
	return listings
}

func parseSafely(site string, card *goquery.Selection, parse func(*goquery.Selection) (types.Listing, bool), logger *slog.Logger) (l types.Listing, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("listing skipped", "error", &types.ParseError{Site: site, Err: fmt.Errorf("panic: %v", r)})
			l, ok = types.Listing{}, false
		}
	}()
	return parse(card)
}

// isEmptyCard reports whether a card carries no text and no links.
func isEmptyCard(card *goquery.Selection) bool {
	return strings.TrimSpace(card.Text()) == "" && card.Find("a[href], img").Length() == 0
}
