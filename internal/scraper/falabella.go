package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/fetcher"
	"github.com/IshaanNene/PriceGoat/internal/parser"
	"github.com/IshaanNene/PriceGoat/internal/price"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

const (
	falabellaSeller   = "Falabella"
	falabellaLocation = "Perú"
)

var invalidBrands = map[string]bool{
	"(1)": true, "(2)": true, "(3)": true, "(4)": true, "(5)": true,
	"patrocinado": true, "sponsored": true,
}

// Falabella scrapes falabella.com.pe. Sponsored pods are skipped when
// organic results exist, and embedded product data is used when the page
// renders no pods at all.
type Falabella struct {
	baseURL string
	delay   time.Duration
	logger  *slog.Logger

	cards         parser.CardLocator
	title         parser.Cascade
	price         parser.Cascade
	internetPrice parser.Cascade
	link          parser.Cascade
	image         parser.Cascade
	discount      parser.Cascade
	rating        parser.Cascade
	brand         parser.Cascade
}

// NewFalabella creates the Falabella scraper.
func NewFalabella(site config.SiteConfig, logger *slog.Logger) *Falabella {
	imgAttrs := []string{"src", "data-src", "data-lazy", "data-original"}

	return &Falabella{
		baseURL: strings.TrimRight(site.BaseURL, "/"),
		delay:   site.Delay,
		logger:  logger.With("component", "scraper", "site", config.SiteFalabella),

		cards: parser.CardLocator{
			Queries: []parser.CardQuery{
				{Selector: "div.pod-summary"},
				{Selector: "div.jsx-2858414180.jsx-3390574944.pod-summary"},
				{Selector: `div[class*="pod-summary"]`},
				{Selector: "div.jsx-2858414180"},
				{Selector: `div[class*="pod-summary-4_GRID"]`},
			},
			Sponsored: ".patrocinado-pod .patrocinado-title",
		},

		title: parser.Cascade{
			Name: "title",
			Strategies: []parser.Strategy{
				parser.CSS("b.pod-subTitle"),
				parser.CSS(`b[class*="subTitle"]`),
				parser.CSS(`b[id*="pod-displaySubTitle"]`),
				parser.CSS("b.jsx-2858414180.copy2.primary"),
				parser.CSS(`[class*="pod-subTitle"]`),
				parser.CSS(`[class*="subTitle"]`),
			},
			Accept: titleAccept(3),
		},

		price: parser.Cascade{
			Name: "price",
			Strategies: []parser.Strategy{
				parser.CSS("span.copy10.primary.medium"),
				parser.CSS("li[data-internet-price] span.copy10"),
				parser.CSS("li.prices-0 span.copy10"),
				parser.CSS("ol.pod-prices span.copy10"),
				parser.CSS("[data-internet-price] span"),
				parser.CSS("span.copy10"),
				parser.CSS(".prices-0 span"),
				parser.CSS("li.prices-0 span.jsx-233704000"),
				parser.CSS(`span[class*="copy10"]`),
			},
			Accept: func(v string) bool { return strings.Contains(v, "S/") && price.Parse(v) > 0 },
		},

		internetPrice: parser.Cascade{
			Name:       "price",
			Strategies: []parser.Strategy{parser.CSS("li[data-internet-price]", "data-internet-price")},
			Accept:     func(v string) bool { return price.Parse(v) > 0 },
		},

		link: parser.Cascade{
			Name: "link",
			Strategies: []parser.Strategy{
				parser.CSS(`a[href*="/p/"]`, "href"),
				parser.CSS("a.pod-summary-title", "href"),
				parser.CSS(`a[href*="product"]`, "href"),
				parser.CSS(`a[href*="falabella"]`, "href"),
				parser.CSS(`a[href*="MLU"]`, "href"),
				parser.CSS(`a[href*="MLM"]`, "href"),
				parser.CSS(`a[href*="MLA"]`, "href"),
				parser.CSS("h2 a[href]", "href"),
				parser.CSS("h3 a[href]", "href"),
				parser.CSS(".product-title a[href]", "href"),
				parser.CSS(".pod-summary-title a[href]", "href"),
				parser.CSS(`a[href]:not([href*="javascript"]):not([href="#"])`, "href"),
			},
			Accept: navigable,
		},

		image: parser.Cascade{
			Name: "image",
			Strategies: []parser.Strategy{
				parser.CSS(`img[src*="falabella"]`, imgAttrs...),
				parser.CSS(`img[data-src*="falabella"]`, imgAttrs...),
				parser.CSS(`img[src*="http"]`, imgAttrs...),
				parser.CSS(`img[data-src*="http"]`, imgAttrs...),
				parser.CSS("img.lazy", imgAttrs...),
				parser.CSS(`img[data-lazy*="http"]`, imgAttrs...),
				parser.CSS("img", imgAttrs...),
			},
			Accept: func(v string) bool { return strings.HasPrefix(v, "/") || strings.HasPrefix(v, "http") },
		},

		discount: parser.Cascade{
			Name: "discount",
			Strategies: []parser.Strategy{
				parser.CSS("span.discount-badge-item"),
				parser.CSS(`span[id*="Pod-badges--"]`),
				parser.CSS("span.jsx-3475638340"),
				parser.CSS(".discount-badge span"),
				parser.CSS(`span[class*="discount-badge"]`),
			},
			Accept: func(v string) bool { _, ok := price.ParseDiscount(v); return ok },
		},

		rating: parser.Cascade{
			Name: "rating",
			Strategies: []parser.Strategy{
				ratingStrategy("div[data-rating]"),
				ratingStrategy("div.jsx-1982392636.ratings"),
				ratingStrategy(`div[id*="Pod-Rating"]`),
				ratingStrategy(".pod-rating"),
				ratingStrategy("div.ratings--container"),
			},
		},

		brand: parser.Cascade{
			Name: "brand",
			Strategies: []parser.Strategy{
				parser.CSS(".brand", parser.AttrText, "data-brand"),
				parser.CSS(".product-brand", parser.AttrText, "data-brand"),
				parser.CSS(`[class*="brand"]`, parser.AttrText, "data-brand"),
				parser.CSS("[data-brand]", parser.AttrText, "data-brand"),
			},
			Accept: func(v string) bool { return !invalidBrands[strings.ToLower(v)] },
		},
	}
}

// ratingStrategy reads data-rating from the first element matching
// selector, falling back to the number of filled star icons inside it.
func ratingStrategy(selector string) parser.Strategy {
	return func(card *goquery.Selection) string {
		el := card.Find(selector).First()
		if el.Length() == 0 {
			return ""
		}
		if v, ok := el.Attr("data-rating"); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
		if stars := el.Find("i.csicon-star_full_filled").Length(); stars > 0 {
			return strconv.Itoa(stars)
		}
		return ""
	}
}

func (f *Falabella) ID() string { return config.SiteFalabella }

func (f *Falabella) Delay() time.Duration { return f.delay }

// SearchURL returns the results page URL for a product name.
func (f *Falabella) SearchURL(productName string) string {
	return f.baseURL + "/falabella-pe/search?Ntt=" + url.QueryEscape(productName)
}

// Search implements Scraper.
func (f *Falabella) Search(ctx context.Context, session fetcher.Session, productName string, limit int) []types.Listing {
	if limit <= 0 {
		return []types.Listing{}
	}

	doc := session.Fetch(ctx, f.SearchURL(productName))
	if doc == nil {
		return []types.Listing{}
	}

	cards, query := f.cards.Locate(doc.Selection)
	if len(cards) == 0 {
		listings := f.structuredListings(doc, limit)
		f.logger.Debug("no product pods, used embedded data", "count", len(listings))
		return listings
	}
	f.logger.Debug("product cards found", "count", len(cards), "selector", query)

	return collect(f.ID(), cards, limit, f.ParseListing, f.logger)
}

// ParseListing implements Scraper.
func (f *Falabella) ParseListing(card *goquery.Selection) (types.Listing, bool) {
	if isEmptyCard(card) {
		return types.Listing{}, false
	}

	l := types.Listing{
		Title:     f.title.ExtractOr(card, types.UntitledListing),
		Currency:  types.CurrencyPEN,
		Seller:    falabellaSeller,
		Location:  falabellaLocation,
		Site:      f.ID(),
		Source:    "Falabella",
		Available: true,
		Brand:     f.brand.ExtractOr(card, ""),
	}

	if v, ok := f.price.Extract(card); ok {
		l.Price = price.Parse(v)
	} else if v, ok := f.internetPrice.Extract(card); ok {
		l.Price = price.Parse(v)
	}
	if href, ok := f.link.Extract(card); ok {
		l.URL = f.resolve(href)
	}
	if src, ok := f.image.Extract(card); ok {
		l.ImageURL = f.resolve(src)
	}
	if v, ok := f.discount.Extract(card); ok {
		l.Discount, _ = price.ParseDiscount(v)
	}
	if v, ok := f.rating.Extract(card); ok {
		l.Rating, _ = strconv.ParseFloat(v, 64)
	}

	return l, true
}

// structuredListings builds listings from embedded JSON product data.
func (f *Falabella) structuredListings(doc *goquery.Document, limit int) []types.Listing {
	products := parser.ExtractProducts(doc)
	n := min(limit, len(products))
	listings := make([]types.Listing, 0, n)
	for _, p := range products[:n] {
		title := parser.StringField(p, "name")
		if title == "" {
			title = types.UntitledListing
		}
		l := types.Listing{
			Title:     title,
			Price:     price.Parse(price.FormatAmount(parser.OfferPrice(p))),
			Currency:  types.CurrencyPEN,
			Seller:    falabellaSeller,
			Location:  falabellaLocation,
			Site:      f.ID(),
			Source:    "Falabella",
			Available: true,
		}
		if u := parser.StringField(p, "url"); u != "" {
			l.URL = f.resolve(u)
		}
		if img := parser.StringField(p, "image"); img != "" {
			l.ImageURL = f.resolve(img)
		}
		listings = append(listings, l)
	}
	return listings
}

func (f *Falabella) resolve(ref string) string {
	switch {
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		return f.baseURL + ref
	case strings.HasPrefix(ref, "http"):
		return ref
	default:
		return f.baseURL + "/" + ref
	}
}
