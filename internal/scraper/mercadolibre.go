package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/fetcher"
	"github.com/IshaanNene/PriceGoat/internal/parser"
	"github.com/IshaanNene/PriceGoat/internal/price"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// MercadoLibre scrapes listado.mercadolibre.com.pe.
type MercadoLibre struct {
	baseURL  string
	linkBase string
	delay    time.Duration
	logger   *slog.Logger

	cards    parser.CardLocator
	title    parser.Cascade
	price    parser.Cascade
	link     parser.Cascade
	image    parser.Cascade
	seller   parser.Cascade
	location parser.Cascade
	shipping parser.Cascade
	rating   parser.Cascade
}

// NewMercadoLibre creates the MercadoLibre scraper. Relative product links
// resolve against the base URL with any "listado." host prefix removed.
func NewMercadoLibre(site config.SiteConfig, logger *slog.Logger) *MercadoLibre {
	base := strings.TrimRight(site.BaseURL, "/")
	return &MercadoLibre{
		baseURL:  base,
		linkBase: strings.Replace(base, "://listado.", "://", 1),
		delay:    site.Delay,
		logger:   logger.With("component", "scraper", "site", config.SiteMercadoLibre),

		cards: parser.CardLocator{Queries: []parser.CardQuery{
			{Selector: "div.ui-search-result__wrapper"},
			{Selector: "li.ui-search-layout__item"},
			{Selector: "div.ui-search-result"},
			{Selector: "div", ClassPattern: regexp.MustCompile(`ui-search.*result`)},
		}},

		title: parser.Cascade{
			Name: "title",
			Strategies: []parser.Strategy{
				parser.CSS("h2.ui-search-item__title", parser.AttrText, "title"),
				parser.CSS(".ui-search-item__title", parser.AttrText, "title"),
				parser.CSS(`h2[class*="title"]`, parser.AttrText, "title"),
				parser.CSS(`a[class*="title"]`, parser.AttrText, "title"),
				parser.CSS(".ui-search-item__title-label", parser.AttrText, "title"),
				parser.CSS("h2", parser.AttrText, "title"),
				parser.CSS("a[title]", parser.AttrText, "title"),
			},
			Accept: titleAccept(5),
		},

		price: parser.Cascade{
			Name: "price",
			Strategies: []parser.Strategy{
				parser.CSS(".andes-money-amount__fraction"),
				parser.CSS(".price-tag-fraction"),
				parser.CSS(".andes-money-amount-combo__fraction"),
				parser.CSS(".ui-search-price__second-line .andes-money-amount__fraction"),
				parser.CSS(".ui-search-price .andes-money-amount__fraction"),
				parser.CSS(`[class*="price"] [class*="fraction"]`),
				parser.CSS(".price-tag-amount"),
				parser.CSS(".andes-money-amount"),
				parser.XPath(`.//*[contains(text(),"S/")]`),
			},
			Accept: func(v string) bool { return price.Parse(v) > 0 },
		},

		link: parser.Cascade{
			Name: "link",
			Strategies: []parser.Strategy{
				parser.CSS("a.ui-search-link", "href"),
				parser.CSS("a.ui-search-item__group__element", "href"),
				parser.CSS(`a[href*="MLU"]`, "href"),
				parser.CSS(`a[href*="MLA"]`, "href"),
				parser.CSS(`a[href*="articulo"]`, "href"),
				parser.CSS("h2 a", "href"),
				parser.CSS(`a[href*="mercadolibre"]`, "href"),
				parser.XPath(`(.//a[@href])[1]`, "href"),
			},
			Accept: navigable,
		},

		image: parser.Cascade{
			Name: "image",
			Strategies: []parser.Strategy{
				parser.CSS("img.ui-search-result-image__element", "src", "data-src", "data-lazy"),
				parser.CSS(".ui-search-result-image img", "src", "data-src", "data-lazy"),
				parser.CSS(`img[src*="http"]`, "src", "data-src", "data-lazy"),
				parser.CSS(`img[data-src*="http"]`, "src", "data-src", "data-lazy"),
				parser.CSS("img.lazy", "src", "data-src", "data-lazy"),
				parser.CSS("img", "src", "data-src", "data-lazy"),
			},
			Accept: func(v string) bool { return strings.Contains(v, "http") || strings.HasPrefix(v, "//") },
		},

		seller: parser.Cascade{
			Name: "seller",
			Strategies: []parser.Strategy{
				parser.CSS(".ui-search-item__brand-discoverability"),
				parser.CSS(".ui-search-item__brand"),
				parser.CSS(`[class*="brand"]`),
				parser.CSS(`[class*="seller"]`),
				parser.CSS(".ui-search-item__group__element .ui-search-item__brand-discoverability"),
				parser.CSS(".seller-info"),
			},
			Accept: func(v string) bool { return strings.ToLower(v) != "por" },
		},

		location: parser.Cascade{
			Name: "location",
			Strategies: []parser.Strategy{
				parser.CSS(".ui-search-item__location"),
				parser.CSS(".ui-search-item__location-label"),
				parser.CSS(`[class*="location"]`),
				parser.CSS(".ui-search-item__group__element .ui-search-item__location"),
			},
		},

		shipping: parser.Cascade{
			Name: "shipping",
			Strategies: []parser.Strategy{
				parser.CSS(".ui-search-item__shipping"),
				parser.CSS(`[class*="shipping"]`),
				parser.CSS(".ui-search-item__group__element .ui-search-item__shipping"),
			},
			Accept: func(v string) bool {
				v = strings.ToLower(v)
				return strings.Contains(v, "gratis") || strings.Contains(v, "free")
			},
		},

		rating: parser.Cascade{
			Name: "rating",
			Strategies: []parser.Strategy{
				parser.CSS(".ui-search-reviews__rating"),
				parser.CSS(`[class*="rating"]`),
				parser.CSS(".ui-search-item__reviews-rating"),
			},
			Accept: func(v string) bool { _, ok := price.ParseRating(v); return ok },
		},
	}
}

func (m *MercadoLibre) ID() string { return config.SiteMercadoLibre }

func (m *MercadoLibre) Delay() time.Duration { return m.delay }

// SearchURL returns the results page URL for a product name.
func (m *MercadoLibre) SearchURL(productName string) string {
	return m.baseURL + "/" + url.QueryEscape(productName)
}

// Search implements Scraper.
func (m *MercadoLibre) Search(ctx context.Context, session fetcher.Session, productName string, limit int) []types.Listing {
	if limit <= 0 {
		return []types.Listing{}
	}

	doc := session.Fetch(ctx, m.SearchURL(productName))
	if doc == nil {
		return []types.Listing{}
	}

	cards, query := m.cards.Locate(doc.Selection)
	if len(cards) == 0 {
		m.logger.Warn("no product cards found", "query", productName)
		return []types.Listing{}
	}
	m.logger.Debug("product cards found", "count", len(cards), "selector", query)

	return collect(m.ID(), cards, limit, m.ParseListing, m.logger)
}

// ParseListing implements Scraper.
func (m *MercadoLibre) ParseListing(card *goquery.Selection) (types.Listing, bool) {
	if isEmptyCard(card) {
		return types.Listing{}, false
	}

	l := types.Listing{
		Title:     m.title.ExtractOr(card, types.UntitledListing),
		Currency:  types.CurrencyPEN,
		Seller:    m.seller.ExtractOr(card, types.UnknownSeller),
		Location:  m.location.ExtractOr(card, ""),
		Site:      m.ID(),
		Source:    "MercadoLibre",
		Available: true,
	}

	if v, ok := m.price.Extract(card); ok {
		l.Price = price.Parse(v)
	}
	if href, ok := m.link.Extract(card); ok {
		l.URL = m.resolveLink(href)
	}
	if src, ok := m.image.Extract(card); ok {
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		}
		l.ImageURL = src
	}
	_, l.FreeShipping = m.shipping.Extract(card)
	if v, ok := m.rating.Extract(card); ok {
		l.Rating, _ = price.ParseRating(v)
	}

	return l, true
}

func (m *MercadoLibre) resolveLink(href string) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return m.linkBase + href
	case strings.HasPrefix(href, "http"):
		return href
	default:
		return "https://" + href
	}
}
