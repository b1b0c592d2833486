package types

// Defaults substituted when a field cannot be resolved from the markup.
const (
	UntitledListing = "Sin título"
	UnknownSeller   = "Sin vendedor"
	CurrencyPEN     = "PEN"
)

// Listing is one product record scraped from a single site.
// Listings are built once by a scraper and never modified afterwards.
type Listing struct {
	Title        string  `json:"title"                   bson:"title"`
	Price        float64 `json:"price"                   bson:"price"`
	Currency     string  `json:"currency"                bson:"currency"`
	URL          string  `json:"link"                    bson:"link"`
	ImageURL     string  `json:"image"                   bson:"image"`
	Seller       string  `json:"seller"                  bson:"seller"`
	Location     string  `json:"location"                bson:"location"`
	Site         string  `json:"site"                    bson:"site"`
	Source       string  `json:"source"                  bson:"source"`
	Available    bool    `json:"available"               bson:"available"`
	Discount     int     `json:"discount,omitempty"      bson:"discount,omitempty"`
	Rating       float64 `json:"rating,omitempty"        bson:"rating,omitempty"`
	FreeShipping bool    `json:"free_shipping,omitempty" bson:"free_shipping,omitempty"`
	Brand        string  `json:"brand,omitempty"         bson:"brand,omitempty"`
}

// HasPrice reports whether the listing carries a usable price.
func (l Listing) HasPrice() bool {
	return l.Price > 0
}

// SiteResult is the ordered set of listings one site produced for one query.
// An empty result is a normal outcome.
type SiteResult []Listing
