package types

import (
	"encoding/json"
	"time"
)

// AnalysisStatus tags which variant an Analysis holds.
type AnalysisStatus string

const (
	StatusNoResults AnalysisStatus = "no_results"
	StatusSuccess   AnalysisStatus = "success"
)

// ComparisonResult is everything produced for one product query.
type ComparisonResult struct {
	ID             string                `json:"id"        bson:"_id"`
	Query          string                `json:"query"     bson:"query"`
	ReferencePrice *float64              `json:"db_price"  bson:"db_price"`
	Results        map[string]SiteResult `json:"results"   bson:"results"`
	Sites          []string              `json:"sites"     bson:"sites"`
	Analysis       Analysis              `json:"analysis"  bson:"analysis"`
	Timestamp      time.Time             `json:"timestamp" bson:"timestamp"`
}

// Listings returns every listing in site registration order.
func (r *ComparisonResult) Listings() []Listing {
	var all []Listing
	for _, site := range r.Sites {
		all = append(all, r.Results[site]...)
	}
	return all
}

// Analysis is the aggregate price summary for a query. When Status is
// StatusNoResults every other field is zero.
type Analysis struct {
	Status     AnalysisStatus       `json:"status"        bson:"status"`
	TotalFound int                  `json:"total_found"   bson:"total_found,omitempty"`
	MinPrice   float64              `json:"min_price"     bson:"min_price,omitempty"`
	MaxPrice   float64              `json:"max_price"     bson:"max_price,omitempty"`
	AvgPrice   float64              `json:"avg_price"     bson:"avg_price,omitempty"`
	BestDeal   *Listing             `json:"best_deal"     bson:"best_deal,omitempty"`
	PriceRange float64              `json:"price_range"   bson:"price_range,omitempty"`
	Reference  *ReferenceComparison `json:"db_comparison,omitempty" bson:"db_comparison,omitempty"`
}

// NoResults returns the empty analysis variant.
func NoResults() Analysis {
	return Analysis{Status: StatusNoResults}
}

// IsSuccess reports whether any priced listing was found.
func (a Analysis) IsSuccess() bool {
	return a.Status == StatusSuccess
}

// MarshalJSON emits only the status for the no_results variant.
func (a Analysis) MarshalJSON() ([]byte, error) {
	if !a.IsSuccess() {
		return json.Marshal(struct {
			Status AnalysisStatus `json:"status"`
		}{StatusNoResults})
	}
	type plain Analysis
	return json.Marshal(plain(a))
}

// ReferenceComparison compares a caller-supplied price against the market.
type ReferenceComparison struct {
	ReferencePrice         float64 `json:"db_price"          bson:"db_price"`
	SavingsVsMin           float64 `json:"savings_vs_min"    bson:"savings_vs_min"`
	SavingsVsAvg           float64 `json:"savings_vs_avg"    bson:"savings_vs_avg"`
	ReferenceIsCompetitive bool    `json:"db_is_competitive" bson:"db_is_competitive"`
}
