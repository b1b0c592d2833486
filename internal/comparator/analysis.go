package comparator

import (
	"sort"

	"github.com/IshaanNene/PriceGoat/internal/types"
)

// Analyze summarizes the priced listings of a comparison. Listings are
// flattened in site order, then per-site order, and sorted by price with a
// stable sort so ties keep that order. ref is compared only when at least
// one priced listing exists.
func Analyze(sites []string, results map[string]types.SiteResult, ref *float64) types.Analysis {
	var priced []types.Listing
	for _, site := range sites {
		for _, l := range results[site] {
			if l.HasPrice() {
				priced = append(priced, l)
			}
		}
	}
	if len(priced) == 0 {
		return types.NoResults()
	}

	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].Price < priced[j].Price
	})

	var sum float64
	for _, l := range priced {
		sum += l.Price
	}

	best := priced[0]
	minPrice, maxPrice := priced[0].Price, priced[len(priced)-1].Price
	avg := sum / float64(len(priced))

	a := types.Analysis{
		Status:     types.StatusSuccess,
		TotalFound: len(priced),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		AvgPrice:   avg,
		BestDeal:   &best,
		PriceRange: maxPrice - minPrice,
	}

	if ref != nil {
		a.Reference = &types.ReferenceComparison{
			ReferencePrice:         *ref,
			SavingsVsMin:           max(0, *ref-minPrice),
			SavingsVsAvg:           max(0, *ref-avg),
			ReferenceIsCompetitive: *ref <= avg,
		}
	}

	return a
}

// Ranked returns the priced listings of r sorted the same way Analyze
// sorts them.
func Ranked(r *types.ComparisonResult) []types.Listing {
	var priced []types.Listing
	for _, l := range r.Listings() {
		if l.HasPrice() {
			priced = append(priced, l)
		}
	}
	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].Price < priced[j].Price
	})
	return priced
}
