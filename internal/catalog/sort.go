package catalog

import "strings"

// SortMode selects how result sets are ordered.
type SortMode string

const (
	SortNewest    SortMode = "newest"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortNameAsc   SortMode = "name_asc"
)

// ParseSortMode maps a raw string to a SortMode, falling back to SortNewest.
func ParseSortMode(s string) SortMode {
	switch SortMode(strings.TrimSpace(s)) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	case SortNameAsc:
		return SortNameAsc
	default:
		return SortNewest
	}
}

// Less compares two products under the sort mode. Returns false for equal
// products so callers can chain further tiebreaks.
func (m SortMode) Less(a, b Product) bool {
	switch m {
	case SortPriceAsc:
		return a.Prices.Retail < b.Prices.Retail
	case SortPriceDesc:
		return a.Prices.Retail > b.Prices.Retail
	case SortNameAsc:
		return a.Name < b.Name
	default: // SortNewest
		return a.UpdatedAt > b.UpdatedAt
	}
}
