// Package rank orders product candidates against a raw user query.
//
// Three query shapes are recognised: empty (browse), pure-numeric (barcode
// fast-path) and general text. Scoring runs over the candidates' search
// slugs and is deterministic for a given input slice.
package rank

import (
	"sort"
	"strings"

	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/vntext"
)

// DefaultPageSize bounds a single result page.
const DefaultPageSize = 30

// Kind classifies a trimmed query.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumeric
	KindText
)

// Classify trims q and reports its shape. Whitespace-only input is empty.
func Classify(q string) (Kind, string) {
	q = strings.TrimSpace(q)
	switch {
	case q == "":
		return KindEmpty, q
	case vntext.IsNumeric(q):
		return KindNumeric, q
	default:
		return KindText, q
	}
}

// Result is one page of matches plus pagination facts for the whole set.
type Result struct {
	Products []catalog.Product `json:"products"`
	Total    int               `json:"total"`
	HasMore  bool              `json:"hasMore"`
}

// Search ranks candidates against query and returns the page-th page
// (zero-based) of limit products under the given sort mode.
//
// Candidates are read-only; the result slice is freshly allocated.
func Search(candidates []catalog.Product, query string, mode catalog.SortMode, page, limit int) Result {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}

	kind, q := Classify(query)
	switch kind {
	case KindEmpty:
		return paginate(sortedCopy(candidates, mode), page, limit)
	case KindNumeric:
		// Exact barcode short-circuits everything else.
		for _, p := range candidates {
			if p.Barcode == q {
				return paginate([]catalog.Product{p}, page, limit)
			}
		}
		var prefixed []catalog.Product
		for _, p := range candidates {
			if p.Barcode != "" && strings.HasPrefix(p.Barcode, q) {
				prefixed = append(prefixed, p)
			}
		}
		if len(prefixed) > 0 {
			sortInPlace(prefixed, mode)
			return paginate(prefixed, page, limit)
		}
		// Digits may still appear inside a name or slug.
		return paginate(scoreText(candidates, q, mode), page, limit)
	default:
		return paginate(scoreText(candidates, q, mode), page, limit)
	}
}

// scoreText runs the general slug-scoring pass over candidates for the
// trimmed query q and returns matches ordered by score, then sort mode,
// then original candidate order.
func scoreText(candidates []catalog.Product, q string, mode catalog.SortMode) []catalog.Product {
	norm := vntext.Normalize(q)
	tokens := strings.Fields(norm)

	type scored struct {
		p     catalog.Product
		score int
	}
	var matched []scored
	for _, p := range candidates {
		slug := p.SearchSlug
		score := 0
		if strings.HasPrefix(slug, norm) {
			score += 20
		}
		if strings.Contains(slug, norm) {
			score += 10
		}
		if len(tokens) > 0 && allTokensIn(slug, tokens) {
			score += 15
		}
		if p.Barcode != "" && strings.Contains(p.Barcode, q) {
			score += 5
		}
		if score == 0 {
			continue
		}
		matched = append(matched, scored{p: p, score: score})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		return mode.Less(matched[i].p, matched[j].p)
	})

	out := make([]catalog.Product, len(matched))
	for i, s := range matched {
		out[i] = s.p
	}
	return out
}

func allTokensIn(slug string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(slug, tok) {
			return false
		}
	}
	return true
}

func sortedCopy(products []catalog.Product, mode catalog.SortMode) []catalog.Product {
	out := make([]catalog.Product, len(products))
	copy(out, products)
	sortInPlace(out, mode)
	return out
}

func sortInPlace(products []catalog.Product, mode catalog.SortMode) {
	sort.SliceStable(products, func(i, j int) bool {
		return mode.Less(products[i], products[j])
	})
}

func paginate(all []catalog.Product, page, limit int) Result {
	total := len(all)
	start := page * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pageSlice := make([]catalog.Product, end-start)
	copy(pageSlice, all[start:end])
	return Result{
		Products: pageSlice,
		Total:    total,
		HasMore:  end < total,
	}
}
