package store

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/rank"
	"github.com/levutuan/tragia/internal/vntext"
)

// Search ranks the catalog against a raw query. Small catalogs are ranked
// over the full snapshot; past the candidate budget the candidate set is
// pre-filtered through the Bleve slug index and the barcode keyspace before
// ranking, so a keystroke never scans the whole catalog.
func (s *Store) Search(q string, mode catalog.SortMode, page, limit int) (rank.Result, error) {
	snapshot, err := s.Snapshot()
	if err != nil {
		return rank.Result{}, fmt.Errorf("load candidates: %w", err)
	}

	kind, trimmed := rank.Classify(q)
	if kind == rank.KindEmpty || len(snapshot) <= s.candidateBudget {
		return rank.Search(snapshot, q, mode, page, limit), nil
	}

	candidates, err := s.prefilter(kind, trimmed)
	if err != nil {
		// Fall back to the full scan rather than failing the search.
		return rank.Search(snapshot, q, mode, page, limit), nil
	}
	return rank.Search(candidates, q, mode, page, limit), nil
}

// prefilterLimit caps how many candidates the Bleve pass may return; the
// ranking engine re-scores everything it gets, so the filter only needs to
// be a superset of plausible matches.
const prefilterLimit = 2000

func (s *Store) prefilter(kind rank.Kind, trimmed string) ([]catalog.Product, error) {
	seen := make(map[string]struct{})
	var out []catalog.Product

	add := func(p catalog.Product) {
		if _, ok := seen[p.ID]; ok {
			return
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}

	if kind == rank.KindNumeric {
		// Exact barcode, then barcode prefix scan on the index keyspace.
		if p, err := s.GetByBarcode(trimmed); err == nil {
			add(p)
		}
		if err := s.scanBarcodePrefix(trimmed, add); err != nil {
			return nil, err
		}
	}

	// Slug tokens: conjunction of substring matches mirrors the ranking
	// engine's multi-word AND semantics.
	norm := vntext.Normalize(trimmed)
	ids, err := s.slugCandidates(norm)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		p, err := s.GetProduct(id)
		if err != nil {
			continue
		}
		add(p)
	}
	return out, nil
}

func (s *Store) scanBarcodePrefix(prefix string, add func(catalog.Product)) error {
	iter, err := s.db.NewIter(prefixBounds(barcodePrefix + prefix))
	if err != nil {
		return fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		p, err := s.GetProduct(string(iter.Value()))
		if err != nil {
			continue
		}
		add(p)
	}
	return iter.Error()
}

func (s *Store) slugCandidates(norm string) ([]string, error) {
	tokens := strings.Fields(norm)
	if len(tokens) == 0 {
		return nil, nil
	}

	conj := bleve.NewConjunctionQuery()
	for _, tok := range tokens {
		rq := bleve.NewRegexpQuery(".*" + vntext.EscapeRegex(tok) + ".*")
		rq.SetField("search_slug")
		conj.AddQuery(rq)
	}

	var q query.Query = conj
	req := bleve.NewSearchRequestOptions(q, prefilterLimit, 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
