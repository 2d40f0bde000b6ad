package importer

import (
	"github.com/levutuan/tragia/internal/catalog"
	"github.com/levutuan/tragia/internal/vntext"
)

const maxBarcodeLen = 100

// DumpProduct is one line of a catalog dump in JSONL form, as exported by
// the shop's previous system.
type DumpProduct struct {
	Barcode   string  `json:"barcode"`
	Name      string  `json:"name"`
	Retail    float64 `json:"retail"`
	Wholesale float64 `json:"wholesale"`
	Unit      string  `json:"unit"`
	Location  string  `json:"location"`
	Image     string  `json:"image"`
	UpdatedAt int64   `json:"updatedAt"`
}

// SkipReason explains why a dump line was not imported; empty means valid.
func (d *DumpProduct) SkipReason() string {
	switch {
	case d.Name == "":
		return "empty_name"
	case d.Retail <= 0:
		return "invalid_price"
	case len(d.Barcode) > maxBarcodeLen:
		return "barcode_too_long"
	case d.Barcode != "" && !vntext.IsNumeric(d.Barcode):
		return "barcode_not_numeric"
	default:
		return ""
	}
}

// Product converts a valid dump line to a catalog product, assigning an
// identifier, deriving the slug and applying the usual defaults.
func (d *DumpProduct) Product(nowMs int64) catalog.Product {
	wholesale := d.Wholesale
	if wholesale <= 0 {
		wholesale = d.Retail
	}
	unit := d.Unit
	if unit == "" {
		unit = catalog.DefaultUnit
	}
	updated := d.UpdatedAt
	if updated <= 0 {
		updated = nowMs
	}
	p := catalog.Product{
		ID:        catalog.NewID(),
		Barcode:   d.Barcode,
		Name:      d.Name,
		Prices:    catalog.Prices{Retail: d.Retail, Wholesale: wholesale},
		Unit:      unit,
		Location:  d.Location,
		Image:     d.Image,
		UpdatedAt: updated,
	}
	p.Reslug()
	return p
}
