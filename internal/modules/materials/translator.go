// Package materials converts product demand into raw-material quantities.
package materials

import (
	"math"
	"sort"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/tables"
	"github.com/aristath/supplyopt/pkg/formulas"
)

// Requirement is the total quantity of one material
type Requirement struct {
	Material string  `json:"material"`
	Quantity float64 `json:"quantity"`
}

// Requirements maps material name to quantity
type Requirements map[string]float64

// Sorted returns the requirements ordered by material name.
func (r Requirements) Sorted() []Requirement {
	out := make([]Requirement, 0, len(r))
	for m, q := range r {
		out = append(out, Requirement{Material: m, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Material < out[j].Material })
	return out
}

// Materials lists the material names in sorted order.
func (r Requirements) Materials() []string {
	out := make([]string, 0, len(r))
	for m := range r {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Translator applies category ratio tables to product demand
type Translator struct {
	procurement tables.RatioTable
	festival    tables.RatioTable
}

// NewTranslator creates a translator over the given tables.
func NewTranslator(tbl *tables.Tables) *Translator {
	return &Translator{
		procurement: tbl.Procurement(),
		festival:    tbl.Festival(),
	}
}

// Requirements sums actual demand × procurement ratio over all products.
func (t *Translator) Requirements(products []domain.Product) Requirements {
	return translate(t.procurement, products, func(p domain.Product) float64 {
		return float64(p.ActualDemand)
	})
}

// FestivalRequirements sums festival demand × festival ratio over all products.
func (t *Translator) FestivalRequirements(products []domain.Product, multiplier float64) Requirements {
	req := translate(t.festival, products, func(p domain.Product) float64 {
		return FestivalDemand(p, multiplier)
	})
	for m, q := range req {
		req[m] = formulas.RoundUnits(q)
	}
	return req
}

// NonSensitiveSurge is the festival uplift of products that are not festival sensitive.
const NonSensitiveSurge = 1.1

// FestivalDemand is actual demand × multiplier for festival-sensitive
// products and × 1.1 otherwise.
func FestivalDemand(p domain.Product, multiplier float64) float64 {
	if p.IsFestivalSensitive {
		return float64(p.ActualDemand) * multiplier
	}
	return float64(p.ActualDemand) * NonSensitiveSurge
}

func translate(table tables.RatioTable, products []domain.Product, demand func(domain.Product) float64) Requirements {
	req := make(Requirements)
	for _, p := range products {
		d := demand(p)
		for _, r := range table.For(p.Category) {
			req[r.Material] += d * r.Ratio
		}
	}
	for m, q := range req {
		if math.IsNaN(q) || math.IsInf(q, 0) {
			req[m] = 0
		}
	}
	return req
}
