// Package tables holds the versioned lookup data used by the planning engines:
// quarterly seasonal factors and category-to-material ratio tables.
//
// Tables are immutable once parsed. Accessors return copies so callers cannot
// mutate shared data.
package tables

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/aristath/supplyopt/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default_tables.yaml
var defaultYAML []byte

// SeasonalPattern is the quarterly demand profile of one category
type SeasonalPattern struct {
	Quarters      map[domain.Quarter]float64 `yaml:"quarters" json:"quarters"`
	FestivalBoost float64                    `yaml:"festival_boost" json:"festivalBoost"`
}

// Factor returns the multiplier for quarter q.
func (p SeasonalPattern) Factor(q domain.Quarter) float64 {
	return p.Quarters[q]
}

func (p SeasonalPattern) clone() SeasonalPattern {
	quarters := make(map[domain.Quarter]float64, len(p.Quarters))
	for q, v := range p.Quarters {
		quarters[q] = v
	}
	return SeasonalPattern{Quarters: quarters, FestivalBoost: p.FestivalBoost}
}

// MaterialRatio is the amount of one material needed per unit of product
type MaterialRatio struct {
	Material string
	Ratio    float64
}

// RatioTable maps product categories to their material ratios
type RatioTable struct {
	rows map[string][]MaterialRatio
}

// For returns the ratios of category, falling back to the Unknown row.
// Ratios are sorted by material name.
func (t RatioTable) For(category string) []MaterialRatio {
	row, ok := t.rows[category]
	if !ok {
		row = t.rows[domain.UnknownCategory]
	}
	out := make([]MaterialRatio, len(row))
	copy(out, row)
	return out
}

// Categories lists the categories with an explicit row, sorted.
func (t RatioTable) Categories() []string {
	out := make([]string, 0, len(t.rows))
	for c := range t.rows {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Tables is one parsed, validated version of the lookup data
type Tables struct {
	version     string
	peakSeason  domain.Quarter
	lowSeason   domain.Quarter
	seasonal    map[string]SeasonalPattern
	procurement RatioTable
	festival    RatioTable
}

type document struct {
	Version    string                     `yaml:"version"`
	PeakSeason domain.Quarter             `yaml:"peak_season"`
	LowSeason  domain.Quarter             `yaml:"low_season"`
	Seasonal   map[string]SeasonalPattern `yaml:"seasonal"`
	Materials  struct {
		Procurement map[string]map[string]float64 `yaml:"procurement"`
		Festival    map[string]map[string]float64 `yaml:"festival"`
	} `yaml:"materials"`
}

// Version returns the version string declared by the table file.
func (t *Tables) Version() string { return t.version }

// PeakSeason returns the configured peak quarter.
func (t *Tables) PeakSeason() domain.Quarter { return t.peakSeason }

// LowSeason returns the configured low quarter.
func (t *Tables) LowSeason() domain.Quarter { return t.lowSeason }

// Seasonal returns the pattern of category, falling back to Unknown.
func (t *Tables) Seasonal(category string) SeasonalPattern {
	p, ok := t.seasonal[category]
	if !ok {
		p = t.seasonal[domain.UnknownCategory]
	}
	return p.clone()
}

// Procurement returns the ratio table used to size procurement orders.
func (t *Tables) Procurement() RatioTable { return t.procurement }

// Festival returns the ratio table used by the festival planner.
func (t *Tables) Festival() RatioTable { return t.festival }

// Parse decodes and validates a YAML table document.
func Parse(data []byte) (*Tables, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode lookup tables: %w", err)
	}

	if doc.Version == "" {
		return nil, fmt.Errorf("lookup tables: version is required")
	}
	if !doc.PeakSeason.Valid() || !doc.LowSeason.Valid() {
		return nil, fmt.Errorf("lookup tables: peak_season and low_season must be Q1..Q4")
	}
	if err := validateSeasonal(doc.Seasonal); err != nil {
		return nil, err
	}
	procurement, err := buildRatioTable("procurement", doc.Materials.Procurement)
	if err != nil {
		return nil, err
	}
	festival, err := buildRatioTable("festival", doc.Materials.Festival)
	if err != nil {
		return nil, err
	}

	return &Tables{
		version:     doc.Version,
		peakSeason:  doc.PeakSeason,
		lowSeason:   doc.LowSeason,
		seasonal:    doc.Seasonal,
		procurement: procurement,
		festival:    festival,
	}, nil
}

// Load reads a table document from path.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup tables %s: %w", path, err)
	}
	return Parse(data)
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the tables compiled into the binary.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded lookup tables are invalid: %v", err))
		}
		defaultTables = t
	})
	return defaultTables
}

func validateSeasonal(seasonal map[string]SeasonalPattern) error {
	if _, ok := seasonal[domain.UnknownCategory]; !ok {
		return fmt.Errorf("lookup tables: seasonal table needs an %q row", domain.UnknownCategory)
	}
	for category, p := range seasonal {
		for _, q := range domain.Quarters {
			v, ok := p.Quarters[q]
			if !ok {
				return fmt.Errorf("lookup tables: seasonal %s is missing %s", category, q)
			}
			if v <= 0 {
				return fmt.Errorf("lookup tables: seasonal %s %s must be positive", category, q)
			}
		}
		if p.FestivalBoost <= 0 {
			return fmt.Errorf("lookup tables: seasonal %s festival_boost must be positive", category)
		}
	}
	return nil
}

func buildRatioTable(name string, raw map[string]map[string]float64) (RatioTable, error) {
	if _, ok := raw[domain.UnknownCategory]; !ok {
		return RatioTable{}, fmt.Errorf("lookup tables: %s table needs an %q row", name, domain.UnknownCategory)
	}
	rows := make(map[string][]MaterialRatio, len(raw))
	for category, ratios := range raw {
		if len(ratios) == 0 {
			return RatioTable{}, fmt.Errorf("lookup tables: %s %s has no materials", name, category)
		}
		row := make([]MaterialRatio, 0, len(ratios))
		for material, ratio := range ratios {
			if ratio < 0 {
				return RatioTable{}, fmt.Errorf("lookup tables: %s %s/%s ratio must be non-negative", name, category, material)
			}
			row = append(row, MaterialRatio{Material: material, Ratio: ratio})
		}
		sort.Slice(row, func(i, j int) bool { return row[i].Material < row[j].Material })
		rows[category] = row
	}
	return RatioTable{rows: rows}, nil
}
