package forecasting

import (
	"sort"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/tables"
)

// CategorySeasonality is the seasonal profile reported for one category
type CategorySeasonality struct {
	CurrentSeasonality float64                `json:"currentSeasonality"`
	FestivalImpact     float64                `json:"festivalImpact"`
	YearlyPattern      tables.SeasonalPattern `json:"yearlyPattern"`
}

// SeasonalReport lists the seasonal profile of every category in the input
type SeasonalReport struct {
	Categories     map[string]CategorySeasonality `json:"categoryPatterns"`
	CurrentQuarter domain.Quarter                 `json:"currentQuarter"`
	PeakSeason     domain.Quarter                 `json:"peakSeason"`
	LowSeason      domain.Quarter                 `json:"lowSeason"`
	TablesVersion  string                         `json:"tablesVersion"`
}

func (e *Engine) seasonalPatterns(products []domain.Product) SeasonalReport {
	categories := make([]string, 0)
	seen := make(map[string]struct{})
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)

	out := SeasonalReport{
		Categories:     make(map[string]CategorySeasonality, len(categories)),
		CurrentQuarter: e.quarter,
		PeakSeason:     e.tables.PeakSeason(),
		LowSeason:      e.tables.LowSeason(),
		TablesVersion:  e.tables.Version(),
	}
	for _, c := range categories {
		pattern := e.tables.Seasonal(c)
		out.Categories[c] = CategorySeasonality{
			CurrentSeasonality: pattern.Factor(e.quarter),
			FestivalImpact:     pattern.FestivalBoost,
			YearlyPattern:      pattern,
		}
	}
	return out
}
