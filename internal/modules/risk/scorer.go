// Package risk scores and ranks suppliers.
package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/pkg/formulas"
	"github.com/rs/zerolog"
)

// Risk thresholds shared by supplier and aggregate levels.
const (
	highRiskThreshold   = 0.6
	mediumRiskThreshold = 0.3
	highShareOverride   = 0.3
)

// SupplierRisk is the risk breakdown of one supplier
type SupplierRisk struct {
	SupplierID        string           `json:"supplierId"`
	MaterialType      string           `json:"materialType"`
	OverallRisk       float64          `json:"overallRisk"`
	RiskLevel         domain.RiskLevel `json:"riskLevel"`
	ReliabilityRisk   float64          `json:"reliabilityRisk"`
	LeadTimeRisk      float64          `json:"leadTimeRisk"`
	QualityRisk       float64          `json:"qualityRisk"`
	MitigationActions []string         `json:"mitigationActions"`
}

// Assessment is the risk picture across all suppliers
type Assessment struct {
	RiskFactors         []SupplierRisk   `json:"riskFactors"`
	HighRiskSuppliers   int              `json:"highRiskSuppliers"`
	MediumRiskSuppliers int              `json:"mediumRiskSuppliers"`
	MeanRisk            float64          `json:"meanRisk"`
	OverallRiskLevel    domain.RiskLevel `json:"overallRiskLevel"`
	CriticalMaterials   []string         `json:"criticalMaterials"`
	Recommendations     []string         `json:"recommendations"`
}

// SupplierScore is one entry of the supplier ranking
type SupplierScore struct {
	SupplierID   string  `json:"supplierId"`
	MaterialType string  `json:"materialType"`
	OverallScore float64 `json:"overallScore"`
	Reliability  float64 `json:"reliability"`
	Quality      float64 `json:"quality"`
	UnitPrice    float64 `json:"unitPrice"`
	LeadTime     int     `json:"leadTime"`
	MOQ          int     `json:"moq"`
}

// Ranking orders suppliers by weighted score
type Ranking struct {
	Suppliers            []SupplierScore `json:"supplierRanking"`
	Primary              []SupplierScore `json:"primarySuppliers"`
	Backup               []SupplierScore `json:"backupSuppliers"`
	AllocationStrategy   string          `json:"allocationStrategy"`
	DiversificationLevel int             `json:"diversificationLevel"`
}

// Scorer assesses and ranks suppliers
type Scorer struct {
	log zerolog.Logger
}

// NewScorer creates a supplier risk scorer.
func NewScorer(log zerolog.Logger) *Scorer {
	return &Scorer{log: log.With().Str("component", "supplier_risk").Logger()}
}

// LevelFor maps a risk score to High (> 0.6), Medium (> 0.3) or Low.
func LevelFor(risk float64) domain.RiskLevel {
	switch {
	case risk > highRiskThreshold:
		return domain.RiskHigh
	case risk > mediumRiskThreshold:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// ScoreSupplier computes the weighted risk of one supplier:
// 0.4·(1 − reliability) + 0.3·min(1, lead/14) + 0.3·max(0, (7 − quality)/7).
func ScoreSupplier(s domain.Supplier) SupplierRisk {
	reliability := 1 - s.ReliabilityScore
	leadTime := math.Min(1, float64(s.LeadTimeDays)/14)
	quality := math.Max(0, (7-s.QualityRating)/7)
	overall := 0.4*reliability + 0.3*leadTime + 0.3*quality

	return SupplierRisk{
		SupplierID:        s.SupplierID,
		MaterialType:      s.MaterialType,
		OverallRisk:       formulas.Round(overall, 3),
		RiskLevel:         LevelFor(overall),
		ReliabilityRisk:   formulas.Round(reliability, 3),
		LeadTimeRisk:      formulas.Round(leadTime, 3),
		QualityRisk:       formulas.Round(quality, 3),
		MitigationActions: mitigationActions(overall, s.SupplierID),
	}
}

// AggregateLevel grades the mean risk with the supplier thresholds, raised to
// High when more than 30% of suppliers are individually High. An empty list
// is Unknown.
func AggregateLevel(risks []SupplierRisk) domain.RiskLevel {
	if len(risks) == 0 {
		return domain.RiskUnknown
	}
	scores := make([]float64, len(risks))
	high := 0
	for i, r := range risks {
		scores[i] = r.OverallRisk
		if r.RiskLevel == domain.RiskHigh {
			high++
		}
	}
	if float64(high) > float64(len(risks))*highShareOverride {
		return domain.RiskHigh
	}
	return LevelFor(formulas.Mean(scores))
}

// Assess scores every supplier and summarises the supply risk.
func (sc *Scorer) Assess(suppliers []domain.Supplier) (*Assessment, error) {
	if err := domain.ValidateSuppliers(suppliers); err != nil {
		return nil, err
	}

	a := &Assessment{
		RiskFactors:       make([]SupplierRisk, 0, len(suppliers)),
		CriticalMaterials: []string{},
	}
	scores := make([]float64, 0, len(suppliers))
	critical := make(map[string]struct{})
	for _, s := range suppliers {
		r := ScoreSupplier(s)
		a.RiskFactors = append(a.RiskFactors, r)
		scores = append(scores, r.OverallRisk)
		switch r.RiskLevel {
		case domain.RiskHigh:
			a.HighRiskSuppliers++
			critical[r.MaterialType] = struct{}{}
		case domain.RiskMedium:
			a.MediumRiskSuppliers++
		}
	}
	for m := range critical {
		a.CriticalMaterials = append(a.CriticalMaterials, m)
	}
	sort.Strings(a.CriticalMaterials)

	a.MeanRisk = formulas.Round(formulas.Mean(scores), 3)
	a.OverallRiskLevel = AggregateLevel(a.RiskFactors)
	a.Recommendations = riskRecommendations(a.HighRiskSuppliers)

	sc.log.Debug().
		Int("suppliers", len(suppliers)).
		Int("high_risk", a.HighRiskSuppliers).
		Str("overall", string(a.OverallRiskLevel)).
		Msg("Assessed supplier risk")

	return a, nil
}

// RankingScore is 0.3·reliability + 0.25·quality/10 + 0.25/price + 0.2/lead.
// A zero price scores 1.0 on the price term.
func RankingScore(s domain.Supplier) float64 {
	price := formulas.SafeDiv(1, s.UnitPrice, 1.0)
	lead := formulas.SafeDiv(1, float64(s.LeadTimeDays), 1.0)
	return 0.3*s.ReliabilityScore + 0.25*(s.QualityRating/10) + 0.25*price + 0.2*lead
}

// Rank orders suppliers by ranking score, best first. The top two are primary
// and the next two backup.
func (sc *Scorer) Rank(suppliers []domain.Supplier) (*Ranking, error) {
	if err := domain.ValidateSuppliers(suppliers); err != nil {
		return nil, err
	}

	scores := make([]SupplierScore, 0, len(suppliers))
	materials := make(map[string]struct{})
	for _, s := range suppliers {
		scores = append(scores, SupplierScore{
			SupplierID:   s.SupplierID,
			MaterialType: s.MaterialType,
			OverallScore: formulas.Round(RankingScore(s), 3),
			Reliability:  s.ReliabilityScore,
			Quality:      s.QualityRating,
			UnitPrice:    s.UnitPrice,
			LeadTime:     s.LeadTimeDays,
			MOQ:          s.MOQ,
		})
		materials[s.MaterialType] = struct{}{}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].OverallScore != scores[j].OverallScore {
			return scores[i].OverallScore > scores[j].OverallScore
		}
		if scores[i].SupplierID != scores[j].SupplierID {
			return scores[i].SupplierID < scores[j].SupplierID
		}
		return scores[i].MaterialType < scores[j].MaterialType
	})

	primaryEnd := min(2, len(scores))
	backupEnd := min(4, len(scores))
	return &Ranking{
		Suppliers:            scores,
		Primary:              scores[:primaryEnd],
		Backup:               scores[primaryEnd:backupEnd],
		AllocationStrategy:   "80-20 rule: 80% from primary, 20% from backup",
		DiversificationLevel: len(materials),
	}, nil
}

func mitigationActions(risk float64, supplierID string) []string {
	switch LevelFor(risk) {
	case domain.RiskHigh:
		return []string{
			fmt.Sprintf("Develop alternative suppliers for %s", supplierID),
			"Increase safety stock for materials from this supplier",
			"Implement more frequent supplier audits",
		}
	case domain.RiskMedium:
		return []string{
			fmt.Sprintf("Monitor %s performance closely", supplierID),
			"Maintain backup supplier relationships",
			"Consider dual sourcing",
		}
	default:
		return []string{
			fmt.Sprintf("Continue current relationship with %s", supplierID),
			"Standard monitoring procedures",
		}
	}
}

func riskRecommendations(highRisk int) []string {
	var recs []string
	if highRisk > 0 {
		recs = append(recs, fmt.Sprintf("URGENT: Address %d high-risk suppliers immediately", highRisk))
	}
	return append(recs,
		"Implement supplier diversity program",
		"Establish strategic safety stock for critical materials",
		"Develop supplier performance scorecards",
		"Create supply chain contingency plans",
		"Consider supply chain insurance for critical materials",
	)
}
