package di

import (
	"fmt"

	"github.com/aristath/supplyopt/internal/config"
	"github.com/aristath/supplyopt/internal/modules/planning"
	"github.com/aristath/supplyopt/internal/modules/risk"
	"github.com/rs/zerolog"
)

// Wire loads the lookup tables and builds every service
// Order of operations:
// 1. Load lookup tables (embedded defaults or LOOKUP_TABLES_PATH)
// 2. Build the planning service and supplier scorer
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	tbl, err := cfg.Tables()
	if err != nil {
		return nil, fmt.Errorf("failed to load lookup tables: %w", err)
	}

	svc, err := planning.NewService(cfg, tbl, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize planning service: %w", err)
	}

	log.Info().
		Str("tables_version", tbl.Version()).
		Str("quarter", string(cfg.Planning.CurrentQuarter)).
		Msg("Dependencies wired")

	return &Container{
		Tables:          tbl,
		PlanningService: svc,
		SupplierScorer:  risk.NewScorer(log),
	}, nil
}
