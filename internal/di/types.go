// Package di wires the planning engines from configuration.
package di

import (
	"github.com/aristath/supplyopt/internal/modules/planning"
	"github.com/aristath/supplyopt/internal/modules/risk"
	"github.com/aristath/supplyopt/internal/tables"
)

// Container holds the application dependencies. Every member is stateless
// and safe to share between requests.
type Container struct {
	Tables          *tables.Tables
	PlanningService *planning.Service
	SupplierScorer  *risk.Scorer
}
