package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aristath/supplyopt/internal/config"
	"github.com/aristath/supplyopt/internal/di"
	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/modules/planning"
	"github.com/aristath/supplyopt/internal/snapshot"
	"github.com/aristath/supplyopt/pkg/logger"
	"github.com/urfave/cli/v2"
	"github.com/vmihailenco/msgpack/v5"
)

type runKey struct{}

// run is the state shared by every subcommand
type run struct {
	service *planning.Service
	snap    domain.Snapshot
	request snapshot.Request
}

// setup loads configuration and the snapshot before any subcommand runs.
func setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(logger.Config{
		Level:  c.String("log-level"),
		Pretty: true,
		Output: os.Stderr,
	})

	container, err := di.Wire(cfg, log)
	if err != nil {
		return err
	}

	path := c.String("file")
	req, err := snapshot.LoadFile(path)
	if err != nil {
		return err
	}
	snap, err := req.ToDomain(snapshot.Defaults{
		ServiceLevel:       cfg.Planning.DefaultServiceLevel,
		FestivalMultiplier: cfg.Planning.DefaultFestivalMultiplier,
	})
	if err != nil {
		return fmt.Errorf("invalid snapshot %s: %w", path, err)
	}

	c.Context = context.WithValue(c.Context, runKey{}, &run{
		service: container.PlanningService,
		snap:    snap,
		request: req,
	})
	return nil
}

func current(c *cli.Context) (*run, error) {
	r, ok := c.Context.Value(runKey{}).(*run)
	if !ok || r == nil {
		return nil, fmt.Errorf("snapshot not loaded")
	}
	return r, nil
}

func runSafetyStock(c *cli.Context) error {
	r, err := current(c)
	if err != nil {
		return err
	}
	report, err := r.service.ComputeSafetyStock(r.snap.Products, r.snap.ServiceLevel)
	if err != nil {
		return err
	}
	return printResult(c, report)
}

func runForecast(c *cli.Context) error {
	r, err := current(c)
	if err != nil {
		return err
	}
	report, err := r.service.ForecastDemand(r.snap.Products, r.snap.FestivalMultiplier)
	if err != nil {
		return err
	}
	return printResult(c, report)
}

func runOptimize(c *cli.Context) error {
	r, err := current(c)
	if err != nil {
		return err
	}
	scenario := r.request.ScenarioOrBaseline()
	scenario.Name = c.String("scenario")
	if c.IsSet("surge") || r.request.Scenario == nil {
		scenario.DemandSurgeFactor = c.Float64("surge")
	}
	if c.IsSet("utilization") || r.request.Scenario == nil {
		scenario.CapacityUtilizationTarget = c.Float64("utilization")
	}
	if c.IsSet("emergency") {
		scenario.EmergencyProcurement = c.Bool("emergency")
	}

	result, err := r.service.OptimizeSupplyChain(c.Context, r.snap, scenario)
	if err != nil {
		return err
	}
	return printResult(c, result)
}

func runProcurement(c *cli.Context) error {
	r, err := current(c)
	if err != nil {
		return err
	}
	emergency := r.request.EmergencyMode || c.Bool("emergency")
	plan, err := r.service.ProcurementReport(c.Context, r.snap, emergency)
	if err != nil {
		return err
	}
	return printResult(c, plan)
}

func runFestival(c *cli.Context) error {
	r, err := current(c)
	if err != nil {
		return err
	}
	plan, err := r.service.PlanFestivalDemand(c.Context, r.snap.Products, r.snap.FestivalMultiplier, r.snap.Factories)
	if err != nil {
		return err
	}
	return printResult(c, plan)
}

func runAnalyze(c *cli.Context) error {
	r, err := current(c)
	if err != nil {
		return err
	}
	analysis, err := r.service.AnalyzeSupplyChain(c.Context, r.snap)
	if err != nil {
		return err
	}
	return printResult(c, analysis)
}

// Output encodings
const (
	formatJSON    = "json"
	formatMsgpack = "msgpack"
)

// printResult writes the result in the selected encoding. msgpack output keeps
// the JSON field names.
func printResult(c *cli.Context, v interface{}) error {
	switch c.String("format") {
	case formatJSON, "":
		enc := json.NewEncoder(c.App.Writer)
		if !c.Bool("compact") {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	case formatMsgpack:
		enc := msgpack.NewEncoder(c.App.Writer)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format %q", c.String("format"))
	}
	return nil
}
