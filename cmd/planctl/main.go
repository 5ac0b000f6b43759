// Package main is planctl, the batch front end of the planning engines. It
// reads a snapshot file (.json or .xlsx) and prints the result as JSON.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Snapshot file (.json, or .xlsx with products/suppliers/factories sheets)",
		Required: true,
		EnvVars:  []string{"PLANCTL_SNAPSHOT"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "planctl",
		Usage: "Run supply-chain planning over a snapshot file",
		Flags: []cli.Flag{
			newFileFlag(),
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "Print JSON on one line",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output encoding: json or msgpack",
				Value: formatJSON,
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "safety-stock",
				Usage:  "Compute safety stock and reorder points",
				Action: runSafetyStock,
			},
			{
				Name:   "forecast",
				Usage:  "Forecast demand with the ensemble of models",
				Action: runForecast,
			},
			{
				Name:  "optimize",
				Usage: "Optimize production, inventory and procurement",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "scenario", Usage: "Scenario name", Value: "baseline"},
					&cli.Float64Flag{Name: "surge", Usage: "Demand surge factor", Value: 1.0},
					&cli.Float64Flag{Name: "utilization", Usage: "Capacity utilization target", Value: 0.85},
					&cli.BoolFlag{Name: "emergency", Usage: "Emergency procurement"},
				},
				Action: runOptimize,
			},
			{
				Name:  "procurement",
				Usage: "Plan procurement with supplier ranking and MOQ analysis",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "emergency", Usage: "Emergency procurement"},
				},
				Action: runProcurement,
			},
			{
				Name:   "festival",
				Usage:  "Plan production and stock build-up for a festival surge",
				Action: runFestival,
			},
			{
				Name:   "analyze",
				Usage:  "Analyze inventory, suppliers, demand and capacity",
				Action: runAnalyze,
			},
		},
	}
}

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "planctl:", err)
		os.Exit(1)
	}
}
