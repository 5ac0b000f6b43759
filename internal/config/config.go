// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/aristath/supplyopt/internal/tables"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     int
	LogLevel string
	DevMode  bool

	Solver   SolverConfig
	Planning PlanningConfig

	// LookupTablesPath overrides the embedded lookup tables when set
	LookupTablesPath string
}

// SolverConfig bounds every LP/MIP solve
type SolverConfig struct {
	Timeout  time.Duration
	MaxNodes int
}

// PlanningConfig holds request defaults and the seasonal quarter
type PlanningConfig struct {
	CurrentQuarter            domain.Quarter
	DefaultServiceLevel       float64
	DefaultFestivalMultiplier float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("PORT", 8001),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Solver: SolverConfig{
			Timeout:  time.Duration(getEnvAsInt("SOLVER_TIMEOUT_SECONDS", 30)) * time.Second,
			MaxNodes: getEnvAsInt("SOLVER_MAX_NODES", 20000),
		},
		Planning: PlanningConfig{
			CurrentQuarter:            domain.Quarter(getEnv("CURRENT_QUARTER", string(domain.Q3))),
			DefaultServiceLevel:       getEnvAsFloat("DEFAULT_SERVICE_LEVEL", 0.95),
			DefaultFestivalMultiplier: getEnvAsFloat("DEFAULT_FESTIVAL_MULTIPLIER", 1.45),
		},
		LookupTablesPath: getEnv("LOOKUP_TABLES_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.Solver.Timeout <= 0 {
		return fmt.Errorf("SOLVER_TIMEOUT_SECONDS must be positive")
	}
	if c.Solver.MaxNodes <= 0 {
		return fmt.Errorf("SOLVER_MAX_NODES must be positive")
	}
	if !c.Planning.CurrentQuarter.Valid() {
		return fmt.Errorf("CURRENT_QUARTER must be one of Q1..Q4, got %q", c.Planning.CurrentQuarter)
	}
	if err := domain.ValidateServiceLevel(c.Planning.DefaultServiceLevel); err != nil {
		return fmt.Errorf("DEFAULT_SERVICE_LEVEL: %w", err)
	}
	if err := domain.ValidateFestivalMultiplier(c.Planning.DefaultFestivalMultiplier); err != nil {
		return fmt.Errorf("DEFAULT_FESTIVAL_MULTIPLIER: %w", err)
	}
	return nil
}

// Tables returns the lookup tables: the file at LookupTablesPath if set,
// otherwise the embedded defaults.
func (c *Config) Tables() (*tables.Tables, error) {
	if c.LookupTablesPath == "" {
		return tables.Default(), nil
	}
	t, err := tables.Load(c.LookupTablesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load lookup tables: %w", err)
	}
	return t, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
