package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Version is the service version reported by /health
const Version = "1.0.0"

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := s.systemStats()

	response := map[string]interface{}{
		"status":         "healthy",
		"version":        Version,
		"service":        "supplyopt",
		"tables_version": s.tablesVersion,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"system": map[string]interface{}{
			"cpu_percent":    cpuPercent,
			"memory_percent": memPercent,
		},
	}

	s.writeJSON(w, http.StatusOK, response)
}

// systemStats samples CPU over 100ms and reads RAM usage. Failures report 0.
func (s *Server) systemStats() (float64, float64) {
	cpuAvg := 0.0
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuAvg, 0
	}
	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
