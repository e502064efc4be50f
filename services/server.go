package services

import (
	"time"

	"nudeploy/internal/env"
	"nudeploy/internal/logger"
	"nudeploy/internal/models"
)

// Server carries the state shared by the HTTP handlers
type Server struct {
	deployer  *Deployer
	startTime time.Time
}

/**
 * Create new server instance
 * @param {*Deployer} deployer - Deployer that runs the pipelines
 * @returns {*Server} Returns new server instance
 */
func NewServer(deployer *Deployer) *Server {
	return &Server{
		deployer:  deployer,
		startTime: time.Now(),
	}
}

func (s *Server) Deployer() *Deployer {
	return s.deployer
}

/**
 * Build the health check response
 * @returns {models.HealthResponse} Version, uptime and key counters
 * @description
 * - Status is "UP" unless the registry or the sources file cannot be read,
 *   in which case it is "DEGRADED"
 */
func (s *Server) GetHealthz() models.HealthResponse {
	status := "UP"
	installed := 0
	if packages, err := s.deployer.InstalledPackages(); err != nil {
		logger.Warnf("Healthz: read registry failed: %v", err)
		status = "DEGRADED"
	} else {
		installed = len(packages)
	}
	sources := 0
	if list, err := s.deployer.Sources().Load(); err != nil {
		logger.Warnf("Healthz: read sources failed: %v", err)
		status = "DEGRADED"
	} else {
		sources = len(list)
	}

	return models.HealthResponse{
		Version:   env.Version,
		StartTime: s.startTime.Format(time.RFC3339),
		Status:    status,
		Uptime:    time.Since(s.startTime).Truncate(time.Second).String(),
		Metrics: models.Metrics{
			TotalRequests:     GetTotalRequestCount(),
			ErrorRequests:     GetTotalErrorCount(),
			InstalledPackages: installed,
			Sources:           sources,
		},
	}
}
