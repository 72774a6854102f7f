package mcp

import (
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Pipeline runs analysis and plan generation.
	Pipeline driving.PipelineService

	// Plan loads saved plans.
	Plan driving.PlanService

	// Executor validates and runs plans.
	Executor driving.ExecutorService

	// Cache reports cache occupancy.
	Cache driving.CacheService

	// Errors exposes recorded failures.
	Errors driving.ErrorHistoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Pipeline == nil {
		return ErrMissingPipelineService
	}
	return nil
}

// canRunPlans reports whether validate and execute can be served.
func (p *Ports) canRunPlans() bool {
	return p.Plan != nil && p.Executor != nil
}
