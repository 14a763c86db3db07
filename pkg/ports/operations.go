package ports

import (
	"context"

	"github.com/aretw0/mender/pkg/domain"
)

// SystemOperations are the side-effecting domain calls the orchestrator drives directly.
type SystemOperations interface {
	// DetectFailureNodes returns the ids of currently broken nodes.
	DetectFailureNodes(ctx context.Context) ([]string, error)

	// EstimateImpact assesses a single failed node.
	EstimateImpact(ctx context.Context, nodeID string) (domain.Impact, error)

	// AssignRepairCrew pairs nodes and crews positionally and reports per-node outcomes.
	// A rejected assignment is data (OutcomeFailed), not an error.
	AssignRepairCrew(ctx context.Context, nodeIDs, crewIDs []string) (domain.AssignmentResult, error)
}

// SystemRepository is the infrastructure inventory behind SystemOperations.
type SystemRepository interface {
	GetFailedNodes(ctx context.Context) ([]string, error)
	GetNodeDetails(ctx context.Context, nodeID string) (NodeDetails, error)
	AssignCrew(ctx context.Context, nodeID, crewID string) (bool, error)
}

// NodeDetails is what the inventory knows about a node.
type NodeDetails struct {
	Critical bool   `json:"critical"`
	Location string `json:"location,omitempty"`
}

// AgentRepository backs the informational tools the planner may consult.
type AgentRepository interface {
	GetAvailableCrews(ctx context.Context) ([]string, error)
	GetWeatherAtLocation(ctx context.Context, location string) (float64, error)
	EstimateRepairTime(ctx context.Context, nodeID, crewID string) (int, error)
	EstimateArrivalTime(ctx context.Context, nodeID, crewID string) (int, error)
	GetCrewLocation(ctx context.Context, crewID string) (string, error)
	GetCrewRemainingCapacity(ctx context.Context, crewID string) (int, error)
}
