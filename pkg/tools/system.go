package tools

import (
	"context"
	"fmt"

	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/ports"
	"github.com/aretw0/mender/pkg/registry"
)

// AssignmentStatusCompleted is the status reported once every pair was attempted.
const AssignmentStatusCompleted = "completed"

// System implements ports.SystemOperations on top of a SystemRepository.
type System struct {
	repo ports.SystemRepository
}

var _ ports.SystemOperations = (*System)(nil)

// NewSystem creates the system tools.
func NewSystem(repo ports.SystemRepository) *System {
	return &System{repo: repo}
}

// DetectFailureNodes scans the network for broken nodes.
func (s *System) DetectFailureNodes(ctx context.Context) ([]string, error) {
	nodes, err := s.repo.GetFailedNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect failure nodes: %w", err)
	}
	if nodes == nil {
		nodes = []string{}
	}
	return nodes, nil
}

// EstimateImpact estimates the operational impact of a node failure.
// Critical nodes affect 5000 people with High criticality, others 100 with Low.
func (s *System) EstimateImpact(ctx context.Context, nodeID string) (domain.Impact, error) {
	details, err := s.repo.GetNodeDetails(ctx, nodeID)
	if err != nil {
		return domain.Impact{}, fmt.Errorf("estimate impact of %s: %w", nodeID, err)
	}
	if details.Critical {
		return domain.Impact{PopulationAffected: 5000, Criticality: domain.CriticalityHigh}, nil
	}
	return domain.Impact{PopulationAffected: 100, Criticality: domain.CriticalityLow}, nil
}

// AssignRepairCrew pairs node_ids[i] with crew_ids[i]; surplus entries on
// either side are ignored. A refused assignment is reported as Failed.
func (s *System) AssignRepairCrew(ctx context.Context, nodeIDs, crewIDs []string) (domain.AssignmentResult, error) {
	details := make(map[string]domain.AssignmentOutcome)
	n := min(len(nodeIDs), len(crewIDs))
	for i := 0; i < n; i++ {
		ok, err := s.repo.AssignCrew(ctx, nodeIDs[i], crewIDs[i])
		if err != nil {
			return domain.AssignmentResult{}, fmt.Errorf("assign %s to %s: %w", crewIDs[i], nodeIDs[i], err)
		}
		if ok {
			details[nodeIDs[i]] = domain.OutcomeAssigned
		} else {
			details[nodeIDs[i]] = domain.OutcomeFailed
		}
	}
	return domain.AssignmentResult{Status: AssignmentStatusCompleted, Details: details}, nil
}

type estimateImpactArgs struct {
	NodeID string `mapstructure:"node_id"`
}

// SystemTools is the static declaration table for the system operations.
var SystemTools = []domain.Tool{
	{
		Name:        "detect_failure_nodes",
		Description: "Scans the network for broken nodes.",
	},
	{
		Name:        "estimate_impact",
		Description: "Estimate the operational impact of a node failure: population_affected (int) and criticality (High or Low).",
		Parameters:  []domain.Param{{Name: "node_id", Type: "str", Required: true}},
	},
	{
		Name:        domain.ActionAssignRepairCrew,
		Description: "Assigns crews to nodes positionally. Returns status and a node_id -> Assigned|Failed mapping. Choosing this ends planning.",
		Parameters: []domain.Param{
			{Name: "node_ids", Type: "list[str]", Required: true},
			{Name: "crew_ids", Type: "list[str]", Required: true},
		},
	},
}

// Register installs the system operations into a registry.
func (s *System) Register(r *registry.Registry) {
	fns := map[string]registry.ToolFunction{
		"detect_failure_nodes": func(ctx context.Context, _ map[string]any) (any, error) {
			return s.DetectFailureNodes(ctx)
		},
		"estimate_impact": func(ctx context.Context, args map[string]any) (any, error) {
			var a estimateImpactArgs
			if err := decodeArgs(args, &a); err != nil {
				return nil, err
			}
			if err := requireString("node_id", a.NodeID); err != nil {
				return nil, err
			}
			return s.EstimateImpact(ctx, a.NodeID)
		},
		domain.ActionAssignRepairCrew: func(ctx context.Context, args map[string]any) (any, error) {
			nodes, crews, err := domain.DecodeAssignment(args)
			if err != nil {
				return nil, err
			}
			return s.AssignRepairCrew(ctx, nodes, crews)
		},
	}
	for _, t := range SystemTools {
		r.Register(t, fns[t.Name])
	}
}
