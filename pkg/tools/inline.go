package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/mender/pkg/ports"
)

// InlineSystemRepo is a deterministic in-process network inventory.
//
// Each call to GetFailedNodes returns the next wave of failures; the last
// wave repeats once the list is exhausted. This lets a demo show cascading
// failures without any external system.
type InlineSystemRepo struct {
	mu       sync.Mutex
	waves    [][]string
	calls    int
	nodes    map[string]ports.NodeDetails
	rejected map[string]bool
}

// InlineScenario describes the behaviour of the inline repositories.
type InlineScenario struct {
	// Waves are successive answers of the failure scan.
	Waves [][]string `yaml:"waves" json:"waves" koanf:"waves"`
	// Critical lists nodes whose impact is High.
	Critical []string `yaml:"critical" json:"critical" koanf:"critical"`
	// Reject lists nodes for which crew assignment is refused.
	Reject []string `yaml:"reject" json:"reject" koanf:"reject"`
	// Crews available to the planner.
	Crews []string `yaml:"crews" json:"crews" koanf:"crews"`
}

// DefaultScenario mirrors the canonical demo: two critical nodes, two crews,
// every assignment accepted.
func DefaultScenario() InlineScenario {
	return InlineScenario{
		Waves:    [][]string{{"node1", "node2"}},
		Critical: []string{"node1", "node2"},
		Crews:    []string{"crew1", "crew2"},
	}
}

// NewInlineSystemRepo builds the inventory for a scenario.
func NewInlineSystemRepo(s InlineScenario) *InlineSystemRepo {
	r := &InlineSystemRepo{
		waves:    s.Waves,
		nodes:    make(map[string]ports.NodeDetails),
		rejected: make(map[string]bool),
	}
	for _, id := range s.Critical {
		r.nodes[id] = ports.NodeDetails{Critical: true, Location: "location-" + id}
	}
	for _, id := range s.Reject {
		r.rejected[id] = true
	}
	return r
}

func (r *InlineSystemRepo) GetFailedNodes(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.waves) == 0 {
		return []string{}, nil
	}
	i := min(r.calls, len(r.waves)-1)
	r.calls++
	return append([]string{}, r.waves[i]...), nil
}

func (r *InlineSystemRepo) GetNodeDetails(_ context.Context, nodeID string) (ports.NodeDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.nodes[nodeID]; ok {
		return d, nil
	}
	return ports.NodeDetails{Location: "location-" + nodeID}, nil
}

func (r *InlineSystemRepo) AssignCrew(_ context.Context, nodeID, _ string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.rejected[nodeID], nil
}

// InlineAgentRepo answers the informational tools with fixed values.
type InlineAgentRepo struct {
	crews []string
}

// NewInlineAgentRepo builds the agent repository for a scenario.
func NewInlineAgentRepo(s InlineScenario) *InlineAgentRepo {
	return &InlineAgentRepo{crews: append([]string{}, s.Crews...)}
}

func (r *InlineAgentRepo) GetAvailableCrews(context.Context) ([]string, error) {
	return append([]string{}, r.crews...), nil
}

func (r *InlineAgentRepo) GetWeatherAtLocation(context.Context, string) (float64, error) {
	return 25, nil
}

func (r *InlineAgentRepo) EstimateRepairTime(context.Context, string, string) (int, error) {
	return 60, nil
}

func (r *InlineAgentRepo) EstimateArrivalTime(context.Context, string, string) (int, error) {
	return 30, nil
}

func (r *InlineAgentRepo) GetCrewLocation(_ context.Context, crewID string) (string, error) {
	for _, c := range r.crews {
		if c == crewID {
			return "location1", nil
		}
	}
	return "", fmt.Errorf("unknown crew %q", crewID)
}

func (r *InlineAgentRepo) GetCrewRemainingCapacity(context.Context, string) (int, error) {
	return 10, nil
}

var (
	_ ports.SystemRepository = (*InlineSystemRepo)(nil)
	_ ports.AgentRepository  = (*InlineAgentRepo)(nil)
)
