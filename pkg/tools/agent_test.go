package tools_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/mender/pkg/registry"
	"github.com/aretw0/mender/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgentRegistry(opts ...tools.AgentOption) *registry.Registry {
	r := registry.NewRegistry()
	tools.NewAgent(tools.NewInlineAgentRepo(tools.DefaultScenario()), opts...).Register(r)
	return r
}

func TestAgent_Register(t *testing.T) {
	r := newAgentRegistry()
	require.Equal(t, len(tools.AgentTools), r.Len())
	assert.Contains(t, r.Describe(), "get_weather_at_location(location: str) - ")
	assert.Contains(t, r.Describe(), "is_holiday_or_weekend(date: str = None) - ")
}

func TestAgent_Tools(t *testing.T) {
	saturday := time.Date(2024, 12, 21, 14, 30, 0, 0, time.UTC)
	r := newAgentRegistry(tools.WithClock(func() time.Time { return saturday }), tools.WithHolidays("2024-12-25"))
	ctx := context.Background()

	tests := []struct {
		name string
		tool string
		args map[string]any
		want any
	}{
		{"Weather Above Threshold", "get_weather_at_location", map[string]any{"location": "north"},
			tools.Weather{Location: "north", Temperature: 25, IsRaining: true}},
		{"Calendar Defaults To Today", "is_holiday_or_weekend", map[string]any{},
			tools.Calendar{Date: "2024-12-21", IsWeekend: true}},
		{"Calendar Holiday", "is_holiday_or_weekend", map[string]any{"date": "2024-12-25"},
			tools.Calendar{Date: "2024-12-25", IsHoliday: true}},
		{"Time Of Day", "get_time_of_day", nil,
			tools.TimeOfDay{Hour: 14, Period: "afternoon"}},
		{"Repair Estimate", "estimate_repair_time", map[string]any{"node_id": "n1", "crew_id": "crew1"},
			tools.Estimate{NodeID: "n1", CrewID: "crew1", Minutes: 60}},
		{"Arrival Estimate", "estimate_arrival_time", map[string]any{"node_id": "n1", "crew_id": "crew1"},
			tools.Estimate{NodeID: "n1", CrewID: "crew1", Minutes: 30}},
		{"Crew Location", "get_crew_location", map[string]any{"crew_id": "crew2"},
			tools.CrewLocation{CrewID: "crew2", Location: "location1"}},
		{"Available Crews", "get_available_crews", nil,
			map[string]any{"crews": []string{"crew1", "crew2"}}},
		{"Crew Capacity", "get_crew_remaining_capacity", map[string]any{"crew_id": "crew1"},
			tools.CrewCapacity{CrewID: "crew1", Capacity: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Execute(ctx, tt.tool, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAgent_ArgumentErrors(t *testing.T) {
	r := newAgentRegistry()
	ctx := context.Background()

	t.Run("Missing Required", func(t *testing.T) {
		_, err := r.Execute(ctx, "estimate_repair_time", map[string]any{"node_id": "n1"})
		assert.ErrorContains(t, err, "crew_id")
	})

	t.Run("Bad Date", func(t *testing.T) {
		_, err := r.Execute(ctx, "is_holiday_or_weekend", map[string]any{"date": "tomorrow"})
		assert.ErrorContains(t, err, "invalid date")
	})

	t.Run("Unknown Crew", func(t *testing.T) {
		_, err := r.Execute(ctx, "get_crew_location", map[string]any{"crew_id": "ghost"})
		assert.Error(t, err)
	})
}

func TestTimeOfDayPeriods(t *testing.T) {
	for hour, want := range map[int]string{0: "night", 5: "night", 6: "morning", 12: "afternoon", 18: "evening", 23: "evening"} {
		at := time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC)
		a := tools.NewAgent(tools.NewInlineAgentRepo(tools.DefaultScenario()), tools.WithClock(func() time.Time { return at }))
		assert.Equal(t, want, a.Now().Period, "hour %d", hour)
	}
}
