package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/ports"
	"github.com/aretw0/mender/pkg/registry"
)

// RainThreshold is the temperature above which a location reports rain.
const RainThreshold = 20.0

// Agent exposes the informational tools the planner may call before
// committing to an assignment. None of them mutate the network.
type Agent struct {
	repo     ports.AgentRepository
	now      func() time.Time
	holidays map[string]bool
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithClock overrides time.Now for the calendar tools.
func WithClock(now func() time.Time) AgentOption {
	return func(a *Agent) { a.now = now }
}

// WithHolidays declares public holidays as "YYYY-MM-DD" dates.
func WithHolidays(dates ...string) AgentOption {
	return func(a *Agent) {
		for _, d := range dates {
			a.holidays[d] = true
		}
	}
}

// NewAgent creates the agent tools.
func NewAgent(repo ports.AgentRepository, opts ...AgentOption) *Agent {
	a := &Agent{repo: repo, now: time.Now, holidays: make(map[string]bool)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Weather is the output of get_weather_at_location.
type Weather struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	IsRaining   bool    `json:"is_raining"`
}

// WeatherAt reports conditions at a location.
func (a *Agent) WeatherAt(ctx context.Context, location string) (Weather, error) {
	temp, err := a.repo.GetWeatherAtLocation(ctx, location)
	if err != nil {
		return Weather{}, fmt.Errorf("weather at %s: %w", location, err)
	}
	return Weather{Location: location, Temperature: temp, IsRaining: temp > RainThreshold}, nil
}

// Calendar is the output of is_holiday_or_weekend.
type Calendar struct {
	Date      string `json:"date"`
	IsWeekend bool   `json:"is_weekend"`
	IsHoliday bool   `json:"is_holiday"`
}

// CalendarFor classifies a "YYYY-MM-DD" date; an empty date means today.
func (a *Agent) CalendarFor(date string) (Calendar, error) {
	day := a.now()
	if date != "" {
		parsed, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return Calendar{}, fmt.Errorf("invalid date %q: %w", date, err)
		}
		day = parsed
	}
	key := day.Format(time.DateOnly)
	wd := day.Weekday()
	return Calendar{
		Date:      key,
		IsWeekend: wd == time.Saturday || wd == time.Sunday,
		IsHoliday: a.holidays[key],
	}, nil
}

// TimeOfDay is the output of get_time_of_day.
type TimeOfDay struct {
	Hour   int    `json:"hour"`
	Period string `json:"period"`
}

// Now reports the current hour and its period of the day.
func (a *Agent) Now() TimeOfDay {
	h := a.now().Hour()
	var period string
	switch {
	case h < 6:
		period = "night"
	case h < 12:
		period = "morning"
	case h < 18:
		period = "afternoon"
	default:
		period = "evening"
	}
	return TimeOfDay{Hour: h, Period: period}
}

// Estimate is the output of the repair and arrival estimators, in minutes.
type Estimate struct {
	NodeID  string `json:"node_id"`
	CrewID  string `json:"crew_id"`
	Minutes int    `json:"minutes"`
}

// CrewLocation is the output of get_crew_location.
type CrewLocation struct {
	CrewID   string `json:"crew_id"`
	Location string `json:"location"`
}

// CrewCapacity is the output of get_crew_remaining_capacity.
type CrewCapacity struct {
	CrewID   string `json:"crew_id"`
	Capacity int    `json:"remaining_capacity"`
}

type locationArgs struct {
	Location string `mapstructure:"location"`
}

type dateArgs struct {
	Date string `mapstructure:"date"`
}

type pairArgs struct {
	NodeID string `mapstructure:"node_id"`
	CrewID string `mapstructure:"crew_id"`
}

type crewArgs struct {
	CrewID string `mapstructure:"crew_id"`
}

// AgentTools is the static declaration table for the informational tools.
var AgentTools = []domain.Tool{
	{
		Name:        "get_weather_at_location",
		Description: "Returns temperature and whether it is raining at a location.",
		Parameters:  []domain.Param{{Name: "location", Type: "str", Required: true}},
	},
	{
		Name:        "is_holiday_or_weekend",
		Description: "Tells whether a date (YYYY-MM-DD, default today) is a weekend or a public holiday.",
		Parameters:  []domain.Param{{Name: "date", Type: "str"}},
	},
	{
		Name:        "get_time_of_day",
		Description: "Returns the current hour and period (night, morning, afternoon, evening).",
	},
	{
		Name:        "estimate_repair_time",
		Description: "Estimated minutes for a crew to repair a node.",
		Parameters: []domain.Param{
			{Name: "node_id", Type: "str", Required: true},
			{Name: "crew_id", Type: "str", Required: true},
		},
	},
	{
		Name:        "estimate_arrival_time",
		Description: "Estimated minutes for a crew to reach a node.",
		Parameters: []domain.Param{
			{Name: "node_id", Type: "str", Required: true},
			{Name: "crew_id", Type: "str", Required: true},
		},
	},
	{
		Name:        "get_crew_location",
		Description: "Returns where a crew currently is.",
		Parameters:  []domain.Param{{Name: "crew_id", Type: "str", Required: true}},
	},
	{
		Name:        "get_available_crews",
		Description: "Lists the ids of crews free to be dispatched.",
	},
	{
		Name:        "get_crew_remaining_capacity",
		Description: "Returns how many more jobs a crew can take today.",
		Parameters:  []domain.Param{{Name: "crew_id", Type: "str", Required: true}},
	},
}

// Register installs the informational tools into a registry.
func (a *Agent) Register(r *registry.Registry) {
	fns := map[string]registry.ToolFunction{
		"get_weather_at_location": func(ctx context.Context, args map[string]any) (any, error) {
			var in locationArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			if err := requireString("location", in.Location); err != nil {
				return nil, err
			}
			return a.WeatherAt(ctx, in.Location)
		},
		"is_holiday_or_weekend": func(_ context.Context, args map[string]any) (any, error) {
			var in dateArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			return a.CalendarFor(in.Date)
		},
		"get_time_of_day": func(context.Context, map[string]any) (any, error) {
			return a.Now(), nil
		},
		"estimate_repair_time":  a.estimator("repair", a.repo.EstimateRepairTime),
		"estimate_arrival_time": a.estimator("arrival", a.repo.EstimateArrivalTime),
		"get_crew_location": func(ctx context.Context, args map[string]any) (any, error) {
			var in crewArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			if err := requireString("crew_id", in.CrewID); err != nil {
				return nil, err
			}
			loc, err := a.repo.GetCrewLocation(ctx, in.CrewID)
			if err != nil {
				return nil, fmt.Errorf("locate crew %s: %w", in.CrewID, err)
			}
			return CrewLocation{CrewID: in.CrewID, Location: loc}, nil
		},
		"get_available_crews": func(ctx context.Context, _ map[string]any) (any, error) {
			crews, err := a.repo.GetAvailableCrews(ctx)
			if err != nil {
				return nil, fmt.Errorf("available crews: %w", err)
			}
			if crews == nil {
				crews = []string{}
			}
			return map[string]any{"crews": crews}, nil
		},
		"get_crew_remaining_capacity": func(ctx context.Context, args map[string]any) (any, error) {
			var in crewArgs
			if err := decodeArgs(args, &in); err != nil {
				return nil, err
			}
			if err := requireString("crew_id", in.CrewID); err != nil {
				return nil, err
			}
			c, err := a.repo.GetCrewRemainingCapacity(ctx, in.CrewID)
			if err != nil {
				return nil, fmt.Errorf("crew capacity %s: %w", in.CrewID, err)
			}
			return CrewCapacity{CrewID: in.CrewID, Capacity: c}, nil
		},
	}
	for _, t := range AgentTools {
		r.Register(t, fns[t.Name])
	}
}

func (a *Agent) estimator(kind string, fn func(ctx context.Context, nodeID, crewID string) (int, error)) registry.ToolFunction {
	return func(ctx context.Context, args map[string]any) (any, error) {
		var in pairArgs
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		if err := requireString("node_id", in.NodeID); err != nil {
			return nil, err
		}
		if err := requireString("crew_id", in.CrewID); err != nil {
			return nil, err
		}
		m, err := fn(ctx, in.NodeID, in.CrewID)
		if err != nil {
			return nil, fmt.Errorf("estimate %s time: %w", kind, err)
		}
		return Estimate{NodeID: in.NodeID, CrewID: in.CrewID, Minutes: m}, nil
	}
}
