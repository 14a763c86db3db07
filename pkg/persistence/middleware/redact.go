package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/ports"
)

// Mask replaces every redacted value.
const Mask = "***"

type redactMiddleware struct {
	next     ports.ReportStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks history data whose key matches one of the
// patterns, at any depth, before the report reaches the store.
// Use it to keep delegate reasoning or crew locations out of the archive.
func NewRedactionMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.ReportStore) ports.ReportStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, runID string, report *domain.RunReport) error {
	// The live report must stay untouched.
	cloned := *report
	cloned.History = make([]domain.HistoryEntry, len(report.History))
	for i, entry := range report.History {
		data, err := plainData(entry.Data)
		if err != nil {
			return fmt.Errorf("failed to copy history data: %w", err)
		}
		maskMap(data, m.patterns)
		entry.Data = data
		cloned.History[i] = entry
	}
	return m.next.Save(ctx, runID, &cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, runID string) (*domain.RunReport, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// plainData deep-copies data into JSON-shaped values so typed payloads
// (decisions, assignment details) can be walked uniformly.
func plainData(data map[string]any) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if matchesAny(k, patterns) {
			m[k] = Mask
			continue
		}
		maskValue(v, patterns)
	}
}

func maskValue(v any, patterns []*regexp.Regexp) {
	switch t := v.(type) {
	case map[string]any:
		maskMap(t, patterns)
	case []any:
		for _, item := range t {
			maskValue(item, patterns)
		}
	}
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
