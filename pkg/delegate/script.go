package delegate

import (
	"context"
	"sync"

	"github.com/aretw0/mender/pkg/domain"
)

// Script is a fixed-script delegate.
// It answers with the scripted responses in order and keeps repeating the
// last one once the script is exhausted. An empty script answers "".
// Safe for concurrent use.
type Script struct {
	mu        sync.Mutex
	responses []any
	next      int
	requests  []domain.DecisionRequest
}

// NewScript creates a scripted delegate. Responses may be raw JSON strings,
// domain.Decision values or maps.
func NewScript(responses ...any) *Script {
	return &Script{responses: responses}
}

// NewTextScript is NewScript for plain strings, e.g. loaded from configuration.
func NewTextScript(responses []string) *Script {
	items := make([]any, len(responses))
	for i, r := range responses {
		items[i] = r
	}
	return NewScript(items...)
}

// Decide returns the next scripted response.
func (s *Script) Decide(ctx context.Context, req domain.DecisionRequest) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return "", nil
	}

	idx := s.next
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.next++
	return s.responses[idx], nil
}

// Requests returns every request received so far.
func (s *Script) Requests() []domain.DecisionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DecisionRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls returns how many decisions were requested.
func (s *Script) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
