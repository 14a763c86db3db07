package runtime

import (
	"sync"

	"github.com/aretw0/mender/pkg/domain"
)

// Recorder is the append-only transition trace of one run.
type Recorder struct {
	mu      sync.RWMutex
	records []domain.TransitionRecord
}

// NewRecorder returns an empty trace.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append adds a record at the end of the trace.
func (r *Recorder) Append(rec domain.TransitionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Records returns a copy of the trace in insertion order.
func (r *Recorder) Records() []domain.TransitionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.TransitionRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Last returns the newest record; ok is false while the trace is empty.
func (r *Recorder) Last() (rec domain.TransitionRecord, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.records) == 0 {
		return domain.TransitionRecord{}, false
	}
	return r.records[len(r.records)-1], true
}
