package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/mender/internal/logging"
	"github.com/aretw0/mender/pkg/domain"
	"github.com/aretw0/mender/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Factory builds a fresh orchestrator labelled with the given run ID.
type Factory func(runID string) ports.Orchestrator

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns live orchestration runs and serializes access to each one.
// It uses reference counting to garbage collect unused locks.
//
// A run that reaches FINAL is archived and dropped from memory; later reads
// are served from the archive. Without an archive, finished runs stay live
// until deleted.
type Manager struct {
	reports ports.ReportStore

	mu     sync.Mutex            // guards locks
	locks  map[string]*lockEntry // active per-run locks
	runsMu sync.RWMutex          // guards runs
	runs   map[string]ports.Orchestrator

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator replaces uuid-based run IDs.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a run manager. Finished runs are archived to reports;
// a nil store disables archiving.
func NewManager(reports ports.ReportStore, opts ...Option) *Manager {
	m := &Manager{
		reports: reports,
		locks:   make(map[string]*lockEntry),
		runs:    make(map[string]ports.Orchestrator),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(runID) after unlocking.
func (m *Manager) acquire(runID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		entry = &lockEntry{}
		m.locks[runID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, runID)
	}
}

// Start registers a new run built by factory and returns its ID.
func (m *Manager) Start(ctx context.Context, factory Factory) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := m.newID()
	orch := factory(id)
	if orch == nil {
		return "", errors.New("factory returned no orchestrator")
	}

	m.runsMu.Lock()
	defer m.runsMu.Unlock()
	if _, exists := m.runs[id]; exists {
		return "", fmt.Errorf("run %s already exists", id)
	}
	m.runs[id] = orch
	m.logger.Info("run started", "run_id", id)
	return id, nil
}

// Step advances a run by one step. Stepping an archived run returns its
// final summary and domain.ErrTerminated.
func (m *Manager) Step(ctx context.Context, runID string) (domain.Summary, error) {
	var summary domain.Summary
	err := m.WithLock(ctx, runID, func(ctx context.Context, orch ports.Orchestrator) error {
		stepErr := orch.Step(ctx)
		summary = orch.Summary()
		m.archiveIfDone(ctx, runID, orch)
		return stepErr
	})
	if errors.Is(err, domain.ErrRunNotFound) {
		if summary, archErr := m.archivedSummary(ctx, runID); archErr == nil {
			return summary, fmt.Errorf("%w: %s", domain.ErrTerminated, runID)
		}
	}
	return summary, err
}

// Run drives a run until FINAL or the orchestrator's step budget.
// Running an archived run returns its final summary.
func (m *Manager) Run(ctx context.Context, runID string) (domain.Summary, error) {
	var summary domain.Summary
	err := m.WithLock(ctx, runID, func(ctx context.Context, orch ports.Orchestrator) error {
		var runErr error
		summary, runErr = orch.Run(ctx)
		m.archiveIfDone(ctx, runID, orch)
		return runErr
	})
	if errors.Is(err, domain.ErrRunNotFound) {
		if summary, archErr := m.archivedSummary(ctx, runID); archErr == nil {
			return summary, nil
		}
	}
	return summary, err
}

// Summary returns the current summary of a run, live or archived.
func (m *Manager) Summary(ctx context.Context, runID string) (domain.Summary, error) {
	var summary domain.Summary
	err := m.WithLock(ctx, runID, func(_ context.Context, orch ports.Orchestrator) error {
		summary = orch.Summary()
		return nil
	})
	if errors.Is(err, domain.ErrRunNotFound) {
		return m.archivedSummary(ctx, runID)
	}
	return summary, err
}

// History returns the exported transition trace of a run, live or archived.
func (m *Manager) History(ctx context.Context, runID string) ([]domain.HistoryEntry, error) {
	report, err := m.Report(ctx, runID)
	if err != nil {
		return nil, err
	}
	return report.History, nil
}

// Report returns the report of a live run, falling back to the archive.
func (m *Manager) Report(ctx context.Context, runID string) (*domain.RunReport, error) {
	var report *domain.RunReport
	err := m.WithLock(ctx, runID, func(_ context.Context, orch ports.Orchestrator) error {
		report = orch.Report()
		return nil
	})
	if errors.Is(err, domain.ErrRunNotFound) && m.reports != nil {
		return m.reports.Load(ctx, runID)
	}
	return report, err
}

// Delete forgets a run, live or archived, together with its archived report.
func (m *Manager) Delete(ctx context.Context, runID string) error {
	entry := m.acquire(runID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(runID)
	}()

	m.runsMu.Lock()
	_, live := m.runs[runID]
	delete(m.runs, runID)
	m.runsMu.Unlock()

	if m.reports == nil {
		if !live {
			return fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
		}
		return nil
	}
	if !live {
		if _, err := m.reports.Load(ctx, runID); err != nil {
			if errors.Is(err, domain.ErrReportNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
			}
			return fmt.Errorf("failed to look up report: %w", err)
		}
	}
	if err := m.reports.Delete(ctx, runID); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// List returns the IDs of live runs, sorted.
func (m *Manager) List() []string {
	m.runsMu.RLock()
	defer m.runsMu.RUnlock()
	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reports returns the archive, which may be nil.
func (m *Manager) Reports() ports.ReportStore {
	return m.reports
}

// WithLock executes fn while holding the lock for the run.
// Archived runs are not live and yield domain.ErrRunNotFound.
func (m *Manager) WithLock(ctx context.Context, runID string, fn func(context.Context, ports.Orchestrator) error) error {
	entry := m.acquire(runID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(runID)
	}()

	m.runsMu.RLock()
	orch, ok := m.runs[runID]
	m.runsMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, runID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"run_id", runID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx, orch)
}

// archiveIfDone saves the report of a finished run and drops it from memory.
// Archive failures are logged; they never fail the step that finished the
// run, and the run stays live so the next call retries the save.
// The caller holds the run lock.
func (m *Manager) archiveIfDone(ctx context.Context, runID string, orch ports.Orchestrator) {
	if m.reports == nil || !orch.State().Terminal() {
		return
	}
	if err := m.reports.Save(context.WithoutCancel(ctx), runID, orch.Report()); err != nil {
		m.logger.Error("failed to archive run report", "run_id", runID, "err", err)
		return
	}
	m.runsMu.Lock()
	delete(m.runs, runID)
	m.runsMu.Unlock()
	m.logger.Info("run archived", "run_id", runID)
}

func (m *Manager) archivedSummary(ctx context.Context, runID string) (domain.Summary, error) {
	if m.reports == nil {
		return domain.Summary{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	report, err := m.reports.Load(ctx, runID)
	if errors.Is(err, domain.ErrReportNotFound) {
		return domain.Summary{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, runID)
	}
	if err != nil {
		return domain.Summary{}, err
	}
	return report.Summary, nil
}
