package healthcheck

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Status is the last observed state of one dependency.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

// Monitor polls registered dependencies on an interval and caches the
// results, so the health endpoint answers from memory instead of probing
// redis and postgres on every request.
type Monitor struct {
	mu       sync.RWMutex
	checks   map[string]CheckFunc
	statuses map[string]*Status
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

func NewMonitor(interval time.Duration, log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{
		checks:   make(map[string]CheckFunc),
		statuses: make(map[string]*Status),
		interval: interval,
		timeout:  5 * time.Second,
		log:      log,
	}
}

// Register adds a dependency. Dependencies start out healthy until the
// first poll says otherwise.
func (m *Monitor) Register(name string, check CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checks[name] = check
	m.statuses[name] = &Status{Name: name, Healthy: true, LastCheck: time.Now()}
}

// Run polls until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) {
	m.poll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	m.mu.RLock()
	checks := make(map[string]CheckFunc, len(m.checks))
	for name, check := range m.checks {
		checks[name] = check
	}
	m.mu.RUnlock()

	for name, check := range checks {
		probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := check(probeCtx)
		cancel()

		m.mu.Lock()
		status := m.statuses[name]
		wasHealthy := status.Healthy
		status.Healthy = err == nil
		status.LastCheck = time.Now()
		if err != nil {
			status.Error = err.Error()
		} else {
			status.Error = ""
		}
		m.mu.Unlock()

		if wasHealthy && err != nil {
			m.log.Warn("dependency unhealthy", zap.String("name", name), zap.Error(err))
		} else if !wasHealthy && err == nil {
			m.log.Info("dependency recovered", zap.String("name", name))
		}
	}
}

// Snapshot returns the cached statuses and whether all are healthy.
func (m *Monitor) Snapshot() ([]Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := true
	out := make([]Status, 0, len(m.statuses))
	for _, s := range m.statuses {
		out = append(out, *s)
		if !s.Healthy {
			all = false
		}
	}
	return out, all
}
