package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const checkTimeout = 3 * time.Second

// Check probes one backend; a nil error means it is reachable.
type Check func(ctx context.Context) error

type probe struct {
	name  string
	check Check
}

// Monitor periodically probes the configured store backends and keeps the
// latest result for the health endpoint.
type Monitor struct {
	interval time.Duration
	logger   *zap.Logger
	cron     *cron.Cron

	probes []probe

	mu     sync.RWMutex
	status Status
}

func New(interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		interval: interval,
		logger:   logger,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
		),
		status: Status{Healthy: true, Services: map[string]ServiceStatus{}},
	}
}

// Add registers a backend probe. It must be called before Start.
func (m *Monitor) Add(name string, check Check) {
	if check == nil {
		return
	}
	m.probes = append(m.probes, probe{name: name, check: check})
}

// Start runs the probes once and then on every interval.
func (m *Monitor) Start() error {
	m.Refresh(context.Background())

	schedule := fmt.Sprintf("@every %ds", max(1, int(m.interval.Seconds())))
	if _, err := m.cron.AddFunc(schedule, func() { m.Refresh(context.Background()) }); err != nil {
		return fmt.Errorf("schedule health checks: %w", err)
	}
	m.cron.Start()
	m.logger.Info("health monitor started", zap.Duration("interval", m.interval), zap.Int("probes", len(m.probes)))
	return nil
}

// Stop waits for a running refresh to finish or for ctx to expire.
func (m *Monitor) Stop(ctx context.Context) error {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.clone()
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy
}

// Refresh probes every backend now.
func (m *Monitor) Refresh(ctx context.Context) {
	next := Status{
		Healthy:   true,
		Services:  make(map[string]ServiceStatus, len(m.probes)),
		LastCheck: time.Now().UTC(),
	}
	for _, p := range m.probes {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := p.check(checkCtx)
		cancel()

		svc := ServiceStatus{Online: err == nil}
		if err != nil {
			svc.Error = err.Error()
			next.Healthy = false
			m.logger.Warn("backend check failed", zap.String("service", p.name), zap.Error(err))
		}
		next.Services[p.name] = svc
	}

	m.mu.Lock()
	m.status = next
	m.mu.Unlock()
}

// cronLogger routes scheduler messages to zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
