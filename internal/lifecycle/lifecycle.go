package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StopFunc releases one component.
type StopFunc func(ctx context.Context) error

type component struct {
	name string
	stop StopFunc
}

// Manager stops registered components in reverse registration order once the
// process is asked to terminate.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	components []component
	stopped    bool
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{timeout: timeout, logger: logger}
}

// Register adds a component; the last one registered is stopped first.
func (m *Manager) Register(name string, stop StopFunc) {
	if stop == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, stop: stop})
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func (m *Manager) SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Wait blocks until ctx is done or fatal reports an error, then stops every
// component. The returned error joins the fatal error and stop failures.
func (m *Manager) Wait(ctx context.Context, fatal <-chan error) error {
	var cause error
	select {
	case <-ctx.Done():
		m.logger.Info("shutdown requested")
	case err := <-fatal:
		cause = err
		m.logger.Error("component failed, shutting down", zap.Error(err))
	}
	return errors.Join(cause, m.Shutdown(context.Background()))
}

// Shutdown stops every component within the configured timeout. Calling it
// again is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil
	}
	m.stopped = true

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var errs []error
	for i := len(m.components) - 1; i >= 0; i-- {
		c := m.components[i]
		started := time.Now()
		if err := c.stop(ctx); err != nil {
			m.logger.Error("component stop failed", zap.String("component", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		m.logger.Info("component stopped", zap.String("component", c.name), zap.Duration("took", time.Since(started)))
	}
	return errors.Join(errs...)
}
