// Package status takes the one-shot readiness reading that gates the rest
// of the client.
package status

import (
	"context"
	"sync"

	"github.com/priyanshu2307/Newschat/internal/client"
	"github.com/priyanshu2307/Newschat/internal/logging"
	"github.com/priyanshu2307/Newschat/internal/models"
	"github.com/priyanshu2307/Newschat/internal/retry"
	"go.uber.org/zap"
)

// Prober reads the service's self-reported status.
type Prober interface {
	ProbeStatus(ctx context.Context) (models.StatusReport, error)
}

// Opts holds optional Monitor parameters.
type Opts struct {
	Retry  retry.Policy // defaults to a single attempt
	Logger *zap.Logger
}

// Monitor probes the service at most once. The reading is terminal: an
// offline result is not re-polled.
type Monitor struct {
	prober Prober
	retry  retry.Policy
	logger *zap.Logger

	once   sync.Once
	mu     sync.RWMutex
	result models.SystemStatus
	done   bool
}

// NewMonitor creates a Monitor for prober.
func NewMonitor(prober Prober, opts Opts) *Monitor {
	p := opts.Retry
	if p.MaxAttempts == 0 {
		p = retry.Once
	}
	return &Monitor{
		prober: prober,
		retry:  p,
		logger: logging.OrNop(opts.Logger).Named("status"),
	}
}

// Check runs the probe on first call and returns the cached reading after
// that. Any probe failure reads as offline.
func (m *Monitor) Check(ctx context.Context) models.SystemStatus {
	m.once.Do(func() {
		reading := m.probe(ctx)
		m.mu.Lock()
		m.result, m.done = reading, true
		m.mu.Unlock()
	})
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result
}

// Result returns the reading and whether Check has completed.
func (m *Monitor) Result() (models.SystemStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result, m.done
}

func (m *Monitor) probe(ctx context.Context) models.SystemStatus {
	report, err := retry.Value(ctx, m.retry, client.OpProbeStatus, m.prober.ProbeStatus)
	if err != nil {
		m.logger.Warn("status probe failed",
			zap.Stringer("kind", client.KindOf(err)), zap.Error(err))
		return models.Offline
	}
	if !report.Online() {
		m.logger.Warn("service not online",
			zap.String("status", report.Status), zap.String("message", report.Message))
		return models.Offline
	}
	m.logger.Info("service online", zap.Int("articles", report.ArticlesCount))
	return models.SystemStatus{Ready: true, ArticleCount: report.ArticlesCount}
}
