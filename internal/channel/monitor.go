package channel

import (
	"context"
	"sync"
	"time"

	"github.com/luminadesk/backend/internal/metrics"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// DefaultTestTimeout bounds a single connection test
const DefaultTestTimeout = 10 * time.Second

// StatusStore persists the monitor-owned fields of a channel config.
// Implementations must only touch status, errorMessage, lastErrorTime
// and lastSync; credentials belong to the admin CRUD layer.
type StatusStore interface {
	UpdateChannelStatus(ctx context.Context, id string, status types.ChannelStatus, errorMessage string, lastErrorTime, lastSync *time.Time) error
}

// StatusPublisher receives channel status transitions for live admin
// dashboards. Calls are fire-and-forget.
type StatusPublisher interface {
	PublishChannelStatus(id string, channelType types.ChannelType, status types.ChannelStatus, errorMessage string)
}

// Monitor runs connection tests and persists the resulting status.
// Tests against different channels run concurrently; tests against the
// same channel id are serialized so partial status writes never
// interleave.
type Monitor struct {
	store     StatusStore
	publisher StatusPublisher
	testers   map[types.ChannelType]Tester
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*sync.Mutex
}

// NewMonitor creates a channel health monitor. store and publisher may
// be nil when persistence or the status feed are not wired.
func NewMonitor(store StatusStore, publisher StatusPublisher, timeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Monitor {
	if timeout <= 0 || timeout > DefaultTestTimeout {
		timeout = DefaultTestTimeout
	}
	return &Monitor{
		store:     store,
		publisher: publisher,
		testers: map[types.ChannelType]Tester{
			types.ChannelEmail:    smtpTester{timeout: timeout},
			types.ChannelSMS:      staticTester{},
			types.ChannelWhatsApp: staticTester{},
			types.ChannelTwitter:  staticTester{},
			types.ChannelFacebook: staticTester{},
		},
		timeout:  timeout,
		metrics:  m,
		logger:   logger,
		inflight: make(map[string]*sync.Mutex),
	}
}

// HealthStatus derives the pure health classification for a config
func (m *Monitor) HealthStatus(cfg types.ChannelConfig) types.ChannelStatus {
	return HealthStatus(cfg, time.Now())
}

// TestConnection runs the type-appropriate connection test and, when
// the config carries an id, persists status, error message and lastSync
// onto it. It never returns a Go error; every failure mode resolves to
// a TestResult.
func (m *Monitor) TestConnection(ctx context.Context, cfg types.ChannelConfig) TestResult {
	if cfg.ID != "" {
		lock := m.channelLock(cfg.ID)
		lock.Lock()
		defer lock.Unlock()
	}

	tester, ok := m.testers[cfg.Type]
	if !ok {
		result := TestResult{Error: "unsupported channel type: " + string(cfg.Type)}
		m.persistResult(ctx, cfg, result)
		return result
	}

	m.setConnecting(ctx, cfg)

	testCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	result := m.runTest(testCtx, tester, cfg)
	m.metrics.RecordChannelTest(result.Success)
	m.persistResult(ctx, cfg, result)

	m.logger.Info().
		Str("channel_id", cfg.ID).
		Str("type", string(cfg.Type)).
		Bool("success", result.Success).
		Msg("channel connection test finished")

	return result
}

// runTest isolates tester panics; the public contract is that a test
// always resolves to a result.
func (m *Monitor) runTest(ctx context.Context, tester Tester, cfg types.ChannelConfig) (result TestResult) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Str("channel_id", cfg.ID).
				Interface("panic", r).
				Msg("channel tester panicked")
			result = TestResult{Error: "Connection test failed unexpectedly"}
		}
	}()
	return tester.Test(ctx, cfg)
}

func (m *Monitor) setConnecting(ctx context.Context, cfg types.ChannelConfig) {
	if m.store == nil || cfg.ID == "" {
		return
	}
	if err := m.store.UpdateChannelStatus(ctx, cfg.ID, types.ChannelConnecting, "", nil, cfg.LastSync); err != nil {
		m.logger.Warn().Err(err).Str("channel_id", cfg.ID).Msg("failed to persist connecting status")
	}
	m.publish(cfg, types.ChannelConnecting, "")
}

func (m *Monitor) persistResult(ctx context.Context, cfg types.ChannelConfig, result TestResult) {
	status := types.ChannelError
	var errTime, lastSync *time.Time
	now := time.Now()
	if result.Success {
		status = types.ChannelConnected
		lastSync = &now
	} else {
		errTime = &now
		lastSync = cfg.LastSync
	}

	if m.store != nil && cfg.ID != "" {
		if err := m.store.UpdateChannelStatus(ctx, cfg.ID, status, result.Error, errTime, lastSync); err != nil {
			m.logger.Warn().Err(err).Str("channel_id", cfg.ID).Msg("failed to persist test result")
		}
	}
	m.publish(cfg, status, result.Error)
}

func (m *Monitor) publish(cfg types.ChannelConfig, status types.ChannelStatus, errorMessage string) {
	if m.publisher == nil || cfg.ID == "" {
		return
	}
	m.publisher.PublishChannelStatus(cfg.ID, cfg.Type, status, errorMessage)
}

func (m *Monitor) channelLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.inflight[id]
	if !ok {
		lock = &sync.Mutex{}
		m.inflight[id] = lock
	}
	return lock
}
