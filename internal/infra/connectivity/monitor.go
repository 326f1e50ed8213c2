// Package connectivity detects online/offline transitions by probing an HTTP
// endpoint. The offline queue halts and resumes on these transitions.
package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nutrisync/config"
	"nutrisync/internal/domain/service"

	"go.uber.org/fx"
)

const probeRequestTimeout = 5 * time.Second

type httpMonitor struct {
	probeURL      string
	probeInterval time.Duration
	httpClient    *http.Client
	logger        *slog.Logger

	mu          sync.RWMutex
	online      bool
	subscribers map[int]chan bool
	nextSubID   int

	cancel context.CancelFunc
}

// Params holds dependencies for the connectivity monitor, injected by Fx
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New creates an HTTP-probe connectivity monitor. The service starts in the
// online state and corrects itself on the first probe.
func New(params Params) service.ConnectivityMonitor {
	monitor := &httpMonitor{
		probeURL:      params.Config.Connectivity.ProbeURL,
		probeInterval: params.Config.Connectivity.ProbeInterval,
		httpClient:    &http.Client{Timeout: probeRequestTimeout},
		logger:        params.Logger,
		online:        true,
		subscribers:   make(map[int]chan bool),
	}

	params.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			probeCtx, cancel := context.WithCancel(context.Background())
			monitor.cancel = cancel
			go monitor.run(probeCtx)

			return nil
		},
		OnStop: func(_ context.Context) error {
			if monitor.cancel != nil {
				monitor.cancel()
			}

			return nil
		},
	})

	return monitor
}

// IsOnline reports the last observed connectivity state.
func (m *httpMonitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.online
}

// Subscribe returns a channel that receives the new state on every
// transition, plus a cancel func releasing the subscription.
func (m *httpMonitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++

	ch := make(chan bool, 1)
	m.subscribers[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if sub, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (m *httpMonitor) run(ctx context.Context) {
	// Probe immediately so a cold start offline is noticed before the first
	// tick.
	m.probe(ctx)

	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *httpMonitor) probe(ctx context.Context) {
	if m.probeURL == "" {
		return
	}

	online := false
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err == nil {
		resp, doErr := m.httpClient.Do(req)
		if doErr == nil {
			resp.Body.Close()
			online = resp.StatusCode < 500
		}
	}

	m.setOnline(online)
}

func (m *httpMonitor) setOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online

	if online {
		m.logger.Info("Connectivity restored")
	} else {
		m.logger.Warn("Connectivity lost")
	}

	for _, sub := range m.subscribers {
		// Transitions coalesce: a subscriber that missed offline->online
		// only needs the latest state.
		select {
		case sub <- online:
		default:
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- online:
			default:
			}
		}
	}
}

// Module provides the connectivity FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(New),
)
