// Package netstate tracks whether the remote service is reachable and
// publishes offline/online transitions to subscribers.
//
// The signal is only as good as the probe: a reachable-but-broken server or
// a flaky link shows up as state flapping. No debouncing is done on top of
// what the probe reports.
package netstate

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophsync/internal/logging"
)

// Prober is the platform connectivity primitive.
type Prober interface {
	Ping(ctx context.Context) error
}

// Transition is emitted whenever the online state flips.
type Transition struct {
	Online bool
	At     time.Time
}

const subscriberBuffer = 8

// DefaultInterval replaces a non-positive probe interval.
const DefaultInterval = 3 * time.Second

type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	online bool
	subs   map[int]chan Transition
	nextID int
}

// NewMonitor returns an offline Monitor that pings prober every interval,
// each ping bounded by timeout.
func NewMonitor(prober Prober, interval, timeout time.Duration, logger logging.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("module", "netstate"),
		subs:     make(map[int]chan Transition),
	}
}

// Online reports the last observed state. A new Monitor starts offline.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records the state pushed by the host platform or a probe, and
// notifies subscribers if it changed.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online
	if online {
		m.logger.Info(context.Background(), "connection restored")
	} else {
		m.logger.Warn(context.Background(), "connection lost")
	}

	tr := Transition{Online: online, At: time.Now()}
	for id, ch := range m.subs {
		select {
		case ch <- tr:
			continue
		default:
		}
		// Full buffer: drop the oldest so the latest state always arrives.
		// Sends only happen under m.mu, so the freed slot stays free.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- tr:
		default:
		}
		m.logger.Debug(context.Background(), "subscriber lagging, oldest transition dropped", "subscriber", id)
	}
}

// Subscribe returns a channel of transitions and a func that unsubscribes
// and closes the channel. Calling the func more than once is safe.
func (m *Monitor) Subscribe() (<-chan Transition, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan Transition, subscriberBuffer)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}

// Probe pings the remote once and records the result.
func (m *Monitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.prober.Ping(ctx)
	if err != nil {
		m.logger.Debug(ctx, "probe failed", "error", err)
	}
	m.Set(err == nil)
	return err == nil
}

// Run probes immediately and then on every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
