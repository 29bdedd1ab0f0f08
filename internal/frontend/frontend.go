// Package frontend composes one transceiver frontend (spec §4.6): a
// transceiver driver, the mesh MAC running over it, and a broadcaster that
// fans received frames out to attached listeners. It owns the update
// goroutine that drives the MAC's cooperative tick.
package frontend

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kaonic-radio/kaonic-comm/internal/broadcaster"
	"github.com/kaonic-radio/kaonic-comm/internal/kerr"
	"github.com/kaonic-radio/kaonic-comm/internal/radionet"
	"github.com/kaonic-radio/kaonic-comm/internal/rf215"
	"github.com/kaonic-radio/kaonic-comm/internal/rfnet"
)

// txPollInterval is the polling granularity Transmit uses while waiting for
// the MAC to report is_tx_free (spec §4.6).
const txPollInterval = 50 * time.Millisecond

// Frontend is one radio frontend: a transceiver, the mesh MAC running over
// it, and a broadcaster publishing received frames (spec §4.6).
type Frontend struct {
	Name string

	dev *rf215.Device
	mac *rfnet.MAC
	bus *broadcaster.Broadcaster
	log *log.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a frontend around an already-wired transceiver Device. cfg
// carries the mesh parameters from spec §3; genID supplies the local node
// id (nodeid.Generate in production).
func New(name string, dev *rf215.Device, cfg rfnet.Config, genID rfnet.GenIDFunc, logger *log.Logger) (*Frontend, error) {
	if logger == nil {
		logger = log.Default()
	}
	net := radionet.New(dev)
	bus := broadcaster.New()

	f := &Frontend{
		Name: name,
		dev:  dev,
		bus:  bus,
		log:  logger,
	}

	mac, err := rfnet.New(cfg, rfnet.Callbacks{
		TX:        net.TX,
		RX:        net.RX,
		GenID:     genID,
		OnReceive: func(data []byte) { bus.Publish(data) },
	}, logger)
	if err != nil {
		return nil, err
	}
	f.mac = mac
	return f, nil
}

// Configure programs the transceiver's PHY (spec §4.3/§4.6). The frontend
// may be reconfigured whether or not it is running.
func (f *Frontend) Configure(cfg rf215.RadioConfig) error {
	return f.dev.Configure(cfg)
}

// Transmit blocks until the MAC reports is_tx_free, polling every 50 ms,
// then queues data (spec §4.6). It returns kerr.NotReady if Send itself
// still refuses once polled ready, and respects ctx cancellation while
// waiting.
func (f *Frontend) Transmit(ctx context.Context, data []byte) error {
	ticker := time.NewTicker(txPollInterval)
	defer ticker.Stop()

	for !f.mac.IsTXFree() {
		select {
		case <-ctx.Done():
			return kerr.Wrap(kerr.Timeout, ctx.Err())
		case <-ticker.C:
		}
	}
	return f.mac.Send(data)
}

// AttachListener registers a listener for frames received on this
// frontend's MAC and returns a handle the caller releases to detach
// (spec §4.7).
func (f *Frontend) AttachListener(listener broadcaster.Listener) *broadcaster.Handle {
	return f.bus.Attach(listener)
}

// Start launches the update goroutine. It fails with kerr.PreconditionFailed
// if the frontend is already running (spec §4.6, §8 property 6); a
// start/stop/start sequence always succeeds.
func (f *Frontend) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return kerr.New(kerr.PreconditionFailed)
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	f.running = true

	go f.updateLoop(runCtx, f.done)
	return nil
}

// Stop halts the update goroutine and waits for it to exit. It fails with
// kerr.PreconditionFailed if the frontend is not running (spec §4.6, §8
// property 6).
func (f *Frontend) Stop() error {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return kerr.New(kerr.PreconditionFailed)
	}
	cancel := f.cancel
	done := f.done
	f.running = false
	f.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Running reports whether the update goroutine is active.
func (f *Frontend) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *Frontend) updateLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			f.mac.Update(ctx)
		}
	}
}

// Stats returns the mesh MAC's running counters for this frontend.
func (f *Frontend) Stats() rfnet.Stats {
	return f.mac.StatsSnapshot()
}

// Peers returns the mesh MAC's current peer table snapshot.
func (f *Frontend) Peers() []rfnet.PeerEntry {
	return f.mac.Peers()
}

// Device returns the transceiver this frontend drives, for callers that
// need to observe device state directly (e.g. the last-applied RadioConfig).
func (f *Frontend) Device() *rf215.Device {
	return f.dev
}

