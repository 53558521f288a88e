package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

const (
	energyLogEvery = 30
	noDataLogEvery = 60
)

// EnergyLoop computes an EnergySnapshot once per frame from a SampleSource
// and publishes it as an EnergyUpdatedEvent.
//
// The loop only runs while the host is visible: hiding cancels the pending
// frame and showing requests a new one.
type EnergyLoop struct {
	// Dependencies (injected)
	logger     *slog.Logger
	source     SampleSource
	scheduler  ports.FrameScheduler
	visibility ports.Visibility
	bus        ports.EventBus
	clock      func() time.Time

	mu       sync.Mutex
	running  bool
	gen      uint64 // bumped on Stop so stale frames are ignored
	frame    ports.FrameID
	pending  bool
	last     time.Time
	smoothed float64
	ticks    int
	latest   domain.EnergySnapshot
	spectrum []byte
}

// NewEnergyLoop creates a stopped loop. visibility may be nil for hosts that
// are always visible.
func NewEnergyLoop(
	logger *slog.Logger,
	source SampleSource,
	scheduler ports.FrameScheduler,
	visibility ports.Visibility,
	bus ports.EventBus,
) *EnergyLoop {
	return &EnergyLoop{
		logger:     logger.With(slog.String("component", "energy")),
		source:     source,
		scheduler:  scheduler,
		visibility: visibility,
		bus:        bus,
		clock:      time.Now,
	}
}

// Start begins the loop and returns a function that stops it.
// Starting a running loop logs a warning and returns a no-op stop.
func (l *EnergyLoop) Start() (stop func()) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		l.logger.Warn("energy loop already running")
		return func() {}
	}
	l.running = true
	l.smoothed = 0
	l.ticks = 0
	l.last = l.clock()
	gen := l.gen
	if !l.hidden() {
		l.requestLocked(gen)
	}
	l.mu.Unlock()

	removeVis := func() {}
	if l.visibility != nil {
		removeVis = l.visibility.OnVisibilityChange(func() { l.onVisibilityChange(gen) })
	}
	l.logger.Debug("energy loop started")

	var once sync.Once
	return func() {
		once.Do(func() {
			removeVis()
			l.stop(gen)
		})
	}
}

func (l *EnergyLoop) stop(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running || l.gen != gen {
		return
	}
	l.running = false
	l.gen++
	if l.pending {
		l.scheduler.CancelFrame(l.frame)
		l.pending = false
	}
	l.logger.Debug("energy loop stopped")
}

// Latest returns the most recently published snapshot.
func (l *EnergyLoop) Latest() domain.EnergySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest
}

// Spectrum returns a copy of the byte spectrum behind the latest snapshot.
func (l *EnergyLoop) Spectrum() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.spectrum...)
}

// Running reports whether the loop is started.
func (l *EnergyLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *EnergyLoop) hidden() bool {
	return l.visibility != nil && l.visibility.Hidden()
}

// requestLocked schedules the next tick unless one is pending. Caller holds l.mu.
func (l *EnergyLoop) requestLocked(gen uint64) {
	if l.pending {
		return
	}
	l.pending = true
	l.frame = l.scheduler.RequestFrame(func(now time.Time) { l.tick(gen, now) })
}

func (l *EnergyLoop) onVisibilityChange(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running || l.gen != gen {
		return
	}
	if l.hidden() {
		if l.pending {
			l.scheduler.CancelFrame(l.frame)
			l.pending = false
		}
		l.logger.Debug("energy loop suspended")
		return
	}
	l.requestLocked(gen)
}

func (l *EnergyLoop) tick(gen uint64, now time.Time) {
	l.mu.Lock()
	if !l.running || l.gen != gen {
		l.mu.Unlock()
		return
	}
	l.pending = false
	dt := max(MinFrameDelta, now.Sub(l.last))
	l.last = now
	l.mu.Unlock()

	freq := l.source.FrequencyData()
	td := l.source.TimeDomainData()

	l.mu.Lock()
	if !l.running || l.gen != gen {
		l.mu.Unlock()
		return
	}
	l.ticks++
	var (
		snap    domain.EnergySnapshot
		publish bool
	)
	if freq != nil && td != nil {
		snap = ComputeEnergy(freq, td, l.smoothed, dt)
		l.smoothed = snap.Energy
		l.latest = snap
		l.spectrum = append(l.spectrum[:0], freq...)
		publish = true
		if l.ticks%energyLogEvery == 0 {
			l.logger.Debug("energy update",
				slog.Float64("rms", snap.RMS),
				slog.Float64("bass", snap.Bass),
				slog.Float64("mid", snap.Mid),
				slog.Float64("high", snap.High),
				slog.Float64("peak", snap.Peak),
				slog.Float64("energy", snap.Energy))
		}
	} else if l.ticks%noDataLogEvery == 0 {
		l.logger.Debug("no analyser data yet")
	}
	if !l.hidden() {
		l.requestLocked(gen)
	}
	l.mu.Unlock()

	if publish {
		l.bus.Publish(domain.NewEnergyUpdatedEvent(snap))
	}
}
