// Package frame provides frame schedulers and visibility signals for hosts
// without a display refresh of their own.
package frame

import (
	"slices"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// DefaultInterval is the frame period of a headless ticker (60 Hz).
const DefaultInterval = time.Second / 60

// queue holds pending requests in the order they were made.
type queue struct {
	mu      sync.Mutex
	next    ports.FrameID
	ids     []ports.FrameID
	pending map[ports.FrameID]func(time.Time)
}

func (q *queue) request(cb func(time.Time)) ports.FrameID {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		q.pending = make(map[ports.FrameID]func(time.Time))
	}
	q.next++
	q.ids = append(q.ids, q.next)
	q.pending[q.next] = cb
	return q.next
}

func (q *queue) cancel(id ports.FrameID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pending[id]; !ok {
		return
	}
	delete(q.pending, id)
	q.ids = slices.DeleteFunc(q.ids, func(x ports.FrameID) bool { return x == id })
}

// fire runs every request pending at call time. Requests made by callbacks
// wait for the next frame.
func (q *queue) fire(now time.Time) int {
	q.mu.Lock()
	ids := q.ids
	cbs := make([]func(time.Time), 0, len(ids))
	for _, id := range ids {
		cbs = append(cbs, q.pending[id])
		delete(q.pending, id)
	}
	q.ids = nil
	q.mu.Unlock()

	for _, cb := range cbs {
		cb(now)
	}
	return len(cbs)
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// Ticker fires frame requests from a background goroutine at a fixed interval.
// It drives the energy loop in headless mode.
type Ticker struct {
	queue

	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewTicker starts a ticker. A non-positive interval uses DefaultInterval.
// Close must be called to stop the goroutine.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := &Ticker{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *Ticker) run() {
	defer close(t.done)
	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-t.stop:
			return
		case now := <-tk.C:
			t.fire(now)
		}
	}
}

// RequestFrame schedules cb for the next tick.
func (t *Ticker) RequestFrame(cb func(now time.Time)) ports.FrameID {
	return t.request(cb)
}

// CancelFrame drops a pending request.
func (t *Ticker) CancelFrame(id ports.FrameID) {
	t.cancel(id)
}

// Close stops the ticker and waits for its goroutine. Pending requests never fire.
func (t *Ticker) Close() {
	t.once.Do(func() {
		close(t.stop)
	})
	<-t.done
}

// Manual fires frames only when Step is called. Used by tests.
type Manual struct {
	queue
	now time.Time
}

// NewManual creates a manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) RequestFrame(cb func(now time.Time)) ports.FrameID {
	return m.request(cb)
}

func (m *Manual) CancelFrame(id ports.FrameID) {
	m.cancel(id)
}

// Step advances the clock by d and fires the pending requests.
// It returns how many callbacks ran.
func (m *Manual) Step(d time.Duration) int {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	m.mu.Unlock()
	return m.fire(now)
}

// Now returns the manual clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of requests waiting for the next Step.
func (m *Manual) Pending() int {
	return m.len()
}

// Driven fires frame requests when its host calls Fire, typically from a
// display refresh callback such as a UI animation tick.
type Driven struct {
	queue
}

// NewDriven creates a scheduler with nothing pending.
func NewDriven() *Driven {
	return &Driven{}
}

func (d *Driven) RequestFrame(cb func(now time.Time)) ports.FrameID {
	return d.request(cb)
}

func (d *Driven) CancelFrame(id ports.FrameID) {
	d.cancel(id)
}

// Fire runs the requests pending at call time and returns how many ran.
func (d *Driven) Fire(now time.Time) int {
	return d.fire(now)
}

// Pending returns the number of requests waiting for the next Fire.
func (d *Driven) Pending() int {
	return d.len()
}

var (
	_ ports.FrameScheduler = (*Ticker)(nil)
	_ ports.FrameScheduler = (*Manual)(nil)
	_ ports.FrameScheduler = (*Driven)(nil)
)
