package beepaudio

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/dsp"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// audioContext is a pull-based processing graph mixed into the platform output.
//
// mu guards the graph topology and node parameters. It is held for a whole
// render, so element locks are always taken after it.
type audioContext struct {
	platform *Platform
	logger   *slog.Logger

	mu      sync.Mutex
	state   ports.AudioContextState
	quantum uint64
	dest    *node
}

func newAudioContext(p *Platform) *audioContext {
	c := &audioContext{
		platform: p,
		logger:   p.logger.With(slog.String("node", "context")),
		state:    ports.ContextSuspended,
	}
	c.dest = &node{ctx: c, kind: "destination"}
	return c
}

// Stream renders one quantum of the destination. A suspended context outputs
// silence without pulling its sources; a closed context leaves the mix.
func (c *audioContext) Stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case ports.ContextClosed:
		return 0, false
	case ports.ContextSuspended:
		clear(samples)
		return len(samples), true
	}

	c.quantum++
	copy(samples, c.dest.render(c.quantum, len(samples)))
	return len(samples), true
}

func (c *audioContext) Err() error { return nil }

func (c *audioContext) State() ports.AudioContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts rendering. Resuming a running context is a no-op.
func (c *audioContext) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ports.ContextClosed {
		return domain.NewAudioEngineError("resume", "", "context closed", domain.ErrContextClosed)
	}
	if c.state != ports.ContextRunning {
		c.state = ports.ContextRunning
		c.logger.Debug("context resumed")
	}
	return nil
}

// Close stops rendering; the output drops the context on its next pull.
func (c *audioContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ports.ContextClosed {
		return nil
	}
	c.state = ports.ContextClosed
	c.logger.Debug("context closed")
	return nil
}

func (c *audioContext) SampleRate() int {
	return int(c.platform.sampleRate)
}

func (c *audioContext) Destination() ports.AudioNode {
	return c.dest
}

func (c *audioContext) checkOpen(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ports.ContextClosed {
		return domain.NewAudioEngineError(op, "", "context closed", domain.ErrContextClosed)
	}
	return nil
}

// CreateMediaElementSource captures el. From then on el is silent unless this
// node is connected towards the destination.
func (c *audioContext) CreateMediaElementSource(el ports.MediaElement) (ports.AudioNode, error) {
	if err := c.checkOpen("createMediaElementSource"); err != nil {
		return nil, err
	}
	e, ok := el.(*element)
	if !ok || e.platform != c.platform {
		return nil, domain.NewAudioEngineError("createMediaElementSource", "", "foreign element", domain.ErrInvalidNode)
	}

	e.mu.Lock()
	if e.captured {
		e.mu.Unlock()
		return nil, domain.NewAudioEngineError("createMediaElementSource", e.src, "element already captured", domain.ErrAlreadyConnected)
	}
	e.captured = true
	e.mu.Unlock()

	n := &node{ctx: c, kind: "media-element-source"}
	n.pull = func(buf [][2]float64) { e.pull(buf, false) }
	return n, nil
}

// CreateStreamSource wraps a live stream. The stream stops being pulled once drained.
func (c *audioContext) CreateStreamSource(s ports.LiveStream) (ports.AudioNode, error) {
	if err := c.checkOpen("createMediaStreamSource"); err != nil {
		return nil, err
	}
	n := &node{ctx: c, kind: "stream-source"}
	n.pull = func(buf [][2]float64) {
		got, ok := s.Stream(buf)
		clear(buf[max(got, 0):])
		if !ok {
			if err := s.Err(); err != nil {
				c.logger.Warn("live stream failed", slog.Any("error", err))
			}
			n.pull = nil
		}
	}
	return n, nil
}

func (c *audioContext) CreateGain() (ports.GainNode, error) {
	if err := c.checkOpen("createGain"); err != nil {
		return nil, err
	}
	g := &gainNode{node: &node{ctx: c, kind: "gain"}, gain: 1}
	g.process = g.apply
	return g, nil
}

func (c *audioContext) CreateAnalyser() (ports.AnalyserNode, error) {
	if err := c.checkOpen("createAnalyser"); err != nil {
		return nil, err
	}
	a := &analyserNode{node: &node{ctx: c, kind: "analyser"}, Analyser: dsp.NewAnalyser()}
	a.process = a.capture
	return a, nil
}

// node is a vertex of the graph. Sources set pull; processors set process.
type node struct {
	ctx  *audioContext
	kind string

	inputs  []*node
	outputs []*node

	pull    func(buf [][2]float64)
	process func(buf [][2]float64)

	buf        [][2]float64
	renderedAt uint64
	rendering  bool
}

func (n *node) base() *node { return n }

type graphNode interface {
	base() *node
}

// Connect adds an edge from n to dst. Existing edges are left as they are.
func (n *node) Connect(dst ports.AudioNode) error {
	gn, ok := dst.(graphNode)
	if !ok || gn.base().ctx != n.ctx {
		return domain.NewAudioEngineError("connect", "", "node belongs to another context", domain.ErrInvalidNode)
	}
	d := gn.base()

	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	if lo.Contains(d.inputs, n) {
		return nil
	}
	d.inputs = append(d.inputs, n)
	n.outputs = append(n.outputs, d)
	return nil
}

// Disconnect removes every outgoing edge of n.
func (n *node) Disconnect() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	for _, d := range n.outputs {
		d.inputs = lo.Without(d.inputs, n)
	}
	n.outputs = nil
}

// InputCount returns the number of incoming edges.
func (n *node) InputCount() int {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	return len(n.inputs)
}

// render produces this node's output for quantum q. A node feeding several
// outputs renders once per quantum. Caller holds ctx.mu.
func (n *node) render(q uint64, size int) [][2]float64 {
	if n.rendering {
		return make([][2]float64, size)
	}
	if n.renderedAt == q && len(n.buf) == size {
		return n.buf
	}
	if cap(n.buf) < size {
		n.buf = make([][2]float64, size)
	}
	n.buf = n.buf[:size]
	clear(n.buf)

	n.rendering = true
	if n.pull != nil {
		n.pull(n.buf)
	}
	for _, in := range n.inputs {
		src := in.render(q, size)
		for i := range n.buf {
			n.buf[i][0] += src[i][0]
			n.buf[i][1] += src[i][1]
		}
	}
	if n.process != nil {
		n.process(n.buf)
	}
	n.rendering = false
	n.renderedAt = q
	return n.buf
}

type gainNode struct {
	*node
	gain float64
}

func (g *gainNode) Gain() float64 {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	return g.gain
}

func (g *gainNode) SetGain(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	g.gain = v
}

func (g *gainNode) apply(buf [][2]float64) {
	if g.gain == 1 {
		return
	}
	for i := range buf {
		buf[i][0] *= g.gain
		buf[i][1] *= g.gain
	}
}

// analyserNode passes audio through unchanged while feeding a dsp.Analyser.
type analyserNode struct {
	*node
	*dsp.Analyser
	mono []float64
}

func (a *analyserNode) capture(buf [][2]float64) {
	if cap(a.mono) < len(buf) {
		a.mono = make([]float64, len(buf))
	}
	a.mono = a.mono[:len(buf)]
	for i, s := range buf {
		a.mono[i] = (s[0] + s[1]) / 2
	}
	a.Write(a.mono)
}

var (
	_ ports.AudioContext = (*audioContext)(nil)
	_ ports.GainNode     = (*gainNode)(nil)
	_ ports.AnalyserNode = (*analyserNode)(nil)
)
