package mock

import (
	"context"
	"sync"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// Context is a mock audio context recording its graph.
type Context struct {
	platform *Platform

	mu      sync.Mutex
	state   ports.AudioContextState
	resumes int
	dest    *Node
	nodes   []*Node
	edges   int
}

func (c *Context) State() ports.AudioContextState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Context) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, failResume, _ := c.platform.flags()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == ports.ContextClosed {
		return domain.ErrContextClosed
	}
	if failResume {
		return domain.NewAudioEngineError("resume", "", "mock resume failed", nil)
	}
	c.resumes++
	c.state = ports.ContextRunning
	return nil
}

// Resumes returns how many times Resume succeeded.
func (c *Context) Resumes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumes
}

// Suspend simulates the host suspending audio (e.g. no user gesture yet).
func (c *Context) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ports.ContextClosed {
		c.state = ports.ContextSuspended
	}
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ports.ContextClosed
	return nil
}

func (c *Context) SampleRate() int { return 44100 }

func (c *Context) Destination() ports.AudioNode { return c.dest }

// Edges returns the number of distinct edges in the graph.
func (c *Context) Edges() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edges
}

// Nodes returns every node created by this context.
func (c *Context) Nodes() []*Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Node(nil), c.nodes...)
}

func (c *Context) newNode(kind string) (*Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ports.ContextClosed {
		return nil, domain.ErrContextClosed
	}
	n := &Node{ctx: c, Kind: kind}
	c.nodes = append(c.nodes, n)
	return n, nil
}

func (c *Context) CreateMediaElementSource(el ports.MediaElement) (ports.AudioNode, error) {
	n, err := c.newNode("media-element-source")
	if err != nil {
		return nil, err
	}
	n.Element = el
	return n, nil
}

func (c *Context) CreateStreamSource(s ports.LiveStream) (ports.AudioNode, error) {
	n, err := c.newNode("stream-source")
	if err != nil {
		return nil, err
	}
	n.Stream = s
	return n, nil
}

func (c *Context) CreateGain() (ports.GainNode, error) {
	n, err := c.newNode("gain")
	if err != nil {
		return nil, err
	}
	return &Gain{Node: n, gain: 1}, nil
}

func (c *Context) CreateAnalyser() (ports.AnalyserNode, error) {
	n, err := c.newNode("analyser")
	if err != nil {
		return nil, err
	}
	return &Analyser{Node: n, fftSize: 2048, smoothing: 0.8}, nil
}

// Node is a mock graph node.
type Node struct {
	ctx  *Context
	Kind string

	Element ports.MediaElement
	Stream  ports.LiveStream

	outputs []*Node
}

func (n *Node) node() *Node { return n }

type mockNode interface{ node() *Node }

// Connect records an edge; duplicates are ignored.
func (n *Node) Connect(dst ports.AudioNode) error {
	mn, ok := dst.(mockNode)
	if !ok || mn.node().ctx != n.ctx {
		return domain.ErrInvalidNode
	}
	d := mn.node()

	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	for _, o := range n.outputs {
		if o == d {
			return nil
		}
	}
	n.outputs = append(n.outputs, d)
	n.ctx.edges++
	return nil
}

func (n *Node) Disconnect() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	n.ctx.edges -= len(n.outputs)
	n.outputs = nil
}

// ConnectedTo reports whether an edge n -> dst exists.
func (n *Node) ConnectedTo(dst ports.AudioNode) bool {
	mn, ok := dst.(mockNode)
	if !ok {
		return false
	}
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	for _, o := range n.outputs {
		if o == mn.node() {
			return true
		}
	}
	return false
}

// Gain is a mock gain node.
type Gain struct {
	*Node
	mu   sync.Mutex
	gain float64
}

func (g *Gain) Gain() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gain
}

func (g *Gain) SetGain(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gain = v
}

// Analyser is a mock analyser node serving canned data set by tests.
type Analyser struct {
	*Node

	mu        sync.Mutex
	fftSize   int
	smoothing float64
	freq      []byte
	td        []byte
	reads     int
}

func (a *Analyser) FFTSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fftSize
}

func (a *Analyser) SetFFTSize(n int) error {
	if n < 32 || n > 32768 || n&(n-1) != 0 {
		return domain.ErrInvalidFFTSize
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fftSize = n
	return nil
}

func (a *Analyser) FrequencyBinCount() int {
	return a.FFTSize() / 2
}

func (a *Analyser) SmoothingTimeConstant() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.smoothing
}

func (a *Analyser) SetSmoothingTimeConstant(t float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.smoothing = t
}

// SetFrequencyData sets the bytes returned by ByteFrequencyData. Missing bins read as 0.
func (a *Analyser) SetFrequencyData(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.freq = append([]byte(nil), b...)
}

// SetTimeDomainData sets the bytes returned by ByteTimeDomainData. Missing samples read as 128.
func (a *Analyser) SetTimeDomainData(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.td = append([]byte(nil), b...)
}

func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reads++
	n := min(len(dst), a.fftSize/2)
	clear(dst[:n])
	copy(dst[:n], a.freq)
}

func (a *Analyser) ByteTimeDomainData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := min(len(dst), a.fftSize)
	for i := range dst[:n] {
		dst[i] = 128
	}
	copy(dst[:n], a.td)
}

// Reads returns how many times frequency data was read.
func (a *Analyser) Reads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads
}

var (
	_ ports.AudioContext = (*Context)(nil)
	_ ports.GainNode     = (*Gain)(nil)
	_ ports.AnalyserNode = (*Analyser)(nil)
)
