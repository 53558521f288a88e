package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

type silentStream struct{}

func (silentStream) Stream(samples [][2]float64) (int, bool) {
	clear(samples)
	return len(samples), true
}

func (silentStream) Err() error { return nil }

func TestNewElementAnalyser(t *testing.T) {
	platform := mock.NewPlatform()
	el, err := platform.NewMediaElement()
	require.NoError(t, err)

	a, err := NewElementAnalyser(platform, el)
	require.NoError(t, err)
	defer a.Dispose()

	ctxs := platform.Contexts()
	require.Len(t, ctxs, 1)
	c := ctxs[0]
	assert.Equal(t, ports.ContextRunning, c.State())
	assert.Equal(t, 2, c.Edges())
	assert.Equal(t, StandaloneFFTSize, a.Analyser().FFTSize())
	assert.Equal(t, StandaloneSmoothing, a.Analyser().SmoothingTimeConstant())
	assert.True(t, a.Analyser().(*mock.Analyser).ConnectedTo(c.Destination()))

	nodes := c.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "media-element-source", nodes[1].Kind)
	assert.Same(t, el, nodes[1].Element)
}

func TestNewStreamAnalyser(t *testing.T) {
	platform := mock.NewPlatform()

	a, err := NewStreamAnalyser(platform, silentStream{})
	require.NoError(t, err)
	defer a.Dispose()

	nodes := platform.Contexts()[0].Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "stream-source", nodes[1].Kind)
	assert.NotNil(t, nodes[1].Stream)
}

func TestEnergyAnalyser_Energy(t *testing.T) {
	platform := mock.NewPlatform()
	a, err := NewStreamAnalyser(platform, silentStream{})
	require.NoError(t, err)
	defer a.Dispose()

	assert.Equal(t, 0.0, a.Energy(), "silence")

	mockAnalyser := a.Analyser().(*mock.Analyser)
	mockAnalyser.SetFrequencyData(filled(512, 255))
	assert.InDelta(t, 1.0, a.Energy(), 1e-12)

	// Half the bins at full scale.
	mockAnalyser.SetFrequencyData(filled(256, 255))
	assert.InDelta(t, 0.5, a.Energy(), 1e-12)
}

func TestEnergyAnalyser_UnavailablePlatform(t *testing.T) {
	platform := mock.NewPlatform()
	platform.SetAvailable(false)

	_, err := NewStreamAnalyser(platform, silentStream{})
	assert.ErrorIs(t, err, domain.ErrPlatformUnavailable)
	assert.Empty(t, platform.Contexts())
}

func TestEnergyAnalyser_ContextFailure(t *testing.T) {
	platform := mock.NewPlatform()
	platform.SetFailContext(true)

	_, err := NewStreamAnalyser(platform, silentStream{})
	assert.Error(t, err)
}

func TestEnergyAnalyser_ResumeFailureClosesContext(t *testing.T) {
	platform := mock.NewPlatform()
	platform.SetFailResume(true)

	_, err := NewStreamAnalyser(platform, silentStream{})
	require.Error(t, err)
	assert.Equal(t, ports.ContextClosed, platform.Contexts()[0].State())
}

func TestEnergyAnalyser_Dispose(t *testing.T) {
	platform := mock.NewPlatform()
	a, err := NewStreamAnalyser(platform, silentStream{})
	require.NoError(t, err)

	a.Analyser().(*mock.Analyser).SetFrequencyData(filled(512, 255))

	require.NoError(t, a.Dispose())
	require.NoError(t, a.Dispose())
	assert.Equal(t, ports.ContextClosed, platform.Contexts()[0].State())
	assert.Equal(t, 0.0, a.Energy())
}
