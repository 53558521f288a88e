package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

func TestUnavailablePlatform(t *testing.T) {
	p := NewPlatform()
	p.SetAvailable(false)

	assert.False(t, p.Available())
	_, err := p.NewMediaElement()
	assert.ErrorIs(t, err, domain.ErrPlatformUnavailable)
	_, err = p.NewAudioContext()
	assert.ErrorIs(t, err, domain.ErrPlatformUnavailable)
}

func TestElementLifecycle(t *testing.T) {
	p := NewPlatform()
	p.SetDuration(10 * time.Second)

	el, err := p.NewMediaElement()
	require.NoError(t, err)
	m := el.(*Element)

	var events []string
	m.AddEventListener(ports.MediaEventPlay, func() { events = append(events, "play") })
	m.AddEventListener(ports.MediaEventPause, func() { events = append(events, "pause") })
	m.AddEventListener(ports.MediaEventEnded, func() { events = append(events, "ended") })

	m.SetSource("/music/a.mp3")
	require.NoError(t, m.Play(context.Background()))
	assert.Equal(t, 1, m.Loads())
	assert.Equal(t, "a", m.Metadata().Title)

	m.SimulateProgress(4 * time.Second)
	assert.Equal(t, 4*time.Second, m.CurrentTime())

	m.SimulateProgress(10 * time.Second)
	assert.True(t, m.Paused())
	assert.Equal(t, 10*time.Second, m.CurrentTime())
	assert.Equal(t, []string{"play", "pause", "ended"}, events)
}

func TestElementLoop(t *testing.T) {
	p := NewPlatform()
	p.SetDuration(10 * time.Second)

	el, err := p.NewMediaElement()
	require.NoError(t, err)
	m := el.(*Element)
	m.SetSource("a.wav")
	m.SetLoop(true)
	require.NoError(t, m.Play(context.Background()))

	m.SimulateProgress(12 * time.Second)
	assert.False(t, m.Paused())
	assert.Equal(t, 2*time.Second, m.CurrentTime())
}

func TestFailSwitches(t *testing.T) {
	p := NewPlatform()
	el, err := p.NewMediaElement()
	require.NoError(t, err)
	el.SetSource("a.mp3")

	p.SetFailLoad(true)
	assert.ErrorIs(t, el.Load(context.Background()), domain.ErrUnsupportedFormat)

	p.SetFailLoad(false)
	p.SetFailPlay(true)
	assert.Error(t, el.Play(context.Background()))
	assert.True(t, el.Paused())

	p.SetFailElement(true)
	_, err = p.NewMediaElement()
	assert.Error(t, err)

	p.SetFailContext(true)
	_, err = p.NewAudioContext()
	assert.Error(t, err)
}

func TestContextGraph(t *testing.T) {
	p := NewPlatform()
	ac, err := p.NewAudioContext()
	require.NoError(t, err)
	c := ac.(*Context)

	gain, err := ac.CreateGain()
	require.NoError(t, err)
	require.NoError(t, gain.Connect(ac.Destination()))
	require.NoError(t, gain.Connect(ac.Destination()))
	assert.Equal(t, 1, c.Edges())
	assert.True(t, gain.(*Gain).ConnectedTo(ac.Destination()))

	require.NoError(t, ac.Resume(context.Background()))
	assert.Equal(t, ports.ContextRunning, ac.State())
	assert.Equal(t, 1, c.Resumes())

	require.NoError(t, ac.Close())
	assert.ErrorIs(t, ac.Resume(context.Background()), domain.ErrContextClosed)
	_, err = ac.CreateAnalyser()
	assert.ErrorIs(t, err, domain.ErrContextClosed)
}

func TestAnalyserCannedData(t *testing.T) {
	p := NewPlatform()
	ac, err := p.NewAudioContext()
	require.NoError(t, err)
	an, err := ac.CreateAnalyser()
	require.NoError(t, err)
	a := an.(*Analyser)

	a.SetFrequencyData([]byte{1, 2, 3})
	freq := make([]byte, 1024)
	freq[10] = 99
	a.ByteFrequencyData(freq)
	assert.Equal(t, []byte{1, 2, 3, 0}, freq[:4])
	assert.Equal(t, byte(0), freq[10], "stale bytes are overwritten")

	td := make([]byte, 2048)
	a.ByteTimeDomainData(td)
	assert.Equal(t, byte(128), td[0])

	assert.ErrorIs(t, a.SetFFTSize(100), domain.ErrInvalidFFTSize)
	require.NoError(t, a.SetFFTSize(1024))
	assert.Equal(t, 512, a.FrequencyBinCount())
}
