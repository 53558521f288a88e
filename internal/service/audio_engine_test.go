package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunescope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunescope/internal/blob"
	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/logger"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// Helper to create a test engine on the mock platform
func newTestEngine() (*AudioEngine, *mock.Platform, *blob.Store, *eventbus.SyncEventBus) {
	testLogger := logger.NewTestLogger()
	platform := mock.NewPlatform()
	platform.SetLogger(testLogger)
	blobs := blob.NewStore(testLogger)
	bus := eventbus.NewSyncEventBus(testLogger)

	engine := NewAudioEngine(testLogger, platform, blobs, bus)
	return engine, platform, blobs, bus
}

func mustLoad(t *testing.T, engine *AudioEngine, src domain.TrackSource) {
	t.Helper()
	require.NoError(t, engine.Load(context.Background(), src))
}

func onlyElement(t *testing.T, platform *mock.Platform) *mock.Element {
	t.Helper()
	els := platform.Elements()
	require.Len(t, els, 1)
	return els[0]
}

func TestAudioEngine_DefaultState(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	defer engine.Close()

	state := engine.State()
	assert.False(t, state.Playing)
	assert.False(t, state.Loop)
	assert.Equal(t, 1.0, state.Rate)
	assert.Equal(t, 0.8, state.Volume)
	assert.Equal(t, time.Duration(0), engine.Duration())
	assert.Equal(t, time.Duration(0), engine.CurrentTime())
}

func TestAudioEngine_LoadUnavailablePlatformIsNoop(t *testing.T) {
	engine, platform, _, bus := newTestEngine()
	defer engine.Close()
	platform.SetAvailable(false)

	published := 0
	bus.SubscribeAll(func(domain.Event) { published++ })

	err := engine.Load(context.Background(), domain.SourceFromURL("http://example.com/a.mp3"))
	require.NoError(t, err)
	assert.Empty(t, platform.Elements())
	assert.Empty(t, platform.Contexts())
	assert.Equal(t, 0, published)

	require.NoError(t, engine.Play(context.Background()))
	assert.False(t, engine.State().Playing)
}

func TestAudioEngine_LoadBuildsGraph(t *testing.T) {
	engine, platform, _, bus := newTestEngine()
	defer engine.Close()

	var loaded domain.TrackLoadedEvent
	bus.Subscribe(domain.EventTrackLoaded, func(e domain.Event) {
		loaded = e.(domain.TrackLoadedEvent)
	})

	mustLoad(t, engine, domain.SourceFromURL("/music/song.mp3"))

	el := onlyElement(t, platform)
	assert.Equal(t, "/music/song.mp3", el.Source())
	assert.Equal(t, 1, el.Loads())
	assert.Equal(t, 0.8, el.Volume())
	assert.Equal(t, 1.0, el.PlaybackRate())

	ctxs := platform.Contexts()
	require.Len(t, ctxs, 1)
	assert.Equal(t, 3, ctxs[0].Edges())
	assert.Equal(t, EngineFFTSize, engine.analyser.FFTSize())
	assert.Equal(t, EngineSmoothing, engine.analyser.SmoothingTimeConstant())
	assert.Equal(t, 0.8, engine.gain.Gain())

	assert.True(t, engine.source.(*mock.Node).ConnectedTo(engine.analyser))
	assert.True(t, engine.analyser.(*mock.Analyser).ConnectedTo(engine.gain))
	assert.True(t, engine.gain.(*mock.Gain).ConnectedTo(ctxs[0].Destination()))

	assert.Equal(t, "song", loaded.Track.Title)
	assert.Equal(t, mock.DefaultDuration, loaded.Track.Duration)
	assert.Equal(t, "song", engine.Track().Title)
}

func TestAudioEngine_GraphBuiltOnce(t *testing.T) {
	engine, platform, _, _ := newTestEngine()
	defer engine.Close()

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	mustLoad(t, engine, domain.SourceFromURL("b.mp3"))
	require.NoError(t, engine.Play(context.Background()))

	assert.Len(t, platform.Elements(), 1)
	ctxs := platform.Contexts()
	require.Len(t, ctxs, 1)
	assert.Equal(t, 3, ctxs[0].Edges(), "reconnecting must not duplicate edges")
	assert.Len(t, ctxs[0].Nodes(), 3)
}

func TestAudioEngine_LoadEmptySource(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	defer engine.Close()

	err := engine.Load(context.Background(), domain.TrackSource{})
	assert.ErrorIs(t, err, domain.ErrNoSource)
}

func TestAudioEngine_LoadFailurePublishesError(t *testing.T) {
	engine, platform, _, bus := newTestEngine()
	defer engine.Close()
	platform.SetFailLoad(true)

	var errEvent domain.TrackErrorEvent
	bus.Subscribe(domain.EventTrackError, func(e domain.Event) {
		errEvent = e.(domain.TrackErrorEvent)
	})

	err := engine.Load(context.Background(), domain.SourceFromURL("broken.m4a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Equal(t, "broken.m4a", errEvent.Source)
	assert.ErrorIs(t, errEvent.Error, domain.ErrUnsupportedFormat)
}

func TestAudioEngine_LoadElementCreationFailure(t *testing.T) {
	engine, platform, _, _ := newTestEngine()
	defer engine.Close()
	platform.SetFailElement(true)

	err := engine.Load(context.Background(), domain.SourceFromURL("a.mp3"))
	var engineErr *domain.AudioEngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "load", engineErr.Op)
}

func TestAudioEngine_LoadWithoutContextStillPlays(t *testing.T) {
	engine, platform, _, _ := newTestEngine()
	defer engine.Close()
	platform.SetFailContext(true)

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	require.NoError(t, engine.Play(context.Background()))

	assert.True(t, engine.State().Playing)
	assert.Nil(t, engine.FrequencyData(), "no analyser without a context")
}

func TestAudioEngine_FileSourceUsesBlobURL(t *testing.T) {
	engine, platform, blobs, bus := newTestEngine()
	defer engine.Close()

	var loaded domain.TrackLoadedEvent
	bus.Subscribe(domain.EventTrackLoaded, func(e domain.Event) {
		loaded = e.(domain.TrackLoadedEvent)
	})

	mustLoad(t, engine, domain.SourceFromFile("first.mp3", []byte("one")))

	el := onlyElement(t, platform)
	first := el.Source()
	assert.True(t, blob.IsBlobURL(first))
	file, err := blobs.Resolve(first)
	require.NoError(t, err)
	assert.Equal(t, "first.mp3", file.Name)
	assert.Equal(t, "first.mp3", loaded.Track.Source)

	mustLoad(t, engine, domain.SourceFromFile("second.mp3", []byte("two")))
	assert.Equal(t, 1, blobs.Revoked(), "previous blob URL revoked exactly once")
	assert.Equal(t, 1, blobs.Len())
	_, err = blobs.Resolve(first)
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)

	mustLoad(t, engine, domain.SourceFromURL("http://example.com/third.mp3"))
	assert.Equal(t, 2, blobs.Revoked())
	assert.Equal(t, 0, blobs.Len())

	mustLoad(t, engine, domain.SourceFromURL("http://example.com/fourth.mp3"))
	assert.Equal(t, 2, blobs.Revoked(), "URL sources own no blob")
}

func TestAudioEngine_PlayBeforeLoadIsNoop(t *testing.T) {
	engine, platform, _, _ := newTestEngine()
	defer engine.Close()

	require.NoError(t, engine.Play(context.Background()))
	assert.Empty(t, platform.Elements())
	assert.False(t, engine.State().Playing)
}

func TestAudioEngine_PlayResumesContext(t *testing.T) {
	engine, platform, _, bus := newTestEngine()
	defer engine.Close()

	started := 0
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) { started++ })

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	c := platform.Contexts()[0]
	assert.Equal(t, ports.ContextSuspended, c.State())

	require.NoError(t, engine.Play(context.Background()))
	assert.Equal(t, ports.ContextRunning, c.State())
	assert.Equal(t, 1, c.Resumes())
	assert.True(t, engine.State().Playing)
	assert.False(t, onlyElement(t, platform).Paused())
	assert.Equal(t, 1, started)

	// Already running: no second resume.
	require.NoError(t, engine.Play(context.Background()))
	assert.Equal(t, 1, c.Resumes())

	c.Suspend()
	require.NoError(t, engine.Play(context.Background()))
	assert.Equal(t, 2, c.Resumes())
}

func TestAudioEngine_PlayRejected(t *testing.T) {
	engine, platform, _, _ := newTestEngine()
	defer engine.Close()

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	platform.SetFailPlay(true)

	err := engine.Play(context.Background())
	assert.ErrorIs(t, err, domain.ErrPlaybackRejected)
	assert.False(t, engine.State().Playing)
}

func TestAudioEngine_PlayResumeFailure(t *testing.T) {
	engine, platform, _, _ := newTestEngine()
	defer engine.Close()

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	platform.SetFailResume(true)

	err := engine.Play(context.Background())
	assert.ErrorIs(t, err, domain.ErrPlaybackRejected)
	assert.True(t, onlyElement(t, platform).Paused())
}

func TestAudioEngine_Pause(t *testing.T) {
	engine, platform, _, bus := newTestEngine()
	defer engine.Close()

	// Before any load: nothing happens.
	engine.Pause()
	assert.Empty(t, platform.Elements())

	paused := 0
	bus.Subscribe(domain.EventTrackPaused, func(domain.Event) { paused++ })

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	require.NoError(t, engine.Play(context.Background()))
	engine.Pause()

	assert.False(t, engine.State().Playing)
	assert.True(t, onlyElement(t, platform).Paused())
	assert.Equal(t, 1, paused)
}

func TestAudioEngine_LoadWhilePlayingClearsPlaying(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	defer engine.Close()

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	require.NoError(t, engine.Play(context.Background()))
	require.True(t, engine.State().Playing)

	mustLoad(t, engine, domain.SourceFromURL("b.mp3"))
	assert.False(t, engine.State().Playing, "element pause event clears Playing")
}

func TestAudioEngine_Seek(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	defer engine.Close()

	// Without element: no panic, position stays 0.
	engine.Seek(time.Minute)
	assert.Equal(t, time.Duration(0), engine.CurrentTime())

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))

	engine.Seek(time.Minute)
	assert.Equal(t, time.Minute, engine.CurrentTime())

	engine.Seek(-time.Second)
	assert.Equal(t, time.Duration(0), engine.CurrentTime())

	engine.Seek(time.Hour)
	assert.Equal(t, engine.Duration(), engine.CurrentTime())
}

func TestAudioEngine_SetVolume(t *testing.T) {
	engine, platform, _, bus := newTestEngine()
	defer engine.Close()

	var volumes []float64
	bus.Subscribe(domain.EventVolumeChanged, func(e domain.Event) {
		volumes = append(volumes, e.(domain.VolumeChangedEvent).Volume)
	})

	// Cached before the graph exists, applied on creation.
	engine.SetVolume(0.3)
	assert.Equal(t, 0.3, engine.State().Volume)

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	assert.Equal(t, 0.3, onlyElement(t, platform).Volume())
	assert.Equal(t, 0.3, engine.gain.Gain())

	engine.SetVolume(0.6)
	assert.Equal(t, 0.6, engine.State().Volume)
	assert.Equal(t, 0.6, onlyElement(t, platform).Volume())
	assert.Equal(t, 0.6, engine.gain.Gain())

	engine.SetVolume(1.5)
	assert.Equal(t, 1.0, engine.State().Volume)
	engine.SetVolume(-1)
	assert.Equal(t, 0.0, engine.gain.Gain())

	engine.SetVolume(math.NaN())
	assert.Equal(t, 0.0, engine.State().Volume)

	assert.Equal(t, []float64{0.3, 0.6, 1, 0}, volumes)
}

func TestAudioEngine_SetRate(t *testing.T) {
	engine, platform, _, bus := newTestEngine()
	defer engine.Close()

	rates := 0
	bus.Subscribe(domain.EventRateChanged, func(domain.Event) { rates++ })

	engine.SetRate(1.5)
	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	assert.Equal(t, 1.5, onlyElement(t, platform).PlaybackRate())

	engine.SetRate(0.5)
	assert.Equal(t, 0.5, onlyElement(t, platform).PlaybackRate())

	engine.SetRate(0)
	engine.SetRate(-2)
	engine.SetRate(math.NaN())
	engine.SetRate(math.Inf(1))
	assert.Equal(t, 0.5, engine.State().Rate)
	assert.Equal(t, 0.5, onlyElement(t, platform).PlaybackRate())
	assert.Equal(t, 2, rates)
}

func TestAudioEngine_SetLoop(t *testing.T) {
	engine, platform, _, bus := newTestEngine()
	defer engine.Close()

	var toggles []bool
	bus.Subscribe(domain.EventLoopToggled, func(e domain.Event) {
		toggles = append(toggles, e.(domain.LoopToggledEvent).Enabled)
	})

	engine.SetLoop(true)
	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	assert.True(t, onlyElement(t, platform).Loop())

	engine.SetLoop(false)
	assert.False(t, onlyElement(t, platform).Loop())
	assert.False(t, engine.State().Loop)
	assert.Equal(t, []bool{true, false}, toggles)
}

func TestAudioEngine_AnalyserData(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	defer engine.Close()

	assert.Nil(t, engine.FrequencyData())
	assert.Nil(t, engine.TimeDomainData())

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	analyser := engine.analyser.(*mock.Analyser)
	analyser.SetFrequencyData([]byte{10, 20, 30})
	analyser.SetTimeDomainData([]byte{0, 255})

	freq := engine.FrequencyData()
	require.Len(t, freq, 1024)
	assert.Equal(t, []byte{10, 20, 30, 0}, freq[:4])

	td := engine.TimeDomainData()
	require.Len(t, td, 2048)
	assert.Equal(t, []byte{0, 255, 128}, td[:3])

	// Shared buffer overwritten in place.
	analyser.SetFrequencyData([]byte{99})
	again := engine.FrequencyData()
	assert.Same(t, &freq[0], &again[0])
	assert.Equal(t, byte(99), freq[0])
}

func TestAudioEngine_OnEnded(t *testing.T) {
	engine, platform, _, bus := newTestEngine()
	defer engine.Close()

	var order []string
	unsubA := engine.OnEnded(func() { order = append(order, "a") })
	engine.OnEnded(func() { order = append(order, "b") })

	var endedEvents []domain.TrackEndedEvent
	bus.Subscribe(domain.EventTrackEnded, func(e domain.Event) {
		endedEvents = append(endedEvents, e.(domain.TrackEndedEvent))
	})

	mustLoad(t, engine, domain.SourceFromURL("/music/a.mp3"))
	require.NoError(t, engine.Play(context.Background()))

	el := onlyElement(t, platform)
	el.SimulateEnded()
	assert.Equal(t, []string{"a", "b"}, order)
	assert.False(t, engine.State().Playing)

	require.NoError(t, engine.Play(context.Background()))
	el.SimulateEnded()
	assert.Equal(t, []string{"a", "b", "a", "b"}, order, "every end fires every callback")

	unsubA()
	unsubA()
	require.NoError(t, engine.Play(context.Background()))
	el.SimulateEnded()
	assert.Equal(t, []string{"a", "b", "a", "b", "b"}, order)

	require.Len(t, endedEvents, 3)
	assert.Equal(t, "/music/a.mp3", endedEvents[0].Source)
}

func TestAudioEngine_LoopDoesNotEnd(t *testing.T) {
	engine, platform, _, _ := newTestEngine()
	defer engine.Close()

	ended := 0
	engine.OnEnded(func() { ended++ })
	engine.SetLoop(true)

	mustLoad(t, engine, domain.SourceFromURL("a.mp3"))
	require.NoError(t, engine.Play(context.Background()))

	onlyElement(t, platform).SimulateProgress(mock.DefaultDuration + time.Second)
	assert.Equal(t, 0, ended)
	assert.True(t, engine.State().Playing)
	assert.Equal(t, time.Second, engine.CurrentTime())
}

func TestAudioEngine_Close(t *testing.T) {
	engine, platform, blobs, _ := newTestEngine()

	ended := 0
	engine.OnEnded(func() { ended++ })
	mustLoad(t, engine, domain.SourceFromFile("a.mp3", []byte("x")))
	require.NoError(t, engine.Play(context.Background()))

	require.NoError(t, engine.Close())
	require.NoError(t, engine.Close())

	el := onlyElement(t, platform)
	assert.True(t, el.Closed())
	assert.Equal(t, 0, el.ListenerCount(ports.MediaEventPlay))
	assert.Equal(t, 0, el.ListenerCount(ports.MediaEventEnded))
	assert.Equal(t, ports.ContextClosed, platform.Contexts()[0].State())
	assert.Equal(t, 1, blobs.Revoked())
	assert.Equal(t, 0, blobs.Len())
	assert.False(t, engine.State().Playing)

	err := engine.Load(context.Background(), domain.SourceFromURL("b.mp3"))
	assert.ErrorIs(t, err, domain.ErrEngineClosed)
	require.NoError(t, engine.Play(context.Background()))
	assert.Equal(t, 0, ended)
}
