package fyne

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/ui/fyne/widgets/visualizer"
	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
	"github.com/tejashwikalptaru/tunescope/internal/service"
)

// UIView defines the interface for UI updates.
// The actual UI implementation (MainWindow) must implement this interface.
type UIView interface {
	// Playback state updates
	SetPlayState(playing bool)
	SetLoopState(enabled bool)
	SetVolume(volume float64)
	SetRate(rate float64)

	// Track information updates
	SetTrackInfo(title, artist, album string)

	// Progress updates
	SetCurrentTime(seconds float64)
	SetTotalTime(seconds float64)
	SetProgress(position, duration float64)

	// Library updates
	SetTracks(tracks []domain.TrackEntry)

	// Visualizer updates
	UpdateVisualizer(frame visualizer.Frame)
	ResetVisualizer()

	// Notifications
	ShowNotification(title, message string)
}

// SpectrumSource provides the spectrum behind the latest energy snapshot.
type SpectrumSource interface {
	Spectrum() []byte
}

// Presenter implements the Presenter pattern (MVP architecture).
// It coordinates between services and the UI, handling all event-driven updates.
//
// Responsibilities:
// - Subscribe to events from the event bus
// - Map domain events to UI updates
// - Translate UI commands to engine and library calls
//
// Thread-safety: All operations are thread-safe via sync.RWMutex.
type Presenter struct {
	// Dependencies
	logger *slog.Logger

	// Services (injected)
	engine            *service.AudioEngine
	spectrum          SpectrumSource
	libraryService    *service.LibraryService
	preferenceService *service.PreferenceService

	// Event bus for subscriptions
	EventBus      ports.EventBus
	subscriptions []domain.SubscriptionID

	// UI view
	view    UIView
	runOnUI func(func())

	// Presentation state
	currentTrack     *domain.TrackInfo
	progressTicker   *time.Ticker
	stopProgressChan chan struct{}
	progressDone     chan struct{}

	// Concurrency control
	mu           sync.RWMutex
	shutdownOnce sync.Once
}

// NewPresenter creates a new presenter.
func NewPresenter(
	logger *slog.Logger,
	engine *service.AudioEngine,
	spectrum SpectrumSource,
	libraryService *service.LibraryService,
	preferenceService *service.PreferenceService,
	eventBus ports.EventBus,
	view UIView,
) *Presenter {
	return newPresenter(logger, engine, spectrum, libraryService, preferenceService, eventBus, view, fyneapp.Do)
}

// newPresenter lets tests run UI updates inline instead of through fyne.Do.
func newPresenter(
	logger *slog.Logger,
	engine *service.AudioEngine,
	spectrum SpectrumSource,
	libraryService *service.LibraryService,
	preferenceService *service.PreferenceService,
	eventBus ports.EventBus,
	view UIView,
	runOnUI func(func()),
) *Presenter {
	p := &Presenter{
		logger:            logger.With(slog.String("component", "presenter")),
		engine:            engine,
		spectrum:          spectrum,
		libraryService:    libraryService,
		preferenceService: preferenceService,
		EventBus:          eventBus,
		view:              view,
		runOnUI:           runOnUI,
		stopProgressChan:  make(chan struct{}),
		progressDone:      make(chan struct{}),
	}

	p.subscribeToEvents()
	p.syncInitialState()
	p.startProgressUpdates()

	return p
}

// subscribeToEvents subscribes to all relevant events from the event bus.
func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		// Playback events
		domain.EventTrackLoaded:  p.onTrackLoaded,
		domain.EventTrackStarted: p.onTrackStarted,
		domain.EventTrackPaused:  p.onTrackPaused,
		domain.EventTrackEnded:   p.onTrackEnded,
		domain.EventTrackError:   p.onTrackError,

		// Settings events
		domain.EventVolumeChanged: p.onVolumeChanged,
		domain.EventLoopToggled:   p.onLoopToggled,
		domain.EventRateChanged:   p.onRateChanged,

		// Metrics and library events
		domain.EventEnergyUpdated:  p.onEnergyUpdated,
		domain.EventLibraryChanged: p.onLibraryChanged,
	}

	for eventType, handler := range subscriptions {
		p.subscriptions = append(p.subscriptions, p.EventBus.Subscribe(eventType, handler))
	}
}

// syncInitialState synchronizes the UI with the engine and library state.
func (p *Presenter) syncInitialState() {
	state := p.engine.State()

	p.view.SetVolume(state.Volume)
	p.view.SetLoopState(state.Loop)
	p.view.SetRate(state.Rate)
	p.view.SetPlayState(state.Playing)

	if track := p.engine.Track(); track.Source != "" {
		p.setTrack(track)
	}

	p.view.SetTracks(p.libraryService.List())
}

func (p *Presenter) setTrack(track domain.TrackInfo) {
	p.mu.Lock()
	p.currentTrack = &track
	p.mu.Unlock()

	p.view.SetTrackInfo(track.Title, track.Artist, track.Album)
	if track.Duration > 0 {
		p.view.SetTotalTime(track.Duration.Seconds())
	}
}

// Event handlers

func (p *Presenter) onTrackLoaded(event domain.Event) {
	e, ok := event.(domain.TrackLoadedEvent)
	if !ok {
		return
	}

	p.runOnUI(func() {
		p.setTrack(e.Track)
		p.view.SetCurrentTime(0)
		p.view.ResetVisualizer()
	})
}

func (p *Presenter) onTrackStarted(domain.Event) {
	p.runOnUI(func() { p.view.SetPlayState(true) })
}

func (p *Presenter) onTrackPaused(domain.Event) {
	p.runOnUI(func() { p.view.SetPlayState(false) })
}

func (p *Presenter) onTrackEnded(domain.Event) {
	p.runOnUI(func() { p.view.SetPlayState(false) })
}

func (p *Presenter) onTrackError(event domain.Event) {
	e, ok := event.(domain.TrackErrorEvent)
	if !ok {
		return
	}

	p.runOnUI(func() {
		p.view.ShowNotification("Playback Error", fmt.Sprintf("Failed to load %s: %v", e.Source, e.Error))
	})
}

func (p *Presenter) onVolumeChanged(event domain.Event) {
	e, ok := event.(domain.VolumeChangedEvent)
	if !ok {
		return
	}

	p.runOnUI(func() { p.view.SetVolume(e.Volume) })
}

func (p *Presenter) onLoopToggled(event domain.Event) {
	e, ok := event.(domain.LoopToggledEvent)
	if !ok {
		return
	}

	p.runOnUI(func() { p.view.SetLoopState(e.Enabled) })
}

func (p *Presenter) onRateChanged(event domain.Event) {
	e, ok := event.(domain.RateChangedEvent)
	if !ok {
		return
	}

	p.runOnUI(func() { p.view.SetRate(e.Rate) })
}

func (p *Presenter) onEnergyUpdated(event domain.Event) {
	e, ok := event.(domain.EnergyUpdatedEvent)
	if !ok {
		return
	}

	frame := visualizer.Frame{Energy: e.Snapshot}
	if p.spectrum != nil {
		frame.Freq = p.spectrum.Spectrum()
	}
	p.runOnUI(func() { p.view.UpdateVisualizer(frame) })
}

func (p *Presenter) onLibraryChanged(domain.Event) {
	tracks := p.libraryService.List()
	p.runOnUI(func() { p.view.SetTracks(tracks) })
}

func (p *Presenter) startProgressUpdates() {
	p.progressTicker = time.NewTicker(250 * time.Millisecond)

	go func() {
		defer close(p.progressDone)
		for {
			select {
			case <-p.progressTicker.C:
				p.updateProgress()
			case <-p.stopProgressChan:
				return
			}
		}
	}()
}

func (p *Presenter) updateProgress() {
	p.mu.RLock()
	currentTrack := p.currentTrack
	p.mu.RUnlock()

	// Only update if a track is loaded
	if currentTrack == nil {
		return
	}

	duration := p.engine.Duration()
	if duration <= 0 {
		return
	}
	position := p.engine.CurrentTime()

	p.runOnUI(func() {
		p.view.SetCurrentTime(position.Seconds())
		p.view.SetProgress(position.Seconds(), duration.Seconds())
	})
}

// UI Command handlers (called by UI)

// OnPlayClicked toggles between playing and paused.
func (p *Presenter) OnPlayClicked() {
	if p.engine.State().Playing {
		p.engine.Pause()
		return
	}

	if err := p.engine.Play(context.Background()); err != nil {
		p.logger.Error("play failed", slog.Any("error", err))
		p.view.ShowNotification("Playback Error",
			fmt.Sprintf("Failed to start playback: %v", err))
	}
}

// OnVolumeChanged handles volume slider changes (0 to 100).
func (p *Presenter) OnVolumeChanged(volume float64) {
	p.engine.SetVolume(volume / 100.0)
}

// OnLoopClicked toggles loop mode.
func (p *Presenter) OnLoopClicked() {
	p.engine.SetLoop(!p.engine.State().Loop)
}

// OnRateChanged handles playback rate changes.
func (p *Presenter) OnRateChanged(rate float64) {
	p.engine.SetRate(rate)
}

// OnSeekRequested handles seek requests from the progress slider.
func (p *Presenter) OnSeekRequested(position float64) {
	p.engine.Seek(time.Duration(position * float64(time.Second)))
}

// OnFileOpened loads an in-memory file and starts playing it.
func (p *Presenter) OnFileOpened(name string, data []byte) error {
	return p.loadAndPlay(domain.SourceFromFile(name, data))
}

// OnURLOpened loads a URL, a filesystem path or a track list URL and starts playing it.
func (p *Presenter) OnURLOpened(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.ErrNoSource
	}

	if strings.HasPrefix(raw, service.StaticPrefix) || strings.HasPrefix(raw, service.FSPrefix) {
		path, err := p.libraryService.ResolveURL(raw)
		if err != nil {
			return err
		}
		raw = path
	}
	return p.loadAndPlay(domain.SourceFromURL(raw))
}

// OnTrackSelected plays a track from the track list.
func (p *Presenter) OnTrackSelected(track domain.TrackEntry) error {
	return p.OnURLOpened(track.URL)
}

// OnMusicFolderChosen replaces the project music directory and saves it.
func (p *Presenter) OnMusicFolderChosen(dir string) error {
	staticDir, _ := p.libraryService.Dirs()
	p.libraryService.SetDirs(staticDir, dir)

	staticDir, rootDir := p.libraryService.Dirs()
	if err := p.preferenceService.SetMusicDirs(staticDir, rootDir); err != nil {
		return err
	}

	p.view.SetTracks(p.libraryService.List())
	return nil
}

// Tracks returns the current track list.
func (p *Presenter) Tracks() []domain.TrackEntry {
	return p.libraryService.List()
}

func (p *Presenter) loadAndPlay(source domain.TrackSource) error {
	ctx := context.Background()
	if err := p.engine.Load(ctx, source); err != nil {
		return err
	}
	return p.engine.Play(ctx)
}

// Shutdown cleans up resources.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		for _, id := range p.subscriptions {
			p.EventBus.Unsubscribe(id)
		}

		// Stop the ticker first to prevent new iterations
		if p.progressTicker != nil {
			p.progressTicker.Stop()
		}

		// Close channel to signal goroutine to exit
		close(p.stopProgressChan)
		<-p.progressDone
	})
}
