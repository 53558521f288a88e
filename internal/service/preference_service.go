package service

import (
	"log/slog"
	"math"
	"sync"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

// PreferenceService manages the persisted player settings: volume, loop
// mode, the DPR cap and the music directories. Volume and loop changes
// published on the bus are saved automatically.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository
	bus        ports.EventBus

	// Cached preferences
	volume      float64
	loopEnabled bool
	maxDPR      float64
	hasMaxDPR   bool
	staticDir   string
	rootDir     string

	subs []domain.SubscriptionID

	// Concurrency control
	mu sync.RWMutex
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	bus ports.EventBus,
) *PreferenceService {
	service := &PreferenceService{
		logger:     logger.With(slog.String("component", "preferences")),
		repository: repository,
		bus:        bus,
		volume:     domain.DefaultVolume,
	}

	service.loadPreferences()

	service.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventVolumeChanged, func(e domain.Event) {
			if err := service.SetVolume(e.(domain.VolumeChangedEvent).Volume); err != nil {
				service.logger.Warn("failed to persist volume", slog.Any("error", err))
			}
		}),
		bus.Subscribe(domain.EventLoopToggled, func(e domain.Event) {
			if err := service.SetLoopMode(e.(domain.LoopToggledEvent).Enabled); err != nil {
				service.logger.Warn("failed to persist loop mode", slog.Any("error", err))
			}
		}),
	}

	service.logger.Debug("preference service initialized")
	return service
}

// loadPreferences loads all preferences from repository into cache.
func (s *PreferenceService) loadPreferences() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vol, err := s.repository.LoadVolume(); err == nil {
		s.volume = vol
	}
	if loop, err := s.repository.LoadLoopMode(); err == nil {
		s.loopEnabled = loop
	}
	if dpr, ok, err := s.repository.LoadMaxDPR(); err == nil {
		s.maxDPR, s.hasMaxDPR = dpr, ok
	}
	if staticDir, rootDir, err := s.repository.LoadMusicDirs(); err == nil {
		s.staticDir, s.rootDir = staticDir, rootDir
	} else {
		s.logger.Warn("ignoring saved music directories", slog.Any("error", err))
	}
}

// GetVolume returns the saved volume preference (0.0 to 1.0).
func (s *PreferenceService) GetVolume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// SetVolume saves the volume preference (0.0 to 1.0).
func (s *PreferenceService) SetVolume(volume float64) error {
	if !(volume >= 0 && volume <= 1) {
		return domain.NewValidationError("volume", volume, "must be between 0 and 1")
	}

	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()

	return s.repository.SaveVolume(volume)
}

// GetLoopMode returns the saved loop mode preference.
func (s *PreferenceService) GetLoopMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loopEnabled
}

// SetLoopMode saves the loop mode preference.
func (s *PreferenceService) SetLoopMode(enabled bool) error {
	s.mu.Lock()
	s.loopEnabled = enabled
	s.mu.Unlock()

	return s.repository.SaveLoopMode(enabled)
}

// GetMaxDPR returns the saved document-level DPR cap; ok is false when unset.
func (s *PreferenceService) GetMaxDPR() (dpr float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxDPR, s.hasMaxDPR
}

// SetMaxDPR saves the DPR cap. The cap must be finite and positive.
func (s *PreferenceService) SetMaxDPR(dpr float64) error {
	if !(dpr > 0) || math.IsInf(dpr, 0) {
		return domain.NewValidationError("max_dpr", dpr, "must be a positive finite number")
	}

	s.mu.Lock()
	s.maxDPR, s.hasMaxDPR = dpr, true
	s.mu.Unlock()

	return s.repository.SaveMaxDPR(dpr)
}

// ClearMaxDPR removes the DPR cap.
func (s *PreferenceService) ClearMaxDPR() error {
	s.mu.Lock()
	s.maxDPR, s.hasMaxDPR = 0, false
	s.mu.Unlock()

	return s.repository.SaveMaxDPR(math.NaN())
}

// GetMusicDirs returns the saved music directories. Empty means unset.
func (s *PreferenceService) GetMusicDirs() (staticDir, rootDir string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.staticDir, s.rootDir
}

// SetMusicDirs saves the music directories.
func (s *PreferenceService) SetMusicDirs(staticDir, rootDir string) error {
	s.mu.Lock()
	s.staticDir, s.rootDir = staticDir, rootDir
	s.mu.Unlock()

	return s.repository.SaveMusicDirs(staticDir, rootDir)
}

// ResetToDefaults resets all preferences to default values.
func (s *PreferenceService) ResetToDefaults() error {
	s.mu.Lock()
	s.volume = domain.DefaultVolume
	s.loopEnabled = false
	s.maxDPR, s.hasMaxDPR = 0, false
	s.staticDir, s.rootDir = "", ""
	s.mu.Unlock()

	return s.repository.Clear()
}

// GetAllPreferences returns all preferences as a map.
func (s *PreferenceService) GetAllPreferences() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs := map[string]interface{}{
		"volume":     s.volume,
		"loop":       s.loopEnabled,
		"static_dir": s.staticDir,
		"root_dir":   s.rootDir,
	}
	if s.hasMaxDPR {
		prefs["max_dpr"] = s.maxDPR
	}
	return prefs
}

// Shutdown stops persisting bus events.
func (s *PreferenceService) Shutdown() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	return nil
}
