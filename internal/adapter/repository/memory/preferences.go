// Package memory implements the repository ports on top of Fyne preferences.
package memory

import (
	"encoding/json"
	"math"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

const (
	keyVolume    = "preferences.volume"
	keyLoop      = "preferences.loop"
	keyMaxDPR    = "preferences.max_dpr"
	keyMusicDirs = "preferences.music_dirs"
)

type musicDirs struct {
	Static string `json:"static"`
	Root   string `json:"root"`
}

// PreferencesRepository implements ports.PreferencesRepository using Fyne preferences.
// This provides a thin wrapper around Fyne's preferences system with proper error handling.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences' repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{
		prefs: prefs,
	}
}

// SaveVolume persists the volume level.
func (r *PreferencesRepository) SaveVolume(volume float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetFloat(keyVolume, volume)
	return nil
}

// LoadVolume retrieves the saved volume level.
func (r *PreferencesRepository) LoadVolume() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.FloatWithFallback(keyVolume, domain.DefaultVolume), nil
}

// SaveLoopMode persists the loop mode state.
func (r *PreferencesRepository) SaveLoopMode(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetBool(keyLoop, enabled)
	return nil
}

// LoadLoopMode retrieves the saved loop mode state.
func (r *PreferencesRepository) LoadLoopMode() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.BoolWithFallback(keyLoop, false), nil
}

// SaveMaxDPR persists the document-level DPR cap. NaN removes it.
func (r *PreferencesRepository) SaveMaxDPR(dpr float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if math.IsNaN(dpr) {
		r.prefs.RemoveValue(keyMaxDPR)
		return nil
	}
	r.prefs.SetFloat(keyMaxDPR, dpr)
	return nil
}

// LoadMaxDPR retrieves the DPR cap; ok is false when none was saved.
func (r *PreferencesRepository) LoadMaxDPR() (float64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v := r.prefs.FloatWithFallback(keyMaxDPR, math.NaN())
	if math.IsNaN(v) {
		return 0, false, nil
	}
	return v, true, nil
}

// SaveMusicDirs persists both music directories as one JSON value.
func (r *PreferencesRepository) SaveMusicDirs(staticDir, rootDir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(musicDirs{Static: staticDir, Root: rootDir})
	if err != nil {
		return domain.NewServiceError("PreferencesRepository", "SaveMusicDirs", "failed to marshal directories", err)
	}
	r.prefs.SetString(keyMusicDirs, string(data))
	return nil
}

// LoadMusicDirs retrieves the saved music directories.
func (r *PreferencesRepository) LoadMusicDirs() (string, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := r.prefs.String(keyMusicDirs)
	if data == "" {
		return "", "", nil
	}

	var dirs musicDirs
	if err := json.Unmarshal([]byte(data), &dirs); err != nil {
		return "", "", domain.NewServiceError("PreferencesRepository", "LoadMusicDirs", "failed to unmarshal directories", err)
	}
	return dirs.Static, dirs.Root, nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyVolume)
	r.prefs.RemoveValue(keyLoop)
	r.prefs.RemoveValue(keyMaxDPR)
	r.prefs.RemoveValue(keyMusicDirs)

	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
