// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

// PreferencesRepository handles the persistence of user preferences.
// This abstracts the Fyne preferences storage.
//
// Playback position and queue are never persisted.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// Volume preferences

	// SaveVolume persists the volume level.
	//
	// Returns an error if saving fails.
	SaveVolume(volume float64) error

	// LoadVolume retrieves the saved volume level.
	// If no volume was saved, returns domain.DefaultVolume.
	//
	// Returns the volume or an error if loading fails.
	LoadVolume() (float64, error)

	// Loop mode preferences

	// SaveLoopMode persists the loop mode state.
	SaveLoopMode(enabled bool) error

	// LoadLoopMode retrieves the saved loop mode state.
	// If no loop mode was saved, returns false as default.
	LoadLoopMode() (bool, error)

	// Display preferences

	// SaveMaxDPR persists the document-level device pixel ratio cap.
	SaveMaxDPR(dpr float64) error

	// LoadMaxDPR retrieves the saved DPR cap.
	// The second return is false when no cap was saved.
	LoadMaxDPR() (float64, bool, error)

	// Music directory preferences

	// SaveMusicDirs persists the static and project-level music directories.
	SaveMusicDirs(staticDir, rootDir string) error

	// LoadMusicDirs retrieves the saved music directories.
	// Empty strings are returned for directories that were never saved.
	LoadMusicDirs() (staticDir, rootDir string, err error)

	// Utility methods

	// Clear removes all saved preferences.
	Clear() error
}
