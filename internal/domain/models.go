// Package domain contains core models of the TuneScope player with no external dependencies.
// This package defines the fundamental entities shared by the engine, the metrics loop and the hosts.
package domain

import (
	"fmt"
	"time"
)

// FileHandle is an in-memory audio file picked by the user.
// It is the desktop equivalent of a browser File: the engine turns it into a
// temporary blob URL before handing it to the media element.
type FileHandle struct {
	// Name is the original file name, used for format detection
	Name string

	// Data holds the complete encoded file
	Data []byte
}

// TrackSource is either a local file handle or a URL string.
// Exactly one of File or URL is set.
type TrackSource struct {
	// File is set when the source is an in-memory file
	File *FileHandle

	// URL is set for http(s)://, file://, blob: URLs and plain filesystem paths
	URL string
}

// SourceFromURL creates a track source from a URL or filesystem path.
func SourceFromURL(url string) TrackSource {
	return TrackSource{URL: url}
}

// SourceFromFile creates a track source from an in-memory file.
func SourceFromFile(name string, data []byte) TrackSource {
	return TrackSource{File: &FileHandle{Name: name, Data: data}}
}

// IsFile returns true if the source is a local file handle.
func (s TrackSource) IsFile() bool {
	return s.File != nil
}

// IsZero returns true if neither a file nor a URL is set.
func (s TrackSource) IsZero() bool {
	return s.File == nil && s.URL == ""
}

// String returns a short human-readable description used in logs.
func (s TrackSource) String() string {
	if s.File != nil {
		return fmt.Sprintf("file:%s (%d bytes)", s.File.Name, len(s.File.Data))
	}
	return s.URL
}

// Default playback state values.
const (
	DefaultVolume = 0.8
	DefaultRate   = 1.0
)

// PlaybackState is the transport state cached on the engine.
// It mirrors the media element so hosts can read it without touching the element.
type PlaybackState struct {
	// Playing is true while the element is playing
	Playing bool

	// Loop indicates the element restarts when it reaches the end
	Loop bool

	// Rate is the playback rate (1 is normal speed)
	Rate float64

	// Volume is the volume level (0.0 to 1.0)
	Volume float64
}

// DefaultPlaybackState returns the state of a freshly constructed engine.
func DefaultPlaybackState() PlaybackState {
	return PlaybackState{
		Rate:   DefaultRate,
		Volume: DefaultVolume,
	}
}

// TrackInfo is the metadata known about the loaded track.
type TrackInfo struct {
	// Source describes where the track was loaded from
	Source string

	// Title is the song title (from tags or the file name)
	Title string

	// Artist is the performing artist name
	Artist string

	// Album is the album name
	Album string

	// Duration is the total length of the track (0 if unknown)
	Duration time.Duration
}

// EnergySnapshot is one frame of audio energy metrics.
// Every field is in [0,1]. Energy is smoothed over time, the others are instantaneous.
type EnergySnapshot struct {
	RMS    float64 `json:"rms"`
	Bass   float64 `json:"bass"`
	Mid    float64 `json:"mid"`
	High   float64 `json:"high"`
	Peak   float64 `json:"peak"`
	Energy float64 `json:"energy"`
}

// TrackEntry is a playable track returned by the listing endpoint.
type TrackEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
