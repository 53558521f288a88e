// Package domain defines events for the event-driven architecture.
// Events let the engine and the metrics loop publish without knowing their consumers.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackLoaded   EventType = "track.loaded"
	EventTrackStarted  EventType = "track.started"
	EventTrackPaused   EventType = "track.paused"
	EventTrackEnded    EventType = "track.ended"
	EventTrackError    EventType = "track.error"
	EventVolumeChanged EventType = "volume.changed"
	EventLoopToggled   EventType = "loop.toggled"
	EventRateChanged   EventType = "rate.changed"

	// Metrics events
	EventEnergyUpdated EventType = "energy.updated"

	// Library events
	EventLibraryChanged EventType = "library.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadedEvent is published when a new source has been loaded.
type TrackLoadedEvent struct {
	baseEvent
	Track TrackInfo
}

// Type returns the event type.
func (e TrackLoadedEvent) Type() EventType {
	return EventTrackLoaded
}

// NewTrackLoadedEvent creates a new TrackLoadedEvent.
func NewTrackLoadedEvent(track TrackInfo) TrackLoadedEvent {
	return TrackLoadedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
	}
}

// TrackStartedEvent is published when playback starts.
type TrackStartedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(position time.Duration) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
	}
}

// TrackEndedEvent is published when playback reaches the end of the source.
type TrackEndedEvent struct {
	baseEvent
	Source string
}

// Type returns the event type.
func (e TrackEndedEvent) Type() EventType {
	return EventTrackEnded
}

// NewTrackEndedEvent creates a new TrackEndedEvent.
func NewTrackEndedEvent(source string) TrackEndedEvent {
	return TrackEndedEvent{
		baseEvent: newBaseEvent(),
		Source:    source,
	}
}

// TrackErrorEvent is published when loading or playing a source fails.
type TrackErrorEvent struct {
	baseEvent
	Source string
	Error  error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(source string, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Source:    source,
		Error:     err,
	}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
	}
}

// LoopToggledEvent is published when loop mode changes.
type LoopToggledEvent struct {
	baseEvent
	Enabled bool
}

// Type returns the event type.
func (e LoopToggledEvent) Type() EventType {
	return EventLoopToggled
}

// NewLoopToggledEvent creates a new LoopToggledEvent.
func NewLoopToggledEvent(enabled bool) LoopToggledEvent {
	return LoopToggledEvent{
		baseEvent: newBaseEvent(),
		Enabled:   enabled,
	}
}

// RateChangedEvent is published when the playback rate changes.
type RateChangedEvent struct {
	baseEvent
	Rate float64
}

// Type returns the event type.
func (e RateChangedEvent) Type() EventType {
	return EventRateChanged
}

// NewRateChangedEvent creates a new RateChangedEvent.
func NewRateChangedEvent(rate float64) RateChangedEvent {
	return RateChangedEvent{
		baseEvent: newBaseEvent(),
		Rate:      rate,
	}
}

// EnergyUpdatedEvent carries the energy snapshot computed for one frame.
type EnergyUpdatedEvent struct {
	baseEvent
	Snapshot EnergySnapshot
}

// Type returns the event type.
func (e EnergyUpdatedEvent) Type() EventType {
	return EventEnergyUpdated
}

// NewEnergyUpdatedEvent creates a new EnergyUpdatedEvent.
func NewEnergyUpdatedEvent(snapshot EnergySnapshot) EnergyUpdatedEvent {
	return EnergyUpdatedEvent{
		baseEvent: newBaseEvent(),
		Snapshot:  snapshot,
	}
}

// LibraryChangedEvent is published when a watched music directory changes.
type LibraryChangedEvent struct {
	baseEvent
	Dir  string
	Path string
}

// Type returns the event type.
func (e LibraryChangedEvent) Type() EventType {
	return EventLibraryChanged
}

// NewLibraryChangedEvent creates a new LibraryChangedEvent.
func NewLibraryChangedEvent(dir, path string) LibraryChangedEvent {
	return LibraryChangedEvent{
		baseEvent: newBaseEvent(),
		Dir:       dir,
		Path:      path,
	}
}
