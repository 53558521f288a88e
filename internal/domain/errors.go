// Package domain defines domain-specific errors.
// These errors represent player failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that components can return.
var (
	// ErrPlatformUnavailable is returned when no audio output platform exists (headless build).
	ErrPlatformUnavailable = errors.New("audio platform unavailable")

	// ErrPlaybackRejected is returned when the platform refuses to start playback.
	ErrPlaybackRejected = errors.New("playback rejected")

	// ErrNoSource is returned when an element is played or loaded without a source.
	ErrNoSource = errors.New("no source assigned")

	// ErrUnsupportedFormat is returned when an audio file format cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrBlobNotFound is returned when a blob URL was never created or already revoked.
	ErrBlobNotFound = errors.New("blob url not found")

	// ErrContextClosed is returned when an audio context is used after Close.
	ErrContextClosed = errors.New("audio context closed")

	// ErrInvalidFFTSize is returned when an analyser FFT size is not a power of two in range.
	ErrInvalidFFTSize = errors.New("invalid fft size: must be a power of two between 32 and 32768")

	// ErrAlreadyConnected is returned when a node input would exceed its capacity.
	ErrAlreadyConnected = errors.New("node input already connected")

	// ErrInvalidNode is returned when a node from a different context is connected.
	ErrInvalidNode = errors.New("invalid audio node")

	// ErrEngineClosed is returned when the engine is used after Close.
	ErrEngineClosed = errors.New("engine closed")

	// ErrFileNotFound is returned when a library URL does not map to a music file.
	ErrFileNotFound = errors.New("file not found")
)

// AudioEngineError represents an error from the audio platform.
// This wraps low-level decode and device errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "load", "play", "resume")
	Path    string // Source URL (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("audio %s failed for '%s': %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("audio %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, path, message string, err error) *AudioEngineError {
	return &AudioEngineError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "Catalog", "Server")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
