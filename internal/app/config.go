package app

import (
	"log/slog"
	"math"
	"os"
	"strconv"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/audio/beepaudio"
	"github.com/tejashwikalptaru/tunescope/internal/logger"
)

// Environment variables read by DefaultConfig.
const (
	EnvStaticMusicDir = "TUNESCOPE_STATIC_MUSIC_DIR"
	EnvMusicDir       = "TUNESCOPE_MUSIC_DIR"
	EnvAddr           = "TUNESCOPE_ADDR"
	EnvMaxDPR         = "TUNESCOPE_MAX_DPR"
	EnvSampleRate     = "TUNESCOPE_SAMPLE_RATE"
)

// DefaultAddr is where the track listing server listens.
const DefaultAddr = "localhost:5173"

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier
	AppID string

	// AppName is the display name
	AppName string

	// StaticMusicDir is served under /music-dir/ (empty to disable)
	StaticMusicDir string

	// MusicDir is the project-level directory served under /@fs/ (empty to disable)
	MusicDir string

	// Addr is the listen address of the track listing server. The desktop
	// application starts no server when it is empty.
	Addr string

	// MaxDPR caps the visualizer pixel ratio globally. NaN means unset.
	MaxDPR float64

	// SampleRate is the audio output sample rate
	SampleRate int

	// UseMockAudio determines whether to use the mock audio platform (for testing)
	UseMockAudio bool

	// LogLevel controls logging verbosity
	LogLevel  slog.Level
	LogFormat string

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default configuration with environment overrides applied.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	cfg := Config{
		AppID:          "com.tunescope.app",
		AppName:        "TuneScope",
		StaticMusicDir: "music",
		Addr:           DefaultAddr,
		MaxDPR:         math.NaN(),
		SampleRate:     beepaudio.DefaultSampleRate,
		LogLevel:       loggerCfg.Level,
		LogFormat:      loggerCfg.Format,
	}

	if v, ok := os.LookupEnv(EnvStaticMusicDir); ok {
		cfg.StaticMusicDir = v
	}
	if v, ok := os.LookupEnv(EnvMusicDir); ok {
		cfg.MusicDir = v
	}
	if v, ok := os.LookupEnv(EnvAddr); ok {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvMaxDPR); v != "" {
		if dpr, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MaxDPR = dpr
		}
	}
	if v := os.Getenv(EnvSampleRate); v != "" {
		if sr, err := strconv.Atoi(v); err == nil && sr > 0 {
			cfg.SampleRate = sr
		}
	}
	return cfg
}

// NewLogger builds the application logger from the config.
func (c Config) NewLogger() *slog.Logger {
	return logger.NewLogger(logger.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
	})
}
