package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunescope/internal/adapter/frame"
	"github.com/tejashwikalptaru/tunescope/internal/blob"
	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
	"github.com/tejashwikalptaru/tunescope/internal/server"
	"github.com/tejashwikalptaru/tunescope/internal/service"
)

// EnergyLogInterval is how often Play logs the latest energy snapshot.
const EnergyLogInterval = time.Second

// ListTracks writes the track listing of the configured directories as JSON.
func ListTracks(config Config, w io.Writer) error {
	logger := config.NewLogger()
	bus := eventbus.NewSyncEventBus(logger)
	defer bus.Close()

	library := service.NewLibraryService(logger, bus, config.StaticMusicDir, config.MusicDir)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(library.List())
}

// Serve runs the track listing server until ctx is done.
func Serve(ctx context.Context, config Config) error {
	logger := config.NewLogger()
	bus := eventbus.NewSyncEventBus(logger)
	defer bus.Close()

	library := service.NewLibraryService(logger, bus, config.StaticMusicDir, config.MusicDir)
	if err := library.Watch(ctx); err != nil {
		logger.Warn("music directory watch unavailable", slog.Any("error", err))
	}
	defer library.Shutdown()

	srv := server.NewServer(logger, library, bus)
	defer srv.Close()

	logger.Info("serving track listing", slog.String("addr", config.Addr))
	return srv.Run(ctx, config.Addr)
}

// Play plays source headless, logging energy snapshots every EnergyLogInterval,
// until the track ends or ctx is done. Library URLs (/music-dir/, /@fs/) are
// resolved against the configured directories.
func Play(ctx context.Context, config Config, source string) error {
	logger := config.NewLogger()
	bus := eventbus.NewSyncEventBus(logger)
	defer bus.Close()

	blobs := blob.NewStore(logger)
	platform := newPlatform(config, logger, blobs)
	if closer, ok := platform.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	if !platform.Available() {
		return domain.ErrPlatformUnavailable
	}

	library := service.NewLibraryService(logger, bus, config.StaticMusicDir, config.MusicDir)
	path, err := resolveSource(library, source)
	if err != nil {
		return err
	}

	engine := service.NewAudioEngine(logger, platform, blobs, bus)
	defer engine.Close()

	ended := make(chan struct{})
	var endOnce sync.Once
	unsubscribe := engine.OnEnded(func() {
		endOnce.Do(func() { close(ended) })
	})
	defer unsubscribe()

	ticker := frame.NewTicker(frame.DefaultInterval)
	defer ticker.Close()

	loop := service.NewEnergyLoop(logger, engine, ticker, nil, bus)
	stop := loop.Start()
	defer stop()

	logEnergy := newEnergyLogger(logger, EnergyLogInterval)
	sub := bus.Subscribe(domain.EventEnergyUpdated, logEnergy)
	defer bus.Unsubscribe(sub)

	if err := engine.Load(ctx, domain.SourceFromURL(path)); err != nil {
		return fmt.Errorf("load %s: %w", source, err)
	}
	if err := engine.Play(ctx); err != nil {
		return fmt.Errorf("play %s: %w", source, err)
	}

	track := engine.Track()
	logger.Info("playing",
		slog.String("source", track.Source),
		slog.String("title", track.Title),
		slog.String("artist", track.Artist),
		slog.Duration("duration", engine.Duration()))

	select {
	case <-ended:
		logger.Info("track ended")
		return nil
	case <-ctx.Done():
		engine.Pause()
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	}
}

// Measure plays source through a standalone analyser, without an engine, and
// logs its energy every EnergyLogInterval until the stream is drained or ctx
// is done. Sources resolve the way Play resolves them.
func Measure(ctx context.Context, config Config, source string) error {
	logger := config.NewLogger()
	bus := eventbus.NewSyncEventBus(logger)
	defer bus.Close()

	blobs := blob.NewStore(logger)
	platform := newPlatform(config, logger, blobs)
	if closer, ok := platform.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	opener, ok := platform.(ports.StreamOpener)
	if !ok || !platform.Available() {
		return domain.ErrPlatformUnavailable
	}

	library := service.NewLibraryService(logger, bus, config.StaticMusicDir, config.MusicDir)
	path, err := resolveSource(library, source)
	if err != nil {
		return err
	}

	stream, err := opener.OpenStream(ctx, path)
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}
	defer stream.Close()

	analyser, err := service.NewStreamAnalyser(platform, stream)
	if err != nil {
		return fmt.Errorf("analyse %s: %w", source, err)
	}
	defer analyser.Dispose()

	logger.Info("measuring", slog.String("source", path))

	ticker := time.NewTicker(EnergyLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stream.Done():
			logger.Info("stream drained")
			return nil
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			logger.Info("energy", slog.Float64("energy", analyser.Energy()))
		}
	}
}

func resolveSource(library *service.LibraryService, source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", domain.ErrNoSource
	}
	if strings.HasPrefix(source, service.StaticPrefix) || strings.HasPrefix(source, service.FSPrefix) {
		return library.ResolveURL(source)
	}
	return source, nil
}

// newEnergyLogger returns a handler logging at most one snapshot per interval.
func newEnergyLogger(logger *slog.Logger, interval time.Duration) domain.EventHandler {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func(e domain.Event) {
		ev, ok := e.(domain.EnergyUpdatedEvent)
		if !ok {
			return
		}

		mu.Lock()
		now := ev.Timestamp()
		if !last.IsZero() && now.Sub(last) < interval {
			mu.Unlock()
			return
		}
		last = now
		mu.Unlock()

		s := ev.Snapshot
		logger.Info("energy",
			slog.Float64("energy", s.Energy),
			slog.Float64("rms", s.RMS),
			slog.Float64("bass", s.Bass),
			slog.Float64("mid", s.Mid),
			slog.Float64("high", s.High),
			slog.Float64("peak", s.Peak))
	}
}
