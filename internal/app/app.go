// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/audio/beepaudio"
	"github.com/tejashwikalptaru/tunescope/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunescope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunescope/internal/adapter/frame"
	"github.com/tejashwikalptaru/tunescope/internal/adapter/repository/memory"
	fyneui "github.com/tejashwikalptaru/tunescope/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/tunescope/internal/blob"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
	"github.com/tejashwikalptaru/tunescope/internal/server"
	"github.com/tejashwikalptaru/tunescope/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing a clean entry point for main.go
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App
	config  Config

	// Infrastructure
	eventBus   ports.EventBus
	blobs      *blob.Store
	platform   ports.AudioPlatform
	scheduler  *fyneui.AnimationScheduler
	visibility *frame.Visibility

	// Services
	engine            *service.AudioEngine
	energyLoop        *service.EnergyLoop
	libraryService    *service.LibraryService
	preferenceService *service.PreferenceService
	server            *server.Server

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	// Lifecycle
	cancel       context.CancelFunc
	stopLoop     func()
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewApplication creates the desktop application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	app := &Application{config: config}

	// Step 1: Create Fyne application
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 2: Create logger
	app.logger = config.NewLogger()
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 3: Create an event bus and the audio platform
	app.eventBus = eventbus.NewSyncEventBus(app.logger)
	app.blobs = blob.NewStore(app.logger)
	app.platform = newPlatform(config, app.logger, app.blobs)

	// Step 4: Create services (with dependency injection)
	app.preferenceService = service.NewPreferenceService(
		app.logger,
		memory.NewPreferencesRepository(app.fyneApp.Preferences()),
		app.eventBus,
	)

	app.engine = service.NewAudioEngine(app.logger, app.platform, app.blobs, app.eventBus)
	app.restorePlaybackPreferences()

	staticDir, rootDir := app.musicDirs()
	app.libraryService = service.NewLibraryService(app.logger, app.eventBus, staticDir, rootDir)

	if config.Addr != "" {
		app.server = server.NewServer(app.logger, app.libraryService, app.eventBus)
	}

	// Step 5: Energy loop driven by display frames
	app.visibility = frame.NewVisibility()
	app.scheduler = fyneui.NewAnimationScheduler()
	app.energyLoop = service.NewEnergyLoop(app.logger, app.engine, app.scheduler, app.visibility, app.eventBus)
	fyneui.WatchLifecycle(app.fyneApp, app.visibility)

	// Step 6: Create UI and the presenter
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp, app.logger, config.MaxDPR, app.preferenceService)
	app.presenter = fyneui.NewPresenter(
		app.logger,
		app.engine,
		app.energyLoop,
		app.libraryService,
		app.preferenceService,
		app.eventBus,
		app.mainWindow,
	)

	// Connect presenter to the main window
	app.mainWindow.SetPresenter(app.presenter)

	return app, nil
}

func newPlatform(config Config, logger *slog.Logger, blobs *blob.Store) ports.AudioPlatform {
	if config.UseMockAudio {
		platform := mock.NewPlatform()
		platform.SetLogger(logger)
		return platform
	}
	return beepaudio.NewPlatform(logger, blobs, beepaudio.WithSampleRate(config.SampleRate))
}

// restorePlaybackPreferences applies the saved volume and loop mode to the engine.
func (a *Application) restorePlaybackPreferences() {
	a.engine.SetVolume(a.preferenceService.GetVolume())
	a.engine.SetLoop(a.preferenceService.GetLoopMode())
}

// musicDirs returns the configured directories, falling back to the saved ones.
func (a *Application) musicDirs() (staticDir, rootDir string) {
	staticDir, rootDir = a.config.StaticMusicDir, a.config.MusicDir
	savedStatic, savedRoot := a.preferenceService.GetMusicDirs()
	if staticDir == "" {
		staticDir = savedStatic
	}
	if rootDir == "" {
		rootDir = savedRoot
	}
	return staticDir, rootDir
}

// Start begins watching the music directories, serving the track listing
// and running the energy loop. Run calls it; tests call it directly.
func (a *Application) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.libraryService.Watch(ctx); err != nil {
		a.logger.Warn("music directory watch unavailable", slog.Any("error", err))
	}

	if a.server != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.server.Run(ctx, a.config.Addr); err != nil {
				a.logger.Error("track listing server stopped", slog.Any("error", err))
			}
		}()
	}

	a.scheduler.Start()
	a.stopLoop = a.energyLoop.Start()
}

// Run starts the application.
// This is called from main.go after the application is created.
func (a *Application) Run() {
	a.Start()
	a.logger.Info("TuneScope started")

	// Show and run UI (blocks until the window is closed)
	a.mainWindow.ShowAndRun()
}

// Shutdown gracefully shuts down the application.
// It's safe to call multiple times (idempotent).
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		if a.stopLoop != nil {
			a.stopLoop()
		}
		a.scheduler.Stop()

		// Shutdown UI and presenter
		a.presenter.Shutdown()

		if a.cancel != nil {
			a.cancel()
		}
		a.wg.Wait()

		var errs []error
		if a.server != nil {
			errs = append(errs, a.server.Close())
		}
		errs = append(errs, a.libraryService.Shutdown())
		errs = append(errs, a.preferenceService.Shutdown())
		errs = append(errs, a.engine.Close())
		if closer, ok := a.platform.(interface{ Close() error }); ok {
			errs = append(errs, closer.Close())
		}
		errs = append(errs, a.eventBus.Close())

		a.shutdownErr = errors.Join(errs...)
		if a.shutdownErr != nil {
			a.logger.Warn("shutdown finished with errors", slog.Any("error", a.shutdownErr))
		}
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// GetEngine returns the audio engine.
func (a *Application) GetEngine() *service.AudioEngine {
	return a.engine
}

// GetServices returns the library and preference services.
func (a *Application) GetServices() (*service.LibraryService, *service.PreferenceService) {
	return a.libraryService, a.preferenceService
}

// GetEventBus returns the event bus.
func (a *Application) GetEventBus() ports.EventBus {
	return a.eventBus
}

// GetFyneApp returns the Fyne application.
func (a *Application) GetFyneApp() fyne.App {
	return a.fyneApp
}
