// Package main is the production entry point for the TuneScope player.
//
// TuneScope plays audio files and URLs, measures their live energy and
// draws it. It runs as a desktop window, as a headless player, or as a
// server listing the music directories and streaming energy over a websocket.
//
// Build:
//
//	go build -o build/tunescope ./cmd
//
// Run:
//
//	./build/tunescope               # desktop player
//	./build/tunescope serve         # track listing server
//	./build/tunescope play a.mp3    # headless player
//	./build/tunescope measure a.mp3 # standalone analyser
//	./build/tunescope tracks        # print the track listing
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunescope/internal/app"
)

// musicDirs holds the directory flags every command shares. Empty values
// keep the environment or default directories.
type musicDirs struct {
	staticDir string
	musicDir  string
}

func (d musicDirs) apply(config *app.Config) {
	if d.staticDir != "" {
		config.StaticMusicDir = d.staticDir
	}
	if d.musicDir != "" {
		config.MusicDir = d.musicDir
	}
}

type DesktopParams struct {
	StaticDir string  `optional:"true" help:"Directory served under /music-dir/."`
	MusicDir  string  `optional:"true" help:"Project-level directory served under /@fs/."`
	Addr      string  `optional:"true" help:"Listen address of the track listing server."`
	NoServer  bool    `optional:"true" help:"Do not start the track listing server."`
	MaxDPR    float64 `optional:"true" help:"Cap the visualizer pixel ratio (0 keeps the saved cap)." default:"0"`
}

type ServeParams struct {
	StaticDir string `optional:"true" help:"Directory served under /music-dir/."`
	MusicDir  string `optional:"true" help:"Project-level directory served under /@fs/."`
	Addr      string `optional:"true" help:"Address to listen on."`
}

type PlayParams struct {
	Source     string `pos:"true" required:"true" help:"File path, URL, or /music-dir/ or /@fs/ track URL."`
	StaticDir  string `optional:"true" help:"Directory served under /music-dir/."`
	MusicDir   string `optional:"true" help:"Project-level directory served under /@fs/."`
	SampleRate int    `optional:"true" help:"Output sample rate (0 keeps the default)." default:"0"`
}

type MeasureParams struct {
	Source     string `pos:"true" required:"true" help:"File path, URL, or /music-dir/ or /@fs/ track URL."`
	StaticDir  string `optional:"true" help:"Directory served under /music-dir/."`
	MusicDir   string `optional:"true" help:"Project-level directory served under /@fs/."`
	SampleRate int    `optional:"true" help:"Output sample rate (0 keeps the default)." default:"0"`
}

type TracksParams struct {
	StaticDir string `optional:"true" help:"Directory served under /music-dir/."`
	MusicDir  string `optional:"true" help:"Project-level directory served under /@fs/."`
}

func main() {
	boa.CmdT[DesktopParams]{
		Use:         "tunescope",
		Short:       "Audio player with live energy metrics",
		Version:     app.GetVersionInfo().FullString(),
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *DesktopParams, cmd *cobra.Command, args []string) {
			exitOnError("tunescope", runDesktop(params))
		},
		SubCmds: []*cobra.Command{
			serveCmd(),
			playCmd(),
			measureCmd(),
			tracksCmd(),
		},
	}.Run()
}

func paramEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
	)
}

func desktopConfig(params *DesktopParams) app.Config {
	config := app.DefaultConfig()
	musicDirs{params.StaticDir, params.MusicDir}.apply(&config)
	if params.Addr != "" {
		config.Addr = params.Addr
	}
	if params.NoServer {
		config.Addr = ""
	}
	if params.MaxDPR > 0 {
		config.MaxDPR = params.MaxDPR
	}
	return config
}

func runDesktop(params *DesktopParams) error {
	// Create the application with dependency injection
	application, err := app.NewApplication(desktopConfig(params))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}()

	// Run application (blocks until the window closed)
	application.Run()
	return nil
}

func serveCmd() *cobra.Command {
	return boa.CmdT[ServeParams]{
		Use:         "serve",
		Short:       "Serve the track listing, music files and the energy websocket",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *ServeParams, cmd *cobra.Command, args []string) {
			config := app.DefaultConfig()
			musicDirs{params.StaticDir, params.MusicDir}.apply(&config)
			if params.Addr != "" {
				config.Addr = params.Addr
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			exitOnError("serve", app.Serve(ctx, config))
		},
	}.ToCobra()
}

func playCmd() *cobra.Command {
	return boa.CmdT[PlayParams]{
		Use:         "play",
		Short:       "Play a track headless and log its energy every second",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *PlayParams, cmd *cobra.Command, args []string) {
			config := app.DefaultConfig()
			musicDirs{params.StaticDir, params.MusicDir}.apply(&config)
			if params.SampleRate > 0 {
				config.SampleRate = params.SampleRate
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			exitOnError("play", app.Play(ctx, config, params.Source))
		},
	}.ToCobra()
}

func measureCmd() *cobra.Command {
	return boa.CmdT[MeasureParams]{
		Use:         "measure",
		Short:       "Measure a track with a standalone analyser and log its energy every second",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *MeasureParams, cmd *cobra.Command, args []string) {
			config := app.DefaultConfig()
			musicDirs{params.StaticDir, params.MusicDir}.apply(&config)
			if params.SampleRate > 0 {
				config.SampleRate = params.SampleRate
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			exitOnError("measure", app.Measure(ctx, config, params.Source))
		},
	}.ToCobra()
}

func tracksCmd() *cobra.Command {
	return boa.CmdT[TracksParams]{
		Use:         "tracks",
		Short:       "Print the track listing as JSON",
		ParamEnrich: paramEnricher(),
		RunFunc: func(params *TracksParams, cmd *cobra.Command, args []string) {
			config := app.DefaultConfig()
			musicDirs{params.StaticDir, params.MusicDir}.apply(&config)
			exitOnError("tracks", app.ListTracks(config, cmd.OutOrStdout()))
		},
	}.ToCobra()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func exitOnError(name string, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}
