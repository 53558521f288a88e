package fyne

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/tunescope/internal/adapter/ui/fyne/widgets/visualizer"
	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/sizing"
	"github.com/tejashwikalptaru/tunescope/res"
)

// Window defaults.
const (
	APPNAME         = "TuneScope"
	WIDTH   float32 = 640
	HEIGHT  float32 = 420
	numBars         = 32
)

// rates offered by the rate selector.
var rates = []string{"0.5x", "0.75x", "1x", "1.25x", "1.5x", "2x"}

// MainWindow is the main UI window implementing the UIView interface.
// It handles all UI rendering and user interactions.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger
	env    sizing.Env

	// UI components
	playButton     *widget.Button
	loopButton     *widget.Button
	rateSelect     *widget.Select
	songInfo       *widget.Label
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	volumeSlider   *widget.Slider
	visualizer     visualizer.MusicVisualizer
	visualizerArea *widgets.TappableStack
	disposeSizer   func()

	// State
	tracks        []domain.TrackEntry
	libraryWindow *LibraryWindow
	updating      bool // set while the view applies presenter state

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates a new main window. The visualizer raster follows the
// canvas scale, capped by maxDPR (NaN when unset) or the saved cap in prefs.
// prefs may be nil.
func NewMainWindow(app fyneapp.App, logger *slog.Logger, maxDPR float64, prefs MaxDPRSource) *MainWindow {
	w := &MainWindow{
		app:    app,
		logger: logger.With(slog.String("component", "main_window")),
	}

	w.window = app.NewWindow(APPNAME)
	w.env = NewCanvasEnv(w.window, maxDPR, prefs)

	w.buildUI()

	w.window.Resize(fyneapp.Size{
		Width:  WIDTH,
		Height: HEIGHT,
	})

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
	w.addShortcuts()
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	w.visualizer = visualizer.Factory(visualizer.TypeLEDBars, numBars)
	w.visualizerArea = widgets.NewTappableStack(w.visualizer, w.onVisualizerTapped, w.showVisualizerMenu)
	w.disposeSizer = sizing.Observe(w.visualizer, w.env, w.visualizer.SetPixelSize)

	// Control buttons
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.loopButton = widget.NewButtonWithIcon("", theme.MediaReplayIcon(), nil)
	w.rateSelect = widget.NewSelect(rates, nil)
	w.rateSelect.SetSelected("1x")

	// Song info label
	w.songInfo = widget.NewLabel("No track loaded")
	w.songInfo.Truncation = fyneapp.TextTruncateEllipsis
	w.songInfo.TextStyle = fyneapp.TextStyle{
		Bold:   true,
		Italic: true,
	}

	// Volume slider
	w.volumeSlider = widget.NewSlider(0, 100)
	w.volumeSlider.Orientation = widget.Horizontal
	volumeHolder := container.NewBorder(nil, nil, widget.NewIcon(theme.VolumeUpIcon()), nil, w.volumeSlider)

	buttonsHBox := container.NewHBox(w.playButton, w.loopButton, w.rateSelect)
	buttonsHolder := container.NewBorder(nil, nil, buttonsHBox, container.NewGridWrap(fyneapp.NewSize(160, 36), volumeHolder), w.songInfo)

	// Progress slider
	w.progressSlider = widget.NewSlider(0, 1)
	w.currentTime = widget.NewLabel("00:00")
	w.endTime = widget.NewLabel("00:00")
	sliderHolder := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	controls := container.NewVBox(buttonsHolder, sliderHolder)
	w.window.SetContent(container.NewPadded(container.NewBorder(nil, controls, nil, nil, w.visualizerArea)))

	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// setVisualizer swaps the visualizer and re-observes its size.
func (w *MainWindow) setVisualizer(visType visualizer.Type) {
	if w.disposeSizer != nil {
		w.disposeSizer()
	}

	w.visualizer = visualizer.Factory(visType, numBars)
	w.visualizerArea.SetContent(w.visualizer)
	w.disposeSizer = sizing.Observe(w.visualizer, w.env, w.visualizer.SetPixelSize)
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = func() {
		w.presenter.OnPlayClicked()
	}

	w.loopButton.OnTapped = func() {
		w.presenter.OnLoopClicked()
	}

	w.rateSelect.OnChanged = func(value string) {
		if w.updating {
			return
		}
		if rate, err := parseRate(value); err == nil {
			w.presenter.OnRateChanged(rate)
		}
	}

	w.volumeSlider.OnChanged = func(value float64) {
		if w.updating {
			return
		}
		w.presenter.OnVolumeChanged(value)
	}

	w.progressSlider.OnChangeEnded = func(value float64) {
		if w.updating {
			return
		}
		w.presenter.OnSeekRequested(value)
	}
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	openFile := fyneapp.NewMenuItem("Open File...", w.handleOpenFile)
	openURL := fyneapp.NewMenuItem("Open URL...", w.handleOpenURL)
	chooseFolder := fyneapp.NewMenuItem("Choose Music Folder...", w.handleChooseFolder)
	viewTracks := fyneapp.NewMenuItem("View Tracks", w.ShowLibraryWindow)
	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})
	exitMenu.IsQuit = true

	about := fyneapp.NewMenuItem("About", func() {
		content := widget.NewRichTextFromMarkdown(res.AboutContent)
		content.Wrapping = fyneapp.TextWrapWord
		dialog.ShowCustom("About "+APPNAME, "Close", content, w.window)
	})

	return []*fyneapp.Menu{
		fyneapp.NewMenu("File", openFile, openURL, fyneapp.NewMenuItemSeparator(), chooseFolder, viewTracks,
			fyneapp.NewMenuItemSeparator(), exitMenu),
		fyneapp.NewMenu("Help", about),
	}
}

// handleOpenFile handles the "Open File" menu action.
func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}

	NewFileDialog(w.window, func(name string, data []byte) {
		if err := w.presenter.OnFileOpened(name, data); err != nil {
			w.ShowNotification("Error", fmt.Sprintf("Failed to open file: %v", err))
		}
	}, w.logger).Show()
}

// handleOpenURL handles the "Open URL" menu action.
func (w *MainWindow) handleOpenURL() {
	if w.presenter == nil {
		return
	}

	ShowURLDialog(w.window, func(u string) {
		if err := w.presenter.OnURLOpened(u); err != nil {
			w.ShowNotification("Error", fmt.Sprintf("Failed to open URL: %v", err))
		}
	})
}

// handleChooseFolder handles the "Choose Music Folder" menu action.
func (w *MainWindow) handleChooseFolder() {
	if w.presenter == nil {
		return
	}

	NewFolderDialog(w.window, func(dir string) {
		if err := w.presenter.OnMusicFolderChosen(dir); err != nil {
			w.ShowNotification("Error", fmt.Sprintf("Failed to use folder: %v", err))
		}
	}, w.logger).Show()
}

func (w *MainWindow) onVisualizerTapped() {
	if w.presenter != nil {
		w.presenter.OnPlayClicked()
	}
}

// showVisualizerMenu pops up the visualizer type menu at the tap position.
func (w *MainWindow) showVisualizerMenu(pe *fyneapp.PointEvent) {
	items := make([]*fyneapp.MenuItem, 0, len(visualizer.GetTypes()))
	for _, info := range visualizer.GetTypes() {
		visType := info.Type
		items = append(items, fyneapp.NewMenuItem(info.Name, func() {
			w.setVisualizer(visType)
		}))
	}
	widget.ShowPopUpMenuAtPosition(fyneapp.NewMenu("Visualizer", items...), w.window.Canvas(), pe.AbsolutePosition)
}

// addShortcuts adds keyboard shortcuts.
func (w *MainWindow) addShortcuts() {
	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyUp,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.volumeSlider.SetValue(math.Min(w.volumeSlider.Value+5, 100))
	})

	w.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyneapp.KeyDown,
		Modifier: fyneapp.KeyModifierAlt,
	}, func(fyneapp.Shortcut) {
		w.volumeSlider.SetValue(math.Max(w.volumeSlider.Value-5, 0))
	})

	w.window.Canvas().SetOnTypedKey(func(ev *fyneapp.KeyEvent) {
		if ev.Name == fyneapp.KeySpace && w.presenter != nil {
			w.presenter.OnPlayClicked()
		}
	})
}

// ShowLibraryWindow opens the track list, or focuses it when already open.
func (w *MainWindow) ShowLibraryWindow() {
	if w.libraryWindow != nil {
		w.libraryWindow.window.RequestFocus()
		return
	}

	w.libraryWindow = NewLibraryWindow(w.app, w.presenter)
	w.libraryWindow.SetTracks(w.tracks)
	w.libraryWindow.SetOnWindowClosed(func() {
		w.libraryWindow = nil
	})
	w.libraryWindow.Show()
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window and stops observing the visualizer size.
// It's safe to call multiple times (idempotent).
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		if w.disposeSizer != nil {
			w.disposeSizer()
		}
		if w.libraryWindow != nil {
			w.libraryWindow.Close()
		}
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// UIView interface implementation

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	if playing {
		w.playButton.SetIcon(theme.MediaPauseIcon())
	} else {
		w.playButton.SetIcon(theme.MediaPlayIcon())
	}
}

// SetLoopState highlights the loop button while loop mode is on.
func (w *MainWindow) SetLoopState(enabled bool) {
	if enabled {
		w.loopButton.Importance = widget.HighImportance
	} else {
		w.loopButton.Importance = widget.MediumImportance
	}
	w.loopButton.Refresh()
}

// SetVolume updates the volume slider (0.0 to 1.0).
func (w *MainWindow) SetVolume(volume float64) {
	w.volumeSlider.Value = volume * 100.0
	w.volumeSlider.Refresh()
}

// SetRate selects the matching rate, adding it when it is not a preset.
func (w *MainWindow) SetRate(rate float64) {
	label := formatRate(rate)
	if !containsOption(w.rateSelect.Options, label) {
		w.rateSelect.Options = append(w.rateSelect.Options, label)
	}

	w.updating = true
	w.rateSelect.SetSelected(label)
	w.updating = false
}

// SetTrackInfo updates the displayed track information.
func (w *MainWindow) SetTrackInfo(title, artist, album string) {
	var text string
	switch {
	case artist != "" && title != "":
		text = fmt.Sprintf("%s - %s", artist, title)
	case title != "":
		text = title
	default:
		text = "No track loaded"
	}
	if album != "" {
		text = fmt.Sprintf("%s (%s)", text, album)
	}

	w.songInfo.SetText(text)
	w.window.SetTitle(fmt.Sprintf("%s - %s", APPNAME, text))
}

// SetCurrentTime updates the current playback time display.
func (w *MainWindow) SetCurrentTime(seconds float64) {
	w.currentTime.SetText(formatClock(seconds))
}

// SetTotalTime updates the total track duration display.
func (w *MainWindow) SetTotalTime(seconds float64) {
	w.progressSlider.Max = seconds
	w.endTime.SetText(formatClock(seconds))
}

// SetProgress updates the progress slider position.
func (w *MainWindow) SetProgress(position, duration float64) {
	if duration > 0 {
		w.progressSlider.Max = duration
		w.progressSlider.Value = position
		w.progressSlider.Refresh()
	}
}

// SetTracks updates the track list.
func (w *MainWindow) SetTracks(tracks []domain.TrackEntry) {
	w.tracks = tracks
	if w.libraryWindow != nil {
		w.libraryWindow.SetTracks(tracks)
	}
}

// UpdateVisualizer draws a new frame.
func (w *MainWindow) UpdateVisualizer(frame visualizer.Frame) {
	w.visualizer.Update(frame)
}

// ResetVisualizer clears the visualizer.
func (w *MainWindow) ResetVisualizer() {
	w.visualizer.Reset()
}

// ShowNotification displays a system notification.
func (w *MainWindow) ShowNotification(title, message string) {
	w.app.SendNotification(fyneapp.NewNotification(title, message))
}

func formatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	return fmt.Sprintf("%.2d:%.2d", int(seconds/60), int(math.Mod(seconds, 60)))
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64) + "x"
}

func parseRate(label string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(label, "x"), 64)
}

func containsOption(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

// Verify UIView implementation
var _ UIView = (*MainWindow)(nil)
