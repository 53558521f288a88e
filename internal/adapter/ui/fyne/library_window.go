package fyne

import (
	"fmt"
	"strings"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/samber/lo"

	"github.com/tejashwikalptaru/tunescope/internal/adapter/ui/fyne/widgets"
	"github.com/tejashwikalptaru/tunescope/internal/domain"
)

// LibraryWindow lists the tracks of the music directories with search.
// Double-clicking a row plays it. The main window pushes list updates
// through SetTracks.
type LibraryWindow struct {
	window      fyneapp.Window
	list        *widget.List
	searchEntry *widget.Entry

	// Data state
	data   []domain.TrackEntry // Filtered view (shown in the list)
	tracks []domain.TrackEntry // Full list

	presenter      *Presenter
	onWindowClosed func()
}

// NewLibraryWindow creates a new track list window.
func NewLibraryWindow(app fyneapp.App, presenter *Presenter) *LibraryWindow {
	w := &LibraryWindow{
		presenter: presenter,
	}

	w.window = app.NewWindow("Tracks")
	w.window.Resize(fyneapp.NewSize(500, 600))

	w.buildUI()

	w.window.SetOnClosed(func() {
		if w.onWindowClosed != nil {
			w.onWindowClosed()
		}
	})

	return w
}

// buildUI constructs the window layout.
func (w *LibraryWindow) buildUI() {
	w.searchEntry = widget.NewEntry()
	w.searchEntry.SetPlaceHolder("Search...")
	w.searchEntry.OnChanged = func(string) {
		w.applyFilter()
	}

	w.list = widget.NewList(
		func() int {
			return len(w.data)
		},
		func() fyneapp.CanvasObject {
			return widgets.NewDoubleTapLabel(w.onRowDoubleTapped)
		},
		func(i widget.ListItemID, obj fyneapp.CanvasObject) {
			label, ok := obj.(*widgets.DoubleTapLabel)
			if !ok || i < 0 || i >= len(w.data) {
				return
			}
			label.Bind(i, w.data[i].Name)
		},
	)

	w.window.SetContent(container.NewBorder(w.searchEntry, nil, nil, nil, w.list))
}

func (w *LibraryWindow) onRowDoubleTapped(index int) {
	if index < 0 || index >= len(w.data) || w.presenter == nil {
		return
	}

	track := w.data[index]
	if err := w.presenter.OnTrackSelected(track); err != nil {
		w.presenter.view.ShowNotification("Error", fmt.Sprintf("Failed to play %s: %v", track.Name, err))
	}
}

// SetTracks replaces the full list and re-applies the search filter.
func (w *LibraryWindow) SetTracks(tracks []domain.TrackEntry) {
	w.tracks = tracks
	w.applyFilter()
}

// applyFilter narrows the list to tracks whose name or URL contains the query.
func (w *LibraryWindow) applyFilter() {
	w.data = filterTracks(w.tracks, w.searchEntry.Text)
	w.window.SetTitle(fmt.Sprintf("Tracks (%d items)", len(w.data)))
	w.list.UnselectAll()
	w.list.Refresh()
}

func filterTracks(tracks []domain.TrackEntry, query string) []domain.TrackEntry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tracks
	}
	return lo.Filter(tracks, func(t domain.TrackEntry, _ int) bool {
		return strings.Contains(strings.ToLower(t.Name), query) ||
			strings.Contains(strings.ToLower(t.URL), query)
	})
}

// Visible returns the number of tracks currently listed.
func (w *LibraryWindow) Visible() int {
	return len(w.data)
}

// Show displays the window.
func (w *LibraryWindow) Show() {
	w.window.Show()
}

// Close closes the window.
func (w *LibraryWindow) Close() {
	w.window.Close()
}

// SetOnWindowClosed sets a callback to be invoked when the window is closed.
// This allows the parent (MainWindow) to be notified and clear its reference.
func (w *LibraryWindow) SetOnWindowClosed(callback func()) {
	w.onWindowClosed = callback
}
