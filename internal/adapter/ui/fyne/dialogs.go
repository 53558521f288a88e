package fyne

import (
	"io"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/tunescope/internal/service"
)

// FileDialog is a helper for creating audio file open dialogs.
// The picked file is read fully into memory.
type FileDialog struct {
	window   fyne.Window
	callback func(name string, data []byte)
	logger   *slog.Logger
}

// NewFileDialog creates a new file dialog.
func NewFileDialog(window fyne.Window, callback func(name string, data []byte), logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			d.logger.Error("failed to read file", slog.String("uri", reader.URI().String()), slog.Any("error", err))
			dialog.ShowError(err, d.window)
			return
		}
		if d.callback != nil {
			d.callback(reader.URI().Name(), data)
		}
	}, d.window)
	fd.SetFilter(storage.NewExtensionFileFilter(service.SupportedFormats()))
	fd.Show()
}

// FolderDialog is a helper for creating folder open dialogs.
type FolderDialog struct {
	window   fyne.Window
	callback func(string)
	logger   *slog.Logger
}

// NewFolderDialog creates a new folder dialog.
func NewFolderDialog(window fyne.Window, callback func(string), logger *slog.Logger) *FolderDialog {
	return &FolderDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the folder dialog.
func (d *FolderDialog) Show() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			d.logger.Error("folder dialog error", slog.Any("error", err))
			return
		}
		if uri == nil {
			return // User cancelled
		}

		if d.callback != nil {
			d.callback(uri.Path())
		}
	}, d.window)
}

// ShowURLDialog asks for a URL or path to play.
func ShowURLDialog(window fyne.Window, callback func(string)) {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("https://example.com/song.mp3")

	dialog.ShowForm("Open URL", "Play", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("URL", entry)},
		func(ok bool) {
			if ok && callback != nil {
				callback(entry.Text)
			}
		}, window)
}
