// Package widgets provides custom Fyne widgets for the TuneScope player.
package widgets

import (
	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// DoubleTapLabel is a list cell label that reports double taps with the
// index of the row it currently shows. The track list plays a track on
// double tap.
type DoubleTapLabel struct {
	widget.Label
	doubleTapped func(index int)
	index        int
}

// NewDoubleTapLabel creates a new DoubleTapLabel with the given callback function.
func NewDoubleTapLabel(doubleTapped func(index int)) *DoubleTapLabel {
	label := &DoubleTapLabel{
		doubleTapped: doubleTapped,
		index:        -1,
	}
	label.ExtendBaseWidget(label)
	return label
}

// DoubleTapped implements the fyne.DoubleTappable interface.
func (l *DoubleTapLabel) DoubleTapped(_ *fyneapp.PointEvent) {
	if l.doubleTapped != nil && l.index >= 0 {
		l.doubleTapped(l.index)
	}
}

// Bind points the label at row index and shows text.
func (l *DoubleTapLabel) Bind(index int, text string) {
	l.index = index
	l.SetText(text)
}

// Index returns the row the label shows, -1 before the first Bind.
func (l *DoubleTapLabel) Index() int {
	return l.index
}

var _ fyneapp.DoubleTappable = (*DoubleTapLabel)(nil)
