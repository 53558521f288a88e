package widgets

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// TappableStack wraps content and reports taps on it. The main window wraps
// the visualizer in one: a tap toggles playback, a secondary tap opens the
// visualizer menu.
type TappableStack struct {
	widget.BaseWidget

	content        fyne.CanvasObject
	onTap          func()
	onSecondaryTap func(*fyne.PointEvent)
}

// NewTappableStack creates a new tappable stack with the given content.
func NewTappableStack(content fyne.CanvasObject, onTap func(), onSecondaryTap func(*fyne.PointEvent)) *TappableStack {
	t := &TappableStack{
		content:        content,
		onTap:          onTap,
		onSecondaryTap: onSecondaryTap,
	}
	t.ExtendBaseWidget(t)
	return t
}

// CreateRenderer implements fyne.Widget.
func (t *TappableStack) CreateRenderer() fyne.WidgetRenderer {
	return &tappableStackRenderer{stack: t}
}

// Tapped implements fyne.Tappable.
func (t *TappableStack) Tapped(*fyne.PointEvent) {
	if t.onTap != nil {
		t.onTap()
	}
}

// TappedSecondary implements fyne.SecondaryTappable.
func (t *TappableStack) TappedSecondary(pe *fyne.PointEvent) {
	if t.onSecondaryTap != nil {
		t.onSecondaryTap(pe)
	}
}

// SetContent swaps the wrapped content.
func (t *TappableStack) SetContent(content fyne.CanvasObject) {
	t.content = content
	t.Refresh()
}

// Content returns the wrapped content.
func (t *TappableStack) Content() fyne.CanvasObject {
	return t.content
}

// tappableStackRenderer follows content swaps, which a simple renderer cannot.
type tappableStackRenderer struct {
	stack *TappableStack
}

func (r *tappableStackRenderer) Layout(size fyne.Size) {
	r.stack.content.Resize(size)
	r.stack.content.Move(fyne.NewPos(0, 0))
}

func (r *tappableStackRenderer) MinSize() fyne.Size {
	return r.stack.content.MinSize()
}

func (r *tappableStackRenderer) Refresh() {
	r.Layout(r.stack.Size())
	r.stack.content.Refresh()
}

func (r *tappableStackRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.stack.content}
}

func (r *tappableStackRenderer) Destroy() {}

var (
	_ fyne.Tappable          = (*TappableStack)(nil)
	_ fyne.SecondaryTappable = (*TappableStack)(nil)
)
