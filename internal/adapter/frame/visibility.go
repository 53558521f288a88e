package frame

import (
	"sync"

	"github.com/tejashwikalptaru/tunescope/internal/ports"
)

type visibilityListener struct {
	fn func()
}

// Visibility is a settable visibility signal. Hosts flip it from their
// lifecycle hooks; headless hosts leave it visible.
type Visibility struct {
	mu        sync.Mutex
	hidden    bool
	listeners []*visibilityListener
}

// NewVisibility creates a visible signal.
func NewVisibility() *Visibility {
	return &Visibility{}
}

func (v *Visibility) Hidden() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hidden
}

// SetHidden changes the state and notifies listeners when it differs.
// Listeners run on the caller's goroutine without the lock held.
func (v *Visibility) SetHidden(hidden bool) {
	v.mu.Lock()
	if v.hidden == hidden {
		v.mu.Unlock()
		return
	}
	v.hidden = hidden
	ls := append([]*visibilityListener(nil), v.listeners...)
	v.mu.Unlock()

	for _, l := range ls {
		l.fn()
	}
}

func (v *Visibility) OnVisibilityChange(fn func()) (remove func()) {
	l := &visibilityListener{fn: fn}

	v.mu.Lock()
	v.listeners = append(v.listeners, l)
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		for i, x := range v.listeners {
			if x == l {
				v.listeners = append(v.listeners[:i:i], v.listeners[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns the number of registered listeners.
func (v *Visibility) ListenerCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}

var _ ports.Visibility = (*Visibility)(nil)
