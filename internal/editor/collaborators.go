package editor

import (
	"sync/atomic"

	"adboard-booking/internal/models"
)

// Notifier receives the aggregate toasts raised by editor operations.
type Notifier interface {
	Notify(message string, kind models.ToastKind)
}

// Loader is a loading indicator. Every Show is paired with exactly one Hide.
type Loader interface {
	Show()
	Hide()
}

// LoadingCounter is a Loader that stays visible while any scope is open.
// It is safe for concurrent use.
type LoadingCounter struct {
	open atomic.Int32
}

func (c *LoadingCounter) Show() { c.open.Add(1) }

func (c *LoadingCounter) Hide() {
	for {
		n := c.open.Load()
		if n <= 0 || c.open.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// Visible reports whether at least one loading scope is open.
func (c *LoadingCounter) Visible() bool { return c.open.Load() > 0 }

// withLoading runs fn inside a loading scope that is closed on every exit path.
func withLoading(l Loader, fn func() error) error {
	l.Show()
	defer l.Hide()
	return fn()
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, models.ToastKind) {}
