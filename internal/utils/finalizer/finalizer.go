package finalizer

import (
	"io"
)

type (
	// Finalizer guarantees that a resource is closed exactly once while still surfacing the close error.
	// Call Finalize in a defer statement and Close at the end of the happy path.
	Finalizer struct {
		close  CloseFn
		closed bool
	}

	CloseFn func() error
)

func WithClose(close CloseFn) *Finalizer {
	return &Finalizer{close: close}
}

func WithCloser(closer io.Closer) *Finalizer {
	return WithClose(closer.Close)
}

// Finalize closes the resource if it has not been closed yet, ignoring any error.
func (f *Finalizer) Finalize() {
	_ = f.Close()
}

func (f *Finalizer) Close() error {
	if f.closed {
		return nil
	}

	f.closed = true
	return f.close()
}
