package nlayer

import "io"

// ForwardOnly wraps src so the reader treats it as a forward-only stream
// even when the underlying value supports seeking. Useful for testing the
// streaming path and for sources whose Seek is unreliable.
func ForwardOnly(src io.Reader) io.Reader {
	return &forwardOnly{src: src}
}

type forwardOnly struct {
	src io.Reader
}

func (f *forwardOnly) Read(p []byte) (int, error) {
	return f.src.Read(p)
}
