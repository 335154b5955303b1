package runtime

import (
	"io"
	"sync"
)

// Reader that reports when its source is exhausted.
//
// The containerd shim keeps both ends of the stdin FIFO open, so a process
// reading a script from stdin never sees EOF on its own. Drained fires once
// the script has been fully handed over, which tells the caller to close the
// process's stdin. A read error also counts as exhausted.
type doneReader struct {
	src     io.Reader
	once    sync.Once
	drained chan struct{}
}

// Creates a new [doneReader] over src.
func newDoneReader(src io.Reader) *doneReader {
	return &doneReader{src: src, drained: make(chan struct{})}
}

// Returns a channel closed after the source returned its first error.
func (d *doneReader) Drained() <-chan struct{} {
	return d.drained
}

// Reads from the source.
func (d *doneReader) Read(p []byte) (int, error) {
	n, err := d.src.Read(p)
	if err != nil {
		d.once.Do(func() { close(d.drained) })
	}
	return n, err
}
