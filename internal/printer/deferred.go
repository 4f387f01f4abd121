package printer

import (
	"bytes"
	"io"
	"sync"
)

// Deferred holds output written from background goroutines until the
// foreground command is done with the terminal. Safe for concurrent use.
type Deferred struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write stores data in the internal buffer.
func (d *Deferred) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Write(p)
}

// Pending reports whether anything is waiting to be flushed.
func (d *Deferred) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Len() > 0
}

// Flush writes everything buffered so far to w and empties the buffer.
func (d *Deferred) Flush(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.buf.Len() == 0 {
		return nil
	}

	_, err := d.buf.WriteTo(w)
	return err
}
