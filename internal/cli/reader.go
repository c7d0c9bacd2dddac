package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when a read is abandoned because its context
// is done.
var ErrInputCancelled = errors.New("input canceled")

type line struct {
	err  error
	text string
}

// LineReader reads lines from an input that cannot be interrupted, such as
// stdin. Each line is read by a goroutine on request. A read abandoned on
// cancellation stays pending and its line goes to the next ReadLine, and
// nothing is read ahead of a request.
type LineReader struct {
	src     *bufio.Reader
	lines   chan line
	mu      sync.Mutex
	pending bool
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		src:   bufio.NewReader(r),
		lines: make(chan line, 1),
	}
}

// ReadLine returns the next line without surrounding whitespace. A final
// line without a newline is returned first, then io.EOF.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	r.mu.Lock()
	if !r.pending {
		r.pending = true
		go func() {
			text, err := r.src.ReadString('\n')
			if text != "" {
				err = nil
			}
			r.lines <- line{text: text, err: err}
		}()
	}
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case l := <-r.lines:
		r.mu.Lock()
		r.pending = false
		r.mu.Unlock()
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}
