package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a context on SIGINT or SIGTERM and tells the user
// what happened.
type InterruptHandler struct {
	writer      io.Writer
	signals     chan os.Signal
	hint        string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stderr
	}
	return &InterruptHandler{
		writer:  writer,
		signals: make(chan os.Signal, 1),
	}
}

// HandleInterrupts returns a context canceled on the first interrupt. hint,
// when set, is printed after the interrupt notice. The returned stop function
// releases the signal handler.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, hint string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	h.hint = hint

	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-h.signals:
			h.mu.Lock()
			if !h.interrupted {
				h.interrupted = true
				h.showInterruptMessage()
			}
			h.mu.Unlock()
			cancel()
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(h.signals)
			close(done)
			cancel()
		})
	}
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n" + FormatWarning("Interrupted, stopping in-flight requests")
	if h.hint != "" {
		msg += "\n" + FormatInfo(h.hint)
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
