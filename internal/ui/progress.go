package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner animates a message on one line until stopped. A disabled spinner only prints the
// final message.
type Spinner struct {
	output   io.Writer
	message  string
	frames   []string
	interval time.Duration
	enabled  bool

	mu     sync.Mutex
	active bool
	stop   chan struct{}
	done   chan struct{}
}

// NewSpinner creates a spinner. Pass enabled=false for quiet or non-terminal output.
func NewSpinner(output io.Writer, message string, enabled bool) *Spinner {
	return &Spinner{
		output:   output,
		message:  message,
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 100 * time.Millisecond,
		enabled:  enabled,
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active || !s.enabled {
		return
	}
	s.active = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.animate(s.stop, s.done)
}

// Stop stops the spinner with a success message
func (s *Spinner) Stop(successMessage string) {
	s.finish("✓", successMessage)
}

// StopWithError stops the spinner with an error message
func (s *Spinner) StopWithError(errorMessage string) {
	s.finish("✗", errorMessage)
}

func (s *Spinner) finish(mark, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		close(s.stop)
		<-s.done
		s.active = false
		_, _ = fmt.Fprint(s.output, "\r\033[K")
	}
	if message != "" {
		_, _ = fmt.Fprintf(s.output, "%s %s\n", mark, message)
	}
}

func (s *Spinner) animate(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_, _ = fmt.Fprintf(s.output, "\r%s %s", s.frames[i%len(s.frames)], s.message)
		}
	}
}
