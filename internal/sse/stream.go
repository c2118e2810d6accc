package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("streaming not supported")

// DefaultWriteTimeout bounds each frame write. Every successful write pushes
// the deadline forward again.
const DefaultWriteTimeout = 60 * time.Second

// Stream writes SSE frames to a single response. Send and Ping may be called
// from different goroutines.
type Stream struct {
	mu           sync.Mutex
	w            http.ResponseWriter
	rc           *http.ResponseController
	writeTimeout time.Duration
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithWriteTimeout sets the per-write deadline. Zero disables it.
func WithWriteTimeout(d time.Duration) StreamOption {
	return func(s *Stream) {
		s.writeTimeout = d
	}
}

// NewStream sets the SSE headers and flushes them.
func NewStream(w http.ResponseWriter, opts ...StreamOption) (*Stream, error) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	s := &Stream{w: w, rc: http.NewResponseController(w), writeTimeout: DefaultWriteTimeout}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.rc.Flush(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamingUnsupported, err)
	}
	return s, nil
}

// Send writes one event frame and flushes it.
func (s *Stream) Send(eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	return s.write(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, payload))
}

// Ping writes a comment frame. Clients ignore it; it keeps the connection
// and the write deadline alive while no event is ready.
func (s *Stream) Ping() error {
	return s.write(": ping\n\n")
}

// KeepAlive pings every interval until the returned stop function is
// called. stop waits for the pinging goroutine, so nothing is written to
// the response after it returns.
func (s *Stream) KeepAlive(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Ping(); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

// ClearDeadline removes the write deadline so it does not outlive the
// response on a reused connection.
func (s *Stream) ClearDeadline() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.rc.SetWriteDeadline(time.Time{})
}

func (s *Stream) write(frame string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprint(s.w, frame); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil {
		return err
	}

	if s.writeTimeout > 0 {
		// Not every ResponseWriter supports deadlines.
		_ = s.rc.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return nil
}
