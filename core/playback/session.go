package playback

import (
	"errors"
	"io"
	"sync"

	"SpectraFM/core/sampler"
)

var (
	// ErrNothingLoaded is returned by transports asked to play before any load.
	ErrNothingLoaded = errors.New("no source loaded")
	// ErrSessionClosed is returned when using a torn-down session.
	ErrSessionClosed = errors.New("playback session closed")
)

// Session owns the transport and the optional analysis node for one player. It is built
// explicitly and torn down with Close; nothing else holds these handles globally.
type Session struct {
	mu        sync.Mutex
	transport Transport
	analyser  sampler.Analyser
	closed    bool
}

// NewSession wraps a transport and an analyser. analyser may be nil when the host exposes
// no audio graph.
func NewSession(t Transport, analyser sampler.Analyser) *Session {
	return &Session{transport: t, analyser: analyser}
}

func (s *Session) Transport() Transport {
	return s.transport
}

func (s *Session) Analyser() sampler.Analyser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.analyser
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close pauses the transport and releases it if it is closable.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.transport.Pause()
	if c, ok := s.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
