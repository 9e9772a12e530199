// Package playback bridges the player's desired state to a media transport and keeps the
// live playback context.
package playback

import (
	"sync"
	"time"

	"SpectraFM/model"
)

// EventKind is the type of a transport notification.
type EventKind int

const (
	EventProgress EventKind = iota
	EventEnded
)

// TransportEvent is emitted by the transport at its own cadence.
type TransportEvent struct {
	Kind        EventKind
	CurrentTime float64
	Duration    float64
}

// Transport is the underlying media element. Play may fail, e.g. when the host blocks
// autoplay.
type Transport interface {
	Load(track model.Track) error
	Play() error
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
	CurrentTime() float64
	Duration() float64
	Paused() bool
	Events() <-chan TransportEvent
}

// DefaultTrackDuration is assumed for tracks whose length is unknown.
const DefaultTrackDuration = 180.0

// ClockTransport is a headless transport that advances position with wall time. The server
// and the terminal visualizer use it to keep authoritative playback state without decoding
// audio.
type ClockTransport struct {
	mu       sync.Mutex
	loaded   bool
	paused   bool
	position float64
	duration float64
	volume   float64
	events   chan TransportEvent
	stop     chan struct{}
	once     sync.Once
}

func NewClockTransport() *ClockTransport {
	return &ClockTransport{
		paused: true,
		volume: 1,
		events: make(chan TransportEvent, 16),
		stop:   make(chan struct{}),
	}
}

// Start runs the progress ticker until Close.
func (c *ClockTransport) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.Advance(interval.Seconds())
			}
		}
	}()
}

// Advance moves the clock forward by dt seconds if playing and emits progress, plus ended
// when the end is reached.
func (c *ClockTransport) Advance(dt float64) {
	c.mu.Lock()
	if !c.loaded || c.paused {
		c.mu.Unlock()
		return
	}
	c.position += dt
	ended := c.position >= c.duration
	if ended {
		c.position = c.duration
		c.paused = true
	}
	pos, dur := c.position, c.duration
	c.mu.Unlock()

	c.emit(TransportEvent{Kind: EventProgress, CurrentTime: pos, Duration: dur})
	if ended {
		c.emit(TransportEvent{Kind: EventEnded, CurrentTime: pos, Duration: dur})
	}
}

func (c *ClockTransport) emit(ev TransportEvent) {
	select {
	case c.events <- ev:
	default:
	}
}

func (c *ClockTransport) Load(track model.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	c.paused = true
	c.position = 0
	c.duration = track.Duration
	if c.duration <= 0 {
		c.duration = DefaultTrackDuration
	}
	return nil
}

func (c *ClockTransport) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return ErrNothingLoaded
	}
	if c.position >= c.duration {
		c.position = 0
	}
	c.paused = false
	return nil
}

func (c *ClockTransport) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

func (c *ClockTransport) Seek(seconds float64) {
	c.mu.Lock()
	c.position = model.ClampFloat(seconds, 0, c.duration)
	c.mu.Unlock()
}

func (c *ClockTransport) SetVolume(v float64) {
	c.mu.Lock()
	c.volume = v
	c.mu.Unlock()
}

func (c *ClockTransport) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *ClockTransport) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *ClockTransport) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

func (c *ClockTransport) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *ClockTransport) Events() <-chan TransportEvent {
	return c.events
}

// Close stops the ticker started by Start.
func (c *ClockTransport) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}
