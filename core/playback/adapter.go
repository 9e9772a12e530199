package playback

import (
	"context"
	"fmt"
	"sync"

	"SpectraFM/core/sampler"
	"SpectraFM/logger"
	"SpectraFM/model"
)

// Adapter drives the transport from one desired isPlaying flag. Commands are only issued
// when the transport's reported state disagrees with the desired one.
type Adapter struct {
	mu       sync.Mutex
	session  *Session
	sampler  *sampler.Sampler
	playing  bool
	state    model.PlaybackState
	track    *model.Track
	loaded   string
	progress model.Progress
	volume   float64

	onProgress []func(model.Progress)
	onEnded    []func()
}

// NewAdapter binds the adapter to a session. smp may be nil; when set, the adapter attaches
// the session's analyser to it, or turns on simulation for sources without an audio graph.
func NewAdapter(session *Session, smp *sampler.Sampler) *Adapter {
	return &Adapter{
		session: session,
		sampler: smp,
		state:   model.StateStopped,
		volume:  1,
	}
}

func (a *Adapter) transport() Transport {
	return a.session.Transport()
}

// OnProgress registers a time-progress listener.
func (a *Adapter) OnProgress(fn func(model.Progress)) {
	a.mu.Lock()
	a.onProgress = append(a.onProgress, fn)
	a.mu.Unlock()
}

// OnEnded registers an end-of-track listener.
func (a *Adapter) OnEnded(fn func()) {
	a.mu.Lock()
	a.onEnded = append(a.onEnded, fn)
	a.mu.Unlock()
}

// SetPlaying sets the desired state and reconciles the transport.
func (a *Adapter) SetPlaying(want bool) {
	a.mu.Lock()
	a.playing = want
	a.reconcileLocked()
	a.mu.Unlock()
}

// reconcileLocked issues play or pause only if the transport disagrees.
func (a *Adapter) reconcileLocked() {
	if a.track == nil {
		a.state = model.StateStopped
		return
	}
	t := a.transport()
	paused := t.Paused()
	switch {
	case a.playing && paused:
		a.resumeLocked()
	case !a.playing && !paused:
		t.Pause()
		a.state = model.StatePaused
	case a.playing:
		a.state = model.StatePlaying
	default:
		a.state = model.StatePaused
	}
}

// resumeLocked starts the transport. A rejected start is logged and reverts to paused; it
// never reaches the caller.
func (a *Adapter) resumeLocked() {
	if err := a.transport().Play(); err != nil {
		logger.Warn("Playback start rejected, reverting to paused",
			logger.String("trackId", a.track.ID),
			logger.ErrorField(err))
		a.playing = false
		a.state = model.StatePaused
		return
	}
	a.state = model.StatePlaying
}

// SetTrack loads track if its canonical source differs from the loaded one and resumes
// playback if the player was playing.
func (a *Adapter) SetTrack(track model.Track) error {
	if a.session.Closed() {
		return ErrSessionClosed
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	src := track.CanonicalSource()
	if a.track != nil && src == a.loaded {
		a.track = &track
		a.reconcileLocked()
		return nil
	}

	if err := a.transport().Load(track); err != nil {
		a.state = model.StatePaused
		return fmt.Errorf("failed to load track %s: %w", track.ID, err)
	}
	a.track = &track
	a.loaded = src
	a.progress = model.Progress{CurrentTime: 0, Duration: a.transport().Duration()}
	a.bindAnalysis(track)

	logger.Info("Track loaded",
		logger.String("trackId", track.ID),
		logger.String("title", track.Title),
		logger.Bool("resume", a.playing))

	if a.playing {
		a.resumeLocked()
	} else {
		a.state = model.StatePaused
	}
	return nil
}

func (a *Adapter) bindAnalysis(track model.Track) {
	if a.sampler == nil {
		return
	}
	analyser := a.session.Analyser()
	if track.Source.Kind == model.SourceVideo || analyser == nil {
		a.sampler.SetSimulated(true)
		return
	}
	a.sampler.Attach(analyser)
}

// SetVolume applies immediately, regardless of play state.
func (a *Adapter) SetVolume(v float64) {
	v = model.ClampFloat(v, 0, 1)
	a.mu.Lock()
	a.volume = v
	a.mu.Unlock()
	a.transport().SetVolume(v)
}

// Seek moves the transport and publishes the new position at once.
func (a *Adapter) Seek(seconds float64) model.Progress {
	a.mu.Lock()
	if d := a.transport().Duration(); d > 0 {
		seconds = model.ClampFloat(seconds, 0, d)
	} else if seconds < 0 {
		seconds = 0
	}
	a.transport().Seek(seconds)
	a.progress.CurrentTime = seconds
	p := a.progress
	listeners := append([]func(model.Progress){}, a.onProgress...)
	a.mu.Unlock()

	for _, l := range listeners {
		l(p)
	}
	return p
}

func (a *Adapter) Progress() model.Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress
}

func (a *Adapter) State() model.PlaybackState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Adapter) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

func (a *Adapter) Volume() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.volume
}

// Track returns the loaded track, if any.
func (a *Adapter) Track() (model.Track, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.track == nil {
		return model.Track{}, false
	}
	return *a.track, true
}

// Handle applies one transport event.
func (a *Adapter) Handle(ev TransportEvent) {
	a.mu.Lock()
	a.progress = model.Progress{CurrentTime: ev.CurrentTime, Duration: ev.Duration}
	p := a.progress
	progress := append([]func(model.Progress){}, a.onProgress...)
	var ended []func()
	if ev.Kind == EventEnded {
		a.state = model.StateStopped
		ended = append(ended, a.onEnded...)
	}
	a.mu.Unlock()

	for _, l := range progress {
		l(p)
	}
	for _, l := range ended {
		l()
	}
}

// Pump forwards transport events until ctx is done or the event channel closes.
func (a *Adapter) Pump(ctx context.Context) {
	events := a.transport().Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			a.Handle(ev)
		}
	}
}
