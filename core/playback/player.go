package playback

import (
	"sync"

	"SpectraFM/logger"
	"SpectraFM/model"
)

// Status is a point-in-time view of the player.
type Status struct {
	State    model.PlaybackState   `json:"state"`
	Playing  bool                  `json:"playing"`
	Track    *model.Track          `json:"track,omitempty"`
	Progress model.Progress        `json:"progress"`
	Volume   float64               `json:"volume"`
	Context  model.PlaybackContext `json:"context"`
}

// Player ties the queue to the adapter. End of track advances to the next entry.
type Player struct {
	queue   *Queue
	adapter *Adapter

	mu        sync.Mutex
	listeners []func(model.Track)
}

func NewPlayer(queue *Queue, adapter *Adapter) *Player {
	p := &Player{queue: queue, adapter: adapter}
	adapter.OnEnded(func() {
		if _, err := p.Next(); err != nil {
			logger.Warn("Could not advance after track end", logger.ErrorField(err))
		}
	})
	return p
}

func (p *Player) Adapter() *Adapter { return p.adapter }

func (p *Player) Queue() *Queue { return p.queue }

// OnTrackChange registers fn to run after a different track has been loaded. Listeners run
// on the caller's goroutine and must not block.
func (p *Player) OnTrackChange(fn func(model.Track)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

func (p *Player) load(track model.Track, err error) (model.Track, error) {
	if err != nil {
		return model.Track{}, err
	}
	prev, hadPrev := p.adapter.Track()
	if err := p.adapter.SetTrack(track); err != nil {
		return model.Track{}, err
	}
	if hadPrev && prev.ID == track.ID {
		return track, nil
	}

	p.mu.Lock()
	listeners := append([]func(model.Track){}, p.listeners...)
	p.mu.Unlock()
	for _, l := range listeners {
		l(track)
	}
	return track, nil
}

func (p *Player) Next() (model.Track, error) {
	return p.load(p.queue.Next())
}

func (p *Player) Prev() (model.Track, error) {
	return p.load(p.queue.Prev())
}

func (p *Player) Select(ctx model.PlaybackContext) (model.Track, error) {
	return p.load(p.queue.Select(ctx))
}

func (p *Player) SelectTrack(trackID string) (model.Track, error) {
	return p.load(p.queue.SelectTrack(trackID))
}

// Play loads the current entry if nothing is loaded yet, then plays.
func (p *Player) Play() error {
	if _, ok := p.adapter.Track(); !ok {
		if _, err := p.load(p.queue.Current()); err != nil {
			return err
		}
	}
	p.adapter.SetPlaying(true)
	return nil
}

func (p *Player) Pause() {
	p.adapter.SetPlaying(false)
}

func (p *Player) Status() Status {
	s := Status{
		State:    p.adapter.State(),
		Playing:  p.adapter.Playing(),
		Progress: p.adapter.Progress(),
		Volume:   p.adapter.Volume(),
		Context:  p.queue.Context(),
	}
	if t, ok := p.adapter.Track(); ok {
		s.Track = &t
	}
	return s
}
