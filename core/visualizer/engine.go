package visualizer

import (
	"context"
	"time"

	"SpectraFM/core/sampler"
	"SpectraFM/logger"
	"SpectraFM/model"
)

// ParamSource yields the parameters for the next frame.
type ParamSource interface {
	Parameters() model.VisualizerParameters
}

// Engine drives the active mode once per frame. Tick never blocks; everything slow happens
// elsewhere and reaches the engine only through the sampler and the parameter source.
type Engine struct {
	sampler *sampler.Sampler
	params  ParamSource
	modes   map[model.VisualizerMode]Mode
	active  model.VisualizerMode
	started time.Time
	last    time.Time
}

func NewEngine(s *sampler.Sampler, params ParamSource) *Engine {
	return &Engine{
		sampler: s,
		params:  params,
		modes: map[model.VisualizerMode]Mode{
			model.ModeOrb:  NewOrb(),
			model.ModeBars: NewBars(),
			model.ModeWave: NewWave(),
		},
	}
}

// Mode returns the animator registered for m.
func (e *Engine) Mode(m model.VisualizerMode) Mode {
	return e.modes[m]
}

// Tick samples, builds the frame for now and updates the active mode.
func (e *Engine) Tick(scene Scene, now time.Time) Frame {
	if e.started.IsZero() {
		e.started, e.last = now, now
	}
	delta := now.Sub(e.last).Seconds()
	if delta < 0 {
		delta = 0
	}
	e.last = now

	params := e.params.Parameters()
	if params.Mode != e.active {
		e.active = params.Mode
		if r, ok := scene.(interface{ Reset(model.VisualizerMode) }); ok {
			r.Reset(params.Mode)
		}
	}

	elapsed := now.Sub(e.started).Seconds()
	f := Frame{
		Snapshot: e.sampler.Sample(elapsed),
		Params:   params,
		Elapsed:  elapsed,
		Delta:    delta,
	}
	if m := e.modes[params.Mode]; m != nil {
		m.Update(scene, f)
	}
	return f
}

// Run ticks at fps until ctx is done. after, if set, is called with every frame.
func (e *Engine) Run(ctx context.Context, fps int, scene Scene, after func(Frame)) error {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	logger.Info("Visualizer loop started", logger.Int("fps", fps))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Visualizer loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			f := e.Tick(scene, now)
			if after != nil {
				after(f)
			}
		}
	}
}
