// Package control holds the user-facing inputs that tune the visualizer: the parameter
// store, the drag gesture, sliders, the mode switch and the palette.
package control

import (
	"sync"

	"SpectraFM/model"
)

// ParamStore owns the live VisualizerParameters. The audio path never writes here; only
// control gestures and presets do.
type ParamStore struct {
	mu        sync.RWMutex
	p         model.VisualizerParameters
	listeners []func(model.VisualizerParameters)
}

func NewParamStore(initial model.VisualizerParameters) *ParamStore {
	return &ParamStore{p: initial.Clamp()}
}

// Parameters returns the current parameters.
func (s *ParamStore) Parameters() model.VisualizerParameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// Subscribe registers fn to be called after every change.
func (s *ParamStore) Subscribe(fn func(model.VisualizerParameters)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Update applies fn to a copy of the parameters, clamps the result and stores it.
func (s *ParamStore) Update(fn func(*model.VisualizerParameters)) model.VisualizerParameters {
	s.mu.Lock()
	next := s.p
	fn(&next)
	next = next.Clamp()
	s.p = next
	listeners := append([]func(model.VisualizerParameters){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next
}

// Set replaces all parameters, e.g. when a preset is applied.
func (s *ParamStore) Set(p model.VisualizerParameters) model.VisualizerParameters {
	return s.Update(func(cur *model.VisualizerParameters) { *cur = p })
}

func (s *ParamStore) SetIntensitySpeed(intensity, speed float64) model.VisualizerParameters {
	return s.Update(func(p *model.VisualizerParameters) {
		p.Intensity = intensity
		p.Speed = speed
	})
}

// NextMode cycles orb -> bars -> wave -> orb.
func (s *ParamStore) NextMode() model.VisualizerParameters {
	return s.Update(func(p *model.VisualizerParameters) { p.Mode = p.Mode.Next() })
}

func (s *ParamStore) SetColor(hex string) model.VisualizerParameters {
	return s.Update(func(p *model.VisualizerParameters) { p.Color = hex })
}
