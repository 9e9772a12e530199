package control

import (
	"sync"

	"SpectraFM/model"
)

// Slider is a freestanding vertical slider. Position is measured from the bottom of the
// track, so pos == Length yields Max.
type Slider struct {
	Min, Max float64
	Length   float64
	OnChange func(float64)

	mu      sync.Mutex
	pressed bool
	value   float64
}

func NewSlider(min, max, length, initial float64, onChange func(float64)) *Slider {
	return &Slider{Min: min, Max: max, Length: length, OnChange: onChange, value: initial}
}

// ValueAt maps a position along the track to [Min, Max].
func (s *Slider) ValueAt(pos float64) float64 {
	if s.Length <= 0 {
		return s.Min
	}
	frac := model.ClampFloat(pos/s.Length, 0, 1)
	return s.Min + frac*(s.Max-s.Min)
}

// Press grabs the knob and jumps to pos.
func (s *Slider) Press(pos float64) float64 {
	s.mu.Lock()
	s.pressed = true
	s.mu.Unlock()
	return s.emit(pos)
}

// Move emits a new value while pressed; otherwise it is ignored.
func (s *Slider) Move(pos float64) (float64, bool) {
	s.mu.Lock()
	pressed := s.pressed
	s.mu.Unlock()
	if !pressed {
		return s.Value(), false
	}
	return s.emit(pos), true
}

func (s *Slider) Release() {
	s.mu.Lock()
	s.pressed = false
	s.mu.Unlock()
}

func (s *Slider) Value() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Slider) emit(pos float64) float64 {
	v := s.ValueAt(pos)
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	if s.OnChange != nil {
		s.OnChange(v)
	}
	return v
}

// IntensitySlider binds a slider to the store's intensity.
func IntensitySlider(store *ParamStore, length float64) *Slider {
	return NewSlider(model.MinIntensity, model.MaxIntensity, length, store.Parameters().Intensity,
		func(v float64) {
			store.Update(func(p *model.VisualizerParameters) { p.Intensity = v })
		})
}

// SpeedSlider binds a slider to the store's speed.
func SpeedSlider(store *ParamStore, length float64) *Slider {
	return NewSlider(model.MinSpeed, model.MaxSpeed, length, store.Parameters().Speed,
		func(v float64) {
			store.Update(func(p *model.VisualizerParameters) { p.Speed = v })
		})
}
