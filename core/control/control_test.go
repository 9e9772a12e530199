package control

import (
	"testing"

	"SpectraFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *ParamStore {
	return NewParamStore(model.VisualizerParameters{Mode: model.ModeOrb, Color: Palette[0], Intensity: 1, Speed: 1})
}

func TestDragGesture(t *testing.T) {
	tests := []struct {
		name          string
		dx, dy        float64
		wantIntensity float64
		wantSpeed     float64
	}{
		{"up and right", 150, -150, 2, 2},
		{"clamps low", -1000, 1000, 0.1, 0},
		{"clamps high", 1000, -1000, 3, 4},
		{"no movement", 0, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore()
			g := NewDragGesture(store)
			g.PointerDown(1, 400, 300)
			i, s, ok := g.PointerMove(1, 400+tt.dx, 300+tt.dy)
			require.True(t, ok)
			assert.InDelta(t, tt.wantIntensity, i, 1e-9)
			assert.InDelta(t, tt.wantSpeed, s, 1e-9)

			p := store.Parameters()
			assert.InDelta(t, tt.wantIntensity, p.Intensity, 1e-9)
			assert.InDelta(t, tt.wantSpeed, p.Speed, 1e-9)
		})
	}
}

func TestDragIsRelativeToStart(t *testing.T) {
	store := newStore()
	g := NewDragGesture(store)
	g.PointerDown(1, 0, 0)
	g.PointerMove(1, 75, 0)
	i, s, _ := g.PointerMove(1, 150, 0)
	assert.InDelta(t, 1, i, 1e-9)
	assert.InDelta(t, 2, s, 1e-9)
}

func TestDragCaptureReleased(t *testing.T) {
	store := newStore()
	g := NewDragGesture(store)

	_, _, ok := g.PointerMove(1, 10, 10)
	assert.False(t, ok, "move without capture is ignored")

	g.PointerDown(1, 0, 0)
	_, _, ok = g.PointerMove(2, 10, 10)
	assert.False(t, ok, "other pointers are ignored")

	g.PointerDown(2, 100, 100) // restart
	_, s, ok := g.PointerMove(2, 250, 100)
	assert.True(t, ok)
	assert.InDelta(t, 2, s, 1e-9)

	g.PointerLeave(2)
	assert.False(t, g.Dragging())
	_, _, ok = g.PointerMove(2, 400, 100)
	assert.False(t, ok)
	assert.InDelta(t, 2, store.Parameters().Speed, 1e-9)
}

func TestHitTarget(t *testing.T) {
	store := newStore()
	h := HitTarget{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10, Gesture: NewDragGesture(store)}
	assert.False(t, h.Down(1, 20, 0))
	assert.False(t, h.Gesture.Dragging())
	assert.True(t, h.Down(1, 0, 0))
	assert.True(t, h.Gesture.Dragging())
}

func TestSlider(t *testing.T) {
	store := newStore()
	var emitted []float64
	s := IntensitySlider(store, 2)
	inner := s.OnChange
	s.OnChange = func(v float64) {
		emitted = append(emitted, v)
		inner(v)
	}

	_, ok := s.Move(1)
	assert.False(t, ok, "moves before press are ignored")

	assert.InDelta(t, 0.1, s.Press(0), 1e-9)
	v, ok := s.Move(1)
	assert.True(t, ok)
	assert.InDelta(t, 1.55, v, 1e-9)
	v, _ = s.Move(5)
	assert.InDelta(t, 3, v, 1e-9)
	s.Release()
	_, ok = s.Move(0)
	assert.False(t, ok)

	assert.Len(t, emitted, 3)
	assert.InDelta(t, 3, store.Parameters().Intensity, 1e-9)

	speed := SpeedSlider(store, 4)
	speed.Press(1)
	assert.InDelta(t, 1, store.Parameters().Speed, 1e-9)
}

func TestModeSwitchAndPalette(t *testing.T) {
	store := newStore()
	assert.Equal(t, model.ModeBars, store.NextMode().Mode)
	assert.Equal(t, model.ModeWave, store.NextMode().Mode)
	assert.Equal(t, model.ModeOrb, store.NextMode().Mode)

	p, err := SelectColor(store, 3)
	require.NoError(t, err)
	assert.Equal(t, Palette[3], p.Color)
	assert.Equal(t, 3, PaletteIndex(p.Color))

	_, err = SelectColor(store, 5)
	assert.Error(t, err)
	assert.Equal(t, Palette[3], store.Parameters().Color)
}

func TestSubscribeSeesClampedValues(t *testing.T) {
	store := newStore()
	var got model.VisualizerParameters
	store.Subscribe(func(p model.VisualizerParameters) { got = p })
	store.SetIntensitySpeed(10, -3)
	assert.Equal(t, model.MaxIntensity, got.Intensity)
	assert.Equal(t, model.MinSpeed, got.Speed)
}

func TestListenerMaySubscribeDuringUpdate(t *testing.T) {
	store := newStore()
	var first, late int
	store.Subscribe(func(model.VisualizerParameters) {
		first++
		if first == 1 {
			store.Subscribe(func(model.VisualizerParameters) { late++ })
		}
	})

	store.NextMode()
	assert.Equal(t, 1, first)
	assert.Equal(t, 0, late)

	store.NextMode()
	assert.Equal(t, 2, first)
	assert.Equal(t, 1, late)
}
