package visualizer

import (
	"math"
	"testing"
	"time"

	"SpectraFM/core/sampler"
	"SpectraFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(avg float64, bins []uint8, p model.VisualizerParameters, delta float64) Frame {
	return Frame{Snapshot: model.FrequencySnapshot{Bins: bins, Average: avg}, Params: p, Delta: delta}
}

func params(intensity, speed float64) model.VisualizerParameters {
	return model.VisualizerParameters{Mode: model.ModeOrb, Color: "#ff0000", Intensity: intensity, Speed: speed}
}

func TestOrbTargetScaleMonotonic(t *testing.T) {
	for _, intensity := range []float64{0.1, 0.5, 1, 2, 3} {
		prev := 0.0
		for avg := 0.0; avg <= 255; avg++ {
			s := OrbTargetScale(avg, intensity)
			assert.GreaterOrEqual(t, s, 1.0)
			assert.GreaterOrEqual(t, s, prev)
			prev = s
		}
	}
	for avg := 0.0; avg <= 255; avg += 15 {
		assert.LessOrEqual(t, OrbTargetScale(avg, 1), OrbTargetScale(avg, 2))
	}
}

func TestOrbScaleNeverJumps(t *testing.T) {
	o := NewOrb()
	scene := NewSceneState()
	p := params(3, 1)

	averages := []float64{0, 255, 255, 0, 128, 255, 0, 0, 255}
	for i := 0; i < 200; i++ {
		avg := averages[i%len(averages)]
		before := o.Scale()
		o.Update(scene, frame(avg, nil, p, 1.0/60))
		bound := math.Abs(OrbTargetScale(avg, p.Intensity)-before) * OrbScaleLerp
		assert.LessOrEqual(t, math.Abs(o.Scale()-before), bound+1e-12)
	}
}

func TestOrbConvergesInAboutTwentyTwoFrames(t *testing.T) {
	o := NewOrb()
	scene := NewSceneState()
	target := OrbTargetScale(255, 1)
	for i := 0; i < 22; i++ {
		o.Update(scene, frame(255, nil, params(1, 1), 0))
	}
	progress := (o.Scale() - 1) / (target - 1)
	assert.InDelta(t, 0.9, progress, 0.02)
	assert.Equal(t, o.Scale(), scene.Snapshot().Scale[0])
}

func TestOrbRotationAndColor(t *testing.T) {
	o := NewOrb()
	scene := NewSceneState()
	o.Update(scene, frame(0, nil, params(1, 2), 0))
	x, y := o.Rotation()
	assert.InDelta(t, 0.002, x, 1e-12)
	assert.InDelta(t, 0.004, y, 1e-12)
	assert.Equal(t, "#ff0000", o.Color())

	p := params(1, 0)
	p.Color = "#0000ff"
	o.Update(scene, frame(0, nil, p, 0))
	assert.NotEqual(t, "#0000ff", o.Color(), "color eases instead of snapping")
	x2, _ := o.Rotation()
	assert.Equal(t, x, x2, "zero speed holds rotation")

	d, ds := o.Material()
	assert.Greater(t, d, 0.0)
	assert.GreaterOrEqual(t, ds, 0.0)
}

func TestModesFreezeWithoutScene(t *testing.T) {
	o, b, w := NewOrb(), NewBars(), NewWave()
	f := frame(255, []uint8{255, 255}, params(3, 4), 1)
	o.Update(nil, f)
	b.Update(nil, f)
	w.Update(nil, f)
	assert.Equal(t, 1.0, o.Scale())
	assert.Zero(t, b.RingRotation())
	assert.Zero(t, w.Clock())
}

func TestBarsFloorAtSilence(t *testing.T) {
	b := NewBars()
	scene := NewSceneState()
	for _, bins := range [][]uint8{nil, make([]uint8, 128)} {
		b.Update(scene, frame(0, bins, params(0.1, 1), 0))
		for _, h := range b.Heights() {
			assert.GreaterOrEqual(t, h, BarMinHeight)
		}
	}
	snap := scene.Snapshot()
	require.Len(t, snap.Instances, BarCount)
	assert.GreaterOrEqual(t, snap.Instances[10].Scale[1], BarMinHeight)
}

func TestBarsSampleLowerHalf(t *testing.T) {
	bins := make([]uint8, 128)
	for i := 64; i < 128; i++ {
		bins[i] = 255
	}
	b := NewBars()
	b.Update(NewSceneState(), frame(0, bins, params(1, 1), 0))
	for _, h := range b.Heights() {
		assert.Equal(t, BarMinHeight, h)
	}

	assert.Equal(t, 0, BarBin(0, 128))
	assert.Equal(t, 32, BarBin(32, 128))
	assert.Equal(t, 63, BarBin(63, 128))
	assert.InDelta(t, 8.1, BarHeight(255, 1), 1e-9)
}

func TestBarsRingRotation(t *testing.T) {
	b := NewBars()
	scene := NewSceneState()
	for i := 0; i < 10; i++ {
		b.Update(scene, frame(0, nil, params(1, 2), 0))
	}
	assert.InDelta(t, 0.04, b.RingRotation(), 1e-12)
	assert.InDelta(t, 0.04, scene.Snapshot().Rotation[1], 1e-12)
}

func TestWaveClockContinuousAcrossSpeedChanges(t *testing.T) {
	w := NewWave()
	scene := NewSceneState()
	speeds := []float64{1, 1, 4, 0, 0, 2.5, 0.1, 4, 1}
	delta := 1.0 / 60
	prev := w.Clock()
	for _, s := range speeds {
		w.Update(scene, frame(0, nil, params(1, s), delta))
		assert.GreaterOrEqual(t, w.Clock(), prev)
		assert.InDelta(t, prev+delta*s, w.Clock(), 1e-12)
		prev = w.Clock()
	}
}

func TestWaveHeightField(t *testing.T) {
	w := NewWave()
	scene := NewSceneState()
	bins := []uint8{0, 255, 0, 255}
	w.Update(scene, frame(0, bins, params(2, 0), 0))

	snap := scene.Snapshot()
	assert.Equal(t, WaveSegments+1, snap.FieldWidth)
	assert.Len(t, snap.Heights, (WaveSegments+1)*(WaveSegments+1))

	// vertex (0,0) of the plane is at x=-5, y=5
	want := WaveHeight(-5, 5, 0, 2, bins)
	assert.InDelta(t, want, snap.Heights[0], 1e-12)
	assert.InDelta(t, 2*(math.Sin(-10)*math.Cos(10)*0.5+float64(bins[25%4])/255), want, 1e-12)
}

type staticParams struct{ p model.VisualizerParameters }

func (s *staticParams) Parameters() model.VisualizerParameters { return s.p }

func TestEngineTickSwitchesModes(t *testing.T) {
	s := sampler.New(64)
	s.SetSimulated(true)
	src := &staticParams{p: model.DefaultParameters()}
	e := NewEngine(s, src)
	scene := NewSceneState()

	start := time.Unix(0, 0)
	f := e.Tick(scene, start)
	assert.Zero(t, f.Delta)
	assert.Equal(t, model.ModeOrb, scene.Snapshot().Mode)

	src.p.Mode = model.ModeWave
	f = e.Tick(scene, start.Add(500*time.Millisecond))
	assert.InDelta(t, 0.5, f.Delta, 1e-9)
	assert.InDelta(t, 0.5, f.Elapsed, 1e-9)
	assert.Equal(t, model.ModeWave, scene.Snapshot().Mode)
	assert.NotEmpty(t, scene.Snapshot().Heights)
	assert.Empty(t, scene.Snapshot().Instances)

	wave := e.Mode(model.ModeWave).(*Wave)
	assert.InDelta(t, 0.5, wave.Clock(), 1e-9)
}
