package visualizer

import "math"

const (
	BarCount     = 64
	BarRadius    = 4.0
	BarMinHeight = 0.1 // keeps a silent bar visible
	barWidth     = 0.2
	barRingSpin  = 0.002
)

// BarBin picks the bin for bar i. Bars only cover the lower half of the spectrum, which
// concentrates the response in bass and mids.
func BarBin(i, binCount int) int {
	return int(float64(i) / BarCount * float64(binCount/2))
}

// BarHeight is the scale-Y of a bar for a bin value.
func BarHeight(value uint8, intensity float64) float64 {
	return BarMinHeight + float64(value)/255*8*intensity
}

// Bars is a ring of BarCount elements.
type Bars struct {
	heights    [BarCount]float64
	transforms []InstanceTransform
	ring       float64
}

func NewBars() *Bars {
	b := &Bars{transforms: make([]InstanceTransform, BarCount)}
	for i := range b.heights {
		b.heights[i] = BarMinHeight
	}
	return b
}

func (b *Bars) Update(scene Scene, f Frame) {
	if scene == nil {
		return
	}
	bins := f.Snapshot.Bins

	for i := 0; i < BarCount; i++ {
		var v uint8
		if len(bins) > 0 {
			v = bins[BarBin(i, len(bins))]
		}
		h := BarHeight(v, f.Params.Intensity)
		b.heights[i] = h

		angle := float64(i) / BarCount * 2 * math.Pi
		b.transforms[i] = InstanceTransform{
			Position: [3]float64{math.Cos(angle) * BarRadius, h / 2, math.Sin(angle) * BarRadius},
			Rotation: [3]float64{0, -angle, 0},
			Scale:    [3]float64{barWidth, h, barWidth},
		}
	}
	b.ring += barRingSpin * f.Params.Speed

	scene.SetInstanceTransforms(b.transforms)
	scene.SetRotation(0, b.ring, 0)
	scene.SetColor(f.Params.Color)
}

// Heights returns the bar heights of the last frame.
func (b *Bars) Heights() []float64 {
	out := make([]float64, BarCount)
	copy(out, b.heights[:])
	return out
}

func (b *Bars) RingRotation() float64 { return b.ring }
