package visualizer

import "math"

const (
	WaveSize     = 10.0 // plane edge length
	WaveSegments = 32
)

// Wave is a height field whose animation clock accumulates delta*speed. The clock is never
// reset, so a speed change only changes the rate and never causes a jump.
type Wave struct {
	clock   float64
	xs, ys  []float64
	heights []float64
}

func NewWave() *Wave {
	n := WaveSegments + 1
	w := &Wave{
		xs:      make([]float64, n*n),
		ys:      make([]float64, n*n),
		heights: make([]float64, n*n),
	}
	step := WaveSize / WaveSegments
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			i := row*n + col
			w.xs[i] = -WaveSize/2 + float64(col)*step
			w.ys[i] = WaveSize/2 - float64(row)*step
		}
	}
	return w
}

// WaveHeight is the height of the vertex at (x, y) for clock t.
func WaveHeight(x, y, t, intensity float64, bins []uint8) float64 {
	wave := math.Sin(x*2+t) * math.Cos(y*2+t) * 0.5
	var freq float64
	if len(bins) > 0 {
		idx := int(math.Abs(x*5)) % len(bins)
		freq = float64(bins[idx]) / 255
	}
	return intensity * (wave + freq)
}

func (w *Wave) Update(scene Scene, f Frame) {
	if scene == nil {
		return
	}
	w.clock += math.Max(0, f.Delta) * f.Params.Speed

	for i := range w.heights {
		w.heights[i] = WaveHeight(w.xs[i], w.ys[i], w.clock, f.Params.Intensity, f.Snapshot.Bins)
	}
	scene.SetHeightField(WaveSegments+1, WaveSegments+1, w.heights)
	scene.SetColor(f.Params.Color)
}

// Clock is the accumulated animation time.
func (w *Wave) Clock() float64 { return w.clock }

// Heights returns a copy of the last height field, row-major.
func (w *Wave) Heights() []float64 {
	return append([]float64(nil), w.heights...)
}
