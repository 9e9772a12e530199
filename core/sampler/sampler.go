// Package sampler turns the live frequency-analysis buffer into per-frame snapshots.
package sampler

import (
	"math"
	"sync"

	"SpectraFM/model"
)

// DefaultBinCount matches an analyser with fftSize 256.
const DefaultBinCount = 128

// Analyser is the host's frequency-analysis node. ReadFrequencyData fills dst with the newest
// magnitudes, ordered low to high frequency.
type Analyser interface {
	BinCount() int
	ReadFrequencyData(dst []uint8)
}

// Sampler pulls one magnitude buffer per frame. The buffer is reused between frames, so the
// returned snapshot is only valid until the next call to Sample.
type Sampler struct {
	mu        sync.Mutex
	analyser  Analyser
	simulated bool
	binCount  int
	buf       []uint8
}

// New creates a sampler whose simulated signal has binCount bins.
func New(binCount int) *Sampler {
	if binCount <= 0 {
		binCount = DefaultBinCount
	}
	return &Sampler{
		binCount: binCount,
		buf:      make([]uint8, binCount),
	}
}

// Attach sets the live analysis source and leaves simulation mode.
func (s *Sampler) Attach(a Analyser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyser = a
	s.simulated = false
	if a != nil {
		s.ensure(a.BinCount())
	}
}

// Detach drops the analysis source. Subsequent samples are silent unless simulation is on.
func (s *Sampler) Detach() {
	s.mu.Lock()
	s.analyser = nil
	s.mu.Unlock()
}

// SetSimulated switches the synthetic signal on or off. It is used when the active source has
// no reachable audio graph, e.g. an embedded external video.
func (s *Sampler) SetSimulated(on bool) {
	s.mu.Lock()
	s.simulated = on
	if on {
		s.ensure(s.binCount)
	}
	s.mu.Unlock()
}

// Simulated reports whether the synthetic signal is active.
func (s *Sampler) Simulated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simulated
}

// ensure grows the buffer only when the bin count changes.
func (s *Sampler) ensure(n int) {
	if n <= 0 {
		return
	}
	if cap(s.buf) < n {
		s.buf = make([]uint8, n)
	}
	s.buf = s.buf[:n]
}

// Sample returns the snapshot for the frame at elapsed seconds. Silence (no analyser, not
// simulated) yields an empty snapshot with a zero average.
func (s *Sampler) Sample(elapsed float64) model.FrequencySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.simulated:
		s.ensure(s.binCount)
		FillSynthetic(s.buf, elapsed)
	case s.analyser != nil:
		s.ensure(s.analyser.BinCount())
		s.analyser.ReadFrequencyData(s.buf)
	default:
		return model.FrequencySnapshot{}
	}
	return model.FrequencySnapshot{Bins: s.buf, Average: Average(s.buf)}
}

// Average is the arithmetic mean of bins, 0 for an empty slice.
func Average(bins []uint8) float64 {
	if len(bins) == 0 {
		return 0
	}
	sum := 0
	for _, b := range bins {
		sum += int(b)
	}
	return float64(sum) / float64(len(bins))
}

// Bands reduces bins to len(dst) equal-width band means and returns dst.
func Bands(dst []float64, bins []uint8) []float64 {
	n := len(dst)
	if n == 0 {
		return dst
	}
	for b := range dst {
		lo := b * len(bins) / n
		hi := (b + 1) * len(bins) / n
		if hi <= lo {
			dst[b] = 0
			continue
		}
		dst[b] = Average(bins[lo:hi])
	}
	return dst
}

// Peak returns the index and value of the loudest bin.
func Peak(bins []uint8) (int, uint8) {
	idx, max := -1, uint8(0)
	for i, b := range bins {
		if idx < 0 || b > max {
			idx, max = i, b
		}
	}
	return idx, max
}

// Synthetic signal shape: a 2 Hz pulse with a slow ripple running across the bins.
const (
	beatHz       = 2.0
	rippleHz     = 0.5
	rippleSpread = 0.35
	pulseWeight  = 0.7
	center       = 128.0
	amplitude    = 64.0
)

// Synthetic returns bin i of n at time t. Every value lies in [64, 192].
func Synthetic(t float64, i int) uint8 {
	pulse := math.Sin(2 * math.Pi * beatHz * t)
	ripple := math.Sin(2*math.Pi*rippleHz*t + float64(i)*rippleSpread)
	v := center + amplitude*(pulseWeight*pulse+(1-pulseWeight)*ripple)
	return uint8(math.Round(v))
}

// FillSynthetic writes the synthetic frame for time t into dst.
func FillSynthetic(dst []uint8, t float64) {
	for i := range dst {
		dst[i] = Synthetic(t, i)
	}
}

// SyntheticAverage is the mean of an n-bin synthetic frame at time t.
func SyntheticAverage(t float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(Synthetic(t, i))
	}
	return float64(sum) / float64(n)
}
