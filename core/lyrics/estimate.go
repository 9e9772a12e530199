// Package lyrics holds lyric text per track and estimates the active line.
package lyrics

import (
	"math"
	"strings"
)

// Lines splits lyrics into its non-empty, trimmed lines.
func Lines(lyrics string) []string {
	var out []string
	for _, l := range strings.Split(lyrics, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Estimate guesses the line being sung at currentTime by dividing duration evenly across the
// non-empty lines. There are no per-line timestamps, so this is a rough approximation and
// not real synchronization. ok is false when there are no lines or no usable duration.
// Positions at or past the end select the last line.
func Estimate(lyrics string, currentTime, duration float64) (line string, index int, ok bool) {
	lines := Lines(lyrics)
	if len(lines) == 0 || duration <= 0 || math.IsNaN(duration) || math.IsNaN(currentTime) {
		return "", -1, false
	}
	lineDuration := duration / float64(len(lines))
	idx := len(lines) - 1
	if pos := math.Floor(currentTime / lineDuration); pos < float64(idx) {
		idx = int(math.Max(0, pos))
	}
	return lines[idx], idx, true
}
