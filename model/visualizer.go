package model

import (
	"fmt"
	"strings"
	"time"
)

// VisualizerMode is one of the three procedural animators.
type VisualizerMode string

const (
	ModeOrb  VisualizerMode = "orb"
	ModeBars VisualizerMode = "bars"
	ModeWave VisualizerMode = "wave"
)

// Parameter bounds.
const (
	MinIntensity = 0.1
	MaxIntensity = 3.0
	MinSpeed     = 0.0
	MaxSpeed     = 4.0
)

// Next cycles orb -> bars -> wave -> orb.
func (m VisualizerMode) Next() VisualizerMode {
	switch m {
	case ModeOrb:
		return ModeBars
	case ModeBars:
		return ModeWave
	default:
		return ModeOrb
	}
}

// ParseVisualizerMode accepts the mode name in any case.
func ParseVisualizerMode(s string) (VisualizerMode, error) {
	switch m := VisualizerMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeOrb, ModeBars, ModeWave:
		return m, nil
	default:
		return "", fmt.Errorf("unknown visualizer mode %q", s)
	}
}

// VisualizerParameters are the user-tunable inputs of every mode.
type VisualizerParameters struct {
	Mode      VisualizerMode `json:"mode" gorm:"size:8"`
	Color     string         `json:"color" gorm:"size:9"`
	Intensity float64        `json:"intensity"`
	Speed     float64        `json:"speed"`
}

// DefaultParameters is the state a fresh player starts in.
func DefaultParameters() VisualizerParameters {
	return VisualizerParameters{Mode: ModeOrb, Color: "#8b5cf6", Intensity: 1, Speed: 1}
}

// Clamp returns p with intensity and speed forced into range and an unknown mode reset to orb.
func (p VisualizerParameters) Clamp() VisualizerParameters {
	p.Intensity = ClampFloat(p.Intensity, MinIntensity, MaxIntensity)
	p.Speed = ClampFloat(p.Speed, MinSpeed, MaxSpeed)
	if _, err := ParseVisualizerMode(string(p.Mode)); err != nil {
		p.Mode = ModeOrb
	}
	return p
}

// ClampFloat bounds v to [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// VisualizerPreset is a named snapshot of parameters. Presets are never updated in place.
type VisualizerPreset struct {
	ID         string               `json:"id" gorm:"primaryKey;size:36"`
	Name       string               `json:"name" gorm:"size:128"`
	Parameters VisualizerParameters `json:"parameters" gorm:"embedded;embeddedPrefix:param_"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// FrequencySnapshot is one frame's magnitude buffer and its mean. Bins is only valid until
// the next sample; callers must not retain it.
type FrequencySnapshot struct {
	Bins    []uint8
	Average float64
}
