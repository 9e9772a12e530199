package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PresetSeed is one entry of a presets YAML file.
type PresetSeed struct {
	Name      string  `yaml:"name"`
	Mode      string  `yaml:"mode"`
	Color     string  `yaml:"color"`
	Intensity float64 `yaml:"intensity"`
	Speed     float64 `yaml:"speed"`
}

type presetFile struct {
	Presets []PresetSeed `yaml:"presets"`
}

// LoadPresets reads visualizer presets from a YAML file of the form
//
//	presets:
//	  - name: Calm
//	    mode: wave
//	    color: "#3b82f6"
//	    intensity: 0.6
//	    speed: 0.5
//
// Missing intensity/speed default to 1.
func LoadPresets(path string) ([]PresetSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}

	for i := range file.Presets {
		p := &file.Presets[i]
		if p.Name == "" {
			return nil, fmt.Errorf("preset #%d has no name", i+1)
		}
		if p.Intensity == 0 {
			p.Intensity = 1
		}
		if p.Speed == 0 {
			p.Speed = 1
		}
	}
	return file.Presets, nil
}
