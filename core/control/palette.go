package control

import (
	"fmt"

	"SpectraFM/model"
)

// Palette is the fixed set of selectable colors.
var Palette = [5]string{
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#3b82f6", // blue
	"#10b981", // emerald
	"#f59e0b", // amber
}

// SelectColor sets the color to palette entry i. The change is immediate; any easing
// happens inside the visualizer.
func SelectColor(store *ParamStore, i int) (model.VisualizerParameters, error) {
	if i < 0 || i >= len(Palette) {
		return store.Parameters(), fmt.Errorf("palette index %d out of range", i)
	}
	return store.SetColor(Palette[i]), nil
}

// PaletteIndex returns the palette slot of hex, or -1.
func PaletteIndex(hex string) int {
	for i, c := range Palette {
		if c == hex {
			return i
		}
	}
	return -1
}
