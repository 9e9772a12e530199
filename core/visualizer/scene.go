// Package visualizer maps per-frame frequency snapshots onto 3D scene mutations.
package visualizer

import (
	"sync"

	"SpectraFM/model"
)

// InstanceTransform places one element of an instanced field.
type InstanceTransform struct {
	Position [3]float64 `json:"position"`
	Rotation [3]float64 `json:"rotation"`
	Scale    [3]float64 `json:"scale"`
}

// Scene is the minimal surface a renderer exposes to the visualizer modes.
type Scene interface {
	SetScale(x, y, z float64)
	SetRotation(x, y, z float64)
	SetColor(hex string)
	SetMaterial(distort, distortSpeed float64)
	SetInstanceTransforms(transforms []InstanceTransform)
	SetHeightField(width, depth int, heights []float64)
}

// Frame is everything a mode may read on one tick.
type Frame struct {
	Snapshot model.FrequencySnapshot
	Params   model.VisualizerParameters
	Elapsed  float64 // seconds since the engine started
	Delta    float64 // seconds since the previous frame
}

// Mode is a per-frame transform from a Frame to scene mutations. A nil scene leaves the
// mode's state untouched.
type Mode interface {
	Update(scene Scene, f Frame)
}

// SceneState is a Scene that records the latest values. It backs the frame stream and the
// terminal renderer. Instance and height slices are copied on write.
type SceneState struct {
	mu sync.RWMutex
	s  SceneSnapshot
}

// SceneSnapshot is a copy of a SceneState safe to marshal.
type SceneSnapshot struct {
	Mode         model.VisualizerMode `json:"mode"`
	Scale        [3]float64           `json:"scale"`
	Rotation     [3]float64           `json:"rotation"`
	Color        string               `json:"color"`
	Distort      float64              `json:"distort"`
	DistortSpeed float64              `json:"distortSpeed"`
	Instances    []InstanceTransform  `json:"instances,omitempty"`
	FieldWidth   int                  `json:"fieldWidth,omitempty"`
	FieldDepth   int                  `json:"fieldDepth,omitempty"`
	Heights      []float64            `json:"heights,omitempty"`
}

func NewSceneState() *SceneState {
	return &SceneState{s: SceneSnapshot{Scale: [3]float64{1, 1, 1}}}
}

func (st *SceneState) SetScale(x, y, z float64) {
	st.mu.Lock()
	st.s.Scale = [3]float64{x, y, z}
	st.mu.Unlock()
}

func (st *SceneState) SetRotation(x, y, z float64) {
	st.mu.Lock()
	st.s.Rotation = [3]float64{x, y, z}
	st.mu.Unlock()
}

func (st *SceneState) SetColor(hex string) {
	st.mu.Lock()
	st.s.Color = hex
	st.mu.Unlock()
}

func (st *SceneState) SetMaterial(distort, distortSpeed float64) {
	st.mu.Lock()
	st.s.Distort = distort
	st.s.DistortSpeed = distortSpeed
	st.mu.Unlock()
}

func (st *SceneState) SetInstanceTransforms(transforms []InstanceTransform) {
	st.mu.Lock()
	st.s.Instances = append(st.s.Instances[:0], transforms...)
	st.mu.Unlock()
}

func (st *SceneState) SetHeightField(width, depth int, heights []float64) {
	st.mu.Lock()
	st.s.FieldWidth = width
	st.s.FieldDepth = depth
	st.s.Heights = append(st.s.Heights[:0], heights...)
	st.mu.Unlock()
}

// Reset clears per-mode geometry when the active mode changes.
func (st *SceneState) Reset(mode model.VisualizerMode) {
	st.mu.Lock()
	st.s = SceneSnapshot{Mode: mode, Scale: [3]float64{1, 1, 1}, Color: st.s.Color}
	st.mu.Unlock()
}

// Snapshot returns a deep copy of the current state.
func (st *SceneState) Snapshot() SceneSnapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := st.s
	out.Instances = append([]InstanceTransform(nil), st.s.Instances...)
	out.Heights = append([]float64(nil), st.s.Heights...)
	return out
}
