package control

import (
	"sync"

	"SpectraFM/model"
)

// DragPixelsPerUnit is the pointer travel that changes a parameter by 1.
const DragPixelsPerUnit = 150.0

// DragGesture maps a two-axis drag onto (intensity, speed): right raises speed, up raises
// intensity. Only one pointer may hold the capture at a time.
type DragGesture struct {
	mu         sync.Mutex
	store      *ParamStore
	dragging   bool
	pointerID  int
	startX     float64
	startY     float64
	startInt   float64
	startSpeed float64
}

func NewDragGesture(store *ParamStore) *DragGesture {
	return &DragGesture{store: store}
}

// DragValues computes the clamped parameters for a drag of (dx, dy) pixels from a start.
// Screen Y grows downward, so dragging up (negative dy) increases intensity.
func DragValues(startIntensity, startSpeed, dx, dy float64) (intensity, speed float64) {
	intensity = model.ClampFloat(startIntensity-dy/DragPixelsPerUnit, model.MinIntensity, model.MaxIntensity)
	speed = model.ClampFloat(startSpeed+dx/DragPixelsPerUnit, model.MinSpeed, model.MaxSpeed)
	return intensity, speed
}

// PointerDown captures the pointer. A second down while dragging restarts the gesture from
// the new pointer and position.
func (g *DragGesture) PointerDown(pointerID int, x, y float64) {
	p := g.store.Parameters()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dragging = true
	g.pointerID = pointerID
	g.startX, g.startY = x, y
	g.startInt, g.startSpeed = p.Intensity, p.Speed
}

// PointerMove updates the store while captured. ok is false when the move was ignored.
func (g *DragGesture) PointerMove(pointerID int, x, y float64) (intensity, speed float64, ok bool) {
	g.mu.Lock()
	if !g.dragging || pointerID != g.pointerID {
		g.mu.Unlock()
		return 0, 0, false
	}
	intensity, speed = DragValues(g.startInt, g.startSpeed, x-g.startX, y-g.startY)
	g.mu.Unlock()

	g.store.SetIntensitySpeed(intensity, speed)
	return intensity, speed, true
}

// PointerUp releases the capture. Up from any pointer releases, so capture can never leak.
func (g *DragGesture) PointerUp(pointerID int) {
	g.mu.Lock()
	g.dragging = false
	g.mu.Unlock()
}

// PointerLeave behaves like PointerUp.
func (g *DragGesture) PointerLeave(pointerID int) {
	g.PointerUp(pointerID)
}

func (g *DragGesture) Dragging() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dragging
}

// HitTarget is the invisible oversized plane behind a visualizer. Pointer events inside it
// are routed to the gesture, so the whole rendered area is draggable.
type HitTarget struct {
	MinX, MinY, MaxX, MaxY float64
	Gesture                *DragGesture
}

func (h HitTarget) Contains(x, y float64) bool {
	return x >= h.MinX && x <= h.MaxX && y >= h.MinY && y <= h.MaxY
}

// Down starts a drag if (x, y) is on the target.
func (h HitTarget) Down(pointerID int, x, y float64) bool {
	if !h.Contains(x, y) {
		return false
	}
	h.Gesture.PointerDown(pointerID, x, y)
	return true
}
