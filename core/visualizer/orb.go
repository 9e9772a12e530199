package visualizer

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// OrbScaleLerp gives ~90% convergence in 22 frames; the orb never jumps.
	OrbScaleLerp = 0.1
	OrbColorLerp = 0.05
	orbRotX      = 0.001
	orbRotY      = 0.002
)

// OrbTargetScale is the scale the orb eases toward for a given loudness.
func OrbTargetScale(average, intensity float64) float64 {
	return 1 + (average/255)*1.5*intensity
}

// Orb is a single pulsing body.
type Orb struct {
	scale        float64
	rotX, rotY   float64
	distort      float64
	distortSpeed float64
	color        colorful.Color
	hasColor     bool
}

func NewOrb() *Orb {
	return &Orb{scale: 1, distort: 0.3, distortSpeed: 1}
}

func (o *Orb) Update(scene Scene, f Frame) {
	if scene == nil {
		return
	}
	p := f.Params
	level := f.Snapshot.Average / 255

	o.scale += (OrbTargetScale(f.Snapshot.Average, p.Intensity) - o.scale) * OrbScaleLerp
	o.rotX += orbRotX * p.Speed
	o.rotY += orbRotY * p.Speed

	distort := math.Min(1, 0.3+level*0.5*p.Intensity)
	distortSpeed := p.Speed * (1 + level*2)
	o.distort += (distort - o.distort) * OrbScaleLerp
	o.distortSpeed += (distortSpeed - o.distortSpeed) * OrbScaleLerp

	if target, err := colorful.Hex(p.Color); err == nil {
		if !o.hasColor {
			o.color, o.hasColor = target, true
		} else {
			o.color = o.color.BlendRgb(target, OrbColorLerp).Clamped()
		}
	}

	scene.SetScale(o.scale, o.scale, o.scale)
	scene.SetRotation(o.rotX, o.rotY, 0)
	scene.SetMaterial(o.distort, o.distortSpeed)
	if o.hasColor {
		scene.SetColor(o.color.Hex())
	}
}

func (o *Orb) Scale() float64 { return o.scale }

func (o *Orb) Rotation() (x, y float64) { return o.rotX, o.rotY }

func (o *Orb) Material() (distort, speed float64) { return o.distort, o.distortSpeed }

// Color is the eased display color, empty before the first valid target.
func (o *Orb) Color() string {
	if !o.hasColor {
		return ""
	}
	return o.color.Hex()
}
