package brush

import (
	gomath "math"

	"github.com/Faultbox/terrasculpt/pkg/math"
)

// Shape selects the footprint metric of a brush.
type Shape int

const (
	ShapeCircle Shape = iota
	ShapeSquare
	ShapeDiamond
	// ShapeCustom behaves like ShapeCircle until a brush mask loaded from
	// CustomBrushPath is wired in.
	ShapeCustom
)

func (s Shape) String() string {
	switch s {
	case ShapeCircle:
		return "circle"
	case ShapeSquare:
		return "square"
	case ShapeDiamond:
		return "diamond"
	case ShapeCustom:
		return "custom"
	}
	return "unknown"
}

// Falloff selects how brush influence decays from center to rim.
type Falloff int

const (
	FalloffLinear Falloff = iota
	FalloffSmooth
	FalloffSharp
	FalloffConstant
	// FalloffCustom falls back to linear decay until curve textures are
	// supported.
	FalloffCustom
)

func (f Falloff) String() string {
	switch f {
	case FalloffLinear:
		return "linear"
	case FalloffSmooth:
		return "smooth"
	case FalloffSharp:
		return "sharp"
	case FalloffConstant:
		return "constant"
	case FalloffCustom:
		return "custom"
	}
	return "unknown"
}

// Settings holds the parameters shared by every brush type.
type Settings struct {
	Size            float32
	Strength        float32
	Shape           Shape
	Falloff         Falloff
	FalloffCurve    float32
	Spacing         float32
	CustomBrushPath string
}

// DefaultSettings returns the editor defaults for a new brush.
func DefaultSettings() Settings {
	return Settings{
		Size:         5,
		Strength:     1,
		Shape:        ShapeCircle,
		Falloff:      FalloffSmooth,
		FalloffCurve: 0.5,
		Spacing:      0.25,
	}
}

// Distance returns the footprint distance between two XZ positions under
// the brush shape's metric.
func (s Settings) Distance(center, p math.Vec2) float32 {
	d := p.Sub(center)
	switch s.Shape {
	case ShapeSquare:
		return d.Chebyshev()
	case ShapeDiamond:
		return d.Manhattan()
	default:
		return d.Length()
	}
}

// Weight returns the influence of the brush at footprint distance d,
// already scaled by strength. Samples at or past the rim get 0.
func (s Settings) Weight(d float32) float32 {
	if s.Size <= 0 || d >= s.Size {
		return 0
	}
	t := d / s.Size

	var w float32
	switch s.Falloff {
	case FalloffLinear:
		w = 1 - t
	case FalloffSmooth:
		w = float32(gomath.Pow(float64(1-t), float64(1+3*s.FalloffCurve)))
	case FalloffSharp:
		w = float32(gomath.Pow(float64(1-t), float64(2+8*s.FalloffCurve)))
	case FalloffConstant:
		w = 1
	default:
		w = 1 - t
	}
	return math.Clamp(w*s.Strength, 0, 1)
}

// WeightAt returns the influence of a brush centered at center over the
// XZ footprint of a world position.
func (s Settings) WeightAt(center math.Vec3, p math.Vec3) float32 {
	return s.Weight(s.Distance(center.XZ(), p.XZ()))
}
