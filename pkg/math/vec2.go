// Package math provides the vector and quaternion types used by the
// terrain core: chunk sampling, brush footprints, and scatter transforms.
package math

import "math"

// Vec2 is a 2D vector. Brushes use it for XZ-plane offsets.
type Vec2 struct {
	X, Y float32
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Dot returns the dot product.
func (v Vec2) Dot(other Vec2) float32 {
	return v.X*other.X + v.Y*other.Y
}

// Length returns the magnitude.
func (v Vec2) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

// Chebyshev returns the L-infinity norm, the in-shape metric for square
// brush footprints.
func (v Vec2) Chebyshev() float32 {
	ax := Abs(v.X)
	ay := Abs(v.Y)
	if ax > ay {
		return ax
	}
	return ay
}

// Manhattan returns the L1 norm, the in-shape metric for diamond brush
// footprints.
func (v Vec2) Manhattan() float32 {
	return Abs(v.X) + Abs(v.Y)
}

// Normalize returns a unit vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Distance returns the distance to another point.
func (v Vec2) Distance(other Vec2) float32 {
	return v.Sub(other).Length()
}

// Abs returns the absolute value of a float32.
func Abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Lerp interpolates linearly between a and b by t.
func Lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}
