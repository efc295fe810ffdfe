package math

import "math"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	halfAngle := angle / 2
	s := float32(math.Sin(float64(halfAngle)))
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: float32(math.Cos(float64(halfAngle))),
	}
}

// QuatBetween returns the rotation carrying the unit vector from onto the
// unit vector to. Scatter placement uses it to tilt an asset's up axis
// onto the surface normal.
func QuatBetween(from, to Vec3) Quat {
	d := Clamp(from.Dot(to), -1, 1)
	if d > 0.9999 {
		return QuatIdentity()
	}
	if d < -0.9999 {
		// Opposite vectors: rotate half a turn about any perpendicular axis.
		axis := from.Cross(Vec3{1, 0, 0})
		if axis.Length() < 0.0001 {
			axis = from.Cross(Vec3{0, 0, 1})
		}
		return QuatFromAxisAngle(axis.Normalize(), math.Pi)
	}
	axis := from.Cross(to).Normalize()
	angle := float32(math.Acos(float64(d)))
	return QuatFromAxisAngle(axis, angle)
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Mul multiplies two quaternions (combines rotations).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// Rotate applies the rotation to a vector.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	s := q.W
	return u.Scale(2 * u.Dot(v)).
		Add(v.Scale(s*s - u.Dot(u))).
		Add(u.Cross(v).Scale(2 * s))
}

// QuatFromEuler creates a quaternion from euler angles in degrees,
// applied in YXZ order. Asset records store rotations as euler degrees.
func QuatFromEuler(e Vec3) Quat {
	rx := QuatFromAxisAngle(Vec3{1, 0, 0}, radians(e.X))
	ry := QuatFromAxisAngle(Vec3{0, 1, 0}, radians(e.Y))
	rz := QuatFromAxisAngle(Vec3{0, 0, 1}, radians(e.Z))
	return ry.Mul(rx).Mul(rz)
}

// ToEuler converts the quaternion back to euler angles in degrees
// (YXZ order, matching QuatFromEuler).
func (q Quat) ToEuler() Vec3 {
	q = q.Normalize()

	// X (pitch)
	sinp := 2 * (q.W*q.X - q.Y*q.Z)
	var pitch float64
	if sinp >= 1 {
		pitch = math.Pi / 2
	} else if sinp <= -1 {
		pitch = -math.Pi / 2
	} else {
		pitch = math.Asin(float64(sinp))
	}

	// Y (yaw)
	yaw := math.Atan2(float64(2*(q.W*q.Y+q.X*q.Z)), float64(1-2*(q.X*q.X+q.Y*q.Y)))

	// Z (roll)
	roll := math.Atan2(float64(2*(q.W*q.Z+q.X*q.Y)), float64(1-2*(q.X*q.X+q.Z*q.Z)))

	return Vec3{degrees(pitch), degrees(yaw), degrees(roll)}
}

func radians(deg float32) float32 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float32 {
	return float32(rad * 180 / math.Pi)
}
