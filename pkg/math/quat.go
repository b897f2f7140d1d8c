package math

import "github.com/chewxy/math32"

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
	s := math32.Sin(halfAngle)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: math32.Cos(halfAngle),
	}
}

// QuatFromMat4 extracts the rotation of the upper-left 3x3 block.
// The basis rows must already be normalized.
func QuatFromMat4(m Mat4) Quat {
	m11, m12, m13 := m[0], m[1], m[2]
	m21, m22, m23 := m[4], m[5], m[6]
	m31, m32, m33 := m[8], m[9], m[10]

	var q Quat
	trace := m11 + m22 + m33
	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		q = Quat{W: s / 4, X: (m23 - m32) / s, Y: (m31 - m13) / s, Z: (m12 - m21) / s}
	case m11 >= m22 && m11 >= m33:
		s := math32.Sqrt(1+m11-m22-m33) * 2
		q = Quat{W: (m23 - m32) / s, X: s / 4, Y: (m12 + m21) / s, Z: (m31 + m13) / s}
	case m22 > m33:
		s := math32.Sqrt(1+m22-m11-m33) * 2
		q = Quat{W: (m31 - m13) / s, X: (m12 + m21) / s, Y: s / 4, Z: (m23 + m32) / s}
	default:
		s := math32.Sqrt(1+m33-m11-m22) * 2
		q = Quat{W: (m12 - m21) / s, X: (m31 + m13) / s, Y: (m23 + m32) / s, Z: s / 4}
	}
	return q.Normalize()
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
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

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Mul multiplies two quaternions (Hamilton product). The result rotates by
// other first, then by q.
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// Rotate rotates v by q.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// ApproxEqual reports whether q and other describe the same rotation within
// tol. q and -q are the same rotation.
func (q Quat) ApproxEqual(other Quat, tol float32) bool {
	return 1-math32.Abs(q.Normalize().Dot(other.Normalize())) <= tol
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	// Normalize first
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// EulerToQuat converts XYZ Euler radians to a quaternion. X is applied
// first, then Y, then Z, matching EulerMatrix.
func EulerToQuat(e Vec3) Quat {
	qx := QuatFromAxisAngle(Vec3{1, 0, 0}, e.X)
	qy := QuatFromAxisAngle(Vec3{0, 1, 0}, e.Y)
	qz := QuatFromAxisAngle(Vec3{0, 0, 1}, e.Z)
	return qz.Mul(qy).Mul(qx)
}

// QuatToEuler converts a quaternion to XYZ Euler radians, the inverse of
// EulerToQuat. Near gimbal lock X is zeroed and Z absorbs the rotation.
func QuatToEuler(q Quat) Vec3 {
	q = q.Normalize()

	sinp := clamp(2*(q.W*q.Y-q.X*q.Z), -1, 1)
	y := math32.Asin(sinp)

	if math32.Abs(sinp) >= 1-GimbalEpsilon {
		z := math32.Atan2(-2*(q.X*q.Y-q.Z*q.W), 1-2*(q.X*q.X+q.Z*q.Z))
		return Vec3{0, y, z}
	}

	x := math32.Atan2(2*(q.Y*q.Z+q.X*q.W), 1-2*(q.X*q.X+q.Y*q.Y))
	z := math32.Atan2(2*(q.X*q.Y+q.Z*q.W), 1-2*(q.Y*q.Y+q.Z*q.Z))
	return Vec3{x, y, z}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
