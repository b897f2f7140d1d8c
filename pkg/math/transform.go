package math

import "github.com/chewxy/math32"

const (
	// Epsilon is the smallest basis-axis length treated as a real scale.
	Epsilon float32 = 1e-6
	// GimbalEpsilon is the distance from |sin(pitch)| = 1 at which Euler
	// extraction switches to the two-angle solution.
	GimbalEpsilon float32 = 1e-5
)

// TRS is a transform decomposed into scale, rotation and translation. The
// rotation is kept both as a quaternion and as XYZ Euler radians.
type TRS struct {
	Scale       Vec3
	Rotation    Quat
	Euler       Vec3
	Translation Vec3
}

// IdentityTRS returns the decomposition of the identity matrix.
func IdentityTRS() TRS {
	return TRS{Scale: One, Rotation: QuatIdentity()}
}

// Decompose splits an affine matrix into scale, rotation and translation.
//
// Scale is the length of each basis row. A row shorter than Epsilon keeps
// scale 1 and is left unnormalized. Reflections (negative scale) are not
// detected; the result for them is undefined.
func Decompose(m Mat4) TRS {
	rot := Identity()
	var scale Vec3

	axes := [3]*float32{&scale.X, &scale.Y, &scale.Z}
	for i := 0; i < 3; i++ {
		row := m.Row(i)
		length := row.Length()
		if length < Epsilon {
			*axes[i] = 1
		} else {
			*axes[i] = length
			row = row.Scale(1 / length)
		}
		rot[i*4], rot[i*4+1], rot[i*4+2] = row.X, row.Y, row.Z
	}

	return TRS{
		Scale:       scale,
		Rotation:    QuatFromMat4(rot),
		Euler:       EulerFromMat4(rot),
		Translation: m.Translation(),
	}
}

// EulerFromMat4 extracts XYZ Euler radians from a pure rotation matrix built
// as Rx·Ry·Rz. When |M13| is within GimbalEpsilon of 1 the X angle is zeroed.
func EulerFromMat4(m Mat4) Vec3 {
	m11, m12, m13 := m[0], m[1], m[2]
	m21, m22, m23 := m[4], m[5], m[6]
	m33 := m[10]

	y := math32.Asin(clamp(-m13, -1, 1))
	if math32.Abs(m13) >= 1-GimbalEpsilon {
		return Vec3{0, y, math32.Atan2(-m21, m22)}
	}
	return Vec3{
		math32.Atan2(m23, m33),
		y,
		math32.Atan2(m12, m11),
	}
}

// EulerMatrix builds Rx·Ry·Rz: X is applied first, Z last.
func EulerMatrix(e Vec3) Mat4 {
	return RotateZ(e.Z).Mul(RotateY(e.Y)).Mul(RotateX(e.X))
}

// Compose builds Scale·Rotation·Translation. The rotation comes from the
// quaternion unless preferEuler is set or rotation is nil, in which case the
// Euler angles are used.
func Compose(scale Vec3, rotation *Quat, euler Vec3, translation Vec3, preferEuler bool) Mat4 {
	var rot Mat4
	if !preferEuler && rotation != nil {
		rot = rotation.ToMat4()
	} else {
		rot = EulerMatrix(euler)
	}
	return TranslateVec(translation).Mul(rot).Mul(ScaleVec(scale))
}

// Matrix composes t back into a matrix.
func (t TRS) Matrix(preferEuler bool) Mat4 {
	q := t.Rotation
	return Compose(t.Scale, &q, t.Euler, t.Translation, preferEuler)
}
