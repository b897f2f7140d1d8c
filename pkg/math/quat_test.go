package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatToMat4(t *testing.T) {
	// Identity quaternion should produce identity matrix
	q := QuatIdentity()
	m := q.ToMat4()

	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(m[i]-identity[i])) > 0.0001 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Y axis
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	// Should have Y component and W = cos(45deg)
	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatRotateMatchesMatrix(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{1, 2, 3}.Normalize(), 1.1)
	v := Vec3{0.5, -1, 2}

	got := q.Rotate(v)
	want := q.ToMat4().TransformDirection(v)
	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("Rotate = %v, matrix = %v", got, want)
	}
}

func TestQuatMulOrder(t *testing.T) {
	// a.Mul(b) rotates by b first
	a := QuatFromAxisAngle(Vec3{0, 0, 1}, math.Pi/2)
	b := QuatFromAxisAngle(Vec3{1, 0, 0}, math.Pi/2)

	got := a.Mul(b).Rotate(Vec3{0, 1, 0})
	want := a.Rotate(b.Rotate(Vec3{0, 1, 0}))
	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("Mul order: got %v, want %v", got, want)
	}
}

func TestQuatFromMat4(t *testing.T) {
	tests := []struct {
		name  string
		axis  Vec3
		angle float32
	}{
		{"identity", Vec3{0, 1, 0}, 0},
		{"x 30", Vec3{1, 0, 0}, math.Pi / 6},
		{"y 170", Vec3{0, 1, 0}, 170 * math.Pi / 180},
		{"z 180", Vec3{0, 0, 1}, math.Pi},
		{"x 180", Vec3{1, 0, 0}, math.Pi},
		{"oblique", Vec3{1, -1, 2}.Normalize(), 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatFromAxisAngle(tt.axis, tt.angle)
			got := QuatFromMat4(q.ToMat4())
			if !got.ApproxEqual(q, 1e-5) {
				t.Errorf("QuatFromMat4 = %+v, want %+v", got, q)
			}
		})
	}
}

func TestEulerQuatRoundTrip(t *testing.T) {
	tests := []Vec3{
		{0, 0, 0},
		{0.3, -0.2, 1.1},
		{-1.2, 0.9, -2.8},
		{math.Pi / 2, 0.4, 0},
	}

	for _, e := range tests {
		q := EulerToQuat(e)
		back := EulerToQuat(QuatToEuler(q))
		if !back.ApproxEqual(q, 1e-5) {
			t.Errorf("Euler %v: round trip %+v, want %+v", e, back, q)
		}
		if !q.ToMat4().ApproxEqual(EulerMatrix(e), 1e-5) {
			t.Errorf("Euler %v: quaternion and matrix paths disagree", e)
		}
	}
}

func TestQuatToEulerGimbalLock(t *testing.T) {
	// Pitch of exactly +90 degrees must not produce NaN
	for _, pitch := range []float32{math.Pi / 2, -math.Pi / 2} {
		q := EulerToQuat(Vec3{0.4, pitch, 0.3})
		e := QuatToEuler(q)
		if e.X != 0 {
			t.Errorf("gimbal lock should zero X, got %v", e.X)
		}
		if e.Y != e.Y || e.Z != e.Z {
			t.Fatalf("NaN in Euler angles: %v", e)
		}
		if !EulerToQuat(e).ApproxEqual(q, 1e-4) {
			t.Errorf("pitch %v: degenerate solution does not reproduce rotation", pitch)
		}
	}
}
