package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/modelkit/pkg/math"
)

const tol = 1e-4

func twoJointModel() *Model {
	return &Model{
		Joints: []Joint{
			{Name: "A", Relative: TransformFromMatrix(math.Translate(1, 0, 0))},
			{Name: "B", Parent: Some(0), Relative: TransformFromMatrix(math.Translate(0, 0, 5))},
		},
	}
}

func TestResolveAbsolute(t *testing.T) {
	m := twoJointModel()
	require.NoError(t, m.ResolveAbsolute())
	assert.True(t, m.Resolved())

	b := m.Joints[1]
	got := b.Absolute.Translation.Value
	assert.True(t, got.ApproxEqual(math.Vec3{X: 1, Y: 0, Z: 5}, tol), "got %v", got)
	assert.True(t, b.Absolute.Matrix.Valid)
	assert.True(t, b.Absolute.Scale.Value.ApproxEqual(math.One, tol))
}

func TestResolveAbsoluteRotatedParent(t *testing.T) {
	m := &Model{
		Joints: []Joint{
			{Name: "root", Relative: TransformFromMatrix(math.TranslateVec(math.Vec3{X: 0, Y: 2, Z: 0}).Mul(math.RotateZ(1.5707964)))},
			{Name: "arm", Parent: Some(0), Relative: TransformFromMatrix(math.Translate(1, 0, 0))},
		},
	}
	require.NoError(t, m.ResolveAbsolute())

	got := m.Joints[1].Absolute.Translation.Value
	assert.True(t, got.ApproxEqual(math.Vec3{X: 0, Y: 3, Z: 0}, tol), "got %v", got)
}

func TestResolveAbsoluteComposesMissingMatrix(t *testing.T) {
	m := &Model{
		Joints: []Joint{{
			Name: "root",
			Relative: Transform{
				Scale:       Some(math.One),
				Euler:       Some(math.Vec3{}),
				Translation: Some(math.Vec3{X: 3}),
			},
		}},
	}
	require.NoError(t, m.ResolveAbsolute())
	assert.True(t, m.Joints[0].Absolute.Matrix.Value.ApproxEqual(math.Translate(3, 0, 0), tol))
}

func TestResolveRejectsBadParents(t *testing.T) {
	tests := []struct {
		name   string
		parent int
	}{
		{"self", 1},
		{"forward", 2},
		{"negative", -1},
		{"out of range", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Model{Joints: []Joint{
				{Name: "a"},
				{Name: "b", Parent: Some(tt.parent)},
				{Name: "c"},
			}}
			for _, resolve := range []func() error{
				m.ResolveAbsolute,
				m.ResolveRelative,
				func() error { return m.ComposeAbsoluteFromTRS(false) },
			} {
				err := resolve()
				require.ErrorIs(t, err, ErrCyclicHierarchy)
				var je *JointError
				require.ErrorAs(t, err, &je)
				assert.Equal(t, 1, je.Index)
				assert.Equal(t, "b", je.Name)
			}
			assert.False(t, m.Resolved())
		})
	}
}

func TestComposeAbsoluteFromTRSMatchesMatrices(t *testing.T) {
	build := func() *Model {
		return &Model{Joints: []Joint{
			{Name: "root", Relative: TransformFromTRS(math.TRS{
				Scale:       math.Vec3{X: 2, Y: 2, Z: 2},
				Rotation:    math.QuatFromAxisAngle(math.Vec3{Z: 1}, 0.5),
				Translation: math.Vec3{X: 1, Y: -1, Z: 0},
			})},
			{Name: "child", Parent: Some(0), Relative: TransformFromTRS(math.TRS{
				Scale:       math.One,
				Rotation:    math.QuatFromAxisAngle(math.Vec3{X: 1}, 0.3),
				Translation: math.Vec3{X: 0, Y: 4, Z: 1},
			})},
		}}
	}

	byMatrix := build()
	require.NoError(t, byMatrix.ResolveAbsolute())
	byTRS := build()
	require.NoError(t, byTRS.ComposeAbsoluteFromTRS(false))

	for i := range byMatrix.Joints {
		want := byMatrix.Joints[i].Absolute.Matrix.Value
		got := byTRS.Joints[i].Absolute.Matrix.Value
		assert.True(t, got.ApproxEqual(want, tol), "joint %d: got %v want %v", i, got, want)
	}
}

func TestResolveRelativeInvertsAbsolute(t *testing.T) {
	m := twoJointModel()
	m.Joints[1].Relative = TransformFromMatrix(math.RotateY(0.7).Mul(math.Translate(0, 1, 5)))
	require.NoError(t, m.ResolveAbsolute())

	want := m.Joints[1].Relative.Matrix.Value
	m.Joints[1].Relative = Transform{}
	m.Unresolve()
	require.NoError(t, m.ResolveRelative())

	assert.True(t, m.Joints[1].Relative.Matrix.Value.ApproxEqual(want, tol))
	assert.Equal(t, JointResolved, m.Joints[1].State)
}

func TestReResolveAfterRelativeEdit(t *testing.T) {
	resolvers := map[string]func(m *Model) error{
		"matrices": (*Model).ResolveAbsolute,
		"trs":      func(m *Model) error { return m.ComposeAbsoluteFromTRS(false) },
	}

	for name, resolve := range resolvers {
		t.Run(name, func(t *testing.T) {
			m := &Model{Joints: []Joint{
				{Name: "A", Relative: TransformFromMatrix(math.Identity())},
				{Name: "B", Parent: Some(0), Relative: TransformFromMatrix(math.Translate(0, 0, 5))},
			}}
			require.NoError(t, resolve(m))
			got := m.Joints[1].Absolute.Translation.Value
			require.True(t, got.ApproxEqual(math.Vec3{Z: 5}, tol), "got %v", got)

			m.Joints[0].Relative.Translation.Set(math.Vec3{X: 1})
			m.Unresolve()
			require.NoError(t, resolve(m))

			got = m.Joints[1].Absolute.Translation.Value
			assert.True(t, got.ApproxEqual(math.Vec3{X: 1, Z: 5}, tol), "got %v", got)
			assert.True(t, m.Joints[0].Relative.Translation.Value.ApproxEqual(math.Vec3{X: 1}, tol), "edit was kept")
			assert.True(t, m.Joints[0].Relative.Matrix.Value.ApproxEqual(math.Translate(1, 0, 0), tol))
		})
	}
}

func TestReResolveAfterEulerEdit(t *testing.T) {
	m := &Model{Joints: []Joint{
		{Name: "A", Relative: TransformFromMatrix(math.Identity())},
		{Name: "B", Parent: Some(0), Relative: TransformFromMatrix(math.Translate(1, 0, 0))},
	}}
	require.NoError(t, m.ResolveAbsolute())

	euler := math.Vec3{Z: 0.8}
	m.Joints[0].Relative.Euler.Set(euler)
	require.NoError(t, m.ResolveAbsolute())

	want := math.EulerMatrix(euler).TransformPoint(math.Vec3{X: 1})
	got := m.Joints[1].Absolute.Translation.Value
	assert.True(t, got.ApproxEqual(want, tol), "got %v want %v", got, want)
}

func TestReResolveKeepsUneditedMatrices(t *testing.T) {
	mirrored := math.Scale(-1, 1, 1).Mul(math.Translate(2, 0, 0))
	m := &Model{Joints: []Joint{{Name: "mirror", Relative: TransformFromMatrix(mirrored)}}}

	require.NoError(t, m.ResolveAbsolute())
	require.NoError(t, m.ResolveAbsolute())
	assert.Equal(t, mirrored, m.Joints[0].Relative.Matrix.Value, "a matrix its fields were decomposed from is not recomposed")
}

func TestResolveAbsoluteChainProduct(t *testing.T) {
	rot := func(x, y, z, angle float32) math.Quat {
		return math.QuatFromAxisAngle(math.Vec3{X: x, Y: y, Z: z}.Normalize(), angle)
	}
	uniform := func(s float32) math.Vec3 { return math.Vec3{X: s, Y: s, Z: s} }

	tests := []struct {
		name  string
		chain []math.TRS
	}{
		{"translations", []math.TRS{
			{Scale: math.One, Rotation: math.QuatIdentity(), Translation: math.Vec3{X: 1}},
			{Scale: math.One, Rotation: math.QuatIdentity(), Translation: math.Vec3{Y: 2}},
			{Scale: math.One, Rotation: math.QuatIdentity(), Translation: math.Vec3{Z: 3}},
			{Scale: math.One, Rotation: math.QuatIdentity(), Translation: math.Vec3{X: -4}},
		}},
		{"rotations and translations", []math.TRS{
			{Scale: math.One, Rotation: rot(0, 0, 1, 0.5), Translation: math.Vec3{X: 1, Y: 2}},
			{Scale: math.One, Rotation: rot(1, 0, 0, -1.1), Translation: math.Vec3{Z: 3}},
			{Scale: math.One, Rotation: rot(0, 1, 0, 2.0), Translation: math.Vec3{X: 0.5, Y: -1}},
			{Scale: math.One, Rotation: rot(1, 1, 0, 0.3), Translation: math.Vec3{Y: 4}},
			{Scale: math.One, Rotation: rot(0, 1, 1, -0.7), Translation: math.Vec3{X: 2, Z: -2}},
		}},
		{"uniform scale", []math.TRS{
			{Scale: uniform(2), Rotation: rot(0, 0, 1, 0.25), Translation: math.Vec3{X: 1}},
			{Scale: uniform(0.5), Rotation: rot(1, 0, 0, 0.9), Translation: math.Vec3{Y: 3}},
			{Scale: uniform(3), Rotation: rot(0, 1, 0, -0.4), Translation: math.Vec3{Z: 1, X: 1}},
			{Scale: uniform(1.5), Rotation: rot(1, 0, 1, 1.2), Translation: math.Vec3{Y: -2}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			build := func() *Model {
				m := &Model{}
				for i, trs := range tt.chain {
					j := Joint{Name: fmt.Sprintf("j%d", i), Relative: TransformFromTRS(trs)}
					if i > 0 {
						j.Parent = Some(i - 1)
					}
					m.Joints = append(m.Joints, j)
				}
				return m
			}

			byMatrix := build()
			want := make([]math.Mat4, len(byMatrix.Joints))
			product := math.Identity()
			for i := range byMatrix.Joints {
				product = product.Mul(byMatrix.Joints[i].Relative.Matrix.Value)
				want[i] = product
			}

			require.NoError(t, byMatrix.ResolveAbsolute())
			byTRS := build()
			require.NoError(t, byTRS.ComposeAbsoluteFromTRS(false))

			for i := range want {
				got := byMatrix.Joints[i].Absolute.Matrix.Value
				assert.True(t, got.ApproxEqual(want[i], tol), "matrices, joint %d: got %v want %v", i, got, want[i])
				got = byTRS.Joints[i].Absolute.Matrix.Value
				assert.True(t, got.ApproxEqual(want[i], tol), "trs, joint %d: got %v want %v", i, got, want[i])
			}
		})
	}
}
