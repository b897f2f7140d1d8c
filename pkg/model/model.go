// Package model is the renderer-agnostic representation of a skinned model:
// a joint hierarchy, meshes with skinning weights, and materials.
package model

import (
	"fmt"

	"github.com/jinzhu/copier"

	"github.com/Faultbox/modelkit/pkg/math"
)

// Model owns its joints, meshes and materials. Joints reference their parent
// by index into Joints, so the list must never be reordered without
// remapping those indices.
type Model struct {
	Name      string
	Labels    []string
	Joints    []Joint
	Meshes    []Mesh
	Materials []Material
}

// JointState tracks whether a joint's absolute transform is current.
type JointState int

const (
	JointUnresolved JointState = iota
	JointResolved
)

// String returns the state name.
func (s JointState) String() string {
	switch s {
	case JointUnresolved:
		return "Unresolved"
	case JointResolved:
		return "Resolved"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Joint is a node of the skeleton. Relative is expressed in the parent's
// space, Absolute in model space.
type Joint struct {
	Name     string
	Parent   Optional[int]
	Relative Transform
	Absolute Transform
	State    JointState
}

// Transform holds a transform as a matrix and in decomposed form. Either
// side may be missing until Compose or Decompose fills it in. When both are
// present and disagree, the decomposed fields are treated as edits made
// after the matrix was set; see Sync.
type Transform struct {
	Matrix      Optional[math.Mat4]
	Scale       Optional[math.Vec3]
	Rotation    Optional[math.Quat]
	Euler       Optional[math.Vec3] // radians, XYZ
	Translation Optional[math.Vec3]
}

// TransformFromMatrix returns a transform with the matrix and its
// decomposition set.
func TransformFromMatrix(m math.Mat4) Transform {
	t := Transform{Matrix: Some(m)}
	t.Decompose()
	return t
}

// TransformFromTRS returns a transform with the decomposed fields and the
// composed matrix set. The quaternion defines the rotation; trs.Euler is
// kept only if it describes the same rotation.
func TransformFromTRS(trs math.TRS) Transform {
	euler := trs.Euler
	if !sameRotation(math.EulerToQuat(euler), trs.Rotation) {
		euler = math.QuatToEuler(trs.Rotation)
	}
	t := Transform{
		Scale:       Some(trs.Scale),
		Rotation:    Some(trs.Rotation),
		Euler:       Some(euler),
		Translation: Some(trs.Translation),
	}
	t.Compose(false)
	return t
}

// Decompose fills the decomposed fields from the matrix. It does nothing
// when the matrix is absent.
func (t *Transform) Decompose() {
	m, ok := t.Matrix.Get()
	if !ok {
		return
	}
	trs := math.Decompose(m)
	t.Scale.Set(trs.Scale)
	t.Rotation.Set(trs.Rotation)
	t.Euler.Set(trs.Euler)
	t.Translation.Set(trs.Translation)
}

// HasTRS reports whether scale, a rotation and translation are all present.
func (t *Transform) HasTRS() bool {
	return t.Scale.Valid && (t.Rotation.Valid || t.Euler.Valid) && t.Translation.Valid
}

// Compose fills the matrix from the decomposed fields. The quaternion is
// used unless preferEuler is set or only Euler angles are present. It does
// nothing when the decomposed fields are incomplete.
func (t *Transform) Compose(preferEuler bool) {
	if !t.HasTRS() {
		return
	}
	var rot *math.Quat
	if q, ok := t.Rotation.Get(); ok {
		rot = &q
	}
	t.Matrix.Set(math.Compose(t.Scale.Value, rot, t.Euler.Value, t.Translation.Value, preferEuler))
}

// TRS returns the decomposed form, deriving a missing quaternion from the
// Euler angles or vice versa. ok is false when HasTRS is false.
func (t *Transform) TRS(preferEuler bool) (trs math.TRS, ok bool) {
	if !t.HasTRS() {
		return math.TRS{}, false
	}
	trs = math.TRS{Scale: t.Scale.Value, Translation: t.Translation.Value}
	switch {
	case t.Euler.Valid && (preferEuler || !t.Rotation.Valid):
		trs.Euler = t.Euler.Value
		trs.Rotation = math.EulerToQuat(trs.Euler)
	default:
		trs.Rotation = t.Rotation.Value
		trs.Euler = math.QuatToEuler(trs.Rotation)
	}
	return trs, true
}

// How far decomposed fields may drift from the matrix's own decomposition
// before they count as edited. Rotations compare by quaternion dot product.
const (
	syncTolerance         = 1e-4
	syncRotationTolerance = 1e-6
)

// Sync recomposes the matrix when the decomposed fields no longer match
// it, so that edits to Scale, Rotation, Euler or Translation win over a
// stale matrix. If only the Euler angles were edited they drive the
// rotation; otherwise the quaternion does unless preferEuler is set. Sync
// reports whether the matrix was replaced.
func (t *Transform) Sync(preferEuler bool) bool {
	m, ok := t.Matrix.Get()
	if !ok || !t.HasTRS() {
		return false
	}
	d := math.Decompose(m)
	quatEdited := t.Rotation.Valid && !sameRotation(t.Rotation.Value, d.Rotation)
	eulerEdited := t.Euler.Valid && !sameRotation(math.EulerToQuat(t.Euler.Value), math.EulerToQuat(d.Euler))
	if !quatEdited && !eulerEdited &&
		t.Scale.Value.ApproxEqual(d.Scale, syncTolerance) &&
		t.Translation.Value.ApproxEqual(d.Translation, syncTolerance) {
		return false
	}
	useEuler := t.Euler.Valid && (preferEuler || !t.Rotation.Valid || (eulerEdited && !quatEdited))
	t.Matrix.Clear()
	t.Compose(useEuler)
	return true
}

// sameRotation treats q and -q as the same rotation.
func sameRotation(a, b math.Quat) bool {
	d := a.Normalize().Dot(b.Normalize())
	return d >= 1-syncRotationTolerance || d <= -1+syncRotationTolerance
}

// MatrixOrCompose returns the matrix, composing it from the decomposed
// fields first if needed. A transform with neither is the identity.
func (t *Transform) MatrixOrCompose(preferEuler bool) math.Mat4 {
	if !t.Matrix.Valid {
		t.Compose(preferEuler)
	}
	return t.Matrix.OrElse(math.Identity())
}

// Mesh is an indexed triangle mesh. Strips are derived from Faces and are
// rebuilt by BuildTriangleStrips.
type Mesh struct {
	Name     string
	Labels   []string
	Material Optional[int]
	Vertices []Vertex
	Faces    []Face
	Strips   []TriangleStrip
}

// Vertex is a mesh vertex in model space.
type Vertex struct {
	Position math.Vec3
	UV       Optional[math.Vec2]
	Color    Optional[math.Vec4] // RGBA
	Normal   Optional[math.Vec3]
	Weights  []Binding
}

// IsSkinned reports whether the vertex is bound to at least one joint.
func (v *Vertex) IsSkinned() bool {
	return len(v.Weights) > 0
}

// Equal reports whether two vertices carry the same data. Skinned vertices
// compare by their bindings instead of their positions.
func (v *Vertex) Equal(other *Vertex) bool {
	if other == nil {
		return false
	}
	if v.IsSkinned() {
		if len(v.Weights) != len(other.Weights) {
			return false
		}
		for i := range v.Weights {
			if v.Weights[i] != other.Weights[i] {
				return false
			}
		}
	} else if v.Position != other.Position {
		return false
	}
	return v.UV == other.UV && v.Color == other.Color && v.Normal == other.Normal
}

// Binding attaches a vertex to a joint.
type Binding struct {
	Joint  int
	Weight float32
}

// EffectiveWeight returns the weight to apply. A stored weight of exactly 0
// means full influence.
func (b Binding) EffectiveWeight() float32 {
	if b.Weight == 0 {
		return 1
	}
	return b.Weight
}

// Material is a named surface with an optional diffuse texture reference.
type Material struct {
	Name           string
	DiffuseTexture string
}

// Face is a triangle of vertex indices. Clockwise records the winding the
// face should be emitted with.
type Face struct {
	Indices   [3]int
	Clockwise bool
}

// NewFace returns a clockwise face.
func NewFace(a, b, c int) Face {
	return Face{Indices: [3]int{a, b, c}, Clockwise: true}
}

// Validate checks that the three indices are distinct.
func (f Face) Validate() error {
	a, b, c := f.Indices[0], f.Indices[1], f.Indices[2]
	if a == b || b == c || a == c {
		return ErrDegenerateFace
	}
	return nil
}

// Contains reports whether the face references vertex index v.
func (f Face) Contains(v int) bool {
	return f.Indices[0] == v || f.Indices[1] == v || f.Indices[2] == v
}

// JointIndex returns the index of the first joint with the given name.
func (m *Model) JointIndex(name string) (int, bool) {
	for i := range m.Joints {
		if m.Joints[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// JointNames returns the joint names in index order.
func (m *Model) JointNames() []string {
	names := make([]string, len(m.Joints))
	for i := range m.Joints {
		names[i] = m.Joints[i].Name
	}
	return names
}

// VertexCount returns the number of vertices across all meshes.
func (m *Model) VertexCount() int {
	total := 0
	for i := range m.Meshes {
		total += len(m.Meshes[i].Vertices)
	}
	return total
}

// FaceCount returns the number of faces across all meshes.
func (m *Model) FaceCount() int {
	total := 0
	for i := range m.Meshes {
		total += len(m.Meshes[i].Faces)
	}
	return total
}

// Clone returns a deep copy of the model. Nil slices (Labels, Weights of
// rigid vertices and so on) come back empty but non-nil, so compare clones
// by value rather than with reflect.DeepEqual.
func (m *Model) Clone() (*Model, error) {
	clone := &Model{}
	if err := copier.CopyWithOption(clone, m, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("cloning model %q: %w", m.Name, err)
	}
	return clone, nil
}
