// Package scene describes the generic scene graph that importers read from
// and exporters write to. It mirrors the shape common interchange formats
// share: a node tree with transforms, meshes with per-vertex attribute
// arrays and bones, and materials.
package scene

import "github.com/Faultbox/modelkit/pkg/math"

// RootName is the name given to the root node of new scenes.
const RootName = "RootNode"

// Scene is a node tree plus the meshes and materials its nodes reference.
type Scene struct {
	Root      *Node
	Meshes    []*Mesh
	Materials []*Material
}

// Node is a named transform in the scene tree. Transform is relative to the
// parent.
type Node struct {
	Name        string
	Transform   math.Mat4
	Parent      *Node
	Children    []*Node
	MeshIndices []int
}

// Mesh holds parallel per-vertex arrays. Optional arrays are either empty or
// the same length as Vertices.
type Mesh struct {
	Name          string
	MaterialIndex int
	Vertices      []math.Vec3
	Normals       []math.Vec3
	TexCoords     []math.Vec2
	Colors        []math.Vec4
	Bones         []*Bone
	Faces         []Face
}

// Bone binds vertices of a mesh to the node with the same name.
type Bone struct {
	Name    string
	Offset  math.Mat4
	Weights []VertexWeight
}

// VertexWeight is one vertex influence of a bone.
type VertexWeight struct {
	VertexID int
	Weight   float32
}

// Face is a polygon of vertex indices. Triangulated scenes only hold
// three-index faces, but readers keep whatever the source declared.
type Face struct {
	Indices []int
}

// Material is a named surface with an optional diffuse texture path.
type Material struct {
	Name           string
	DiffuseTexture string
}

// NewScene returns a scene with an empty identity root node.
func NewScene() *Scene {
	return &Scene{Root: NewNode(RootName, math.Identity())}
}

// NewNode returns a detached node.
func NewNode(name string, transform math.Mat4) *Node {
	return &Node{Name: name, Transform: transform}
}

// AddChild attaches child to n and returns it.
func (n *Node) AddChild(child *Node) *Node {
	child.Parent = n
	n.Children = append(n.Children, child)
	return child
}

// HasMeshes reports whether the node references any mesh.
func (n *Node) HasMeshes() bool {
	return len(n.MeshIndices) > 0
}

// FindNode returns the first node named name in a depth-first search of
// the subtree rooted at n, including n itself.
func (n *Node) FindNode(name string) *Node {
	if n == nil {
		return nil
	}
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.FindNode(name); found != nil {
			return found
		}
	}
	return nil
}

// GlobalTransform returns the node's transform in scene space.
func (n *Node) GlobalTransform() math.Mat4 {
	m := n.Transform
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.Transform.Mul(m)
	}
	return m
}

// Walk visits the subtree rooted at n depth-first in pre-order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Walk visits every node of the scene.
func (s *Scene) Walk(fn func(*Node) bool) {
	s.Root.Walk(fn)
}

// NodeCount returns the number of nodes in the scene.
func (s *Scene) NodeCount() int {
	count := 0
	s.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// AddMesh appends a mesh and returns its index.
func (s *Scene) AddMesh(m *Mesh) int {
	s.Meshes = append(s.Meshes, m)
	return len(s.Meshes) - 1
}

// AddMaterial appends a material and returns its index.
func (s *Scene) AddMaterial(m *Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

// BoneNames returns the distinct bone names of every mesh in first-seen
// order.
func (s *Scene) BoneNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range s.Meshes {
		for _, b := range m.Bones {
			if !seen[b.Name] {
				seen[b.Name] = true
				names = append(names, b.Name)
			}
		}
	}
	return names
}
