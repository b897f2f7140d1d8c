package formats

import (
	"path/filepath"
	"strings"

	"github.com/hschendel/stl"

	"github.com/Faultbox/modelkit/pkg/math"
	"github.com/Faultbox/modelkit/pkg/scene"
)

type stlCodec struct{}

// Read loads an ascii or binary STL file as a single mesh. Vertices shared
// by several triangles are merged, so per-face normals are not kept.
func (stlCodec) Read(path string) (*scene.Scene, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := solid.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	mesh := &scene.Mesh{Name: name, MaterialIndex: -1}
	index := make(map[stl.Vec3]int)
	for _, tri := range solid.Triangles {
		face := scene.Face{Indices: make([]int, 3)}
		for k, v := range tri.Vertices {
			idx, ok := index[v]
			if !ok {
				idx = len(mesh.Vertices)
				index[v] = idx
				mesh.Vertices = append(mesh.Vertices, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
			}
			face.Indices[k] = idx
		}
		mesh.Faces = append(mesh.Faces, face)
	}

	s := scene.NewScene()
	node := s.Root.AddChild(scene.NewNode(name, math.Identity()))
	node.MeshIndices = []int{s.AddMesh(mesh)}
	return s, nil
}

// Write saves every mesh of s as one STL solid, baking node transforms into
// the vertices. STL is ascii, STLB binary.
func (stlCodec) Write(s *scene.Scene, f Format, path string) error {
	solid := &stl.Solid{
		Name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		IsAscii: f == STL,
	}

	var werr error
	s.Walk(func(n *scene.Node) bool {
		global := n.GlobalTransform()
		for _, mi := range n.MeshIndices {
			mesh := s.Meshes[mi]
			for _, face := range mesh.Faces {
				if len(face.Indices) != 3 {
					werr = ErrNonTriangleFace
					return false
				}
				var tri stl.Triangle
				var p [3]math.Vec3
				for k, idx := range face.Indices {
					p[k] = global.TransformPoint(mesh.Vertices[idx])
					tri.Vertices[k] = stl.Vec3(p[k].Array())
				}
				tri.Normal = stl.Vec3(p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Normalize().Array())
				solid.Triangles = append(solid.Triangles, tri)
			}
		}
		return werr == nil
	})
	if werr != nil {
		return werr
	}
	return solid.WriteFile(path)
}
