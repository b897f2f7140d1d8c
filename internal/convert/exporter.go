package convert

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/modelkit/internal/logger"
	"github.com/Faultbox/modelkit/pkg/formats"
	"github.com/Faultbox/modelkit/pkg/math"
	"github.com/Faultbox/modelkit/pkg/model"
	"github.com/Faultbox/modelkit/pkg/scene"
)

// ErrNoModels is returned when there is nothing to export.
var ErrNoModels = errors.New("no models to export")

// Exporter builds scenes from models. The models passed in are never
// modified.
type Exporter struct {
	// Logger receives diagnostics. Nil uses the global logger.
	Logger *zap.Logger
	// PreferEuler composes joint matrices from their Euler angles when the
	// joint carries decomposed transforms.
	PreferEuler bool
}

func (ex *Exporter) log() *zap.Logger {
	if ex.Logger != nil {
		return ex.Logger
	}
	return logger.Named("export")
}

// ExportFile exports models into one scene and writes it to path.
func (ex *Exporter) ExportFile(models []*model.Model, f formats.Format, path string) error {
	s, err := ex.ExportMany(models)
	if err != nil {
		return err
	}
	if err := formats.Write(s, f, path); err != nil {
		return err
	}
	ex.log().Info("scene exported",
		zap.String("path", path),
		zap.Stringer("format", f),
		zap.Int("models", len(models)),
		zap.Int("meshes", len(s.Meshes)))
	return nil
}

// Export converts one model with its full skeleton. Every mesh lists every
// joint as a bone, including joints that influence none of its vertices,
// and a stored weight of 0 is written as 1. Mesh nodes are named
// MeshNode0000, MeshNode0001 and so on.
func (ex *Exporter) Export(src *model.Model) (*scene.Scene, error) {
	m, err := src.Clone()
	if err != nil {
		return nil, err
	}
	// Resolved models are resolved again so that relative edits made since
	// the last resolution reach the bone offsets.
	if err := m.ResolveAbsolute(); err != nil {
		return nil, fmt.Errorf("resolving joints: %w", err)
	}

	s := scene.NewScene()
	for _, mat := range m.Materials {
		s.AddMaterial(&scene.Material{Name: mat.Name, DiffuseTexture: textureBase(mat.DiffuseTexture)})
	}

	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		sm := exportGeometry(mesh, mesh.Name, mesh.Material.OrElse(-1))
		for _, j := range m.Joints {
			abs := j.Absolute.MatrixOrCompose(false)
			sm.Bones = append(sm.Bones, &scene.Bone{Name: j.Name, Offset: abs.Inverse()})
		}
		for v := range mesh.Vertices {
			for _, b := range mesh.Vertices[v].Weights {
				if b.Joint < 0 || b.Joint >= len(sm.Bones) {
					return nil, fmt.Errorf("mesh %q vertex %d joint %d: %w", mesh.Name, v, b.Joint, model.ErrUnresolvedBoneBinding)
				}
				bone := sm.Bones[b.Joint]
				bone.Weights = append(bone.Weights, scene.VertexWeight{VertexID: v, Weight: b.EffectiveWeight()})
			}
		}
		for _, f := range mesh.Faces {
			sm.Faces = append(sm.Faces, scene.Face{Indices: []int{f.Indices[0], f.Indices[1], f.Indices[2]}})
		}

		node := s.Root.AddChild(scene.NewNode(fmt.Sprintf("MeshNode%04d", i), math.Identity()))
		node.MeshIndices = []int{s.AddMesh(sm)}
	}

	for _, j := range m.Joints {
		parent := s.Root
		if p, ok := j.Parent.Get(); ok && p >= 0 && p < len(m.Joints) {
			if n := s.Root.FindNode(m.Joints[p].Name); n != nil {
				parent = n
			}
		}
		rel := j.Relative
		if ex.PreferEuler && rel.HasTRS() {
			rel.Compose(true)
		}
		parent.AddChild(scene.NewNode(j.Name, rel.MatrixOrCompose(false)))
	}

	ex.log().Debug("model exported",
		zap.String("model", m.Name),
		zap.Int("joints", len(m.Joints)),
		zap.Int("meshes", len(m.Meshes)))
	return s, nil
}

// ExportMany converts several models into one scene without skeletons.
// A single model is exported with Export instead. Each model gets a group
// node under the root, and its materials, textures, meshes and mesh nodes
// are prefixed with "<model>.". Counter-clockwise faces have their last two
// indices swapped.
func (ex *Exporter) ExportMany(models []*model.Model) (*scene.Scene, error) {
	switch len(models) {
	case 0:
		return nil, ErrNoModels
	case 1:
		return ex.Export(models[0])
	}

	s := scene.NewScene()
	for _, src := range models {
		m, err := src.Clone()
		if err != nil {
			return nil, err
		}
		group := s.Root.AddChild(scene.NewNode(m.Name, math.Identity()))
		prefix := m.Name + "."

		base := len(s.Materials)
		for _, mat := range m.Materials {
			tex := ""
			if mat.DiffuseTexture != "" {
				tex = prefix + textureBase(mat.DiffuseTexture)
			}
			s.AddMaterial(&scene.Material{Name: prefix + mat.Name, DiffuseTexture: tex})
		}

		for i := range m.Meshes {
			mesh := &m.Meshes[i]
			material := -1
			if idx, ok := mesh.Material.Get(); ok {
				material = base + idx
			}
			sm := exportGeometry(mesh, prefix+mesh.Name, material)
			for _, f := range mesh.Faces {
				a, b, c := f.Indices[0], f.Indices[1], f.Indices[2]
				if !f.Clockwise {
					b, c = c, b
				}
				sm.Faces = append(sm.Faces, scene.Face{Indices: []int{a, b, c}})
			}

			node := group.AddChild(scene.NewNode(sm.Name, math.Identity()))
			node.MeshIndices = []int{s.AddMesh(sm)}
		}

		if len(m.Joints) > 0 {
			ex.log().Debug("skeleton not exported with multiple models",
				zap.String("model", m.Name), zap.Int("joints", len(m.Joints)))
		}
	}
	return s, nil
}

// exportGeometry copies vertex attributes into a scene mesh. An attribute
// present on any vertex is written for all of them, with zero (or opaque
// white for colors) where a vertex lacks it.
func exportGeometry(mesh *model.Mesh, name string, material int) *scene.Mesh {
	sm := &scene.Mesh{Name: name, MaterialIndex: material}

	var hasUV, hasColor, hasNormal bool
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		hasUV = hasUV || v.UV.Valid
		hasColor = hasColor || v.Color.Valid
		hasNormal = hasNormal || v.Normal.Valid
	}

	white := math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		sm.Vertices = append(sm.Vertices, v.Position)
		if hasUV {
			sm.TexCoords = append(sm.TexCoords, v.UV.Value)
		}
		if hasColor {
			sm.Colors = append(sm.Colors, v.Color.OrElse(white))
		}
		if hasNormal {
			sm.Normals = append(sm.Normals, v.Normal.Value)
		}
	}
	return sm
}
