// Package convert moves models between the scene graph read and written by
// the format codecs and the internal model representation.
package convert

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/modelkit/internal/logger"
	"github.com/Faultbox/modelkit/pkg/formats"
	"github.com/Faultbox/modelkit/pkg/model"
	"github.com/Faultbox/modelkit/pkg/scene"
)

// Importer builds models from scenes.
type Importer struct {
	// Logger receives diagnostics. Nil uses the global logger.
	Logger *zap.Logger
	// SkipStrips leaves Mesh.Strips empty.
	SkipStrips bool
}

func (im *Importer) log() *zap.Logger {
	if im.Logger != nil {
		return im.Logger
	}
	return logger.Named("import")
}

// ImportFile reads path with the codec for its extension and imports it.
func (im *Importer) ImportFile(path string) (*model.Model, *Report, error) {
	s, err := formats.Read(path)
	if err != nil {
		return nil, nil, err
	}
	return im.Import(s, path)
}

// Import converts s into a model. sourcePath is the file s was read from;
// texture references are resolved against its directory and the model is
// named after it.
//
// Every node outside mesh subtrees, except the scene root, becomes a joint.
// Absolute joint transforms are resolved and triangle strips are built
// before Import returns. Bones that match no joint are dropped and listed
// in the report.
func (im *Importer) Import(s *scene.Scene, sourcePath string) (*model.Model, *Report, error) {
	log := im.log().With(zap.String("source", sourcePath))
	name := filepath.Base(sourcePath)
	m := &model.Model{Name: name[:len(name)-len(filepath.Ext(name))]}
	report := &Report{Source: sourcePath}

	importJoints(s, m)
	if err := m.ResolveAbsolute(); err != nil {
		return nil, nil, fmt.Errorf("resolving joints: %w", err)
	}

	dir := filepath.Dir(sourcePath)
	for _, mat := range s.Materials {
		m.Materials = append(m.Materials, model.Material{
			Name:           mat.Name,
			DiffuseTexture: TexturePath(dir, mat.DiffuseTexture),
		})
	}

	for i, src := range s.Meshes {
		mesh, err := im.importMesh(src, m, report)
		if err != nil {
			return nil, nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		if !im.SkipStrips {
			if err := mesh.BuildTriangleStrips(); err != nil {
				return nil, nil, err
			}
		}
		m.Meshes = append(m.Meshes, *mesh)
	}

	report.Joints = len(m.Joints)
	report.Meshes = len(m.Meshes)
	report.Vertices = m.VertexCount()
	report.Faces = m.FaceCount()
	report.Strips = m.StripCount()
	report.Materials = len(m.Materials)

	for _, u := range report.Unresolved {
		log.Warn("bone matches no joint, weights dropped",
			zap.String("mesh", u.Mesh),
			zap.String("bone", u.Bone),
			zap.Int("weights", u.Weights),
			zap.String("suggestion", u.Suggestion))
	}
	log.Debug("scene imported",
		zap.Int("joints", report.Joints),
		zap.Int("meshes", report.Meshes),
		zap.Int("faces", report.Faces),
		zap.Int("strips", report.Strips))
	return m, report, nil
}

// importJoints adds a joint for every bone node. Nodes are visited
// depth-first, so a parent joint always precedes its children.
func importJoints(s *scene.Scene, m *model.Model) {
	index := make(map[*scene.Node]int)
	s.Walk(func(n *scene.Node) bool {
		if n.HasMeshes() {
			return false
		}
		if n == s.Root {
			return true
		}
		j := model.Joint{
			Name:     n.Name,
			Relative: model.Transform{Matrix: model.Some(n.Transform)},
		}
		if p, ok := index[n.Parent]; ok {
			j.Parent = model.Some(p)
		}
		index[n] = len(m.Joints)
		m.Joints = append(m.Joints, j)
		return true
	})
}

func (im *Importer) importMesh(src *scene.Mesh, m *model.Model, report *Report) (*model.Mesh, error) {
	mesh := &model.Mesh{Name: src.Name}
	if src.MaterialIndex >= 0 && src.MaterialIndex < len(m.Materials) {
		mesh.Material = model.Some(src.MaterialIndex)
	}

	n := len(src.Vertices)
	mesh.Vertices = make([]model.Vertex, n)
	for i, p := range src.Vertices {
		v := &mesh.Vertices[i]
		v.Position = p
		if len(src.TexCoords) == n {
			v.UV = model.Some(src.TexCoords[i])
		}
		if len(src.Colors) == n {
			v.Color = model.Some(src.Colors[i])
		}
		if len(src.Normals) == n {
			v.Normal = model.Some(src.Normals[i])
		}
	}

	for _, bone := range src.Bones {
		joint, ok := m.JointIndex(bone.Name)
		if !ok {
			report.Unresolved = append(report.Unresolved, UnresolvedBone{
				Mesh:       src.Name,
				Bone:       bone.Name,
				Weights:    len(bone.Weights),
				Suggestion: closestName(bone.Name, m.JointNames()),
			})
			continue
		}
		for _, w := range bone.Weights {
			if w.VertexID < 0 || w.VertexID >= n {
				report.InvalidWeights++
				continue
			}
			v := &mesh.Vertices[w.VertexID]
			v.Weights = append(v.Weights, model.Binding{Joint: joint, Weight: w.Weight})
		}
	}

	mesh.Faces = make([]model.Face, 0, len(src.Faces))
	for i, f := range src.Faces {
		if len(f.Indices) != 3 {
			return nil, &model.FaceError{Mesh: src.Name, Face: i, Indices: f.Indices, Err: model.ErrUnsupportedFaceArity}
		}
		for _, idx := range f.Indices {
			if idx < 0 || idx >= n {
				return nil, &model.FaceError{Mesh: src.Name, Face: i, Indices: f.Indices, Err: model.ErrFaceIndexOutOfRange}
			}
		}
		// Winding is not inspected; every imported face is recorded clockwise.
		mesh.Faces = append(mesh.Faces, model.NewFace(f.Indices[0], f.Indices[1], f.Indices[2]))
	}
	return mesh, nil
}
