package formats

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/modelkit/pkg/math"
	"github.com/Faultbox/modelkit/pkg/scene"
)

// quadScene is a two-triangle quad with a skeleton of two bones.
func quadScene() *scene.Scene {
	s := scene.NewScene()
	s.AddMaterial(&scene.Material{Name: "skin", DiffuseTexture: "skin.png"})

	hips := s.Root.AddChild(scene.NewNode("hips", math.Translate(0, 1, 0)))
	hips.AddChild(scene.NewNode("spine", math.Translate(0, 2, 0)))

	mesh := &scene.Mesh{
		Name:          "body",
		MaterialIndex: 0,
		Vertices: []math.Vec3{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0},
		},
		Normals: []math.Vec3{
			{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1},
		},
		TexCoords: []math.Vec2{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1},
		},
		Faces: []scene.Face{
			{Indices: []int{0, 1, 2}},
			{Indices: []int{1, 3, 2}},
		},
		Bones: []*scene.Bone{
			{Name: "hips", Offset: math.Translate(0, -1, 0), Weights: []scene.VertexWeight{{VertexID: 0, Weight: 1}, {VertexID: 1, Weight: 1}}},
			{Name: "spine", Offset: math.Translate(0, -3, 0), Weights: []scene.VertexWeight{{VertexID: 2, Weight: 1}, {VertexID: 3, Weight: 1}}},
		},
	}
	node := s.Root.AddChild(scene.NewNode("MeshNode0000", math.Identity()))
	node.MeshIndices = []int{s.AddMesh(mesh)}
	return s
}

func TestGLTFRoundTrip(t *testing.T) {
	for _, f := range []Format{GLTF2, GLB2} {
		t.Run(string(f), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "quad."+map[Format]string{GLTF2: "gltf", GLB2: "glb"}[f])
			require.NoError(t, Write(quadScene(), f, path))

			got, err := Read(path)
			require.NoError(t, err)

			assert.Equal(t, scene.RootName, got.Root.Name)
			spine := got.Root.FindNode("spine")
			require.NotNil(t, spine)
			assert.Equal(t, "hips", spine.Parent.Name)
			assert.True(t, spine.GlobalTransform().Translation().ApproxEqual(math.Vec3{Y: 3}, 1e-5))

			require.Len(t, got.Meshes, 1)
			mesh := got.Meshes[0]
			assert.Equal(t, "body", mesh.Name)
			assert.Len(t, mesh.Vertices, 4)
			assert.Len(t, mesh.Normals, 4)
			assert.Len(t, mesh.TexCoords, 4)
			assert.Equal(t, []scene.Face{{Indices: []int{0, 1, 2}}, {Indices: []int{1, 3, 2}}}, mesh.Faces)

			require.Len(t, mesh.Bones, 2)
			assert.Equal(t, "hips", mesh.Bones[0].Name)
			assert.Equal(t, []scene.VertexWeight{{VertexID: 2, Weight: 1}, {VertexID: 3, Weight: 1}}, mesh.Bones[1].Weights)
			assert.True(t, mesh.Bones[1].Offset.ApproxEqual(math.Translate(0, -3, 0), 1e-6))

			require.Len(t, got.Materials, 1)
			assert.Equal(t, "skin", got.Materials[0].Name)
			assert.Equal(t, "skin.png", got.Materials[0].DiffuseTexture)
			assert.Equal(t, 0, mesh.MaterialIndex)
		})
	}
}

func TestCheckAssetVersion(t *testing.T) {
	assert.NoError(t, checkAssetVersion("2.0"))
	assert.NoError(t, checkAssetVersion("2.1"))
	assert.ErrorIs(t, checkAssetVersion("1.0"), ErrUnsupportedVersion)
	assert.ErrorIs(t, checkAssetVersion("3.0"), ErrUnsupportedVersion)
	assert.ErrorIs(t, checkAssetVersion("two"), ErrUnsupportedVersion)
}

func TestVertexInfluences(t *testing.T) {
	mesh := &scene.Mesh{
		Vertices: make([]math.Vec3, 1),
		Bones: []*scene.Bone{
			{Name: "a", Weights: []scene.VertexWeight{{VertexID: 0, Weight: 0.1}}},
			{Name: "b", Weights: []scene.VertexWeight{{VertexID: 0, Weight: 0.4}}},
			{Name: "c", Weights: []scene.VertexWeight{{VertexID: 0, Weight: 0.2}}},
			{Name: "d", Weights: []scene.VertexWeight{{VertexID: 0, Weight: 0.2}}},
			{Name: "e", Weights: []scene.VertexWeight{{VertexID: 0, Weight: 0.2}}},
		},
	}
	slot := map[string]int{"a": 0, "b": 1, "c": 2, "d": 3, "e": 4}
	joints, weights := vertexInfluences(mesh, slot)
	assert.Equal(t, [4]uint16{1, 2, 3, 4}, joints[0])
	assert.InDelta(t, 0.4, weights[0][0], 1e-6)
	assert.InDelta(t, 0.2, weights[0][1], 1e-6)
}

func TestOBJRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.obj")
	require.NoError(t, Write(quadScene(), OBJ, path))
	assert.FileExists(t, filepath.Join(dir, "quad.mtl"))

	got, err := Read(path)
	require.NoError(t, err)
	require.Len(t, got.Meshes, 1)
	mesh := got.Meshes[0]
	assert.Equal(t, "body", mesh.Name)
	assert.Len(t, mesh.Vertices, 4)
	assert.Len(t, mesh.TexCoords, 4)
	assert.Len(t, mesh.Normals, 4)
	assert.Empty(t, mesh.Bones)
	assert.Equal(t, []scene.Face{{Indices: []int{0, 1, 2}}, {Indices: []int{1, 3, 2}}}, mesh.Faces)

	require.Len(t, got.Materials, 1)
	assert.Equal(t, "skin.png", got.Materials[0].DiffuseTexture)
	assert.Equal(t, 0, mesh.MaterialIndex)
}

func TestOBJWithoutMaterialLibrary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.obj")
	require.NoError(t, Write(quadScene(), OBJNoMtl, path))
	assert.NoFileExists(t, filepath.Join(dir, "quad.mtl"))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, got.Materials)
	assert.Equal(t, -1, got.Meshes[0].MaterialIndex)
}

func TestSTLRoundTrip(t *testing.T) {
	for _, f := range []Format{STL, STLB} {
		t.Run(string(f), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "quad.stl")
			require.NoError(t, Write(quadScene(), f, path))

			got, err := Read(path)
			require.NoError(t, err)
			require.Len(t, got.Meshes, 1)
			mesh := got.Meshes[0]
			assert.Len(t, mesh.Vertices, 4, "shared vertices are merged")
			assert.Len(t, mesh.Faces, 2)
			for _, face := range mesh.Faces {
				assert.Len(t, face.Indices, 3)
			}
		})
	}
}
