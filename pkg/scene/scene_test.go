package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/modelkit/pkg/math"
)

func buildTree() *Scene {
	s := NewScene()
	hips := s.Root.AddChild(NewNode("hips", math.Translate(0, 1, 0)))
	hips.AddChild(NewNode("spine", math.Translate(0, 2, 0)))
	mesh := s.Root.AddChild(NewNode("body", math.Identity()))
	mesh.MeshIndices = []int{s.AddMesh(&Mesh{Name: "body", Bones: []*Bone{{Name: "hips"}, {Name: "spine"}, {Name: "hips"}}})}
	return s
}

func TestFindNode(t *testing.T) {
	s := buildTree()
	spine := s.Root.FindNode("spine")
	require.NotNil(t, spine)
	assert.Equal(t, "hips", spine.Parent.Name)
	assert.Nil(t, s.Root.FindNode("tail"))
	assert.Same(t, s.Root, s.Root.FindNode(RootName))
}

func TestWalkSkipsSubtree(t *testing.T) {
	s := buildTree()
	var visited []string
	s.Walk(func(n *Node) bool {
		visited = append(visited, n.Name)
		return n.Name != "hips"
	})
	assert.Equal(t, []string{RootName, "hips", "body"}, visited)
	assert.Equal(t, 4, s.NodeCount())
}

func TestGlobalTransform(t *testing.T) {
	s := buildTree()
	got := s.Root.FindNode("spine").GlobalTransform().Translation()
	assert.Equal(t, math.Vec3{X: 0, Y: 3, Z: 0}, got)
}

func TestBoneNames(t *testing.T) {
	s := buildTree()
	assert.Equal(t, []string{"hips", "spine"}, s.BoneNames())
	assert.True(t, s.Root.FindNode("body").HasMeshes())
}
