package model

import "github.com/Faultbox/modelkit/pkg/math"

// Box is an axis-aligned bounding box.
type Box struct {
	Center math.Vec3
	Size   math.Vec3
}

// BoxFromMinMax returns the box spanning min to max.
func BoxFromMinMax(min, max math.Vec3) Box {
	size := max.Sub(min)
	return Box{Center: min.Add(size.Scale(0.5)), Size: size}
}

// Min returns the minimum corner.
func (b Box) Min() math.Vec3 {
	return b.Center.Sub(b.Size.Scale(0.5))
}

// Max returns the maximum corner.
func (b Box) Max() math.Vec3 {
	return b.Center.Add(b.Size.Scale(0.5))
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(other Box) Box {
	return BoxFromMinMax(b.Min().Min(other.Min()), b.Max().Max(other.Max()))
}

// bounds accumulates vertex positions.
type bounds struct {
	min, max math.Vec3
	empty    bool
}

func newBounds() bounds {
	return bounds{empty: true}
}

func (b *bounds) add(p math.Vec3) {
	if b.empty {
		b.min, b.max = p, p
		b.empty = false
		return
	}
	b.min = b.min.Min(p)
	b.max = b.max.Max(p)
}

func (b *bounds) box() Box {
	if b.empty {
		return Box{}
	}
	return BoxFromMinMax(b.min, b.max)
}

// BoundingBox returns the box around the mesh's vertex positions. A mesh
// without vertices has a zero box at the origin. The result is computed on
// every call.
func (m *Mesh) BoundingBox() Box {
	b := newBounds()
	for i := range m.Vertices {
		b.add(m.Vertices[i].Position)
	}
	return b.box()
}

// BoundingBox returns the box around every vertex of every mesh.
func (m *Model) BoundingBox() Box {
	b := newBounds()
	for i := range m.Meshes {
		for j := range m.Meshes[i].Vertices {
			b.add(m.Meshes[i].Vertices[j].Position)
		}
	}
	return b.box()
}
