package model

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/modelkit/pkg/math"
)

// ShapeKind classifies a bounding volume.
type ShapeKind int

const (
	ShapeCube ShapeKind = iota
	ShapeBox
	ShapeSphere
	ShapeEllipsoid
)

// String returns the kind name.
func (k ShapeKind) String() string {
	switch k {
	case ShapeCube:
		return "Cube"
	case ShapeBox:
		return "Box"
	case ShapeSphere:
		return "Sphere"
	case ShapeEllipsoid:
		return "Ellipsoid"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// Shape is a simple bounding volume. Size holds edge lengths for cubes and
// boxes and diameters for spheres and ellipsoids.
type Shape struct {
	Kind   ShapeKind
	Center math.Vec3
	Size   math.Vec3
}

// shapeTolerance is the relative difference under which two extents count
// as equal.
const shapeTolerance = 1e-3

// BoundingShape returns a box around the model, reported as a cube when
// all three extents agree.
func (m *Model) BoundingShape() Shape {
	box := m.BoundingBox()
	kind := ShapeBox
	if isUniform(box.Size) {
		kind = ShapeCube
	}
	return Shape{Kind: kind, Center: box.Center, Size: box.Size}
}

// BoundingEllipsoid returns the ellipsoid that passes through the corners
// of the bounding box, reported as a sphere when all three extents agree.
func (m *Model) BoundingEllipsoid() Shape {
	box := m.BoundingBox()
	kind := ShapeEllipsoid
	if isUniform(box.Size) {
		kind = ShapeSphere
	}
	// sqrt(3) scales a box's half-extents to the radii of the ellipsoid
	// through its corners.
	const sqrt3 = 1.7320508
	return Shape{Kind: kind, Center: box.Center, Size: box.Size.Scale(sqrt3)}
}

// Contains reports whether p is inside or on the shape.
func (s Shape) Contains(p math.Vec3) bool {
	d := p.Sub(s.Center)
	half := s.Size.Scale(0.5)
	switch s.Kind {
	case ShapeCube, ShapeBox:
		return math32.Abs(d.X) <= half.X && math32.Abs(d.Y) <= half.Y && math32.Abs(d.Z) <= half.Z
	default:
		var sum float32
		for _, c := range [3][2]float32{{d.X, half.X}, {d.Y, half.Y}, {d.Z, half.Z}} {
			if c[1] == 0 {
				if c[0] != 0 {
					return false
				}
				continue
			}
			sum += (c[0] / c[1]) * (c[0] / c[1])
		}
		return sum <= 1+shapeTolerance
	}
}

func isUniform(v math.Vec3) bool {
	hi := max(v.X, v.Y, v.Z)
	lo := min(v.X, v.Y, v.Z)
	if hi == 0 {
		return true
	}
	return (hi-lo)/hi <= shapeTolerance
}
