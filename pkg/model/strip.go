package model

// TriangleStrip is a sequence of vertex indices where every window of three
// consecutive indices is a triangle. Odd windows have their first two
// indices swapped when expanded so that winding alternates.
type TriangleStrip struct {
	Indices []int
}

// Len returns the number of triangles in the strip.
func (s *TriangleStrip) Len() int {
	if len(s.Indices) < 3 {
		return 0
	}
	return len(s.Indices) - 2
}

// Triangles expands the strip into triangles.
func (s *TriangleStrip) Triangles() [][3]int {
	n := s.Len()
	tris := make([][3]int, 0, n)
	idx := s.Indices
	for j := 0; j < n; j++ {
		if j%2 == 0 {
			tris = append(tris, [3]int{idx[j], idx[j+1], idx[j+2]})
		} else {
			tris = append(tris, [3]int{idx[j+1], idx[j], idx[j+2]})
		}
	}
	return tris
}

// add appends face f to the strip if it shares the strip's trailing edge.
// An empty strip accepts any non-degenerate face as its seed. A strip that
// holds only its seed is rotated so that whichever seed edge f shares
// becomes the trailing edge; the seed's winding is preserved.
func (s *TriangleStrip) add(f Face) bool {
	if f.Validate() != nil {
		return false
	}
	if len(s.Indices) == 0 {
		s.Indices = append(s.Indices, f.Indices[:]...)
		return true
	}

	n := len(s.Indices)
	tail := s.Indices[n-3:]
	shared := 0
	newVertex := -1
	for _, v := range f.Indices {
		if v == tail[0] || v == tail[1] || v == tail[2] {
			shared++
		} else {
			newVertex = v
		}
	}
	if shared != 2 {
		return false
	}

	a, b := tail[1], tail[2]
	if !f.Contains(a) || !f.Contains(b) {
		if n != 3 {
			return false
		}
		// Only the seed: rotate it so the shared edge trails.
		x, y, z := tail[0], tail[1], tail[2]
		if f.Contains(x) && f.Contains(y) {
			s.Indices[0], s.Indices[1], s.Indices[2] = z, x, y
		} else {
			s.Indices[0], s.Indices[1], s.Indices[2] = y, z, x
		}
	}

	s.Indices = append(s.Indices, newVertex)
	return true
}

// BuildStrips groups faces into triangle strips in a single greedy pass:
// each face extends the current strip when it shares the strip's trailing
// edge, otherwise it seeds a new strip. Every face ends up in exactly one
// strip. Degenerate faces are rejected before any strip is built.
func BuildStrips(faces []Face) ([]TriangleStrip, error) {
	for i, f := range faces {
		if err := f.Validate(); err != nil {
			return nil, &FaceError{Face: i, Indices: f.Indices[:], Err: err}
		}
	}

	var strips []TriangleStrip
	var current *TriangleStrip
	for i, f := range faces {
		if current != nil && current.add(f) {
			continue
		}
		strips = append(strips, TriangleStrip{})
		current = &strips[len(strips)-1]
		if !current.add(f) {
			return nil, &FaceError{Face: i, Indices: f.Indices[:], Err: ErrStripInvariant}
		}
	}
	return strips, nil
}

// BuildTriangleStrips rebuilds the mesh's strips from its faces. Faces that
// reference missing vertices are rejected.
func (m *Mesh) BuildTriangleStrips() error {
	for i, f := range m.Faces {
		for _, v := range f.Indices {
			if v < 0 || v >= len(m.Vertices) {
				return &FaceError{Mesh: m.Name, Face: i, Indices: f.Indices[:], Err: ErrFaceIndexOutOfRange}
			}
		}
	}

	strips, err := BuildStrips(m.Faces)
	if err != nil {
		if fe, ok := err.(*FaceError); ok {
			fe.Mesh = m.Name
		}
		return err
	}
	m.Strips = strips
	return nil
}

// BuildTriangleStrips rebuilds the strips of every mesh.
func (m *Model) BuildTriangleStrips() error {
	for i := range m.Meshes {
		if err := m.Meshes[i].BuildTriangleStrips(); err != nil {
			return err
		}
	}
	return nil
}

// StripCount returns the number of strips across all meshes.
func (m *Model) StripCount() int {
	total := 0
	for i := range m.Meshes {
		total += len(m.Meshes[i].Strips)
	}
	return total
}
