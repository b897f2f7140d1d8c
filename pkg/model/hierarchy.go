package model

import "github.com/Faultbox/modelkit/pkg/math"

// validateHierarchy checks that every parent index points at an earlier
// joint. Resolution walks joints in order and relies on parents being
// resolved first.
func (m *Model) validateHierarchy() error {
	for i := range m.Joints {
		j := &m.Joints[i]
		p, ok := j.Parent.Get()
		if !ok {
			continue
		}
		if p < 0 || p >= i {
			return &JointError{Index: i, Name: j.Name, Parent: p, Err: ErrCyclicHierarchy}
		}
	}
	return nil
}

// ResolveAbsolute computes every joint's absolute matrix from its relative
// matrix and its parent's absolute matrix, then decomposes both transforms.
// A relative transform without a matrix, or whose decomposed fields were
// edited since the matrix was set, is composed from those fields first.
// Nothing is modified if the hierarchy is invalid.
func (m *Model) ResolveAbsolute() error {
	if err := m.validateHierarchy(); err != nil {
		return err
	}

	for i := range m.Joints {
		j := &m.Joints[i]
		j.Relative.Sync(false)
		local := j.Relative.MatrixOrCompose(false)
		j.Relative.Matrix.Set(local)

		abs := local
		if p, ok := j.Parent.Get(); ok {
			abs = m.Joints[p].Absolute.Matrix.Value.Mul(local)
		}
		j.Absolute = Transform{Matrix: Some(abs)}

		j.Relative.Decompose()
		j.Absolute.Decompose()
		j.State = JointResolved
	}
	return nil
}

// ComposeAbsoluteFromTRS resolves absolute transforms from the relative
// scale, rotation and translation fields instead of matrices:
//
//	rotation    = parent.rotation * local.rotation
//	scale       = parent.scale * local.scale
//	translation = parent.translation + parent.rotation(parent.scale * local.translation)
//
// Matrices for both transforms are composed afterwards. Joints whose
// relative transform lacks decomposed fields are decomposed from their
// matrix, or treated as identity.
func (m *Model) ComposeAbsoluteFromTRS(preferEuler bool) error {
	if err := m.validateHierarchy(); err != nil {
		return err
	}

	for i := range m.Joints {
		j := &m.Joints[i]
		if !j.Relative.HasTRS() {
			j.Relative.Decompose()
		}
		local, ok := j.Relative.TRS(preferEuler)
		if !ok {
			local = math.IdentityTRS()
		}

		abs := local
		if p, ok := j.Parent.Get(); ok {
			parent, _ := m.Joints[p].Absolute.TRS(false)
			abs.Rotation = parent.Rotation.Mul(local.Rotation).Normalize()
			abs.Euler = math.QuatToEuler(abs.Rotation)
			abs.Scale = parent.Scale.Mul(local.Scale)
			abs.Translation = parent.Translation.Add(parent.Rotation.Rotate(parent.Scale.Mul(local.Translation)))
		}

		j.Relative = TransformFromTRS(local)
		j.Relative.Matrix.Set(local.Matrix(preferEuler))
		j.Absolute = TransformFromTRS(abs)
		j.State = JointResolved
	}
	return nil
}

// ResolveRelative is the inverse of ResolveAbsolute: it derives every
// joint's relative matrix from the absolute matrices of the joint and its
// parent. Joints without an absolute matrix, or whose absolute fields were
// edited since the matrix was set, compose one from those fields.
func (m *Model) ResolveRelative() error {
	if err := m.validateHierarchy(); err != nil {
		return err
	}

	for i := range m.Joints {
		j := &m.Joints[i]
		j.Absolute.Sync(false)
		abs := j.Absolute.MatrixOrCompose(false)
		j.Absolute.Matrix.Set(abs)

		local := abs
		if p, ok := j.Parent.Get(); ok {
			local = m.Joints[p].Absolute.Matrix.Value.Inverse().Mul(abs)
		}
		j.Relative = Transform{Matrix: Some(local)}

		j.Relative.Decompose()
		j.Absolute.Decompose()
		j.State = JointResolved
	}
	return nil
}

// Unresolve marks every joint as needing resolution again.
func (m *Model) Unresolve() {
	for i := range m.Joints {
		m.Joints[i].State = JointUnresolved
	}
}

// Resolved reports whether every joint is resolved.
func (m *Model) Resolved() bool {
	for i := range m.Joints {
		if m.Joints[i].State != JointResolved {
			return false
		}
	}
	return true
}
