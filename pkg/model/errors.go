package model

import (
	"errors"
	"fmt"
)

// Conversion errors. Everything except ErrUnresolvedBoneBinding aborts the
// current conversion.
var (
	ErrUnsupportedFaceArity  = errors.New("face does not have exactly 3 vertex indices")
	ErrDegenerateFace        = errors.New("face vertex indices are not pairwise distinct")
	ErrFaceIndexOutOfRange   = errors.New("face references a missing vertex")
	ErrCyclicHierarchy       = errors.New("joint parent does not precede the joint")
	ErrStripInvariant        = errors.New("triangle strip rejected its own seed face")
	ErrUnresolvedBoneBinding = errors.New("bone does not match any joint")
)

// FaceError reports the face that stopped a conversion.
type FaceError struct {
	Mesh    string
	Face    int
	Indices []int
	Err     error
}

func (e *FaceError) Error() string {
	return fmt.Sprintf("mesh %q face %d %v: %v", e.Mesh, e.Face, e.Indices, e.Err)
}

func (e *FaceError) Unwrap() error {
	return e.Err
}

// JointError reports the joint that stopped hierarchy resolution.
type JointError struct {
	Index  int
	Name   string
	Parent int
	Err    error
}

func (e *JointError) Error() string {
	return fmt.Sprintf("joint %d %q (parent %d): %v", e.Index, e.Name, e.Parent, e.Err)
}

func (e *JointError) Unwrap() error {
	return e.Err
}
