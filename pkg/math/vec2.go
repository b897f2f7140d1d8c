package math

import "github.com/chewxy/math32"

// Vec2 is a 2D vector. Texture coordinates use it as (U, V).
type Vec2 struct {
	X, Y float32
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Length returns the magnitude.
func (v Vec2) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y)
}

// ApproxEqual reports whether both components differ by at most tol.
func (v Vec2) ApproxEqual(other Vec2, tol float32) bool {
	return math32.Abs(v.X-other.X) <= tol && math32.Abs(v.Y-other.Y) <= tol
}
