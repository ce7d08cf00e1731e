package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform places a collision mesh in world space.
// The world matrix is composed as Translation * Rotation * Scale.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// NewTranslation creates a transform that only moves the mesh by position
func NewTranslation(position mgl64.Vec3) Transform {
	t := NewTransform()
	t.Position = position
	return t
}

// Matrix returns the affine 4x4 world matrix of the transform.
func (t Transform) Matrix() mgl64.Mat4 {
	translation := mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	scale := mgl64.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translation.Mul4(t.Rotation.Mat4()).Mul4(scale)
}

// Apply transforms a single local point into world space.
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	return transformPoint(t.Matrix(), point)
}

// transformPoint applies an affine matrix to a point (w = 1) and drops w.
func transformPoint(matrix mgl64.Mat4, point mgl64.Vec3) mgl64.Vec3 {
	return matrix.Mul4x1(point.Vec4(1)).Vec3()
}
