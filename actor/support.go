package actor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// SupportKind tells which representation backs a Support.
type SupportKind uint8

const (
	// SupportTransformed evaluates a local mesh and a transform on each query.
	SupportTransformed SupportKind = iota + 1
	// SupportCached reads points already transformed by a rebuild pass.
	SupportCached
)

func (k SupportKind) String() string {
	switch k {
	case SupportTransformed:
		return "transformed"
	case SupportCached:
		return "cached"
	}
	return fmt.Sprintf("SupportKind(%d)", k)
}

// Support answers "furthest world-space point along a direction" for a collider.
//
// It is a closed variant with exactly two cases, built with Transformed or Cached.
// The zero value is not usable.
type Support struct {
	kind SupportKind

	// SupportTransformed
	mesh   *CollisionMesh
	matrix mgl64.Mat4
	// transpose of the linear part of matrix, maps world directions to local space
	directionToLocal mgl64.Mat3

	// SupportCached
	built *BuiltMesh
}

// Transformed wraps a local mesh and its transform. Nothing is precomputed
// per point: every query searches the local mesh and transforms the single result.
func Transformed(mesh *CollisionMesh, transform Transform) Support {
	matrix := transform.Matrix()
	return Support{
		kind:             SupportTransformed,
		mesh:             mesh,
		matrix:           matrix,
		directionToLocal: matrix.Mat3().Transpose(),
	}
}

// Cached wraps a world-space cache produced by a rebuild pass.
func Cached(built *BuiltMesh) Support {
	return Support{
		kind:  SupportCached,
		built: built,
	}
}

// Kind returns the variant of the support
func (s *Support) Kind() SupportKind {
	return s.kind
}

// FurthestPoint returns the world-space support point along direction.
//
// For the transformed variant the direction is first taken into local space with
// the transpose of the linear part (for p' = Lp + t, dot(p', d) = dot(p, Lᵀd) + dot(t, d)),
// so the result is exact under rotation and scale, not only translation.
func (s *Support) FurthestPoint(direction mgl64.Vec3) mgl64.Vec3 {
	switch s.kind {
	case SupportTransformed:
		local := s.mesh.FurthestPoint(s.directionToLocal.Mul3x1(direction))
		return transformPoint(s.matrix, local)
	case SupportCached:
		return s.built.FurthestPoint(direction)
	}

	panic(fmt.Sprintf("actor: FurthestPoint on uninitialized support (%s)", s.kind))
}
