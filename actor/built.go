package actor

import "github.com/go-gl/mathgl/mgl64"

// BuiltMesh caches the world-space points of a CollisionMesh.
// After Rebuild, Points()[i] is the transform applied to the mesh's i-th point.
type BuiltMesh struct {
	points []mgl64.Vec3
	aabb   AABB
}

// NewBuiltMesh allocates a cache and fills it for the given mesh and transform
func NewBuiltMesh(mesh *CollisionMesh, transform Transform) *BuiltMesh {
	b := &BuiltMesh{}
	b.Rebuild(mesh, transform)
	return b
}

// Rebuild re-derives every cached point from mesh and transform.
//
// When the cache length differs from the mesh point count, the cache is
// reallocated to the mesh length before being filled: no stale entry survives
// and no point is skipped. It reports whether a reallocation happened.
func (b *BuiltMesh) Rebuild(mesh *CollisionMesh, transform Transform) bool {
	resized := false
	if len(b.points) != len(mesh.points) {
		b.points = make([]mgl64.Vec3, len(mesh.points))
		resized = true
	}

	matrix := transform.Matrix()
	for i, p := range mesh.points {
		b.points[i] = transformPoint(matrix, p)
	}
	b.aabb = NewAABB(b.points)

	return resized
}

// Points returns the world-space points. The slice must not be modified.
func (b *BuiltMesh) Points() []mgl64.Vec3 {
	return b.points
}

// Len returns the number of cached points
func (b *BuiltMesh) Len() int {
	return len(b.points)
}

// GetAABB returns the world-space bounds computed by the last Rebuild
func (b *BuiltMesh) GetAABB() AABB {
	return b.aabb
}

// FurthestPoint returns the cached point with the greatest projection on direction.
// On ties the earliest point wins. An empty cache yields the zero vector.
func (b *BuiltMesh) FurthestPoint(direction mgl64.Vec3) mgl64.Vec3 {
	index, ok := furthestIndex(b.points, direction)
	if !ok {
		diag().Warn("built collision mesh has no valid points")
		return mgl64.Vec3{}
	}

	return b.points[index]
}
