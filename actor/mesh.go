package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vertex is a model vertex as delivered by the model loading side.
// Only Position takes part in collision, the other attributes are dropped.
type Vertex struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	UV       mgl64.Vec2
}

// pointKey identifies a point by the exact bit pattern of its coordinates.
// 0.0 and -0.0 are distinct keys, as are NaNs with different payloads.
type pointKey [3]uint64

func keyOf(p mgl64.Vec3) pointKey {
	return pointKey{
		math.Float64bits(p[0]),
		math.Float64bits(p[1]),
		math.Float64bits(p[2]),
	}
}

// CollisionMesh is an immutable point cloud used as a convex collider.
// Points are unique and keep the order of their first occurrence in the source vertices.
type CollisionMesh struct {
	points []mgl64.Vec3
	aabb   AABB
}

// NewCollisionMesh builds a mesh from model vertices.
// Vertices sharing the same position collapse into a single point.
// It returns false when no point remains.
func NewCollisionMesh(vertices []Vertex) (*CollisionMesh, bool) {
	positions := make([]mgl64.Vec3, len(vertices))
	for i, v := range vertices {
		positions[i] = v.Position
	}

	return NewCollisionMeshFromPoints(positions)
}

// NewCollisionMeshFromPoints builds a mesh from raw positions, with the same rules as NewCollisionMesh.
func NewCollisionMeshFromPoints(positions []mgl64.Vec3) (*CollisionMesh, bool) {
	seen := make(map[pointKey]struct{}, len(positions))
	points := make([]mgl64.Vec3, 0, len(positions))

	for _, p := range positions {
		key := keyOf(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		points = append(points, p)
	}

	diag().Debug("collision mesh built from vertices",
		"vertices", len(positions),
		"points", len(points))

	if len(points) == 0 {
		return nil, false
	}

	return &CollisionMesh{points: points, aabb: NewAABB(points)}, true
}

// Points returns the mesh points in local space. The slice must not be modified.
func (m *CollisionMesh) Points() []mgl64.Vec3 {
	return m.points
}

// Len returns the number of points
func (m *CollisionMesh) Len() int {
	return len(m.points)
}

// GetAABB returns the local-space bounds of the mesh
func (m *CollisionMesh) GetAABB() AABB {
	return m.aabb
}

// FurthestPoint returns the mesh point with the greatest projection on direction, in local space.
// On ties the earliest point wins. An empty mesh yields the zero vector.
func (m *CollisionMesh) FurthestPoint(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() > 0 {
		direction = direction.Normalize()
	}

	index, ok := furthestIndex(m.points, direction)
	if !ok {
		diag().Warn("collision mesh has no valid points")
		return mgl64.Vec3{}
	}

	return m.points[index]
}

// furthestIndex scans points in order and keeps the first one reaching the maximal dot product.
func furthestIndex(points []mgl64.Vec3, direction mgl64.Vec3) (int, bool) {
	if len(points) == 0 {
		return 0, false
	}

	best := 0
	bestDistance := points[0].Dot(direction)
	for i := 1; i < len(points); i++ {
		distance := points[i].Dot(direction)
		if distance > bestDistance {
			best = i
			bestDistance = distance
		}
	}

	return best, true
}
