// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for collision detection.
//
// GJK detects whether two convex shapes overlap by testing if their Minkowski difference
// contains the origin. The algorithm builds a simplex incrementally, converging toward
// the origin in typically 3-6 iterations.
//
// Every same-direction test is a strict dot(a, b) > 0 with no tolerance: points exactly
// on a boundary plane count as "not outside". Configurations where the shapes only
// touch can therefore go either way. When the origin lies exactly on the segment of a
// two-point simplex, the search continues along a direction orthogonal to that segment
// rather than stopping with a zero direction. Exact contacts along such a segment are
// then decided by the rest of the Minkowski difference and can report an intersection
// where a zero direction would always report separation.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - https://winter.dev/articles/gjk-algorithm
package gjk

import (
	"fmt"
	"math"

	"github.com/akmonengine/narrowphase/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxIterations bounds the main GJK loop. Running out of iterations reports no collision.
const MaxIterations = 32

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// Points[0] is always the most recent support point; older points follow.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

// PushFront inserts point at index 0 and drops the oldest point beyond 4.
func (s *Simplex) PushFront(point mgl64.Vec3) {
	copy(s.Points[1:], s.Points[:3])
	s.Points[0] = point
	s.Count = min(s.Count+1, 4)
}

func (s *Simplex) set(points ...mgl64.Vec3) {
	s.Count = copy(s.Points[:], points)
}

// MinkowskiSupport computes a support point in the Minkowski difference (A - B):
// furthestPoint(A, direction) - furthestPoint(B, -direction).
func MinkowskiSupport(a, b *actor.Support, direction mgl64.Vec3) mgl64.Vec3 {
	supportA := a.FurthestPoint(direction)
	supportB := b.FurthestPoint(direction.Mul(-1))
	return supportA.Sub(supportB)
}

// GJK reports whether the two shapes intersect, using MaxIterations.
// direction only seeds the search; a zero direction falls back to +X.
func GJK(a, b *actor.Support, direction mgl64.Vec3, simplex *Simplex) bool {
	return GJKBounded(a, b, direction, simplex, MaxIterations)
}

// GJKBounded is GJK with an explicit iteration limit.
//
// On return the simplex holds the last evolved points. For collisions it is the
// tetrahedron enclosing the origin, unless the first support point was the origin itself.
func GJKBounded(a, b *actor.Support, direction mgl64.Vec3, simplex *Simplex, maxIterations int) bool {
	if direction.LenSqr() == 0 {
		direction = mgl64.Vec3{1, 0, 0}
	}
	direction = direction.Normalize()

	simplex.Reset()
	simplex.PushFront(MinkowskiSupport(a, b, direction))

	// The origin is itself a point of A - B
	if simplex.Points[0].LenSqr() == 0 {
		return true
	}

	direction = simplex.Points[0].Normalize().Mul(-1)

	for range maxIterations {
		newPoint := MinkowskiSupport(a, b, direction)

		// The new point does not pass the origin along direction: the origin
		// cannot be enclosed, the shapes are separated.
		if newPoint.Dot(direction) <= 0 {
			return false
		}

		simplex.PushFront(newPoint)

		if next(simplex, &direction) {
			return true
		}
	}

	diag().Warn("gjk did not converge, reporting no intersection",
		"iterations", maxIterations,
		"simplex", simplex.Count)
	return false
}

// next reduces the simplex to the feature closest to the origin and updates the search direction.
// It returns true only when a tetrahedron encloses the origin.
func next(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}

	panic(fmt.Sprintf("gjk: invalid simplex size %d", simplex.Count))
}

func sameDirection(direction, ao mgl64.Vec3) bool {
	return direction.Dot(ao) > 0
}

// line handles 2 points, a being the newest.
func line(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[0]
	b := simplex.Points[1]

	ab := b.Sub(a)
	ao := a.Mul(-1)

	if !sameDirection(ab, ao) {
		simplex.set(a)
		*direction = ao
		return false
	}

	perp := ab.Cross(ao).Cross(ab)
	if perp == (mgl64.Vec3{}) {
		// The origin lies exactly on the line through a and b: any direction
		// orthogonal to the edge lets the simplex grow.
		perp = orthogonal(ab)
	}
	*direction = perp

	return false
}

// triangle handles 3 points, a being the newest.
func triangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[0]
	b := simplex.Points[1]
	c := simplex.Points[2]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	abc := ab.Cross(ac)

	// Collinear points have no face to test against
	if abc == (mgl64.Vec3{}) {
		simplex.set(a, b)
		return line(simplex, direction)
	}

	if sameDirection(abc.Cross(ac), ao) {
		if sameDirection(ac, ao) {
			simplex.set(a, c)
			return line(simplex, direction)
		}

		simplex.set(a, b)
		return line(simplex, direction)
	}

	if sameDirection(ab.Cross(abc), ao) {
		simplex.set(a, b)
		return line(simplex, direction)
	}

	if sameDirection(abc, ao) {
		*direction = abc
	} else {
		// Below the face: flip the winding so the normal faces the origin
		simplex.set(a, c, b)
		*direction = abc.Mul(-1)
	}

	return false
}

// tetrahedron handles 4 points, a being the newest. The face bcd was the
// previous triangle, wound so that its normal faced a.
func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[0]
	b := simplex.Points[1]
	c := simplex.Points[2]
	d := simplex.Points[3]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	abc := ab.Cross(ac)
	acd := ac.Cross(ad)
	adb := ad.Cross(ab)

	// Flat tetrahedron: it cannot enclose anything
	if abc.Dot(ad) == 0 {
		simplex.set(a, b, c)
		return triangle(simplex, direction)
	}

	if sameDirection(abc, ao) {
		simplex.set(a, b, c)
		return triangle(simplex, direction)
	}

	if sameDirection(acd, ao) {
		simplex.set(a, c, d)
		return triangle(simplex, direction)
	}

	if sameDirection(adb, ao) {
		simplex.set(a, d, b)
		return triangle(simplex, direction)
	}

	// The origin is inside the tetrahedron
	return true
}

// orthogonal returns a vector perpendicular to v, crossing it with the axis
// along which v has the smallest magnitude.
func orthogonal(v mgl64.Vec3) mgl64.Vec3 {
	axis := mgl64.Vec3{1, 0, 0}
	x, y, z := math.Abs(v.X()), math.Abs(v.Y()), math.Abs(v.Z())
	if y < x && y <= z {
		axis = mgl64.Vec3{0, 1, 0}
	} else if z < x && z < y {
		axis = mgl64.Vec3{0, 0, 1}
	}

	return v.Cross(axis)
}
