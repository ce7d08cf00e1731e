package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/narrowphase/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Test helper functions

func cubeMesh(halfExtent float64) *actor.CollisionMesh {
	h := halfExtent
	mesh, _ := actor.NewCollisionMeshFromPoints([]mgl64.Vec3{
		{-h, -h, -h}, {h, -h, -h}, {-h, h, -h}, {h, h, -h},
		{-h, -h, h}, {h, -h, h}, {-h, h, h}, {h, h, h},
	})
	return mesh
}

func pointMesh(p mgl64.Vec3) *actor.CollisionMesh {
	mesh, _ := actor.NewCollisionMeshFromPoints([]mgl64.Vec3{p})
	return mesh
}

func transformedCube(position mgl64.Vec3, halfExtent float64) *actor.Support {
	s := actor.Transformed(cubeMesh(halfExtent), actor.NewTranslation(position))
	return &s
}

func cachedCube(position mgl64.Vec3, halfExtent float64) *actor.Support {
	s := actor.Cached(actor.NewBuiltMesh(cubeMesh(halfExtent), actor.NewTranslation(position)))
	return &s
}

type cubeFactory func(position mgl64.Vec3, halfExtent float64) *actor.Support

// every combination of the two support variants
var variantPairs = []struct {
	name string
	a, b cubeFactory
}{
	{"cached vs cached", cachedCube, cachedCube},
	{"cached vs transformed", cachedCube, transformedCube},
	{"transformed vs cached", transformedCube, cachedCube},
	{"transformed vs transformed", transformedCube, transformedCube},
}

func TestSimplex_PushFront(t *testing.T) {
	s := &Simplex{}
	points := []mgl64.Vec3{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}, {5, 0, 0}}

	for i, p := range points {
		s.PushFront(p)
		if s.Points[0] != p {
			t.Errorf("Push %d: newest point should be at index 0, got %v", i, s.Points[0])
		}
		if s.Count != min(i+1, 4) {
			t.Errorf("Push %d: expected count %d, got %d", i, min(i+1, 4), s.Count)
		}
	}

	expected := [4]mgl64.Vec3{{5, 0, 0}, {4, 0, 0}, {3, 0, 0}, {2, 0, 0}}
	if s.Points != expected {
		t.Errorf("Expected %v (oldest dropped), got %v", expected, s.Points)
	}

	s.Reset()
	if s.Count != 0 {
		t.Errorf("Expected empty simplex after Reset, got %d", s.Count)
	}
}

func TestMinkowskiSupport(t *testing.T) {
	t.Run("separated cubes along x-axis", func(t *testing.T) {
		a := cachedCube(mgl64.Vec3{0, 0, 0}, 0.5)
		b := cachedCube(mgl64.Vec3{3, 0, 0}, 0.5)

		// max(A.x) - min(B.x) = 0.5 - 2.5
		support := MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0})
		if support != (mgl64.Vec3{-2, 0, 0}) {
			t.Errorf("Expected {-2, 0, 0}, got %v", support)
		}
	})

	t.Run("opposite directions give different supports", func(t *testing.T) {
		a := transformedCube(mgl64.Vec3{0, 0, 0}, 0.5)
		b := transformedCube(mgl64.Vec3{5, 0, 0}, 0.5)

		support1 := MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0})
		support2 := MinkowskiSupport(a, b, mgl64.Vec3{-1, 0, 0})

		// +X: 0.5 - 4.5, -X: -0.5 - 5.5
		if support1.X() != -4 || support2.X() != -6 {
			t.Errorf("Expected X supports -4 and -6, got %v and %v", support1.X(), support2.X())
		}
	})
}

func TestGJK_UnitCubes(t *testing.T) {
	for _, variants := range variantPairs {
		t.Run(variants.name, func(t *testing.T) {
			t.Run("overlapping", func(t *testing.T) {
				a := variants.a(mgl64.Vec3{0, 0, 0}, 0.5)
				b := variants.b(mgl64.Vec3{0.5, 0, 0}, 0.5)

				if !GJK(a, b, mgl64.Vec3{0.5, 0, 0}, &Simplex{}) {
					t.Error("Expected collision between overlapping cubes")
				}
			})

			t.Run("overlapping swapped", func(t *testing.T) {
				a := variants.a(mgl64.Vec3{0.5, 0, 0}, 0.5)
				b := variants.b(mgl64.Vec3{0, 0, 0}, 0.5)

				if !GJK(a, b, mgl64.Vec3{-0.5, 0, 0}, &Simplex{}) {
					t.Error("Expected collision between overlapping cubes")
				}
			})

			t.Run("separated", func(t *testing.T) {
				a := variants.a(mgl64.Vec3{0, 0, 0}, 0.5)
				b := variants.b(mgl64.Vec3{2, 0, 0}, 0.5)

				if GJK(a, b, mgl64.Vec3{2, 0, 0}, &Simplex{}) {
					t.Error("Expected no collision between separated cubes")
				}
			})

			t.Run("self intersection", func(t *testing.T) {
				a := variants.a(mgl64.Vec3{0, 0, 0}, 0.5)
				b := variants.b(mgl64.Vec3{0, 0, 0}, 0.5)

				if !GJK(a, b, mgl64.Vec3{1, 0, 0}, &Simplex{}) {
					t.Error("Expected a shape to intersect an untranslated copy of itself")
				}
			})
		})
	}
}

func TestGJK_CollisionLeavesTetrahedron(t *testing.T) {
	a := cachedCube(mgl64.Vec3{0, 0, 0}, 0.5)
	b := cachedCube(mgl64.Vec3{0.5, 0, 0}, 0.5)
	simplex := &Simplex{}

	if !GJK(a, b, mgl64.Vec3{1, 0, 0}, simplex) {
		t.Fatal("Expected collision")
	}
	if simplex.Count != 4 {
		t.Errorf("Expected a tetrahedron, got %d points", simplex.Count)
	}
}

func TestGJK_Separated(t *testing.T) {
	testCases := []struct {
		name      string
		positionB mgl64.Vec3
	}{
		{"far apart", mgl64.Vec3{10, 0, 0}},
		{"separated on Y", mgl64.Vec3{0, 5, 0}},
		{"separated on Z", mgl64.Vec3{0, 0, 5}},
		{"separated diagonally", mgl64.Vec3{3, 3, 3}},
		{"beyond twice the extent", mgl64.Vec3{-2.01, 0, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := cachedCube(mgl64.Vec3{0, 0, 0}, 0.5)
			b := transformedCube(tc.positionB, 0.5)

			if GJK(a, b, tc.positionB, &Simplex{}) {
				t.Errorf("Expected no collision for %s", tc.name)
			}
		})
	}
}

func TestGJK_Intersecting(t *testing.T) {
	testCases := []struct {
		name      string
		positionB mgl64.Vec3
		halfB     float64
	}{
		{"offset on every axis", mgl64.Vec3{0.3, 0.2, 0.1}, 0.5},
		{"small cube inside big cube", mgl64.Vec3{0.1, 0.15, 0.2}, 0.25},
		{"deep diagonal overlap", mgl64.Vec3{0.45, -0.35, 0.25}, 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := cachedCube(mgl64.Vec3{0, 0, 0}, 0.5)
			b := cachedCube(tc.positionB, tc.halfB)

			if !GJK(a, b, tc.positionB, &Simplex{}) {
				t.Errorf("Expected collision for %s", tc.name)
			}
		})
	}
}

func TestGJK_Symmetry(t *testing.T) {
	positions := []mgl64.Vec3{
		{0.5, 0, 0},
		{2, 0, 0},
		{0.3, 0.2, 0.1},
		{0, 5, 0},
		{3, 3, 3},
	}

	for _, p := range positions {
		a := cachedCube(mgl64.Vec3{0, 0, 0}, 0.5)
		b := cachedCube(p, 0.5)

		ab := GJK(a, b, p, &Simplex{})
		ba := GJK(b, a, p.Mul(-1), &Simplex{})
		if ab != ba {
			t.Errorf("Position %v: GJK(A, B) = %v but GJK(B, A) = %v", p, ab, ba)
		}
	}
}

func TestGJK_Rotated(t *testing.T) {
	rotated := actor.Transform{
		Rotation: mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}),
		Scale:    mgl64.Vec3{1, 1, 1},
	}

	// The rotated cube reaches x = sqrt(2)/2 along +X.
	testCases := []struct {
		name      string
		positionB mgl64.Vec3
		expected  bool
	}{
		{"corner penetrates face", mgl64.Vec3{1.1, 0, 0}, true},
		{"corner short of face", mgl64.Vec3{1.3, 0, 0}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transformed := actor.Transformed(cubeMesh(0.5), rotated)
			cached := actor.Cached(actor.NewBuiltMesh(cubeMesh(0.5), rotated))
			b := cachedCube(tc.positionB, 0.5)

			if got := GJK(&transformed, b, tc.positionB, &Simplex{}); got != tc.expected {
				t.Errorf("Transformed: expected %v, got %v", tc.expected, got)
			}
			if got := GJK(&cached, b, tc.positionB, &Simplex{}); got != tc.expected {
				t.Errorf("Cached: expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestGJK_EdgeCases(t *testing.T) {
	t.Run("single points at the same position", func(t *testing.T) {
		a := actor.Cached(actor.NewBuiltMesh(pointMesh(mgl64.Vec3{1, 1, 1}), actor.NewTransform()))
		b := actor.Transformed(pointMesh(mgl64.Vec3{1, 1, 1}), actor.NewTransform())

		if !GJK(&a, &b, mgl64.Vec3{1, 0, 0}, &Simplex{}) {
			t.Error("Expected collision when the first support point is the origin")
		}
	})

	t.Run("point inside cube", func(t *testing.T) {
		a := actor.Transformed(pointMesh(mgl64.Vec3{0, 0, 0}), actor.NewTransform())
		b := cachedCube(mgl64.Vec3{0, 0, 0}, 0.5)

		if !GJK(&a, b, mgl64.Vec3{}, &Simplex{}) {
			t.Error("Expected collision for a point inside a cube")
		}
	})

	t.Run("zero start direction", func(t *testing.T) {
		a := cachedCube(mgl64.Vec3{0, 0, 0}, 0.5)
		b := cachedCube(mgl64.Vec3{0, 0, 0}, 0.5)

		if !GJK(a, b, mgl64.Vec3{}, &Simplex{}) {
			t.Error("Expected collision with a zero start direction")
		}
	})

	t.Run("point touching a hull edge", func(t *testing.T) {
		// The origin lies exactly on the edge (-1,0,0)-(1,0,0) of the tetrahedron
		tetra, _ := actor.NewCollisionMeshFromPoints([]mgl64.Vec3{
			{-1, 0, 0}, {1, 0, 0}, {0, 0, 1}, {0, 1, 0},
		})
		supports := map[string]actor.Support{
			"cached":      actor.Cached(actor.NewBuiltMesh(tetra, actor.NewTransform())),
			"transformed": actor.Transformed(tetra, actor.NewTransform()),
		}

		for name, a := range supports {
			b := actor.Transformed(pointMesh(mgl64.Vec3{}), actor.NewTransform())
			if !GJK(&a, &b, mgl64.Vec3{}, &Simplex{}) {
				t.Errorf("%s: expected collision for a point exactly on a hull edge", name)
			}
		}
	})

	t.Run("iteration budget exhausted", func(t *testing.T) {
		a := cachedCube(mgl64.Vec3{0, 0, 0}, 0.5)
		b := cachedCube(mgl64.Vec3{0.5, 0, 0}, 0.5)

		if GJKBounded(a, b, mgl64.Vec3{1, 0, 0}, &Simplex{}, 0) {
			t.Error("Expected no collision when no iteration is allowed")
		}
	})
}

func TestLine(t *testing.T) {
	t.Run("origin behind newest point", func(t *testing.T) {
		s := &Simplex{}
		s.set(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{2, 0, 0})
		direction := mgl64.Vec3{}

		if line(s, &direction) {
			t.Error("A line never encloses the origin")
		}
		if s.Count != 1 || s.Points[0] != (mgl64.Vec3{1, 0, 0}) {
			t.Errorf("Expected simplex reduced to the newest point, got %v", s.Points[:s.Count])
		}
		if direction != (mgl64.Vec3{-1, 0, 0}) {
			t.Errorf("Expected direction toward origin, got %v", direction)
		}
	})

	t.Run("origin beside the edge", func(t *testing.T) {
		s := &Simplex{}
		s.set(mgl64.Vec3{-1, 1, 0}, mgl64.Vec3{1, 1, 0})
		direction := mgl64.Vec3{}

		line(s, &direction)
		if s.Count != 2 {
			t.Errorf("Expected both points kept, got %d", s.Count)
		}
		if direction.Normalize() != (mgl64.Vec3{0, -1, 0}) {
			t.Errorf("Expected direction perpendicular to the edge toward origin, got %v", direction)
		}
	})

	t.Run("origin on the edge", func(t *testing.T) {
		s := &Simplex{}
		s.set(mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0})
		direction := mgl64.Vec3{}

		line(s, &direction)
		if direction == (mgl64.Vec3{}) {
			t.Fatal("Expected a non-zero search direction")
		}
		if direction.Dot(mgl64.Vec3{2, 0, 0}) != 0 {
			t.Errorf("Expected a direction orthogonal to the edge, got %v", direction)
		}
	})
}

func TestTriangle_Winding(t *testing.T) {
	s := &Simplex{}
	a, b, c := mgl64.Vec3{-1, -1, 1}, mgl64.Vec3{1, -1, 1}, mgl64.Vec3{0, 1, 1}
	s.set(a, b, c)
	direction := mgl64.Vec3{}

	if triangle(s, &direction) {
		t.Error("A triangle never encloses the origin")
	}
	if s.Count != 3 {
		t.Fatalf("Expected the triangle kept, got %d points", s.Count)
	}
	if direction.Dot(a.Mul(-1)) <= 0 {
		t.Errorf("Expected direction facing the origin, got %v", direction)
	}

	normal := s.Points[1].Sub(s.Points[0]).Cross(s.Points[2].Sub(s.Points[0]))
	if normal.Dot(direction) <= 0 {
		t.Errorf("Expected winding consistent with direction, got points %v", s.Points[:3])
	}
}

func TestNext_InvalidSimplexPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic for a single point simplex")
		}
	}()

	s := &Simplex{}
	s.set(mgl64.Vec3{1, 0, 0})
	direction := mgl64.Vec3{}
	next(s, &direction)
}
