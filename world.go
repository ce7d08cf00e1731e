// Package narrowphase keeps world-space collision meshes up to date and answers
// exact pairwise intersection queries with GJK.
//
// A World is driven once per tick: callers mutate transforms and collision
// meshes, then call Rebuild (or Step) before issuing queries. Only entities
// whose transform or mesh changed since the previous pass are rebuilt.
package narrowphase

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/akmonengine/narrowphase/actor"
	"github.com/akmonengine/narrowphase/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_WORKERS = 1

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrNoCollider     = errors.New("entity has no collider")
)

// Entity identifies a slot of the world. Version changes each time the slot is reused,
// so a stale Entity never reaches the components of its successor.
type Entity struct {
	ID      uint32
	Version uint32
}

func (e Entity) String() string {
	return fmt.Sprintf("%d.%d", e.ID, e.Version)
}

// Change describes what happened to a component since the last rebuild pass.
type Change uint8

const (
	Unchanged Change = iota
	Inserted
	Modified
)

type slot struct {
	version uint32
	alive   bool

	transform    actor.Transform
	hasTransform bool

	mesh  *actor.CollisionMesh
	built *actor.BuiltMesh
}

// World owns the collidable entities. Use NewWorld to create one.
type World struct {
	// Goroutines used by the rebuild pass
	Workers int
	// GJK iteration bound, gjk.MaxIterations when zero
	MaxIterations int
	Logger        *slog.Logger

	Events Events

	slots []slot
	free  []uint32

	transformChanges map[Entity]Change
	meshChanges      map[Entity]Change

	watched map[pairKey]struct{}
}

// NewWorld creates an empty world with default settings
func NewWorld() *World {
	return &World{
		Workers:          DEFAULT_WORKERS,
		MaxIterations:    gjk.MaxIterations,
		Logger:           slog.Default(),
		Events:           NewEvents(),
		transformChanges: make(map[Entity]Change),
		meshChanges:      make(map[Entity]Change),
		watched:          make(map[pairKey]struct{}),
	}
}

func (w *World) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}

// Spawn allocates a new entity without components
func (w *World) Spawn() Entity {
	if n := len(w.free); n > 0 {
		id := w.free[n-1]
		w.free = w.free[:n-1]

		s := &w.slots[id]
		s.alive = true
		return Entity{ID: id, Version: s.version}
	}

	w.slots = append(w.slots, slot{alive: true})
	return Entity{ID: uint32(len(w.slots) - 1)}
}

// Despawn removes the entity with its components, cache, watched pairs and pending changes.
func (w *World) Despawn(e Entity) error {
	s, err := w.slot(e)
	if err != nil {
		return err
	}

	*s = slot{version: s.version + 1}
	w.free = append(w.free, e.ID)

	delete(w.transformChanges, e)
	delete(w.meshChanges, e)
	w.unwatchEntity(e)

	return nil
}

// Alive reports whether e still refers to a live entity
func (w *World) Alive(e Entity) bool {
	_, err := w.slot(e)
	return err == nil
}

func (w *World) slot(e Entity) (*slot, error) {
	if int(e.ID) >= len(w.slots) {
		return nil, fmt.Errorf("entity %s: %w", e, ErrEntityNotFound)
	}

	s := &w.slots[e.ID]
	if !s.alive || s.version != e.Version {
		return nil, fmt.Errorf("entity %s: %w", e, ErrEntityNotFound)
	}

	return s, nil
}

// SetTransform inserts or replaces the world transform of e and flags it for the next rebuild.
func (w *World) SetTransform(e Entity, transform actor.Transform) error {
	s, err := w.slot(e)
	if err != nil {
		return err
	}

	change := Modified
	if !s.hasTransform {
		change = Inserted
	}
	s.transform = transform
	s.hasTransform = true
	track(w.transformChanges, e, change)

	return nil
}

// Transform returns the world transform of e
func (w *World) Transform(e Entity) (actor.Transform, bool) {
	s, err := w.slot(e)
	if err != nil || !s.hasTransform {
		return actor.Transform{}, false
	}
	return s.transform, true
}

// SetCollisionMesh inserts or replaces the collision mesh of e and flags it for the next rebuild.
// A nil mesh is the same as RemoveCollisionMesh.
func (w *World) SetCollisionMesh(e Entity, mesh *actor.CollisionMesh) error {
	if mesh == nil {
		return w.RemoveCollisionMesh(e)
	}

	s, err := w.slot(e)
	if err != nil {
		return err
	}

	change := Modified
	if s.mesh == nil {
		change = Inserted
	}
	s.mesh = mesh
	track(w.meshChanges, e, change)

	return nil
}

// RemoveCollisionMesh drops the mesh of e along with its world-space cache
func (w *World) RemoveCollisionMesh(e Entity) error {
	s, err := w.slot(e)
	if err != nil {
		return err
	}

	s.mesh = nil
	s.built = nil
	delete(w.meshChanges, e)

	return nil
}

// CollisionMesh returns the local collision mesh of e
func (w *World) CollisionMesh(e Entity) (*actor.CollisionMesh, bool) {
	s, err := w.slot(e)
	if err != nil || s.mesh == nil {
		return nil, false
	}
	return s.mesh, true
}

// track records a change, an insertion staying an insertion until the next rebuild
func track(changes map[Entity]Change, e Entity, change Change) {
	if changes[e] == Inserted {
		return
	}
	changes[e] = change
}

// TransformChange reports the pending transform change of e
func (w *World) TransformChange(e Entity) Change {
	return w.transformChanges[e]
}

// MeshChange reports the pending collision mesh change of e
func (w *World) MeshChange(e Entity) Change {
	return w.meshChanges[e]
}

// Dirty returns the entities to rebuild on the next pass: the union of the
// entities with a changed transform and those with a changed mesh, each once,
// ordered by ID.
func (w *World) Dirty() []Entity {
	dirty := make(map[Entity]struct{}, len(w.transformChanges)+len(w.meshChanges))
	for e := range w.transformChanges {
		dirty[e] = struct{}{}
	}
	for e := range w.meshChanges {
		dirty[e] = struct{}{}
	}

	entities := make([]Entity, 0, len(dirty))
	for e := range dirty {
		entities = append(entities, e)
	}
	slices.SortFunc(entities, func(a, b Entity) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return entities
}

// Rebuild refreshes the world-space cache of every dirty entity that has both a
// transform and a collision mesh, then clears the pending changes.
// It returns the number of caches rebuilt.
func (w *World) Rebuild() int {
	var rebuild []*slot
	for _, e := range w.Dirty() {
		s, err := w.slot(e)
		if err != nil || s.mesh == nil || !s.hasTransform {
			continue
		}
		rebuild = append(rebuild, s)
	}

	task(max(DEFAULT_WORKERS, w.Workers), rebuild, func(s *slot) {
		if s.built == nil {
			s.built = actor.NewBuiltMesh(s.mesh, s.transform)
			return
		}
		if resized := s.built.Rebuild(s.mesh, s.transform); resized {
			w.logger().Debug("collision cache reallocated", "points", s.mesh.Len())
		}
	})

	clear(w.transformChanges)
	clear(w.meshChanges)

	if len(rebuild) > 0 {
		w.logger().Debug("collision caches rebuilt", "count", len(rebuild))
	}

	return len(rebuild)
}

// BuiltMesh returns the world-space cache of e, as of the last rebuild pass
func (w *World) BuiltMesh(e Entity) (*actor.BuiltMesh, error) {
	s, err := w.slot(e)
	if err != nil {
		return nil, err
	}
	if s.built == nil {
		return nil, fmt.Errorf("entity %s: %w", e, ErrNoCollider)
	}
	return s.built, nil
}

// Support returns the cached support of e. It reflects the last rebuild pass.
func (w *World) Support(e Entity) (actor.Support, error) {
	built, err := w.BuiltMesh(e)
	if err != nil {
		return actor.Support{}, err
	}
	return actor.Cached(built), nil
}

// SupportOnDemand returns a support that transforms the local mesh of e at query time.
// It reflects the current transform, rebuilt or not.
func (w *World) SupportOnDemand(e Entity) (actor.Support, error) {
	s, err := w.slot(e)
	if err != nil {
		return actor.Support{}, err
	}
	if s.mesh == nil || !s.hasTransform {
		return actor.Support{}, fmt.Errorf("entity %s: %w", e, ErrNoCollider)
	}
	return actor.Transformed(s.mesh, s.transform), nil
}

// Intersects tests a against b using their world-space caches.
// Caches are only as fresh as the last Rebuild.
func (w *World) Intersects(a, b Entity) (bool, error) {
	builtA, err := w.BuiltMesh(a)
	if err != nil {
		return false, err
	}
	builtB, err := w.BuiltMesh(b)
	if err != nil {
		return false, err
	}

	if !builtA.GetAABB().Overlaps(builtB.GetAABB()) {
		return false, nil
	}

	supportA, supportB := actor.Cached(builtA), actor.Cached(builtB)
	return w.gjk(&supportA, &supportB, w.startDirection(a, b)), nil
}

// IntersectsOnDemand tests a against b from their local meshes and current transforms,
// without reading or touching the caches.
func (w *World) IntersectsOnDemand(a, b Entity) (bool, error) {
	supportA, err := w.SupportOnDemand(a)
	if err != nil {
		return false, err
	}
	supportB, err := w.SupportOnDemand(b)
	if err != nil {
		return false, err
	}

	return w.gjk(&supportA, &supportB, w.startDirection(a, b)), nil
}

// ContainsPoint tests whether a world-space point lies inside the cached hull of e.
// Caches are only as fresh as the last Rebuild.
func (w *World) ContainsPoint(e Entity, point mgl64.Vec3) (bool, error) {
	built, err := w.BuiltMesh(e)
	if err != nil {
		return false, err
	}

	if !built.GetAABB().ContainsPoint(point) {
		return false, nil
	}

	single, _ := actor.NewCollisionMeshFromPoints([]mgl64.Vec3{{}})
	supportA := actor.Cached(built)
	supportB := actor.Transformed(single, actor.NewTranslation(point))

	transform, _ := w.Transform(e)
	return w.gjk(&supportA, &supportB, point.Sub(transform.Position)), nil
}

func (w *World) gjk(a, b *actor.Support, direction mgl64.Vec3) bool {
	maxIterations := w.MaxIterations
	if maxIterations <= 0 {
		maxIterations = gjk.MaxIterations
	}

	var simplex gjk.Simplex
	return gjk.GJKBounded(a, b, direction, &simplex, maxIterations)
}

// startDirection points from a's position to b's; GJK falls back to +X when they coincide
func (w *World) startDirection(a, b Entity) mgl64.Vec3 {
	transformA, _ := w.Transform(a)
	transformB, _ := w.Transform(b)
	return transformB.Position.Sub(transformA.Position)
}

// Watch registers a pair whose intersection state is evaluated on each Step
func (w *World) Watch(a, b Entity) error {
	if _, err := w.slot(a); err != nil {
		return err
	}
	if _, err := w.slot(b); err != nil {
		return err
	}

	w.watched[makePairKey(a, b)] = struct{}{}
	return nil
}

// Unwatch stops evaluating a pair. An active pair emits its exit event on the next Step.
func (w *World) Unwatch(a, b Entity) {
	delete(w.watched, makePairKey(a, b))
}

func (w *World) unwatchEntity(e Entity) {
	for pair := range w.watched {
		if pair.entityA == e || pair.entityB == e {
			delete(w.watched, pair)
		}
	}
	w.Events.forget(e)
}

// Step runs one tick: the rebuild pass, then the watched pairs, then event dispatch.
func (w *World) Step() {
	w.Rebuild()

	for pair := range w.watched {
		intersects, err := w.Intersects(pair.entityA, pair.entityB)
		if err != nil {
			// no collider yet, nothing to report
			continue
		}
		if intersects {
			w.Events.recordIntersection(pair)
		}
	}

	w.Events.flush()
}
