package narrowphase

const (
	INTERSECTION_ENTER EventType = iota
	INTERSECTION_STAY
	INTERSECTION_EXIT
)

type pairKey struct {
	entityA Entity
	entityB Entity
}

// makePairKey creates a normalized pair key with consistent ordering
func makePairKey(a, b Entity) pairKey {
	if b.ID < a.ID || (b.ID == a.ID && b.Version < a.Version) {
		a, b = b, a
	}

	return pairKey{entityA: a, entityB: b}
}

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// IntersectionEnterEvent is emitted on the first Step where a watched pair intersects
type IntersectionEnterEvent struct {
	EntityA Entity
	EntityB Entity
}

func (e IntersectionEnterEvent) Type() EventType { return INTERSECTION_ENTER }

// IntersectionStayEvent is emitted on each following Step while the pair keeps intersecting
type IntersectionStayEvent struct {
	EntityA Entity
	EntityB Entity
}

func (e IntersectionStayEvent) Type() EventType { return INTERSECTION_STAY }

// IntersectionExitEvent is emitted on the first Step where the pair no longer intersects
type IntersectionExitEvent struct {
	EntityA Entity
	EntityB Entity
}

func (e IntersectionExitEvent) Type() EventType { return INTERSECTION_EXIT }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Intersection tracking for Enter/Stay/Exit detection
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 64),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) recordIntersection(pair pairKey) {
	e.currentActivePairs[pair] = true
}

// forget drops every tracked pair involving entity, without emitting exit events
func (e *Events) forget(entity Entity) {
	for pair := range e.previousActivePairs {
		if pair.entityA == entity || pair.entityB == entity {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.entityA == entity || pair.entityB == entity {
			delete(e.currentActivePairs, pair)
		}
	}
}

// processIntersectionEvents compares current and previous pairs to detect Enter/Stay/Exit
func (e *Events) processIntersectionEvents() {
	for pair := range e.currentActivePairs {
		if e.previousActivePairs[pair] {
			e.buffer = append(e.buffer, IntersectionStayEvent{EntityA: pair.entityA, EntityB: pair.entityB})
		} else {
			e.buffer = append(e.buffer, IntersectionEnterEvent{EntityA: pair.entityA, EntityB: pair.entityB})
		}
	}

	for pair := range e.previousActivePairs {
		if !e.currentActivePairs[pair] {
			e.buffer = append(e.buffer, IntersectionExitEvent{EntityA: pair.entityA, EntityB: pair.entityB})
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processIntersectionEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
