package space

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Kind distinguishes the entity types tracked by the index.
type Kind int

const (
	KindAgent Kind = iota
	KindTask
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindAgent:
		return "agent"
	case KindTask:
		return "task"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entity is a positioned entity as reported by proximity queries.
type Entity struct {
	Kind Kind
	ID   int64
	Pos  Point
}

type entityKey struct {
	kind Kind
	id   int64
}

type cellKey struct {
	cx int
	cy int
}

// Index is a uniform bucket-grid spatial index over a bounded 2D space.
// Core simulation mutations are strictly sequential; the mutex exists so
// observability consumers can query positions from other goroutines.
type Index struct {
	mu       sync.RWMutex
	bounds   Bounds
	cellSize float64
	entities map[entityKey]Point
	cells    map[cellKey]map[entityKey]struct{}
}

// NewIndex creates an empty index over the given bounds.
// cellSize controls query granularity; values at or above the common
// communication range keep neighbor scans to a handful of cells.
func NewIndex(bounds Bounds, cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Index{
		bounds:   bounds,
		cellSize: cellSize,
		entities: make(map[entityKey]Point),
		cells:    make(map[cellKey]map[entityKey]struct{}),
	}
}

// Bounds returns the extent of the indexed space.
func (ix *Index) Bounds() Bounds {
	return ix.bounds
}

// Add registers an entity at pos. Positions outside the bounds are clamped.
// Returns an error if the entity is already registered.
func (ix *Index) Add(kind Kind, id int64, pos Point) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	key := entityKey{kind: kind, id: id}
	if _, exists := ix.entities[key]; exists {
		return fmt.Errorf("%s %d already registered", kind, id)
	}

	pos = ix.bounds.Clamp(pos)
	ix.entities[key] = pos
	ix.cellInsert(key, pos)
	return nil
}

// Remove deregisters an entity. Returns an error if it is not registered.
func (ix *Index) Remove(kind Kind, id int64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	key := entityKey{kind: kind, id: id}
	pos, exists := ix.entities[key]
	if !exists {
		return fmt.Errorf("%s %d not registered", kind, id)
	}

	delete(ix.entities, key)
	ix.cellDelete(key, pos)
	return nil
}

// Position returns the current position of an entity.
func (ix *Index) Position(kind Kind, id int64) (Point, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	pos, ok := ix.entities[entityKey{kind: kind, id: id}]
	return pos, ok
}

// Move advances an entity from its current position toward dest by at most
// maxDist, clamped to the bounds, and returns the new position.
func (ix *Index) Move(kind Kind, id int64, dest Point, maxDist float64) (Point, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	key := entityKey{kind: kind, id: id}
	cur, exists := ix.entities[key]
	if !exists {
		return Point{}, fmt.Errorf("%s %d not registered", kind, id)
	}

	next := ix.bounds.Clamp(StepToward(cur, dest, maxDist))
	if next == cur {
		return cur, nil
	}

	ix.cellDelete(key, cur)
	ix.entities[key] = next
	ix.cellInsert(key, next)
	return next, nil
}

// NeighborsWithin returns every entity within radius of pos, ordered by
// kind then id so results are stable across identical runs.
func (ix *Index) NeighborsWithin(pos Point, radius float64) []Entity {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if radius < 0 {
		return nil
	}

	minCX := int(math.Floor((pos.X - radius) / ix.cellSize))
	maxCX := int(math.Floor((pos.X + radius) / ix.cellSize))
	minCY := int(math.Floor((pos.Y - radius) / ix.cellSize))
	maxCY := int(math.Floor((pos.Y + radius) / ix.cellSize))

	var found []Entity
	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			for key := range ix.cells[cellKey{cx: cx, cy: cy}] {
				p := ix.entities[key]
				if Distance(pos, p) <= radius {
					found = append(found, Entity{Kind: key.kind, ID: key.id, Pos: p})
				}
			}
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Kind != found[j].Kind {
			return found[i].Kind < found[j].Kind
		}
		return found[i].ID < found[j].ID
	})
	return found
}

// Count returns the number of registered entities of the given kind.
func (ix *Index) Count(kind Kind) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := 0
	for key := range ix.entities {
		if key.kind == kind {
			n++
		}
	}
	return n
}

func (ix *Index) cellOf(pos Point) cellKey {
	return cellKey{
		cx: int(math.Floor(pos.X / ix.cellSize)),
		cy: int(math.Floor(pos.Y / ix.cellSize)),
	}
}

func (ix *Index) cellInsert(key entityKey, pos Point) {
	ck := ix.cellOf(pos)
	cell, ok := ix.cells[ck]
	if !ok {
		cell = make(map[entityKey]struct{})
		ix.cells[ck] = cell
	}
	cell[key] = struct{}{}
}

func (ix *Index) cellDelete(key entityKey, pos Point) {
	ck := ix.cellOf(pos)
	if cell, ok := ix.cells[ck]; ok {
		delete(cell, key)
		if len(cell) == 0 {
			delete(ix.cells, ck)
		}
	}
}
