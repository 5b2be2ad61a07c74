package game

import "fmt"

// entityArena owns every live entity. Slots are swap-removed, so iteration
// order over all() is not stable across removals.
type entityArena struct {
	items []*Entity
	slot  map[EntityID]int
	next  EntityID
}

func newEntityArena() *entityArena {
	return &entityArena{slot: make(map[EntityID]int)}
}

func (a *entityArena) nextID() EntityID {
	a.next++
	return a.next
}

func (a *entityArena) add(e *Entity) {
	if _, dup := a.slot[e.ID]; dup {
		panic(fmt.Sprintf("game: duplicate entity id %d", e.ID))
	}
	a.slot[e.ID] = len(a.items)
	a.items = append(a.items, e)
}

func (a *entityArena) get(id EntityID) (*Entity, bool) {
	i, ok := a.slot[id]
	if !ok {
		return nil, false
	}
	return a.items[i], true
}

// remove swap-removes id in O(1); returns false if it was not present
func (a *entityArena) remove(id EntityID) bool {
	i, ok := a.slot[id]
	if !ok {
		return false
	}
	last := len(a.items) - 1
	if i != last {
		moved := a.items[last]
		a.items[i] = moved
		a.slot[moved.ID] = i
	}
	a.items[last] = nil
	a.items = a.items[:last]
	delete(a.slot, id)
	return true
}

func (a *entityArena) all() []*Entity { return a.items }
func (a *entityArena) len() int       { return len(a.items) }
