package particle

// Collection is the ordered set of live entities. It is owned by the render
// loop; Append must not be called while Update is iterating.
type Collection struct {
	items []*Entity
	byID  map[uint64]*Entity
	next  uint64
}

func NewCollection() *Collection {
	return &Collection{byID: make(map[uint64]*Entity), next: 1}
}

// NextID reserves a fresh entity ID. IDs start at 1; 0 means "none".
func (c *Collection) NextID() uint64 {
	id := c.next
	c.next++
	return id
}

// Append adds entities in order.
func (c *Collection) Append(es ...*Entity) {
	for _, e := range es {
		if e.ID >= c.next {
			c.next = e.ID + 1
		}
		c.items = append(c.items, e)
		c.byID[e.ID] = e
	}
}

// All returns the live entities. Callers must not retain the slice across an Append.
func (c *Collection) All() []*Entity {
	return c.items
}

func (c *Collection) Len() int {
	return len(c.items)
}

// ByID resolves an entity reference.
func (c *Collection) ByID(id uint64) (*Entity, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Photos returns the IDs of photo entities in insertion order.
func (c *Collection) Photos() []uint64 {
	var ids []uint64
	for _, e := range c.items {
		if e.Kind == KindPhoto {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Update advances every entity with the same frame input.
func (c *Collection) Update(dt, elapsed float32, f Frame) {
	for _, e := range c.items {
		e.Update(dt, elapsed, f)
	}
}
