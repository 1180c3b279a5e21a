package wheel

// node is an arena entry.
// Slot heads are sentinel nodes that link to themselves when empty,
// every armed timer owns exactly one node.
type node struct {
	timer      *Timer
	prev, next int32
	level      int8
}

// arena holds slot sentinels and timer nodes linked by index.
// Index 0 is reserved as "no node".
type arena struct {
	nodes []node
	free  int32
}

func (a *arena) init(heads int) {
	a.nodes = make([]node, 1+heads, 1+heads+levelSize)
	a.free = 0
	for i := 1; i <= heads; i++ {
		a.nodes[i] = node{prev: int32(i), next: int32(i)}
	}
}

// alloc returns a free node index bound to t.
func (a *arena) alloc(t *Timer) int32 {
	if i := a.free; i != 0 {
		a.free = a.nodes[i].next
		a.nodes[i] = node{timer: t}
		return i
	}
	a.nodes = append(a.nodes, node{timer: t})
	return int32(len(a.nodes) - 1)
}

// release puts node i back on the free list.
func (a *arena) release(i int32) {
	a.nodes[i] = node{next: a.free}
	a.free = i
}

// pushBack links node i at the tail of the list headed by h.
func (a *arena) pushBack(h, i int32) {
	tail := a.nodes[h].prev
	a.nodes[i].prev = tail
	a.nodes[i].next = h
	a.nodes[tail].next = i
	a.nodes[h].prev = i
}

// unlink removes node i from whatever list it's in.
func (a *arena) unlink(i int32) {
	p, n := a.nodes[i].prev, a.nodes[i].next
	a.nodes[p].next = n
	a.nodes[n].prev = p
	a.nodes[i].prev, a.nodes[i].next = 0, 0
}

// detach empties the list headed by h and returns its first node.
// The detached chain still ends with a link back to h.
func (a *arena) detach(h int32) (first int32) {
	first = a.nodes[h].next
	a.nodes[h].next, a.nodes[h].prev = h, h
	return first
}

func (a *arena) empty(h int32) bool { return a.nodes[h].next == h }
