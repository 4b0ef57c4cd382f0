package ic

const poolBatchSize = 1024

// Message is a pool-allocated envelope for payload P moving through an
// [Interconnect]. Obtain one from a [Pool] with [Pool.Alloc]: [Message.Dup]
// and [Message.Free] need the pool and panic on a message built directly.
type Message[P any] struct {
	Payload P

	pool *Pool[P]
	next *Message[P] // free-list link; only meaningful while on the free list
}

// Dup allocates a new message from the same pool and copies Payload into
// it. Used by broadcast delivery, where each recipient needs its own
// envelope even though the payload is shared.
func (m *Message[P]) Dup() *Message[P] {
	d := m.pool.Alloc()
	d.Payload = m.Payload
	return d
}

// Free returns m to its pool. m must not be used again afterwards.
func (m *Message[P]) Free() {
	var zero P
	m.Payload = zero
	pool := m.pool
	m.next = pool.free
	pool.free = m
}

// Pool is a slab-allocated free list of messages carrying payload P. Slabs
// are allocated in fixed batches and retained for the lifetime of the
// pool: a Pool never shrinks, trading peak memory for allocator-free
// steady-state operation, matching how the rest of the kernel avoids
// per-cycle allocation in its hot paths.
type Pool[P any] struct {
	free  *Message[P]
	slabs [][]Message[P]
}

// NewPool creates an empty message pool. The first call to Alloc grows it.
func NewPool[P any]() *Pool[P] {
	return &Pool[P]{}
}

// Alloc returns a free message, growing the pool by one batch first if
// necessary.
func (p *Pool[P]) Alloc() *Message[P] {
	if p.free == nil {
		p.grow()
	}
	m := p.free
	p.free = m.next
	m.next = nil
	m.pool = p
	return m
}

func (p *Pool[P]) grow() {
	batch := make([]Message[P], poolBatchSize)
	p.slabs = append(p.slabs, batch)
	for i := range batch {
		batch[i].pool = p
		batch[i].next = p.free
		p.free = &batch[i]
	}
}
