package sim

const maxPushesLimit = 4

// Buffer is a FIFO [Storage] queue of type T. A sensitive process attached
// via [Buffer.Sensitive] is activated when the buffer becomes non-empty and
// deactivated when it becomes empty.
type Buffer[T any] struct {
	storageBase
	sensitiveStorage

	maxSize   BufferSize
	maxPushes int

	data *ring[T]

	pushes int
	staged [maxPushesLimit]T
	popped bool

	stalls uint64
}

// NewBuffer creates a buffer named name, a child of parent, governed by
// clock, holding at most maxSize elements ([InfiniteSize] for unbounded),
// accepting up to maxPushes pushes in a single cycle. maxPushes above 1 is
// only meaningful when every pusher shares the buffer's own clock domain.
func NewBuffer[T any](name string, parent *Object, clock *Clock, maxSize BufferSize, maxPushes int) *Buffer[T] {
	if maxPushes < 1 {
		maxPushes = 1
	}
	if maxPushes > maxPushesLimit {
		maxPushes = maxPushesLimit
	}
	hint := 4
	if maxSize > 0 && int(maxSize) < hint {
		hint = int(maxSize)
	}
	return &Buffer[T]{
		storageBase: newStorageBase(name, parent, clock),
		maxSize:     maxSize,
		maxPushes:   maxPushes,
		data:        newRing[T](hint),
	}
}

// GetMaxSize returns the buffer's capacity, or [InfiniteSize].
func (b *Buffer[T]) GetMaxSize() BufferSize { return b.maxSize }

// Empty reports whether the buffer currently holds no elements. Pending
// pushes staged this cycle do not count until commit.
func (b *Buffer[T]) Empty() bool { return b.data.Len() == 0 }

// Front returns the first element in the buffer. Only valid when
// [Buffer.Empty] is false.
func (b *Buffer[T]) Front() T { return b.data.Front() }

// Pop removes the front element of the buffer. At most one Pop per cycle is
// allowed regardless of phase; like [Buffer.Push], the removal only takes
// effect at commit.
func (b *Buffer[T]) Pop(ctx *Context) {
	b.checkClock(ctx)
	commitOnly(ctx, func() {
		b.popped = true
		b.registerUpdate(b)
	})
}

// Push stages item to be appended to the buffer, succeeding only if at
// least minSpace free slots (after any pushes already staged this cycle)
// remain. Returns false, without staging anything, if there isn't enough
// room or the per-cycle push limit has already been reached.
func (b *Buffer[T]) Push(ctx *Context, item T, minSpace int) bool {
	b.markUpdate(ctx, b)

	if minSpace < 1 {
		minSpace = 1
	}

	if b.maxPushes != 1 {
		b.checkClock(ctx)
		if b.pushes == b.maxPushes {
			return false
		}
	} else if b.pushes == 1 {
		// Already pushed this cycle; most likely a cross-clock producer
		// that hasn't observed this cycle's commit yet.
		return false
	}

	if b.maxSize == InfiniteSize || b.data.Len()+b.pushes+minSpace <= int(b.maxSize) {
		commitOnly(ctx, func() {
			b.staged[b.pushes] = item
			if b.pushes == 0 {
				b.registerUpdate(b)
			}
			b.pushes++
		})
		return true
	}

	if ctx.phase == PhaseAcquire {
		b.stalls++
	}
	return false
}

// update implements [Storage]: applies staged pushes and a staged pop,
// notifying or unnotifying the sensitive process on an empty/non-empty
// edge.
func (b *Buffer[T]) update(k *Kernel) {
	if b.pushes > 0 {
		if b.data.Len() == 0 {
			b.notify(b.clock)
		}
		for i := 0; i < b.pushes; i++ {
			b.data.PushBack(b.staged[i])
			var zero T
			b.staged[i] = zero
		}
	}

	if b.popped {
		b.data.PopFront()
		if b.data.Len() == 0 {
			b.unnotify()
		}
	}

	b.pushes = 0
	b.popped = false
	b.deactivate()
}
