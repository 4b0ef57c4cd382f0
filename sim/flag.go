package sim

// Flag is a single-bit [Storage] element. A sensitive process is activated
// whenever the flag transitions from clear to set, and deactivated on the
// reverse transition.
type Flag struct {
	storageBase
	sensitiveStorage

	set     bool
	updated bool
	pending bool

	stalls uint64
}

// NewFlag creates a flag named name, a child of parent, governed by clock,
// with the given initial value.
func NewFlag(name string, parent *Object, clock *Clock, initial bool) *Flag {
	f := &Flag{
		storageBase: newStorageBase(name, parent, clock),
		pending:     initial,
	}
	if initial {
		f.registerUpdate(f)
	}
	return f
}

// IsSet reports whether the flag is currently set.
func (f *Flag) IsSet() bool { return f.set }

// Set requests the flag be set to true. It returns true if the request was
// accepted (acquire/check), or actually took effect (commit); false means
// another write already claimed this flag's single update slot this
// cycle and the process should retry next cycle.
func (f *Flag) Set(ctx *Context) bool { return f.write(ctx, true) }

// Clear requests the flag be reset to false. See [Flag.Set].
func (f *Flag) Clear(ctx *Context) bool { return f.write(ctx, false) }

func (f *Flag) write(ctx *Context, value bool) bool {
	f.checkClock(ctx)
	f.markUpdate(ctx, f)

	if !f.updated {
		commitOnly(ctx, func() {
			f.pending = value
			f.updated = true
			f.registerUpdate(f)
		})
		return true
	}

	if ctx.phase == PhaseAcquire {
		f.stalls++
	}
	return false
}

// update implements [Storage]: it is called once per activated flag, after
// check+commit, and applies the pending value, notifying or unnotifying
// the sensitive process on an edge.
func (f *Flag) update(k *Kernel) {
	if f.pending && !f.set {
		f.notify(f.clock)
	} else if f.set && !f.pending {
		f.unnotify()
	}
	f.set = f.pending
	f.updated = false
	f.deactivate()
}
