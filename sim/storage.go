package sim

// Storage is implemented by every storage element that participates in the
// kernel's update protocol: [Flag] and [Buffer]. The update method is
// unexported, so Storage can only be implemented within this package —
// storage elements are meant to be composed from the provided building
// blocks, not reimplemented from scratch.
type Storage interface {
	// Name returns the storage's qualified name, used in traces and
	// diagnostics.
	Name() string
	// Clock returns the clock domain that governs this storage.
	Clock() *Clock
	// update applies the cycle's staged writes and is called once per
	// activated storage, after check+commit, before time advances.
	update(k *Kernel)
}

// storageBase is embedded by every concrete storage type. It implements the
// bookkeeping that is identical across all of them: qualified naming (via
// the embedded [*Object]), the registration of the intrusive update-list
// entry, and acquire-phase trace marking.
type storageBase struct {
	*Object
	clock     *Clock
	activated bool
}

func newStorageBase(name string, parent *Object, clock *Clock) storageBase {
	return storageBase{Object: parent.NewChild(name), clock: clock}
}

// Clock implements [Storage].
func (s *storageBase) Clock() *Clock { return s.clock }

// checkClock panics if ctx's active clock differs from the storage's own,
// matching the original's debug-only CheckClocks assertion: a process may
// only mutate a storage from within its own clock domain.
func (s *storageBase) checkClock(ctx *Context) {
	if ctx.clock != nil && ctx.clock != s.clock {
		panic("sim: " + s.Name() + " accessed from a different clock domain than its own")
	}
}

// markUpdate records this storage as observed by the active process, for
// later trace verification. Only acquire-phase observation counts, so a
// cycle's trace reflects exactly what was decided during acquire and isn't
// re-extended by the check/commit re-invocations of the same call.
func (s *storageBase) markUpdate(ctx *Context, self Storage) {
	if ctx.phase == PhaseAcquire && ctx.process != nil {
		ctx.process.observeAccess(self)
	}
}

// registerUpdate links self into its clock's active-storage list, unless
// already linked this cycle. Apart from [NewFlag] registering a set initial
// value, this is only called from inside a commit-only block, so it only
// takes effect once a write has actually been decided.
func (s *storageBase) registerUpdate(self Storage) {
	if !s.activated {
		s.activated = true
		s.clock.activateStorage(self)
	}
}

func (s *storageBase) deactivate() { s.activated = false }

// sensitiveStorage is embedded alongside storageBase by storage types that
// can wake a single process (Flag, Buffer). A process becomes sensitive via
// [Flag.Sensitive] or [Buffer.Sensitive]; Notify/Unnotify schedule or deschedule it
// as the storage transitions between empty/non-empty or cleared/set.
type sensitiveStorage struct {
	process *Process
}

// Sensitive attaches process to this storage: whenever the storage becomes
// "interesting" (a Flag is set, a Buffer becomes non-empty), the process is
// activated on its own clock. A process may only be sensitive on storages
// of the clock it was created with.
func (s *sensitiveStorage) Sensitive(process *Process, storageClock *Clock) error {
	if process.clock != storageClock {
		return ErrProcessMultiClock
	}
	s.process = process
	return nil
}

func (s *sensitiveStorage) notify(clock *Clock) {
	if s.process != nil {
		clock.activateProcess(s.process)
	}
}

func (s *sensitiveStorage) unnotify() {
	if s.process != nil {
		s.process.deactivate()
	}
}
