package sim

// Arbitrator is implemented by anything that needs a chance to decide
// between competing requests once per cycle, between acquire and
// check+commit. Like [Storage], the interface is sealed to this package.
type Arbitrator interface {
	onArbitrate(ctx *Context)
	deactivateArbitration()
}

// arbitratorBase is embedded by the structure arbitrators,
// [ReadOnlyStructure] and [ReadWriteStructure].
type arbitratorBase struct {
	*Object
	clock      *Clock
	requested  bool
	busyCycles uint64
}

func newArbitratorBase(name string, parent *Object, clock *Clock) arbitratorBase {
	return arbitratorBase{Object: parent.NewChild(name), clock: clock}
}

func (a *arbitratorBase) Clock() *Clock { return a.clock }

// BusyCycles returns the number of cycles this arbitrator had at least one
// request to decide between.
func (a *arbitratorBase) BusyCycles() uint64 { return a.busyCycles }

func (a *arbitratorBase) deactivateArbitration() { a.requested = false }

// requestArbitration schedules self for an OnArbitrate call this cycle,
// idempotently: requesting more than once per cycle has no additional
// effect.
func (a *arbitratorBase) requestArbitration(self Arbitrator) {
	if !a.requested {
		a.requested = true
		a.busyCycles++
		a.clock.activateArbitrator(self)
	}
}

// Clock places processes, storages and arbitrators into a frequency
// domain. Clocks are created by a [Kernel] and tick in master-cycle
// multiples computed from every clock's frequency, so that every clock's
// period is an integer number of master cycles (see [Kernel.CreateClock]).
type Clock struct {
	kernel    *Kernel
	frequency uint64
	period    uint64 // master cycles per tick of this clock

	nextTick CycleNo // next master cycle this clock needs to run
	inQueue  bool    // already linked into the kernel's active-clock queue

	next *Clock // next clock in the kernel's active-clock queue

	activeProcesses   *Process // intrusive list head
	activeStorages    []Storage
	activeArbitrators []Arbitrator
}

// Frequency returns the clock's frequency, in the same units it was
// created with.
func (c *Clock) Frequency() uint64 { return c.frequency }

// Period returns the number of master cycles per tick of this clock.
func (c *Clock) Period() uint64 { return c.period }

// NextTick returns the next master cycle this clock is scheduled to run.
func (c *Clock) NextTick() CycleNo { return c.nextTick }

// CycleNo returns this clock's own cycle counter (master cycle / period).
func (c *Clock) CycleNo() CycleNo { return CycleNo(uint64(c.kernel.CycleNo()) / c.period) }

func (c *Clock) activateProcess(p *Process) {
	p.activations++
	if p.activations == 1 {
		p.next = c.activeProcesses
		p.prevLink = &c.activeProcesses
		if p.next != nil {
			p.next.prevLink = &p.next
		}
		c.activeProcesses = p
		p.state = StateActive
		c.kernel.activateClock(c)
	}
}

func (c *Clock) activateStorage(s Storage) {
	c.activeStorages = append(c.activeStorages, s)
	c.kernel.activateClock(c)
}

func (c *Clock) activateArbitrator(a Arbitrator) {
	c.activeArbitrators = append(c.activeArbitrators, a)
	c.kernel.activateClock(c)
}
