package sim

// ProcessFunc is the callback a [Process] invokes up to three times per
// cycle (acquire, check, commit). It must be written so that identical
// inputs produce an identical decision on every invocation within the same
// cycle; only the commit invocation is allowed to have an externally
// visible effect, and that effect is expressed entirely through the
// storage-write helpers ([Flag.Set], [Buffer.Push], ...), which themselves
// gate on [*Context]'s phase.
//
// An error returned here aborts the current [Kernel.Step] call, annotated
// with the cycle and process name (see [SimulationException]).
type ProcessFunc func(ctx *Context) (Result, error)

// Process represents one schedulable unit of work, bound for its lifetime
// to a single [Clock].
type Process struct {
	*Object
	clock *Clock
	fn    ProcessFunc
	state ProcessState

	// activations is a reference count: a process may be made sensitive on
	// more than one storage, and must stay on its clock's active list
	// until every one of them has deactivated it.
	activations int

	// next/prevLink form the intrusive, singly-doubly linked active-list
	// node owned by the process's clock (see Clock.activateProcess).
	next     *Process
	prevLink **Process

	stalls uint64

	declaredTraces StorageTraceSet
	currentTrace   StorageTrace
}

// NewProcess creates a process named name, a child of parent, bound to
// clock, running fn each time it is scheduled.
func NewProcess(name string, parent *Object, clock *Clock, fn ProcessFunc) *Process {
	p := &Process{
		Object: parent.NewChild(name),
		clock:  clock,
		fn:     fn,
		state:  StateIdle,
	}
	clock.kernel.registerProcess(p)
	return p
}

// Activate puts the process on its clock's active list for the next cycle
// the clock runs, without waiting for a storage to notify it. Used to kick
// off a process that has no sensitivity of its own (e.g. a generator that
// always has something to do).
func (p *Process) Activate() { p.clock.activateProcess(p) }

// SetStorageTraces declares the set of storage-access traces this process
// is allowed to produce in a single cycle. Declaring traces is optional;
// the trace of a process with no declared set is not checked.
func (p *Process) SetStorageTraces(set StorageTraceSet) { p.declaredTraces = set }

// State returns the process's run state as of the last completed phase.
func (p *Process) State() ProcessState { return p.state }

// Stalls returns the number of times this process's acquire or check phase
// failed.
func (p *Process) Stalls() uint64 { return p.stalls }

// Clock returns the clock this process is bound to.
func (p *Process) Clock() *Clock { return p.clock }

func (p *Process) observeAccess(s Storage) {
	p.currentTrace = p.currentTrace.Append(s)
}

func (p *Process) beginCycle() {
	p.currentTrace = StorageTrace{}
}

// endCycle verifies the trace accumulated this cycle against the declared
// set, called once a process's check phase has succeeded but before its
// commit phase runs, so a violation can still be diagnosed with the state
// that caused it.
func (p *Process) endCycle() error {
	if !p.declaredTraces.Contains(p.currentTrace) {
		return &TraceViolationError{Process: p.Name(), Trace: p.currentTrace}
	}
	return nil
}

// deactivate drops one reference from the process's activation count; once
// it reaches zero the process is unlinked from its clock's active list.
func (p *Process) deactivate() {
	p.activations--
	if p.activations == 0 {
		*p.prevLink = p.next
		if p.next != nil {
			p.next.prevLink = p.prevLink
		}
		p.next = nil
		p.prevLink = nil
		p.state = StateIdle
	}
}
