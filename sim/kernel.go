package sim

import "fmt"

// RunState reports how a [Kernel.Step] call ended.
type RunState int

const (
	// RunIdle means there was nothing left scheduled: every clock's active
	// lists were empty and no process, storage or arbitrator requested
	// further activation. This is the normal way a simulation ends.
	RunIdle RunState = iota
	// RunStepped means Step ran the requested number of cycles and the
	// simulation could still make progress.
	RunStepped
	// RunStopped means [Kernel.Stop] was called; the kernel finished the
	// cycle it was in the middle of and returned without advancing further.
	RunStopped
	// RunAborted means [Kernel.Abort] was called and the kernel returned
	// immediately at the next cycle boundary. Step also returns it
	// alongside every non-nil error it returns.
	RunAborted
)

// String implements fmt.Stringer.
func (s RunState) String() string {
	switch s {
	case RunIdle:
		return "idle"
	case RunStepped:
		return "stepped"
	case RunStopped:
		return "stopped"
	case RunAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Kernel owns every [Clock] domain in a simulation and drives them forward
// one master cycle at a time. A zero Kernel is not usable; construct one
// with [NewKernel].
type Kernel struct {
	cycle      CycleNo
	phase      Phase
	masterFreq uint64

	clocks       []*Clock
	processes    []*Process
	activeClocks *Clock // singly linked list, ordered by ascending nextTick

	flags  runFlags
	logger *Logger
}

// NewKernel constructs an idle kernel. Its rest phase is commit, matching
// the phase a freshly constructed kernel would report if queried before any
// cycle has run.
func NewKernel(opts ...KernelOption) *Kernel {
	cfg := resolveKernelOptions(opts)
	return &Kernel{
		phase:  PhaseCommit,
		logger: cfg.logger,
	}
}

// Logger returns the kernel's diagnostic logger. Never nil.
func (k *Kernel) Logger() *Logger { return k.logger }

// CycleNo returns the current master cycle number.
func (k *Kernel) CycleNo() CycleNo { return k.cycle }

// MasterFrequency returns the LCM of every created clock's frequency: the
// rate at which the master cycle counter itself would need to run for
// every clock to tick on an integer boundary.
func (k *Kernel) MasterFrequency() uint64 { return k.masterFreq }

// Abort requests that Step return at the next cycle boundary, leaving
// whatever was already committed in place. Safe to call from any
// goroutine, e.g. a signal handler.
func (k *Kernel) Abort() { k.flags.Abort() }

// Stop requests a graceful halt: Step finishes the round it is currently
// processing and then returns RunStopped.
func (k *Kernel) Stop() { k.flags.Stop() }

// CreateClock registers a new clock domain ticking at frequency units. The
// kernel's master frequency (and therefore every existing clock's period)
// is recomputed as the LCM of all clock frequencies, so that every clock's
// period remains an integer number of master cycles.
func (k *Kernel) CreateClock(frequency uint64) (*Clock, error) {
	if frequency == 0 {
		return nil, &ConfigError{Component: "clock", Message: "frequency must be non-zero"}
	}
	c := &Clock{kernel: k, frequency: frequency}
	k.clocks = append(k.clocks, c)
	k.recomputePeriods()
	return c, nil
}

func (k *Kernel) recomputePeriods() {
	master := k.clocks[0].frequency
	for _, c := range k.clocks[1:] {
		master = lcm(master, c.frequency)
	}
	k.masterFreq = master
	for _, c := range k.clocks {
		c.period = master / c.frequency
	}
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b uint64) uint64 {
	return a / gcd(a, b) * b
}

func (k *Kernel) registerProcess(p *Process) {
	k.processes = append(k.processes, p)
}

// activateClock links c into the ordered active-clock list, keyed by
// c.nextTick. A clock already linked (or currently mid-round, see Step) is
// left alone: requesting activation more than once per cycle is a no-op,
// matching the idempotence of Process/Storage/Arbitrator activation. Every
// transition into the queue recomputes c.nextTick as the next multiple of
// c.period strictly greater than the kernel's current cycle, so a clock
// that had gone idle and is woken by a later activation is scheduled
// forward from "now", never reinserted at a stale tick that could rewind
// k.cycle.
func (k *Kernel) activateClock(c *Clock) {
	if c.inQueue {
		return
	}
	c.inQueue = true
	c.nextTick = CycleNo(uint64(k.cycle)/c.period*c.period + c.period)
	if k.activeClocks == nil || c.nextTick < k.activeClocks.nextTick {
		c.next = k.activeClocks
		k.activeClocks = c
		return
	}
	p := k.activeClocks
	for p.next != nil && p.next.nextTick <= c.nextTick {
		p = p.next
	}
	c.next = p.next
	p.next = c
}

// popDueClocks removes every clock at the front of the active-clock list
// sharing the earliest scheduled tick, and returns that tick along with the
// clocks due at it. The returned clocks are left with inQueue still true:
// they are considered "owned" by the current round of processing until
// Step explicitly releases and reschedules them.
func (k *Kernel) popDueClocks() (CycleNo, []*Clock) {
	if k.activeClocks == nil {
		return 0, nil
	}
	due := k.activeClocks.nextTick
	var clocks []*Clock
	for k.activeClocks != nil && k.activeClocks.nextTick == due {
		c := k.activeClocks
		k.activeClocks = c.next
		c.next = nil
		clocks = append(clocks, c)
	}
	return due, clocks
}

func (k *Kernel) invoke(ctx *Context, p *Process) (Result, error) {
	res, err := p.fn(ctx)
	if err != nil {
		return res, addDetail(err, fmt.Sprintf("cycle %d, process %s, phase %s", k.cycle, p.Name(), ctx.phase))
	}
	if res == Delayed {
		// A process in the active list has already committed to running
		// this cycle; Delayed is only meaningful before that commitment is
		// made (see the Delayed doc comment), so this means a process
		// callback is broken, not a recoverable simulation condition.
		panic(fmt.Sprintf("sim: process %s returned Delayed while active (cycle %d, phase %s)", p.Name(), k.cycle, ctx.phase))
	}
	return res, nil
}

// Step runs the simulation forward, processing whole master cycles until
// cycles have elapsed, the kernel runs out of scheduled work, or it is
// stopped or aborted. Pass [InfiniteCycles] to run until idle.
func (k *Kernel) Step(cycles CycleNo) (RunState, error) {
	var ran CycleNo
	for cycles == InfiniteCycles || ran < cycles {
		if k.flags.isAborted() {
			return RunAborted, nil
		}
		if k.activeClocks == nil {
			return RunIdle, nil
		}
		if k.flags.isStopped() {
			return RunStopped, nil
		}

		cycle, due := k.popDueClocks()
		k.cycle = cycle

		type pstate struct {
			p          *Process
			deadlocked bool
		}
		var procs []pstate
		for _, c := range due {
			for p := c.activeProcesses; p != nil; p = p.next {
				p.beginCycle()
				procs = append(procs, pstate{p: p})
			}
		}

		// acquire
		ctx := &Context{kernel: k, phase: PhaseAcquire}
		for i := range procs {
			ps := &procs[i]
			ctx.clock = ps.p.clock
			ctx.process = ps.p
			res, err := k.invoke(ctx, ps.p)
			if err != nil {
				return RunAborted, err
			}
			if res == Failed {
				ps.deadlocked = true
				ps.p.state = StateDeadlocked
				ps.p.stalls++
			}
		}

		// arbitrate: kernel-internal, not visible to process callbacks.
		ctx.phase = PhaseArbitrate
		ctx.process = nil
		for _, c := range due {
			arbitrators := c.activeArbitrators
			c.activeArbitrators = nil
			ctx.clock = c
			for _, a := range arbitrators {
				a.onArbitrate(ctx)
				a.deactivateArbitration()
			}
		}

		// check + commit, interleaved per process so nothing can invalidate
		// a process's check between it and its own commit.
		anyRunning := false
		var stalled []string
		for i := range procs {
			ps := &procs[i]
			if ps.deadlocked {
				stalled = append(stalled, ps.p.Name())
				continue
			}
			ctx.clock = ps.p.clock
			ctx.process = ps.p
			ctx.phase = PhaseCheck
			res, err := k.invoke(ctx, ps.p)
			if err != nil {
				return RunAborted, err
			}
			if res == Failed {
				ps.p.state = StateDeadlocked
				ps.p.stalls++
				stalled = append(stalled, ps.p.Name())
				continue
			}
			if err := ps.p.endCycle(); err != nil {
				return RunAborted, err
			}
			ctx.phase = PhaseCommit
			res, err = k.invoke(ctx, ps.p)
			if err != nil {
				return RunAborted, err
			}
			if res != Success {
				// A process that passed check is guaranteed to succeed at
				// commit: nothing can invalidate it between its own check
				// and its own commit (they run back-to-back). Reaching
				// here means a process callback is broken, not that the
				// simulation hit a recoverable condition.
				panic(fmt.Sprintf("sim: process %s succeeded at check but failed at commit (cycle %d)", ps.p.Name(), k.cycle))
			}
			ps.p.state = StateRunning
			anyRunning = true
		}

		// update storages: apply every staged write, before time advances.
		ctx.phase = PhaseCommit
		ctx.process = nil
		storageUpdated := false
		for _, c := range due {
			storages := c.activeStorages
			c.activeStorages = nil
			ctx.clock = c
			for _, s := range storages {
				s.update(k)
				storageUpdated = true
			}
		}

		if !anyRunning && !storageUpdated && len(procs) > 0 && k.activeClocks == nil {
			return RunAborted, &DeadlockError{Cycle: k.cycle, Stalled: stalled}
		}

		// release and, if there's still work, reschedule each due clock.
		// activateClock recomputes nextTick from the current (just-ran)
		// cycle, so this lands on the same next tick as before.
		for _, c := range due {
			c.inQueue = false
			if c.activeProcesses != nil {
				k.activateClock(c)
			}
		}

		ran++
	}
	return RunStepped, nil
}
