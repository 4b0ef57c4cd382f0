package sim

// arbitratedPort is the common state behind every concrete arbitration
// policy below: identity, the clock it arbitrates within, the process that
// won the most recent arbitration, and a lifetime busy-cycle counter.
type arbitratedPort struct {
	*Object
	clock      *Clock
	selected   *Process
	busyCycles uint64
}

func newArbitratedPort(name string, parent *Object, clock *Clock) arbitratedPort {
	return arbitratedPort{Object: parent.NewChild(name), clock: clock}
}

// Clock returns the clock domain arbitration is decided in.
func (p *arbitratedPort) Clock() *Clock { return p.clock }

// BusyCycles returns the number of cycles with at least one request.
func (p *arbitratedPort) BusyCycles() uint64 { return p.busyCycles }

// HasAcquired reports whether process won the most recent arbitration.
func (p *arbitratedPort) HasAcquired(process *Process) bool { return p.selected == process }

// SimpleArbitratedPort is the base for port types using a plain list of
// eligible processes. Not intended for direct use: see
// [PriorityArbitratedPort] and [CyclicArbitratedPort].
type SimpleArbitratedPort struct {
	arbitratedPort
	processes []*Process
	requests  []*Process
}

func newSimpleArbitratedPort(name string, parent *Object, clock *Clock) SimpleArbitratedPort {
	return SimpleArbitratedPort{arbitratedPort: newArbitratedPort(name, parent, clock)}
}

// AddProcess registers a process that may access the port. For
// [PriorityArbitratedPort] and [CyclicArbitratedPort] this registration
// order is itself the priority / round-robin order.
func (p *SimpleArbitratedPort) AddProcess(process *Process) {
	p.processes = append(p.processes, process)
}

// CanAccess reports whether process was registered with AddProcess.
func (p *SimpleArbitratedPort) CanAccess(process *Process) bool {
	return indexOfProcess(p.processes, process) >= 0
}

// AddRequest records process as a candidate for this cycle's arbitration.
// A process requesting twice in one cycle is only legitimate when it runs
// in a faster clock domain than the arbitrator; either way, it is only
// ever counted once.
func (p *SimpleArbitratedPort) AddRequest(process *Process) {
	if indexOfProcess(p.requests, process) >= 0 {
		return
	}
	p.requests = append(p.requests, process)
}

func indexOfProcess(list []*Process, process *Process) int {
	for i, q := range list {
		if q == process {
			return i
		}
	}
	return -1
}

// PriorityArbitratedPort grants the port to the requesting process that was
// registered earliest (lowest index in the AddProcess order).
type PriorityArbitratedPort struct {
	SimpleArbitratedPort
}

// NewPriorityArbitratedPort creates a priority-ordered arbitrated port.
func NewPriorityArbitratedPort(name string, parent *Object, clock *Clock) *PriorityArbitratedPort {
	return &PriorityArbitratedPort{SimpleArbitratedPort: newSimpleArbitratedPort(name, parent, clock)}
}

// Arbitrate decides which requesting process acquires the port this cycle.
func (p *PriorityArbitratedPort) Arbitrate() {
	p.selected = nil
	if len(p.requests) == 0 {
		return
	}
	if len(p.requests) == 1 {
		p.selected = p.requests[0]
	} else {
		highest := len(p.processes)
		for _, cand := range p.requests {
			if prio := indexOfProcess(p.processes, cand); prio >= 0 && prio < highest {
				highest = prio
				p.selected = cand
			}
		}
	}
	p.requests = p.requests[:0]
	p.busyCycles++
}

// CyclicArbitratedPort grants the port in round-robin order among
// registered processes.
type CyclicArbitratedPort struct {
	SimpleArbitratedPort
	lastSelected int
}

// NewCyclicArbitratedPort creates a round-robin arbitrated port.
func NewCyclicArbitratedPort(name string, parent *Object, clock *Clock) *CyclicArbitratedPort {
	return &CyclicArbitratedPort{SimpleArbitratedPort: newSimpleArbitratedPort(name, parent, clock)}
}

// Arbitrate decides which requesting process acquires the port this cycle.
func (p *CyclicArbitratedPort) Arbitrate() {
	p.selected = nil
	if len(p.requests) == 0 {
		return
	}
	n := len(p.processes)
	if len(p.requests) == 1 {
		p.selected = p.requests[0]
		p.lastSelected = indexOfProcess(p.processes, p.selected)
	} else {
		lowest := n + 1
		for _, cand := range p.requests {
			pos := indexOfProcess(p.processes, cand)
			dist := (pos + n - p.lastSelected) % n
			if dist != 0 && dist < lowest {
				lowest = dist
				p.selected = cand
			}
		}
		p.lastSelected = (p.lastSelected + lowest) % n
	}
	p.requests = p.requests[:0]
	p.busyCycles++
}

// PriorityCyclicArbitratedPort has two tiers of processes: a priority tier
// (always wins over the cyclic tier, ordered by registration like
// [PriorityArbitratedPort]) and a cyclic tier arbitrated round-robin among
// itself like [CyclicArbitratedPort].
type PriorityCyclicArbitratedPort struct {
	CyclicArbitratedPort
	cyclicProcesses []*Process
}

// NewPriorityCyclicArbitratedPort creates a two-tier arbitrated port.
func NewPriorityCyclicArbitratedPort(name string, parent *Object, clock *Clock) *PriorityCyclicArbitratedPort {
	return &PriorityCyclicArbitratedPort{CyclicArbitratedPort: *NewCyclicArbitratedPort(name, parent, clock)}
}

// AddPriorityProcess registers process in the (higher) priority tier. Use
// this instead of the promoted AddProcess.
func (p *PriorityCyclicArbitratedPort) AddPriorityProcess(process *Process) {
	p.SimpleArbitratedPort.AddProcess(process)
}

// AddCyclicProcess registers process in the (lower) round-robin tier.
func (p *PriorityCyclicArbitratedPort) AddCyclicProcess(process *Process) {
	p.cyclicProcesses = append(p.cyclicProcesses, process)
}

// CanAccess reports whether process was registered in either tier.
func (p *PriorityCyclicArbitratedPort) CanAccess(process *Process) bool {
	return p.SimpleArbitratedPort.CanAccess(process) || indexOfProcess(p.cyclicProcesses, process) >= 0
}

// Arbitrate decides which requesting process acquires the port this cycle.
// Any requesting priority-tier process beats every cyclic-tier process.
func (p *PriorityCyclicArbitratedPort) Arbitrate() {
	p.selected = nil
	if len(p.requests) == 0 {
		return
	}

	if len(p.requests) == 1 {
		p.selected = p.requests[0]
		if pos := indexOfProcess(p.cyclicProcesses, p.selected); pos >= 0 {
			p.lastSelected = pos
		}
	} else {
		highest := len(p.processes)
		for _, cand := range p.requests {
			if prio := indexOfProcess(p.processes, cand); prio >= 0 && prio < highest {
				highest = prio
				p.selected = cand
			}
		}

		if p.selected == nil {
			n := len(p.cyclicProcesses)
			lowest := n + 1
			for _, cand := range p.requests {
				pos := indexOfProcess(p.cyclicProcesses, cand)
				dist := (pos + n - p.lastSelected) % n
				if dist != 0 && dist < lowest {
					lowest = dist
					p.selected = cand
				}
			}
			p.lastSelected = (p.lastSelected + lowest) % n
		}
	}

	p.requests = p.requests[:0]
	p.busyCycles++
}

// arbitratedPortPolicy is implemented by every port type above; it is the
// constraint [ArbitratedService] is generic over.
type arbitratedPortPolicy interface {
	Clock() *Clock
	Arbitrate()
	AddProcess(process *Process)
	CanAccess(process *Process) bool
	AddRequest(process *Process)
	HasAcquired(process *Process) bool
}

// ArbitratedService arbitrates access to a single feature of a component
// (or group of components) that has no associated read/write structure of
// its own, using the tie-break policy P.
type ArbitratedService[P arbitratedPortPolicy] struct {
	port      P
	requested bool
}

// NewArbitratedService wraps an already-constructed port policy (e.g. the
// result of [NewPriorityArbitratedPort]) as an [Arbitrator].
func NewArbitratedService[P arbitratedPortPolicy](port P) *ArbitratedService[P] {
	return &ArbitratedService[P]{port: port}
}

func (s *ArbitratedService[P]) onArbitrate(ctx *Context) { s.port.Arbitrate() }
func (s *ArbitratedService[P]) deactivateArbitration()   { s.requested = false }

// AddProcess registers process as eligible to use the service, forwarding
// to the underlying port.
func (s *ArbitratedService[P]) AddProcess(process *Process) { s.port.AddProcess(process) }

// Clock returns the clock domain the underlying port arbitrates within.
func (s *ArbitratedService[P]) Clock() *Clock { return s.port.Clock() }

func (s *ArbitratedService[P]) requestArbitration() {
	if !s.requested {
		s.requested = true
		s.port.Clock().activateArbitrator(s)
	}
}

// Invoke requests access to the service. During acquire it always returns
// true, having registered the request; during check and commit it reports
// whether ctx's process actually won arbitration.
func (s *ArbitratedService[P]) Invoke(ctx *Context) bool {
	process := ctx.process
	if !s.port.CanAccess(process) {
		panic("sim: process not registered with arbitrated service")
	}
	if ctx.phase == PhaseAcquire {
		s.port.AddRequest(process)
		s.requestArbitration()
		return true
	}
	return s.port.HasAcquired(process)
}
