package sim

// WritePort tracks, for a single cycle, the index a write request targets
// and whether arbitration (at either the process level or the index level)
// chose this port. Embedded by [ArbitratedWritePort] and
// [DedicatedWritePort]; not useful on its own.
type WritePort[I comparable] struct {
	idx    I
	valid  bool
	chosen bool
}

func (w *WritePort[I]) setRequestIndex(index I) {
	w.idx = index
	w.valid = true
	w.chosen = false
}

func (w *WritePort[I]) getIndex() (I, bool) { return w.idx, w.valid }

func (w *WritePort[I]) setChosen(chosen bool) {
	w.chosen = chosen
	w.valid = false
}

// IsChosen reports whether this port was selected by index-level
// arbitration this cycle.
func (w *WritePort[I]) IsChosen() bool { return w.chosen }

// writePort is the bookkeeping interface [ReadWriteStructure] needs from
// any of its registered write ports, satisfied by [ArbitratedWritePort]
// and [DedicatedWritePort] via their embedded [WritePort].
type writePort[I comparable] interface {
	getIndex() (I, bool)
	setChosen(chosen bool)
}

// readStructure is implemented by anything an [ArbitratedReadPort] or
// [DedicatedReadPort] can be registered against: [ReadOnlyStructure] and
// [ReadWriteStructure].
type readStructure interface {
	requestArbitration()
	registerReadPort(p *ArbitratedReadPort)
}

// ReadOnlyStructure is a shared structure with zero or more read ports,
// each of which may be shared by multiple client processes. Arbitration
// between simultaneous readers is decided once per cycle, in the
// structure's own clock domain.
type ReadOnlyStructure struct {
	arbitratorBase
	readPorts []*ArbitratedReadPort
}

// NewReadOnlyStructure creates a read-arbitrated structure named name, a
// child of parent, governed by clock.
func NewReadOnlyStructure(name string, parent *Object, clock *Clock) *ReadOnlyStructure {
	return &ReadOnlyStructure{arbitratorBase: newArbitratorBase(name, parent, clock)}
}

func (s *ReadOnlyStructure) registerReadPort(p *ArbitratedReadPort) {
	s.readPorts = append(s.readPorts, p)
}

func (s *ReadOnlyStructure) requestArbitration() { s.arbitratorBase.requestArbitration(s) }

func (s *ReadOnlyStructure) arbitrateReadPorts() {
	for _, p := range s.readPorts {
		p.Arbitrate()
	}
}

func (s *ReadOnlyStructure) onArbitrate(ctx *Context) { s.arbitrateReadPorts() }

// ArbitratedReadPort is a priority-arbitrated port onto a [readStructure].
// Multiple processes may share one port; only one reads per cycle.
type ArbitratedReadPort struct {
	PriorityArbitratedPort
	structure readStructure
}

// NewArbitratedReadPort creates a read port named name on structure.
func NewArbitratedReadPort(structure readStructure, name string, parent *Object, clock *Clock) *ArbitratedReadPort {
	p := &ArbitratedReadPort{
		PriorityArbitratedPort: *NewPriorityArbitratedPort(name, parent, clock),
		structure:              structure,
	}
	structure.registerReadPort(p)
	return p
}

// Read requests access to the structure for reading. During acquire this
// always returns true, having registered the request; during check and
// commit it reports whether ctx's process won arbitration.
func (p *ArbitratedReadPort) Read(ctx *Context) bool {
	process := ctx.process
	if !p.CanAccess(process) {
		panic("sim: process not registered with arbitrated read port")
	}
	if ctx.phase == PhaseAcquire {
		p.AddRequest(process)
		p.structure.requestArbitration()
		return true
	}
	return p.HasAcquired(process)
}

// ReadWriteStructure is a shared structure with zero or more read or write
// ports, each of which may be shared by multiple client processes.
// Simultaneous writes to distinct indices are fine; writes contending for
// the same index are resolved by priority order (see [ReadWriteStructure.AddPort]).
type ReadWriteStructure[I comparable] struct {
	arbitratorBase
	readPorts            []*ArbitratedReadPort
	writePorts           []writePort[I]
	arbitratedWritePorts []*ArbitratedWritePort[I]
	priorities           []writePort[I]
}

// NewReadWriteStructure creates a read/write-arbitrated structure named
// name, a child of parent, governed by clock.
func NewReadWriteStructure[I comparable](name string, parent *Object, clock *Clock) *ReadWriteStructure[I] {
	return &ReadWriteStructure[I]{arbitratorBase: newArbitratorBase(name, parent, clock)}
}

func (s *ReadWriteStructure[I]) registerReadPort(p *ArbitratedReadPort) {
	s.readPorts = append(s.readPorts, p)
}

func (s *ReadWriteStructure[I]) requestArbitration() { s.arbitratorBase.requestArbitration(s) }

func (s *ReadWriteStructure[I]) registerWritePort(p writePort[I]) {
	s.writePorts = append(s.writePorts, p)
}

func (s *ReadWriteStructure[I]) registerArbitratedWritePort(p *ArbitratedWritePort[I]) {
	s.registerWritePort(p)
	s.arbitratedWritePorts = append(s.arbitratedWritePorts, p)
}

// AddPort sets port's priority for index-level write arbitration: ports
// added earlier win ties over ports added later. port must already be
// registered (by constructing an [ArbitratedWritePort] or
// [DedicatedWritePort] against this structure).
func (s *ReadWriteStructure[I]) AddPort(port writePort[I]) {
	s.priorities = append(s.priorities, port)
}

func (s *ReadWriteStructure[I]) priorityOf(port writePort[I]) int {
	for i, p := range s.priorities {
		if p == port {
			return i
		}
	}
	return -1
}

func (s *ReadWriteStructure[I]) onArbitrate(ctx *Context) {
	for _, p := range s.readPorts {
		p.Arbitrate()
	}
	for _, p := range s.arbitratedWritePorts {
		p.arbitrate()
	}

	type request struct {
		index I
		ports []writePort[I]
	}
	var requests []request
	for _, p := range s.writePorts {
		idx, ok := p.getIndex()
		if !ok {
			continue
		}
		found := false
		for i := range requests {
			if requests[i].index == idx {
				requests[i].ports = append(requests[i].ports, p)
				found = true
				break
			}
		}
		if !found {
			requests = append(requests, request{index: idx, ports: []writePort[I]{p}})
		}
	}

	for _, req := range requests {
		var selected writePort[I]
		min := len(s.priorities) + 1
		for _, p := range req.ports {
			if prio := s.priorityOf(p); prio >= 0 && prio < min {
				min = prio
				selected = p
			}
		}
		for _, p := range req.ports {
			p.setChosen(p == selected)
		}
	}
}

// ArbitratedWritePort is a priority-arbitrated write port onto a
// [ReadWriteStructure]: processes first arbitrate for the port itself, then
// the winners across every port arbitrate again for the index they target.
type ArbitratedWritePort[I comparable] struct {
	PriorityArbitratedPort
	WritePort[I]
	structure *ReadWriteStructure[I]
	indices   map[*Process]I
}

// NewArbitratedWritePort creates a write port named name on structure.
func NewArbitratedWritePort[I comparable](structure *ReadWriteStructure[I], name string, parent *Object, clock *Clock) *ArbitratedWritePort[I] {
	p := &ArbitratedWritePort[I]{
		PriorityArbitratedPort: *NewPriorityArbitratedPort(name, parent, clock),
		structure:              structure,
		indices:                make(map[*Process]I),
	}
	structure.registerArbitratedWritePort(p)
	return p
}

func (p *ArbitratedWritePort[I]) arbitrate() {
	p.PriorityArbitratedPort.Arbitrate()
	if process := p.selected; process != nil {
		if idx, ok := p.indices[process]; ok {
			p.setRequestIndex(idx)
		}
	}
}

// Write requests access to the structure to write index. During acquire
// this always returns true, having registered the request; during check
// and commit it reports whether ctx's process won both the port-level and
// index-level arbitration.
func (p *ArbitratedWritePort[I]) Write(ctx *Context, index I) bool {
	process := ctx.process
	if !p.CanAccess(process) {
		panic("sim: process not registered with arbitrated write port")
	}
	if ctx.phase == PhaseAcquire {
		p.AddRequest(process)
		p.indices[process] = index
		p.structure.requestArbitration()
		return true
	}
	return p.IsChosen() && p.HasAcquired(process)
}

// dedicatedPort is a port bound to exactly one process, requiring no
// process-level arbitration: only index-level contention (for
// [DedicatedWritePort]) remains.
type dedicatedPort struct {
	process *Process
}

// SetProcess associates this port with the only process allowed to use it.
func (d *dedicatedPort) SetProcess(process *Process) { d.process = process }

func (d *dedicatedPort) canAccess(process *Process) bool { return d.process == process }

// DedicatedReadPort is a single-process port onto a [readStructure] that
// needs no arbitration of its own.
type DedicatedReadPort struct {
	dedicatedPort
}

// NewDedicatedReadPort creates a dedicated read port. structure is
// accepted for symmetry with [NewArbitratedReadPort] and future structural
// bookkeeping, but a dedicated port never contends for the structure.
func NewDedicatedReadPort(structure readStructure) *DedicatedReadPort {
	return &DedicatedReadPort{}
}

// Read requests access to the structure for reading; always succeeds.
func (p *DedicatedReadPort) Read(ctx *Context) bool {
	if !p.canAccess(ctx.process) {
		panic("sim: process not associated with dedicated read port")
	}
	return true
}

// DedicatedWritePort is a single-process write port onto a
// [ReadWriteStructure]. No process-level arbitration is needed, but the
// index it targets still participates in index-level arbitration against
// other write ports on the same structure.
type DedicatedWritePort[I comparable] struct {
	dedicatedPort
	WritePort[I]
	structure *ReadWriteStructure[I]
}

// NewDedicatedWritePort creates a dedicated write port on structure.
func NewDedicatedWritePort[I comparable](structure *ReadWriteStructure[I]) *DedicatedWritePort[I] {
	p := &DedicatedWritePort[I]{structure: structure}
	structure.registerWritePort(p)
	return p
}

// Write requests access to the structure to write index. During acquire
// this always returns true, having registered the request; during check
// and commit it reports whether this port won index-level arbitration.
func (p *DedicatedWritePort[I]) Write(ctx *Context, index I) bool {
	if !p.canAccess(ctx.process) {
		panic("sim: process not associated with dedicated write port")
	}
	if ctx.phase == PhaseAcquire {
		p.setRequestIndex(index)
		p.structure.requestArbitration()
		return true
	}
	return p.IsChosen()
}
