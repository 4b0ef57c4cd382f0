package ic

import "github.com/mgsim-go/simkernel/sim"

// SharedMedium decorates an [Interconnect] with a single arbitrated bus
// port: every connected sender contends for the same port once per cycle,
// so at most one message (or broadcast) moves through the wrapped layer
// per cycle. This is the layer that turns a [WireNet] into a bus.
type SharedMedium[P any] struct {
	Interconnect[P]
	*sim.Object

	clock *sim.Clock
	bus   *sim.ArbitratedService[*sim.CyclicArbitratedPort]
}

// NewSharedMedium wraps next with a shared bus arbitrated in clock's
// domain.
func NewSharedMedium[P any](name string, parent *sim.Object, clock *sim.Clock, next Interconnect[P]) *SharedMedium[P] {
	obj := parent.NewChild(name)
	port := sim.NewCyclicArbitratedPort("p_bus", obj, clock)
	return &SharedMedium[P]{
		Interconnect: next,
		Object:       obj,
		clock:        clock,
		bus:          sim.NewArbitratedService[*sim.CyclicArbitratedPort](port),
	}
}

// ConnectSender additionally registers proc as eligible to arbitrate for
// the bus.
func (s *SharedMedium[P]) ConnectSender(sk SenderKey, proc *sim.Process) {
	s.Interconnect.ConnectSender(sk, proc)
	s.bus.AddProcess(proc)
}

// SendMessage requires winning the bus before the message reaches the
// wrapped layer.
func (s *SharedMedium[P]) SendMessage(ctx *sim.Context, sk SenderKey, dst ReceiverKey, msg *Message[P]) bool {
	if !s.bus.Invoke(ctx) {
		return false
	}
	return s.Interconnect.SendMessage(ctx, sk, dst, msg)
}

// SendBroadcast requires winning the bus before the broadcast reaches the
// wrapped layer.
func (s *SharedMedium[P]) SendBroadcast(ctx *sim.Context, sk SenderKey, msg *Message[P]) bool {
	if !s.bus.Invoke(ctx) {
		return false
	}
	return s.Interconnect.SendBroadcast(ctx, sk, msg)
}

// SenderClock reports the bus's own clock: every sender's traffic runs in
// this domain once wrapped by a SharedMedium.
func (s *SharedMedium[P]) SenderClock(sk SenderKey) *sim.Clock { return s.clock }
