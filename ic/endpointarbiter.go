package ic

import (
	"fmt"

	"github.com/mgsim-go/simkernel/sim"
)

// EndPointArbiter decorates an [Interconnect] with one arbitrated port per
// receiver instead of a single shared bus port: every sender contends only
// with other senders targeting the same destination. This is the layer
// that turns a [WireNet] into a crossbar.
type EndPointArbiter[P any] struct {
	Interconnect[P]
	*sim.Object

	clock   *sim.Clock
	ports   []*sim.ArbitratedService[*sim.CyclicArbitratedPort]
	senders []*sim.Process
}

// NewEndPointArbiter wraps next with a per-receiver arbitrated port, each
// arbitrated in clock's domain.
func NewEndPointArbiter[P any](name string, parent *sim.Object, clock *sim.Clock, next Interconnect[P]) *EndPointArbiter[P] {
	return &EndPointArbiter[P]{Interconnect: next, Object: parent.NewChild(name), clock: clock}
}

// RegisterReceiver creates rk's dedicated arbitrated port, and opens it to
// every sender connected so far.
func (e *EndPointArbiter[P]) RegisterReceiver(name string, clock *sim.Clock) ReceiverKey {
	rk := e.Interconnect.RegisterReceiver(name, clock)
	port := sim.NewCyclicArbitratedPort(fmt.Sprintf("p_in%d", rk), e.Object, e.clock)
	svc := sim.NewArbitratedService[*sim.CyclicArbitratedPort](port)
	for _, p := range e.senders {
		svc.AddProcess(p)
	}
	e.ports = append(e.ports, svc)
	return rk
}

// ConnectSender opens every existing receiver's port to proc: a sender on
// a crossbar may target any destination, so it must be eligible to
// arbitrate for all of them.
func (e *EndPointArbiter[P]) ConnectSender(sk SenderKey, proc *sim.Process) {
	e.Interconnect.ConnectSender(sk, proc)
	e.senders = append(e.senders, proc)
	for _, svc := range e.ports {
		svc.AddProcess(proc)
	}
}

func (e *EndPointArbiter[P]) SendMessage(ctx *sim.Context, sk SenderKey, dst ReceiverKey, msg *Message[P]) bool {
	if !e.ports[dst].Invoke(ctx) {
		return false
	}
	return e.Interconnect.SendMessage(ctx, sk, dst, msg)
}

// SendBroadcast requires winning every broadcast-enabled destination's
// port before the broadcast reaches the wrapped layer.
func (e *EndPointArbiter[P]) SendBroadcast(ctx *sim.Context, sk SenderKey, msg *Message[P]) bool {
	ok := true
	for rk, svc := range e.ports {
		if !e.Interconnect.IsBroadcastReceiver(ReceiverKey(rk)) {
			continue
		}
		if !svc.Invoke(ctx) {
			ok = false
		}
	}
	if !ok {
		return false
	}
	return e.Interconnect.SendBroadcast(ctx, sk, msg)
}

// SenderClock reports the crossbar's own clock: every sender's traffic
// runs in this domain once wrapped by an EndPointArbiter.
func (e *EndPointArbiter[P]) SenderClock(sk SenderKey) *sim.Clock { return e.clock }
