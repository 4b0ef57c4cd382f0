package ic

import "github.com/mgsim-go/simkernel/sim"

// EndPointRegistry decorates an [Interconnect] purely for inspection: it
// remembers the human-readable name each sender and receiver was
// registered with, for diagnostics and introspection, and otherwise
// delegates everything unchanged. This is always the outermost layer in
// the standard compositions ([NewUnbufferedBus], [NewBufferedBus],
// [NewUnbufferedCrossbar], [NewBufferedCrossbar]).
type EndPointRegistry[P any] struct {
	Interconnect[P]

	senderNames   []string
	receiverNames []string
}

// NewEndPointRegistry wraps next with name tracking.
func NewEndPointRegistry[P any](next Interconnect[P]) *EndPointRegistry[P] {
	return &EndPointRegistry[P]{Interconnect: next}
}

func (r *EndPointRegistry[P]) RegisterSender(name string, clock *sim.Clock) SenderKey {
	sk := r.Interconnect.RegisterSender(name, clock)
	for int(sk) >= len(r.senderNames) {
		r.senderNames = append(r.senderNames, "")
	}
	r.senderNames[sk] = name
	return sk
}

func (r *EndPointRegistry[P]) RegisterReceiver(name string, clock *sim.Clock) ReceiverKey {
	rk := r.Interconnect.RegisterReceiver(name, clock)
	for int(rk) >= len(r.receiverNames) {
		r.receiverNames = append(r.receiverNames, "")
	}
	r.receiverNames[rk] = name
	return rk
}

// SenderName returns the name sk was registered with.
func (r *EndPointRegistry[P]) SenderName(sk SenderKey) string { return r.senderNames[sk] }

// ReceiverName returns the name rk was registered with.
func (r *EndPointRegistry[P]) ReceiverName(rk ReceiverKey) string { return r.receiverNames[rk] }
