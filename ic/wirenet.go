package ic

import "github.com/mgsim-go/simkernel/sim"

type receiverEndpoint[P any] struct {
	deliver          ReceiverCallback[P]
	register         RegisterCallback
	traces           TracesCallback
	broadcastEnabled bool
}

type senderEndpoint struct {
	clock *sim.Clock
	proc  *sim.Process
}

// WireNet is the base interconnect layer: direct, synchronous dispatch
// from a sender to a receiver (or, for a broadcast, to every
// broadcast-enabled receiver), with no arbitration or buffering of its
// own. Every other layer in this package decorates a WireNet (or another
// decorator wrapping one).
type WireNet[P any] struct {
	*sim.Object

	receivers []receiverEndpoint[P]
	senders   []senderEndpoint
}

// NewWireNet creates a wire net named name, a child of parent.
func NewWireNet[P any](name string, parent *sim.Object) *WireNet[P] {
	return &WireNet[P]{Object: parent.NewChild(name)}
}

func (w *WireNet[P]) RegisterSender(name string, clock *sim.Clock) SenderKey {
	sk := SenderKey(len(w.senders))
	w.senders = append(w.senders, senderEndpoint{clock: clock})
	return sk
}

func (w *WireNet[P]) RegisterReceiver(name string, clock *sim.Clock) ReceiverKey {
	rk := ReceiverKey(len(w.receivers))
	w.receivers = append(w.receivers, receiverEndpoint[P]{})
	return rk
}

func (w *WireNet[P]) ConnectSender(sk SenderKey, proc *sim.Process) {
	w.senders[sk].proc = proc
}

func (w *WireNet[P]) ConnectReceiver(rk ReceiverKey, deliver ReceiverCallback[P], register RegisterCallback, traces TracesCallback, broadcastEnabled bool) {
	w.receivers[rk] = receiverEndpoint[P]{deliver: deliver, register: register, traces: traces, broadcastEnabled: broadcastEnabled}
}

func (w *WireNet[P]) SendMessage(ctx *sim.Context, sk SenderKey, dst ReceiverKey, msg *Message[P]) bool {
	return w.receivers[dst].deliver(ctx, msg)
}

func (w *WireNet[P]) SendBroadcast(ctx *sim.Context, sk SenderKey, msg *Message[P]) bool {
	ok := true
	delivered := false
	for _, r := range w.receivers {
		if !r.broadcastEnabled {
			continue
		}
		if !r.deliver(ctx, msg.Dup()) {
			ok = false
		}
		delivered = true
	}
	if ctx.Phase() == sim.PhaseCommit && delivered {
		msg.Free()
	}
	return ok
}

func (w *WireNet[P]) SenderClock(sk SenderKey) *sim.Clock { return w.senders[sk].clock }

func (w *WireNet[P]) RequestTraces(sk SenderKey) sim.StorageTraceSet { return sim.StorageTraceSet{} }

func (w *WireNet[P]) ReceiverTraces(rk ReceiverKey) sim.StorageTraceSet {
	if t := w.receivers[rk].traces; t != nil {
		return t()
	}
	return sim.StorageTraceSet{}
}

func (w *WireNet[P]) IsBroadcastReceiver(rk ReceiverKey) bool { return w.receivers[rk].broadcastEnabled }

func (w *WireNet[P]) AllTraces() sim.StorageTraceSet {
	var out sim.StorageTraceSet
	for _, r := range w.receivers {
		if r.traces != nil {
			out = out.Union(r.traces())
		}
	}
	return out
}

// Initialize tells every receiver's register callback about every sender
// process, now that the whole topology has been declared. Senders and
// receivers may be registered and connected in any order; this is the one
// point where the graph is assumed complete.
func (w *WireNet[P]) Initialize() {
	for _, s := range w.senders {
		if s.proc == nil {
			continue
		}
		for _, r := range w.receivers {
			if r.register != nil {
				r.register(s.proc)
			}
		}
	}
}
