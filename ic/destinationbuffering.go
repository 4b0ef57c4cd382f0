package ic

import (
	"fmt"

	"github.com/mgsim-go/simkernel/sim"
)

type destEndpoint[P any] struct {
	consumerClock *sim.Clock
	buffer        *sim.Buffer[*Message[P]]
	drain         *sim.Process
	deliver       ReceiverCallback[P]
	traces        TracesCallback
}

// DestinationBuffering decorates an [Interconnect] so that every receiver
// gets its own FIFO and drain process: an arriving message is pushed onto
// the receiver's buffer (in whatever clock domain the wrapped layer
// delivers in) and a per-receiver drain process, running in the clock the
// receiver was registered with, calls the client's real delivery callback
// one message at a time.
//
// This is the counterpart to [SourceBuffering] on the receiving side,
// letting a consumer live in its own clock domain independent of the
// interconnect feeding it.
type DestinationBuffering[P any] struct {
	Interconnect[P]
	*sim.Object

	bufferSize sim.BufferSize
	endpoints  []destEndpoint[P]
}

// NewDestinationBuffering wraps next with per-receiver buffering, each
// buffer holding at most bufferSize queued messages.
func NewDestinationBuffering[P any](name string, parent *sim.Object, bufferSize sim.BufferSize, next Interconnect[P]) *DestinationBuffering[P] {
	return &DestinationBuffering[P]{Interconnect: next, Object: parent.NewChild(name), bufferSize: bufferSize}
}

// RegisterReceiver creates rk's buffer and drain process, the latter
// running in clock's domain: this is the clock the client's own delivery
// callback effectively executes in, however fast messages actually arrive.
func (d *DestinationBuffering[P]) RegisterReceiver(name string, clock *sim.Clock) ReceiverKey {
	rk := d.Interconnect.RegisterReceiver(name, clock)
	for int(rk) >= len(d.endpoints) {
		d.endpoints = append(d.endpoints, destEndpoint[P]{})
	}
	e := &d.endpoints[rk]
	e.consumerClock = clock
	e.buffer = sim.NewBuffer[*Message[P]](fmt.Sprintf("out%d.b_buffer", rk), d.Object, clock, d.bufferSize, 1)
	e.drain = sim.NewProcess(fmt.Sprintf("out%d.p_drain", rk), d.Object, clock, d.doDrain(rk))
	if err := e.buffer.Sensitive(e.drain, clock); err != nil {
		panic(err)
	}
	return rk
}

// ConnectReceiver intercepts the client's real callbacks: the wrapped
// layer is told to push onto this receiver's buffer instead of delivering
// directly, and deliver/traces are kept for the drain process to use once
// a message actually reaches the front of the buffer.
func (d *DestinationBuffering[P]) ConnectReceiver(rk ReceiverKey, deliver ReceiverCallback[P], register RegisterCallback, traces TracesCallback, broadcastEnabled bool) {
	e := &d.endpoints[rk]
	e.deliver = deliver
	e.traces = traces
	d.Interconnect.ConnectReceiver(rk, d.pushDeliver(rk), register, d.bufferTraces(rk), broadcastEnabled)
}

func (d *DestinationBuffering[P]) pushDeliver(rk ReceiverKey) ReceiverCallback[P] {
	return func(ctx *sim.Context, msg *Message[P]) bool {
		return d.endpoints[rk].buffer.Push(ctx, msg, 1)
	}
}

func (d *DestinationBuffering[P]) bufferTraces(rk ReceiverKey) TracesCallback {
	return func() sim.StorageTraceSet { return sim.NewStorageTraceSet(d.endpoints[rk].buffer) }
}

func (d *DestinationBuffering[P]) doDrain(rk ReceiverKey) sim.ProcessFunc {
	return func(ctx *sim.Context) (sim.Result, error) {
		e := &d.endpoints[rk]
		if e.buffer.Empty() {
			return sim.Success, nil
		}
		msg := e.buffer.Front()
		if !e.deliver(ctx, msg) {
			return sim.Failed, nil
		}
		e.buffer.Pop(ctx)
		if ctx.Phase() == sim.PhaseCommit {
			// Delivery has committed: the buffer no longer holds a
			// reference and the client callback has already copied
			// whatever it needed out of the payload.
			msg.Free()
		}
		return sim.Success, nil
	}
}

// ReceiverTraces reports what the client's real delivery callback may
// touch, not the internal buffer push the wrapped layer now sees.
func (d *DestinationBuffering[P]) ReceiverTraces(rk ReceiverKey) sim.StorageTraceSet {
	if t := d.endpoints[rk].traces; t != nil {
		return t()
	}
	return sim.StorageTraceSet{}
}

// AllTraces reports the union of every receiver's real client traces.
func (d *DestinationBuffering[P]) AllTraces() sim.StorageTraceSet {
	var out sim.StorageTraceSet
	for i := range d.endpoints {
		out = out.Union(d.ReceiverTraces(ReceiverKey(i)))
	}
	return out
}

// Initialize finalizes the wrapped layer's topology, then declares each
// drain process's trace as whatever the real client callback may touch,
// or nothing at all if its buffer was empty this cycle.
func (d *DestinationBuffering[P]) Initialize() {
	d.Interconnect.Initialize()
	for i := range d.endpoints {
		e := &d.endpoints[i]
		if e.drain != nil {
			e.drain.SetStorageTraces(sim.Opt(d.ReceiverTraces(ReceiverKey(i))))
		}
	}
}
