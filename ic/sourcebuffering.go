package ic

import (
	"fmt"

	"github.com/mgsim-go/simkernel/sim"
)

type outgoingMessage[P any] struct {
	broadcast bool
	dst       ReceiverKey
	msg       *Message[P]
}

type sourceEndpoint[P any] struct {
	producerClock *sim.Clock
	buffer        *sim.Buffer[outgoingMessage[P]]
	send          *sim.Process
}

// SourceBuffering decorates an [Interconnect] so that every sender gets
// its own FIFO and drain process: the sender's own process only ever
// pushes onto its buffer, which may run in a different clock domain than
// the wrapped layer, and a per-sender drain process moves queued messages
// into the wrapped layer one at a time.
//
// This is the layer that lets a producer live in its own clock domain
// while the interconnect it feeds (a [SharedMedium] or [EndPointArbiter])
// ticks at a different frequency.
type SourceBuffering[P any] struct {
	Interconnect[P]
	*sim.Object

	bufferSize sim.BufferSize
	endpoints  []sourceEndpoint[P]
}

// NewSourceBuffering wraps next with per-sender buffering, each buffer
// holding at most bufferSize queued messages.
func NewSourceBuffering[P any](name string, parent *sim.Object, bufferSize sim.BufferSize, next Interconnect[P]) *SourceBuffering[P] {
	return &SourceBuffering[P]{Interconnect: next, Object: parent.NewChild(name), bufferSize: bufferSize}
}

// RegisterSender creates sk's buffer and drain process. clock is the
// domain the external producer's own process will run in; the buffer and
// drain process run in whatever clock the wrapped layer reports for sk
// (see [Interconnect.SenderClock]), which may differ.
func (s *SourceBuffering[P]) RegisterSender(name string, clock *sim.Clock) SenderKey {
	sk := s.Interconnect.RegisterSender(name, clock)
	busClock := s.Interconnect.SenderClock(sk)

	for int(sk) >= len(s.endpoints) {
		s.endpoints = append(s.endpoints, sourceEndpoint[P]{})
	}
	e := &s.endpoints[sk]
	e.producerClock = clock
	e.buffer = sim.NewBuffer[outgoingMessage[P]](fmt.Sprintf("in%d.b_buffer", sk), s.Object, busClock, s.bufferSize, 1)
	e.send = sim.NewProcess(fmt.Sprintf("in%d.p_send", sk), s.Object, busClock, s.doSend(sk))
	if err := e.buffer.Sensitive(e.send, busClock); err != nil {
		panic(err)
	}
	s.Interconnect.ConnectSender(sk, e.send)
	return sk
}

func (s *SourceBuffering[P]) doSend(sk SenderKey) sim.ProcessFunc {
	return func(ctx *sim.Context) (sim.Result, error) {
		e := &s.endpoints[sk]
		if e.buffer.Empty() {
			return sim.Success, nil
		}
		m := e.buffer.Front()
		var ok bool
		if m.broadcast {
			ok = s.Interconnect.SendBroadcast(ctx, sk, m.msg)
		} else {
			ok = s.Interconnect.SendMessage(ctx, sk, m.dst, m.msg)
		}
		if !ok {
			return sim.Failed, nil
		}
		e.buffer.Pop(ctx)
		return sim.Success, nil
	}
}

// ConnectSender is a no-op here: once buffered, the only process that ever
// calls through to the wrapped layer is the drain process connected at
// RegisterSender, not the producer's own process.
func (s *SourceBuffering[P]) ConnectSender(sk SenderKey, proc *sim.Process) {}

// SendMessage stages msg onto sk's buffer instead of sending it directly.
func (s *SourceBuffering[P]) SendMessage(ctx *sim.Context, sk SenderKey, dst ReceiverKey, msg *Message[P]) bool {
	e := &s.endpoints[sk]
	return e.buffer.Push(ctx, outgoingMessage[P]{dst: dst, msg: msg}, 1)
}

// SendBroadcast stages msg onto sk's buffer instead of sending it directly.
func (s *SourceBuffering[P]) SendBroadcast(ctx *sim.Context, sk SenderKey, msg *Message[P]) bool {
	e := &s.endpoints[sk]
	return e.buffer.Push(ctx, outgoingMessage[P]{broadcast: true, msg: msg}, 1)
}

// SenderClock reports the clock the external producer's own process should
// use, which may differ from the clock its buffer and drain process run
// in (see RegisterSender).
func (s *SourceBuffering[P]) SenderClock(sk SenderKey) *sim.Clock { return s.endpoints[sk].producerClock }

// RequestTraces reports that a producer's own process, once buffered, only
// ever touches its own buffer (via Push) and nothing downstream.
func (s *SourceBuffering[P]) RequestTraces(sk SenderKey) sim.StorageTraceSet {
	return sim.NewStorageTraceSet(s.endpoints[sk].buffer)
}

// Initialize finalizes the wrapped layer's topology, then declares each
// drain process's trace as everything a message to any destination might
// touch, or nothing at all if its buffer was empty this cycle.
func (s *SourceBuffering[P]) Initialize() {
	s.Interconnect.Initialize()
	traces := sim.Opt(s.Interconnect.AllTraces())
	for i := range s.endpoints {
		if s.endpoints[i].send != nil {
			s.endpoints[i].send.SetStorageTraces(traces)
		}
	}
}
