package ic

import "github.com/mgsim-go/simkernel/sim"

// SenderKey identifies a registered sender endpoint, returned by
// [Interconnect.RegisterSender].
type SenderKey int

// ReceiverKey identifies a registered receiver endpoint, returned by
// [Interconnect.RegisterReceiver].
type ReceiverKey int

// ReceiverCallback delivers msg to whatever a receiver registered against.
// It returns whether the recipient accepted the message this invocation;
// like every other storage-write decision in this simulation, the answer
// may differ between acquire, check and commit for the very same message.
type ReceiverCallback[P any] func(ctx *sim.Context, msg *Message[P]) bool

// RegisterCallback tells a receiver that a new sender process now exists,
// letting it extend whatever dependency or trace bookkeeping it keeps per
// sender.
type RegisterCallback func(proc *sim.Process)

// TracesCallback returns the set of storage traces a receiver's delivery
// callback may produce, for composing into a sender process's declared
// trace set.
type TracesCallback func() sim.StorageTraceSet

// Interconnect moves messages of payload type P between registered
// senders and receivers. Every layer below ([WireNet] and its decorators)
// implements this same interface, so components depend on Interconnect and
// never on a specific layer stack.
type Interconnect[P any] interface {
	// RegisterSender declares a new sender, identified by name, whose
	// traffic originates in clock's domain. Returns a key used for every
	// later Connect/Send call concerning this sender.
	RegisterSender(name string, clock *sim.Clock) SenderKey

	// RegisterReceiver declares a new receiver, identified by name, whose
	// own processing (once wrapped by [DestinationBuffering]) runs in
	// clock's domain. A layer with no clock-domain concept of its own
	// (e.g. [WireNet]) ignores clock. Returns a key used for every later
	// ConnectReceiver/delivery concerning this receiver.
	RegisterReceiver(name string, clock *sim.Clock) ReceiverKey

	// ConnectSender associates proc, the process that will actually call
	// SendMessage/SendBroadcast for sk, with the sender. A buffering layer
	// may substitute its own drain process for proc further down the
	// stack; callers should not assume the process they pass here is the
	// one inner layers see.
	ConnectSender(sk SenderKey, proc *sim.Process)

	// ConnectReceiver associates delivery, registration and trace
	// callbacks with rk. broadcastEnabled marks the receiver as a
	// candidate destination for SendBroadcast.
	ConnectReceiver(rk ReceiverKey, deliver ReceiverCallback[P], register RegisterCallback, traces TracesCallback, broadcastEnabled bool)

	// SendMessage attempts to deliver msg from sk to dst. Like a storage
	// write, the decision is phase-gated: only a commit-phase success is
	// final.
	SendMessage(ctx *sim.Context, sk SenderKey, dst ReceiverKey, msg *Message[P]) bool

	// SendBroadcast attempts to deliver a duplicate of msg to every
	// broadcast-enabled receiver, freeing msg itself once delivery is
	// committed. Returns whether every duplicate was accepted.
	SendBroadcast(ctx *sim.Context, sk SenderKey, msg *Message[P]) bool

	// SenderClock returns the clock domain a sender's own process should
	// be created on. A buffering layer may report a different clock here
	// than the one its inner layers actually move traffic on.
	SenderClock(sk SenderKey) *sim.Clock

	// RequestTraces returns the storage traces sk's own process may
	// produce purely by calling SendMessage/SendBroadcast.
	RequestTraces(sk SenderKey) sim.StorageTraceSet

	// ReceiverTraces returns the storage traces a message delivered to rk
	// may, transitively, cause to be produced.
	ReceiverTraces(rk ReceiverKey) sim.StorageTraceSet

	// IsBroadcastReceiver reports whether rk was registered as a
	// broadcast-enabled destination.
	IsBroadcastReceiver(rk ReceiverKey) bool

	// AllTraces returns the union of every currently registered receiver's
	// traces: everything a message sent to any one of them might cause to
	// be produced. Used to build the declared trace set of an internal
	// drain process that may deliver to any destination.
	AllTraces() sim.StorageTraceSet

	// Initialize finalizes topology wiring once every sender and receiver
	// has been registered and connected. Call exactly once, after
	// construction and before the kernel steps.
	Initialize()
}
