package ic

import "github.com/mgsim-go/simkernel/sim"

// NewUnbufferedBus builds the standard unbuffered, shared-medium
// interconnect: every sender and receiver connects directly to a single
// arbitrated bus tick in clock's domain, with no per-endpoint queueing.
func NewUnbufferedBus[P any](name string, parent *sim.Object, clock *sim.Clock) *EndPointRegistry[P] {
	wire := NewWireNet[P](name+".wire", parent)
	medium := NewSharedMedium[P](name+".medium", parent, clock, wire)
	return NewEndPointRegistry[P](medium)
}

// NewBufferedBus builds the standard buffered, shared-medium interconnect:
// each sender and receiver gets its own buffer and drain process around a
// single arbitrated bus, letting every endpoint live in its own clock
// domain independent of the bus's own clock.
func NewBufferedBus[P any](name string, parent *sim.Object, clock *sim.Clock, bufferSize sim.BufferSize) *EndPointRegistry[P] {
	wire := NewWireNet[P](name+".wire", parent)
	medium := NewSharedMedium[P](name+".medium", parent, clock, wire)
	src := NewSourceBuffering[P](name+".src", parent, bufferSize, medium)
	dst := NewDestinationBuffering[P](name+".dst", parent, bufferSize, src)
	return NewEndPointRegistry[P](dst)
}

// NewUnbufferedCrossbar builds the standard unbuffered crossbar
// interconnect: every sender and receiver connects directly, arbitrated
// per destination rather than on a single shared port.
func NewUnbufferedCrossbar[P any](name string, parent *sim.Object, clock *sim.Clock) *EndPointRegistry[P] {
	wire := NewWireNet[P](name+".wire", parent)
	arbiter := NewEndPointArbiter[P](name+".xbar", parent, clock, wire)
	return NewEndPointRegistry[P](arbiter)
}

// NewBufferedCrossbar builds the standard buffered crossbar interconnect:
// each sender and receiver gets its own buffer and drain process around a
// per-destination arbitrated crossbar.
func NewBufferedCrossbar[P any](name string, parent *sim.Object, clock *sim.Clock, bufferSize sim.BufferSize) *EndPointRegistry[P] {
	wire := NewWireNet[P](name+".wire", parent)
	arbiter := NewEndPointArbiter[P](name+".xbar", parent, clock, wire)
	src := NewSourceBuffering[P](name+".src", parent, bufferSize, arbiter)
	dst := NewDestinationBuffering[P](name+".dst", parent, bufferSize, src)
	return NewEndPointRegistry[P](dst)
}
