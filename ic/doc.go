// Package ic implements the interconnect layers that carry messages
// between components living in different clock domains: a plain wire net
// for direct point-to-point or one-to-many delivery, and a set of
// decorators that add shared-medium arbitration, per-receiver crossbar
// arbitration, source/destination buffering, and endpoint name tracking.
//
// Every layer implements [Interconnect], and the layers compose by
// wrapping one another, matching how a component is handed the result of
// [NewBufferedBus] or [NewUnbufferedCrossbar] and never needs to know
// which concrete layers are underneath.
package ic
