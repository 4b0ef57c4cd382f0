// Package sim implements a cycle-accurate, single-threaded discrete-event
// simulation kernel for modeling many-core microthreaded hardware.
//
// A simulation is built from a tree of [Object]s rooted at [NewRootObject]. Each
// cycle the kernel drives every [Clock] domain that has work through a
// three-phase protocol (acquire, arbitrate, check+commit) before updating
// storage elements ([Storage], [Flag], [Buffer]) and advancing time to the
// next clock that needs to run. Components coordinate access to shared
// resources through the arbitrated port types ([PriorityArbitratedPort],
// [CyclicArbitratedPort], [PriorityCyclicArbitratedPort]) and the two-stage
// write protocol of [ReadWriteStructure].
//
// Every operation that touches simulated state takes a [*Context], which
// carries the kernel, the active clock, the active process and the current
// [Phase] explicitly, rather than relying on package-level state. This
// keeps a [Kernel] free of global mutable state and lets more than one
// exist in the same process (e.g. for testing).
package sim
