package sim

// KernelMetrics is a point-in-time snapshot of kernel-level counters,
// cheap enough to sample every cycle if a caller wants to.
type KernelMetrics struct {
	Cycle           CycleNo
	RegisteredProcs int
	Clocks          int
}

// Metrics returns a snapshot of the kernel's own counters.
func (k *Kernel) Metrics() KernelMetrics {
	return KernelMetrics{
		Cycle:           k.cycle,
		RegisteredProcs: len(k.processes),
		Clocks:          len(k.clocks),
	}
}

// StorageMetrics is a point-in-time snapshot of a storage element's usage
// counters.
type StorageMetrics struct {
	Stalls uint64
}

// Metrics returns a snapshot of this flag's usage counters.
func (f *Flag) Metrics() StorageMetrics { return StorageMetrics{Stalls: f.stalls} }

// Metrics returns a snapshot of this buffer's usage counters.
func (b *Buffer[T]) Metrics() StorageMetrics { return StorageMetrics{Stalls: b.stalls} }
