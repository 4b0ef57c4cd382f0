package sim

// Context is passed explicitly to every operation that needs to know what
// phase the simulation is in, which clock is currently being driven, and
// which process is currently running. The original kernel kept this as
// package-global state (the "active clock"/"active process" pointers);
// here it is threaded through call chains instead, so nothing about a
// [Kernel] is implicit or shared across instances.
type Context struct {
	kernel  *Kernel
	clock   *Clock
	process *Process
	phase   Phase
}

// Kernel returns the kernel driving this context.
func (c *Context) Kernel() *Kernel { return c.kernel }

// Clock returns the clock domain currently being driven.
func (c *Context) Clock() *Clock { return c.clock }

// Process returns the process currently executing, or nil outside of a
// process callback (e.g. while updating storages).
func (c *Context) Process() *Process { return c.process }

// Phase returns the current sub-phase of the cycle.
func (c *Context) Phase() Phase { return c.phase }

// CycleNo returns the current master cycle number.
func (c *Context) CycleNo() CycleNo { return c.kernel.CycleNo() }
