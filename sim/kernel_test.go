package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestProducerConsumer_BufferSizeTwo exercises the buffer-size-2
// producer/consumer scenario: a producer retries pushing the sequence
// 0..4 every cycle it is active, a consumer (deliberately held back until
// cycle 5, so the buffer has time to fill up) pops one per cycle once
// active. The first tick is cycle 1, so the buffer is full after cycle 2.
// Consumption must land in FIFO order, and the producer must stall
// exactly three times: cycles 3 and 4, before the consumer starts, and
// cycle 5, whose first pop only takes effect at the end of the cycle.
func TestProducerConsumer_BufferSizeTwo(t *testing.T) {
	k := NewKernel()
	clock, err := k.CreateClock(1)
	require.NoError(t, err)
	root := NewRootObject("pc")

	buf := NewBuffer[int]("buffer", root, clock, 2, 1)

	var produced, consumed []int
	next := 0
	producer := NewProcess("producer", root, clock, func(ctx *Context) (Result, error) {
		if next > 4 {
			return Success, nil
		}
		if !buf.Push(ctx, next, 1) {
			return Failed, nil
		}
		if ctx.Phase() == PhaseCommit {
			produced = append(produced, next)
			next++
		}
		return Success, nil
	})
	producer.Activate()

	consumer := NewProcess("consumer", root, clock, func(ctx *Context) (Result, error) {
		if ctx.CycleNo() < 5 || buf.Empty() {
			return Success, nil
		}
		v := buf.Front()
		buf.Pop(ctx)
		if ctx.Phase() == PhaseCommit {
			consumed = append(consumed, v)
		}
		return Success, nil
	})
	consumer.Activate()

	for i := 0; i < 9 && len(consumed) < 5; i++ {
		_, err := k.Step(1)
		require.NoError(t, err)
	}

	require.Equal(t, []int{0, 1, 2, 3, 4}, consumed)
	require.Equal(t, []int{0, 1, 2, 3, 4}, produced)
	require.Equal(t, uint64(3), producer.Stalls())
}

// TestFlag_EdgeNotification checks that a process sensitive on a flag is
// only woken on the rising edge, stays active while set, and goes idle the
// cycle after the falling edge is observed.
func TestFlag_EdgeNotification(t *testing.T) {
	k := NewKernel()
	clock, err := k.CreateClock(1)
	require.NoError(t, err)
	root := NewRootObject("flagtest")

	flag := NewFlag("f", root, clock, false)

	var invokedAt []CycleNo
	waiter := NewProcess("waiter", root, clock, func(ctx *Context) (Result, error) {
		if ctx.Phase() == PhaseAcquire {
			invokedAt = append(invokedAt, ctx.CycleNo())
		}
		return Success, nil
	})
	require.NoError(t, flag.Sensitive(waiter, clock))

	setter := NewProcess("setter", root, clock, func(ctx *Context) (Result, error) {
		switch ctx.CycleNo() {
		case 10:
			flag.Set(ctx)
		case 15:
			flag.Clear(ctx)
		}
		return Success, nil
	})
	setter.Activate()

	for i := CycleNo(0); i < 17; i++ {
		_, err := k.Step(1)
		require.NoError(t, err)
	}

	require.Contains(t, invokedAt, CycleNo(11))
	require.Contains(t, invokedAt, CycleNo(15))
	require.NotContains(t, invokedAt, CycleNo(16))
	require.Equal(t, StateIdle, waiter.State())
}

// TestPriorityArbitratedPort_Ordering checks that the earliest-registered
// requester always wins, and that removing it from contention hands the
// port to whoever is left.
func TestPriorityArbitratedPort_Ordering(t *testing.T) {
	k := NewKernel()
	clock, err := k.CreateClock(1)
	require.NoError(t, err)
	root := NewRootObject("prio")

	port := NewPriorityArbitratedPort("port", root, clock)
	svc := NewArbitratedService[*PriorityArbitratedPort](port)

	var p1Won, p2Won bool
	p1Active := true
	p1 := NewProcess("p1", root, clock, func(ctx *Context) (Result, error) {
		if !p1Active {
			return Success, nil
		}
		if !svc.Invoke(ctx) {
			return Failed, nil
		}
		if ctx.Phase() == PhaseCommit {
			p1Won = true
		}
		return Success, nil
	})
	p2 := NewProcess("p2", root, clock, func(ctx *Context) (Result, error) {
		if !svc.Invoke(ctx) {
			return Failed, nil
		}
		if ctx.Phase() == PhaseCommit {
			p2Won = true
		}
		return Success, nil
	})
	svc.AddProcess(p1)
	svc.AddProcess(p2)

	p1.Activate()
	p2.Activate()
	_, err = k.Step(1)
	require.NoError(t, err)
	require.True(t, p1Won)
	require.False(t, p2Won)

	p1Active = false
	p2Won = false
	_, err = k.Step(1)
	require.NoError(t, err)
	require.True(t, p2Won)
}

// TestCyclicArbitratedPort_RoundRobin matches the three-process
// round-robin scenario: with last_selected=0 and all three requesting, P1
// (distance 1) wins; next cycle, with last_selected=1, P2 wins.
func TestCyclicArbitratedPort_RoundRobin(t *testing.T) {
	k := NewKernel()
	clock, err := k.CreateClock(1)
	require.NoError(t, err)
	root := NewRootObject("cyclic")

	port := NewCyclicArbitratedPort("port", root, clock)
	svc := NewArbitratedService[*CyclicArbitratedPort](port)

	var winner string
	mkProc := func(name string) *Process {
		var p *Process
		p = NewProcess(name, root, clock, func(ctx *Context) (Result, error) {
			if !svc.Invoke(ctx) {
				return Failed, nil
			}
			if ctx.Phase() == PhaseCommit {
				winner = p.Name()
			}
			return Success, nil
		})
		return p
	}
	p0 := mkProc("p0")
	p1 := mkProc("p1")
	p2 := mkProc("p2")
	svc.AddProcess(p0)
	svc.AddProcess(p1)
	svc.AddProcess(p2)

	p0.Activate()
	p1.Activate()
	p2.Activate()
	_, err = k.Step(1)
	require.NoError(t, err)
	require.Equal(t, "cyclic.p1", winner)

	_, err = k.Step(1)
	require.NoError(t, err)
	require.Equal(t, "cyclic.p2", winner)
}

// TestKernel_ClockFrequencyInvariants checks that the kernel's master
// frequency is the LCM of every created clock's frequency, and that each
// clock's period times its frequency equals that master frequency.
func TestKernel_ClockFrequencyInvariants(t *testing.T) {
	k := NewKernel()
	c1, err := k.CreateClock(400)
	require.NoError(t, err)
	c2, err := k.CreateClock(300)
	require.NoError(t, err)
	c3, err := k.CreateClock(250)
	require.NoError(t, err)

	require.Equal(t, uint64(6000), k.MasterFrequency())
	for _, c := range []*Clock{c1, c2, c3} {
		require.Equal(t, k.MasterFrequency(), c.Period()*c.Frequency())
	}
}

// TestKernel_DeadlockReport matches the two-buffer ping-pong deadlock
// scenario: two processes each depend on what the other produces, both
// buffers start with one token each (capacity 1), and neither can make
// progress because each needs the other to pop first.
func TestKernel_DeadlockReport(t *testing.T) {
	k := NewKernel()
	clock, err := k.CreateClock(1)
	require.NoError(t, err)
	root := NewRootObject("deadlock")

	a := NewBuffer[int]("a", root, clock, 1, 1)
	b := NewBuffer[int]("b", root, clock, 1, 1)

	p1 := NewProcess("p1", root, clock, func(ctx *Context) (Result, error) {
		if a.Empty() {
			return Failed, nil
		}
		v := a.Front()
		if !b.Push(ctx, v, 1) {
			return Failed, nil
		}
		a.Pop(ctx)
		return Success, nil
	})
	p2 := NewProcess("p2", root, clock, func(ctx *Context) (Result, error) {
		if b.Empty() {
			return Failed, nil
		}
		v := b.Front()
		if !a.Push(ctx, v, 1) {
			return Failed, nil
		}
		b.Pop(ctx)
		return Success, nil
	})
	require.NoError(t, a.Sensitive(p1, clock))
	require.NoError(t, b.Sensitive(p2, clock))

	seed := &Context{kernel: k, phase: PhaseCommit}
	a.Push(seed, 1, 1)
	b.Push(seed, 2, 1)

	_, err = k.Step(InfiniteCycles)
	var deadlock *DeadlockError
	require.True(t, errors.As(err, &deadlock))
	require.Len(t, deadlock.Stalled, 2)
}
