package sim

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// DebugMode is a bitmask of diagnostic categories, mirroring the original
// kernel's debug flags. A category gate is checked before anything is
// built on the underlying structured-logging chain, so a disabled category
// costs a single bit test.
type DebugMode uint32

const (
	DebugSim DebugMode = 1 << iota
	DebugProg
	DebugDeadlock
	DebugFlow
	DebugMem
	DebugIO
	DebugReg
	DebugNet
	DebugIONet
	DebugFPU
	DebugPipe
	DebugMemNet
)

// DebugCPUMask enables the categories relevant to simulating a single
// processor core, leaving network/FPU/pipeline categories off.
const DebugCPUMask = DebugSim | DebugProg | DebugDeadlock | DebugFlow | DebugMem | DebugIO | DebugReg

// Logger wraps a structured logiface logger with the kernel's debug-category
// gate. A nil *Logger is valid and behaves as fully disabled.
type Logger struct {
	base *logiface.Logger[*stumpy.Event]
	mode DebugMode
}

// NewLogger wraps base with the given debug-category mask. A nil base
// creates a logger with logging fully disabled, useful for tests that only
// care about the simulation's behavior, not its diagnostic output.
func NewLogger(base *logiface.Logger[*stumpy.Event], mode DebugMode) *Logger {
	if base == nil {
		base = stumpy.L.New(stumpy.L.WithLevel(logiface.LevelDisabled))
	}
	return &Logger{base: base, mode: mode}
}

// NewStderrLogger returns a Logger writing JSON-ish lines to stderr via
// stumpy, gated by mode.
func NewStderrLogger(mode DebugMode) *Logger {
	return &Logger{base: stumpy.L.New(stumpy.L.WithStumpy()), mode: mode}
}

func (l *Logger) enabled(cat DebugMode) bool { return l != nil && l.mode&cat != 0 }

// SetMode replaces the debug-category mask.
func (l *Logger) SetMode(mode DebugMode) {
	if l != nil {
		l.mode = mode
	}
}

// ToggleMode XORs flags into the current debug-category mask.
func (l *Logger) ToggleMode(flags DebugMode) {
	if l != nil {
		l.mode ^= flags
	}
}

// Mode returns the current debug-category mask.
func (l *Logger) Mode() DebugMode {
	if l == nil {
		return 0
	}
	return l.mode
}

func (l *Logger) write(cat DebugMode, ctx *Context, msg string) {
	if !l.enabled(cat) {
		return
	}
	b := l.base.Debug().Uint64("cycle", uint64(ctx.CycleNo()))
	if p := ctx.Process(); p != nil {
		b = b.Str("process", p.Name())
	}
	b.Log(msg)
}

// Sim logs simulator-internal diagnostic output (DebugSim).
func (l *Logger) Sim(ctx *Context, msg string) { l.write(DebugSim, ctx, msg) }

// Prog logs simulated-program diagnostic output (DebugProg).
func (l *Logger) Prog(ctx *Context, msg string) { l.write(DebugProg, ctx, msg) }

// Flow logs control-flow diagnostic output (DebugFlow).
func (l *Logger) Flow(ctx *Context, msg string) { l.write(DebugFlow, ctx, msg) }

// Mem logs memory-store diagnostic output (DebugMem).
func (l *Logger) Mem(ctx *Context, msg string) { l.write(DebugMem, ctx, msg) }

// IO logs I/O-request diagnostic output (DebugIO).
func (l *Logger) IO(ctx *Context, msg string) { l.write(DebugIO, ctx, msg) }

// Reg logs register-access diagnostic output (DebugReg).
func (l *Logger) Reg(ctx *Context, msg string) { l.write(DebugReg, ctx, msg) }

// Net logs network message diagnostic output (DebugNet).
func (l *Logger) Net(ctx *Context, msg string) { l.write(DebugNet, ctx, msg) }

// IONet logs I/O network diagnostic output (DebugIONet).
func (l *Logger) IONet(ctx *Context, msg string) { l.write(DebugIONet, ctx, msg) }

// FPU logs floating-point unit diagnostic output (DebugFPU).
func (l *Logger) FPU(ctx *Context, msg string) { l.write(DebugFPU, ctx, msg) }

// Pipe logs pipeline diagnostic output (DebugPipe).
func (l *Logger) Pipe(ctx *Context, msg string) { l.write(DebugPipe, ctx, msg) }

// MemNet logs memory-network diagnostic output (DebugMemNet).
func (l *Logger) MemNet(ctx *Context, msg string) { l.write(DebugMemNet, ctx, msg) }

// Deadlock logs deadlock diagnostic output (DebugDeadlock).
func (l *Logger) Deadlock(ctx *Context, msg string) { l.write(DebugDeadlock, ctx, msg) }
