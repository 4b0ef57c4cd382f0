package sim

// kernelOptions holds the configuration a [Kernel] is built with.
type kernelOptions struct {
	logger     *Logger
	debugMode  DebugMode
}

// KernelOption configures a [Kernel] at construction time.
type KernelOption interface {
	applyKernel(*kernelOptions)
}

type kernelOptionFunc func(*kernelOptions)

func (f kernelOptionFunc) applyKernel(o *kernelOptions) { f(o) }

// WithLogger attaches a [Logger] to the kernel's diagnostic stream. Without
// this option, a disabled logger is used and all debug output is compiled
// away to a no-op check.
func WithLogger(logger *Logger) KernelOption {
	return kernelOptionFunc(func(o *kernelOptions) { o.logger = logger })
}

// WithDebugMode sets the initial debug-category bitmask (see [DebugMode]).
func WithDebugMode(mode DebugMode) KernelOption {
	return kernelOptionFunc(func(o *kernelOptions) { o.debugMode = mode })
}

func resolveKernelOptions(opts []KernelOption) *kernelOptions {
	cfg := &kernelOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyKernel(cfg)
	}
	if cfg.logger == nil {
		// WithDebugMode only has an effect here: once a logger is supplied
		// via WithLogger, its own mode is authoritative.
		cfg.logger = NewLogger(nil, cfg.debugMode)
	}
	return cfg
}
