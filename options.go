package etwtrace

import plog "github.com/phuslu/log"

// Options describes Registry behavior. Defaults are applied by NewRegistry
// before any Option runs.
type Options struct {
	// Allocator backs metadata blocks and field values. Defaults to an
	// unlimited HeapAllocator.
	Allocator Allocator

	// Priority reports the caller's execution priority. Emit refuses to run
	// above PassiveLevel. Defaults to always passive.
	Priority PriorityFunc

	// Logger receives registry diagnostics. Defaults to the package logger.
	Logger *plog.Logger

	// Channel is set on every written EventDescriptor.
	Channel uint8

	// ReleaseFieldValues hands field value buffers back to the Allocator once
	// the sink returns. Left false, every written field value stays allocated
	// for the lifetime of the process.
	ReleaseFieldValues bool
}

// Option is any function that modifies Options. Options will be called on
// default config in NewRegistry. Subsequent options that modify same fields
// will override each other.
type Option func(cfg *Options)

func defaultOptions() Options {
	return Options{
		Allocator: NewHeapAllocator(0),
		Priority:  passivePriority,
		Logger:    log,
		Channel:   ChannelTraceLogging,
	}
}

// WithAllocator replaces the default HeapAllocator.
func WithAllocator(alloc Allocator) Option {
	return func(cfg *Options) {
		if alloc != nil {
			cfg.Allocator = alloc
		}
	}
}

// WithPriority installs the function Emit uses to check whether provider
// registration is allowed.
func WithPriority(fn PriorityFunc) Option {
	return func(cfg *Options) {
		if fn != nil {
			cfg.Priority = fn
		}
	}
}

// WithLogger sets the logger used by the registry and its providers.
func WithLogger(logger *plog.Logger) Option {
	return func(cfg *Options) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

// WithChannel overrides the channel written events are routed to.
func WithChannel(channel uint8) Option {
	return func(cfg *Options) {
		cfg.Channel = channel
	}
}

// WithFieldValueRelease controls whether field value buffers are freed after
// each write.
func WithFieldValueRelease(release bool) Option {
	return func(cfg *Options) {
		cfg.ReleaseFieldValues = release
	}
}
