package colib

import "time"

// Option configures a Scheduler at construction time. Grounded on the
// functional-option pattern of eventloop/options.go.
type Option func(*schedulerConfig)

type schedulerConfig struct {
	reactor           Reactor
	overloadThreshold int
	overloadWindow    time.Duration
	overloadMaxPerWin int
	logger            Logger
}

func defaultSchedulerConfig() *schedulerConfig {
	return &schedulerConfig{
		overloadThreshold: 4096,
		overloadWindow:    time.Second,
		overloadMaxPerWin: 1,
		logger:            DefaultLogger(),
	}
}

// WithReactor overrides the scheduler's Reactor, e.g. with a fake for
// deterministic tests. Defaults to NewReactor().
func WithReactor(r Reactor) Option {
	return func(c *schedulerConfig) { c.reactor = r }
}

// WithOverloadThreshold sets the ready-queue length, checked on each
// drain of the queue, above which the scheduler logs an overload warning (rate-limited to
// overloadMaxPerWin per overloadWindow via catrate). Defaults to 4096.
func WithOverloadThreshold(n int) Option {
	return func(c *schedulerConfig) { c.overloadThreshold = n }
}

// WithOverloadLogRate configures the catrate window used to rate-limit
// repeated overload warnings. Defaults to at most 1 per second.
func WithOverloadLogRate(window time.Duration, maxPerWindow int) Option {
	return func(c *schedulerConfig) {
		c.overloadWindow = window
		c.overloadMaxPerWin = maxPerWindow
	}
}

// WithLogger overrides the scheduler's structured logger with any
// caller-supplied implementation of the Logger interface. A nil l falls
// back to DefaultLogger().
func WithLogger(l Logger) Option {
	return func(c *schedulerConfig) {
		if l == nil {
			l = DefaultLogger()
		}
		c.logger = l
	}
}

// TaskOption configures a single Task at construction time.
type TaskOption func(*taskConfig)

type taskConfig struct {
	name string
}

func defaultTaskConfig() *taskConfig {
	return &taskConfig{}
}

// WithName sets the task's human-readable name, used in log lines and
// returned by TaskName(ctx).
func WithName(name string) TaskOption {
	return func(c *taskConfig) { c.name = name }
}
