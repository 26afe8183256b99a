package pregel

import (
	"time"

	"github.com/flowgraph/pregel/emit"
)

// Config holds the runtime's execution configuration record (spec.md §6).
// New starts from DefaultConfig and applies each Option on top, so callers
// never fill in the struct themselves.
type Config struct {
	// MaxSupersteps bounds the total number of supersteps a run may take.
	// Default: 100.
	MaxSupersteps int

	// Parallelism bounds how many vertex computations may be in flight at
	// once within one superstep. Default: runtime.NumCPU().
	Parallelism int

	// CheckpointInterval is the superstep modulus at which a checkpoint is
	// saved. Zero disables checkpointing. Default: 10.
	CheckpointInterval int

	// VertexTimeout bounds a single vertex's Compute call. Zero means no
	// per-vertex timeout. Default: 5 minutes.
	VertexTimeout time.Duration

	// WorkflowTimeout bounds total wall-clock execution. Zero means no
	// workflow-level timeout. Default: 1 hour.
	WorkflowTimeout time.Duration

	// RetryPolicy is the default retry policy applied to vertex failures
	// when the vertex kind permits retry. Default: DefaultRetryPolicy().
	RetryPolicy RetryPolicy

	// TracingEnabled controls whether the runtime emits per-superstep and
	// per-vertex observability events. Default: true.
	TracingEnabled bool

	// emitter receives observability events. Default: emit.NewNull().
	emitter emit.Emitter

	// metrics collects Prometheus-compatible runtime metrics. Optional.
	metrics *RuntimeMetrics

	// costTracker collects per-model LLM token/cost accounting. Optional.
	costTracker *CostTracker
}

// DefaultConfig returns the configuration record's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxSupersteps:      100,
		Parallelism:        defaultParallelism(),
		CheckpointInterval: 10,
		VertexTimeout:      5 * time.Minute,
		WorkflowTimeout:    time.Hour,
		RetryPolicy:        DefaultRetryPolicy(),
		TracingEnabled:     true,
		emitter:            emit.NewNull(),
	}
}

// Option configures a Runtime at construction time.
//
// Example:
//
//	rt := pregel.New(graph, reducer, nil, nil, pregel.WithMaxSupersteps(50), pregel.WithParallelism(4))
type Option func(*Config)

// WithMaxSupersteps overrides Config.MaxSupersteps.
func WithMaxSupersteps(n int) Option {
	return func(c *Config) { c.MaxSupersteps = n }
}

// WithParallelism overrides Config.Parallelism, the width of the bounded
// admission semaphore guarding concurrent vertex dispatch.
func WithParallelism(n int) Option {
	return func(c *Config) { c.Parallelism = n }
}

// WithCheckpointInterval overrides Config.CheckpointInterval. Zero disables
// checkpointing.
func WithCheckpointInterval(n int) Option {
	return func(c *Config) { c.CheckpointInterval = n }
}

// WithVertexTimeout overrides Config.VertexTimeout.
func WithVertexTimeout(d time.Duration) Option {
	return func(c *Config) { c.VertexTimeout = d }
}

// WithWorkflowTimeout overrides Config.WorkflowTimeout.
func WithWorkflowTimeout(d time.Duration) Option {
	return func(c *Config) { c.WorkflowTimeout = d }
}

// WithRetryPolicy overrides the default RetryPolicy applied to retryable
// vertex failures.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Config) { c.RetryPolicy = p }
}

// WithTracingDisabled turns off observability event emission.
func WithTracingDisabled() Option {
	return func(c *Config) { c.TracingEnabled = false }
}

// WithMetrics attaches a RuntimeMetrics collector.
func WithMetrics(m *RuntimeMetrics) Option {
	return func(c *Config) { c.metrics = m }
}

// WithCostTracker attaches a CostTracker for agent-vertex LLM spend.
func WithCostTracker(t *CostTracker) Option {
	return func(c *Config) { c.costTracker = t }
}

// WithEmitter attaches an observability event sink. Default is emit.NewNull().
func WithEmitter(e emit.Emitter) Option {
	return func(c *Config) { c.emitter = e }
}
