package docgen

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/resilience/circuit"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/middleware/resilience/retry"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/logx"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/metrics"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/store"
)

// DefaultCallTimeout bounds one documentation request.
const DefaultCallTimeout = 120 * time.Second

// ErrInvalidConcurrency is returned for a worker bound below one.
var ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

// State is the lifecycle of one title within a run.
type State int

// Title states. Succeeded and Failed are terminal.
const (
	StatePending State = iota
	StateInFlight
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Observer is told about every state change. It is called from worker
// goroutines and must be safe for concurrent use.
type Observer func(title string, state State)

// Report summarises a run.
type Report struct {
	RunID           string
	Total           int // unique titles requested
	AlreadyDone     int // present in the store before the run
	RemainingBefore int // dispatched or left pending by cancellation
	Completed       int // newly succeeded
	Failed          int // newly recorded as failed
	Skipped         int // not finished because the run was cancelled or aborted
	Duration        time.Duration
}

// Coordinator generates documentation for every title missing from a store.
type Coordinator struct {
	client      DocumentationClient
	store       store.ResultStore
	policy      *retry.Policy
	callTimeout time.Duration
	temperature float32
	observer    Observer
	recorder    metrics.Recorder
	logger      *logx.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRetryPolicy replaces the default three-attempt, fixed-delay policy.
func WithRetryPolicy(p *retry.Policy) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithCallTimeout bounds each Generate call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.callTimeout = d }
}

// WithTemperature sets the sampling temperature passed to the client.
func WithTemperature(t float32) Option {
	return func(c *Coordinator) { c.temperature = t }
}

// WithObserver registers a state change callback.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithRecorder records a title counter per terminal result.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger replaces the coordinator logger.
func WithLogger(l *logx.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a coordinator writing to st.
func NewCoordinator(client DocumentationClient, st store.ResultStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:      client,
		store:       st,
		policy:      retry.NewPolicy(retry.DefaultConfig, retry.Always),
		callTimeout: DefaultCallTimeout,
		temperature: llm.TemperatureDeterministic,
		recorder:    metrics.Nop(),
		logger:      logx.NewLogger("docgen"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run loads the store, then generates documentation for every title not yet
// stored with at most concurrency requests in flight. Each result is
// persisted as soon as it is known. A persistence failure stops further
// dispatch and is returned with the partial report. Titles left undone by
// cancellation stay out of the store and are picked up by the next run.
func (c *Coordinator) Run(ctx context.Context, titles []string, concurrency int) (*Report, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, concurrency)
	}

	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	ctx = logx.WithRunID(ctx, report.RunID)

	if _, err := c.store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	unique := dedupe(titles)
	remaining := make([]string, 0, len(unique))
	for _, t := range unique {
		if !c.store.Has(t) {
			remaining = append(remaining, t)
		}
	}
	report.Total = len(unique)
	report.AlreadyDone = len(unique) - len(remaining)
	report.RemainingBefore = len(remaining)

	c.logger.Info("run %s: %d titles, %d already done, %d remaining", report.RunID, report.Total, report.AlreadyDone, report.RemainingBefore)
	if len(remaining) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	var completed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, title := range remaining {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			status, err := c.process(gctx, title)
			switch status {
			case store.StatusSuccess:
				completed.Add(1)
			case store.StatusFailed:
				failed.Add(1)
			}
			return err
		})
	}
	err := g.Wait()

	report.Completed = int(completed.Load())
	report.Failed = int(failed.Load())
	report.Skipped = report.RemainingBefore - report.Completed - report.Failed
	report.Duration = time.Since(start)

	if err != nil {
		return report, err
	}
	if report.Skipped > 0 {
		c.logger.Warn("run %s stopped early: %d titles left pending", report.RunID, report.Skipped)
	}
	c.logger.Info("run %s finished in %s: %d completed, %d failed", report.RunID, report.Duration.Round(time.Millisecond), report.Completed, report.Failed)
	return report, ctx.Err()
}

// process generates and persists one title. It returns an empty status when
// the title was left pending: cancelled, or rejected by an open circuit
// breaker without the provider being called.
func (c *Coordinator) process(ctx context.Context, title string) (store.Status, error) {
	if ctx.Err() != nil {
		return "", nil
	}
	c.notify(title, StateInFlight)
	logx.Debug(ctx, "docgen", "dispatch %q", title)
	c.logger.Info("generating: %s", title)

	var documentation string
	err := c.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		callCtx, cancel := c.withCallTimeout(ctx)
		defer cancel()

		text, err := c.client.Generate(callCtx, title, GenerateOptions{Temperature: c.temperature})
		if err != nil {
			c.logger.Warn("attempt %d for %q failed: %v", attempt, title, err)
			return err
		}
		documentation = text
		return nil
	})

	var result store.DocumentationResult
	var openCircuit *circuit.Error
	switch {
	case err == nil:
		result = store.Success(title, documentation)
	case ctx.Err() != nil:
		c.notify(title, StatePending)
		return "", nil
	case errors.As(err, &openCircuit):
		c.logger.Warn("%q left for the next run, provider was not reached: %v", title, err)
		c.notify(title, StatePending)
		return "", nil
	default:
		c.logger.Error("giving up on %q: %v", title, err)
		result = store.Failure(title)
	}

	if err := c.store.AppendAndFlush(result); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.logger.Warn("%q was stored by another writer, keeping the existing result", title)
			return "", nil
		}
		c.notify(title, StatePending)
		return "", logx.Wrap(err, fmt.Sprintf("failed to record %q", title))
	}

	c.recorder.ObserveTitle(string(result.Status))
	if result.Failed() {
		c.notify(title, StateFailed)
	} else {
		c.notify(title, StateSucceeded)
		c.logger.Info("completed: %s", title)
	}
	return result.Status, nil
}

func (c *Coordinator) withCallTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

func (c *Coordinator) notify(title string, state State) {
	if c.observer != nil {
		c.observer(title, state)
	}
}

// dedupe drops repeated titles, keeping first-occurrence order.
func dedupe(titles []string) []string {
	seen := make(map[string]struct{}, len(titles))
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
