package sketch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultConcurrency is used when a batch does not override the limit.
	DefaultConcurrency = 3
	// MaxConcurrency caps any requested limit so a single request cannot
	// monopolize backend capacity.
	MaxConcurrency = 8
)

// ErrScheduler marks a bookkeeping defect inside the coordinator loop. It
// should not occur; when it does the batch is aborted and whatever outcomes
// were already assembled are still returned.
var ErrScheduler = errors.New("sketch: scheduler state corrupted")

// Engine runs batches: it admits items from the pending queue into a bounded
// active set, waits for the next completion, and assembles outcomes by their
// original index until every item is terminal.
type Engine struct {
	backend Backend
	logger  zerolog.Logger
	maxConc int
}

// NewEngine builds an engine around the given conversion backend.
// maxConcurrency caps what a single batch may request; zero or negative
// falls back to MaxConcurrency.
func NewEngine(backend Backend, logger zerolog.Logger, maxConcurrency int) *Engine {
	if maxConcurrency <= 0 {
		maxConcurrency = MaxConcurrency
	}
	return &Engine{backend: backend, logger: logger, maxConc: maxConcurrency}
}

// clampConcurrency normalizes a requested limit into [1, maxConc].
func (e *Engine) clampConcurrency(requested int) int {
	if requested <= 0 {
		return DefaultConcurrency
	}
	if requested > e.maxConc {
		return e.maxConc
	}
	return requested
}

// Run executes every item of the batch to a terminal outcome and returns the
// assembled result. Item-level failures are data, not errors: the returned
// error is non-nil only for ErrScheduler, and even then the result carries
// the outcomes collected so far.
//
// The completion channel is the single suspension point. Admission keeps the
// active count at or below the concurrency limit; each finished item frees a
// slot before the next admission round. Outcome slots are written by index,
// so the result order matches the input order no matter which item finishes
// first.
func (e *Engine) Run(ctx context.Context, batch *Batch) (*Result, error) {
	limit := e.clampConcurrency(batch.Concurrency)
	total := len(batch.Items)

	started := time.Now()
	outcomes := make([]Outcome, total)
	filled := make([]bool, total)
	// Buffered so that in-flight items can still drain after an abort.
	done := make(chan Outcome, total)

	e.logger.Info().
		Str("batch_id", batch.ID).
		Str("style", string(batch.Style)).
		Int("items", total).
		Int("concurrency", limit).
		Msg("sketch: batch started")

	next := 0
	active := 0
	completed := 0
	for next < total || active > 0 {
		// Admission: fill the window in submission order.
		for active < limit && next < total {
			batch.Items[next].Status = StatusRunning
			item := batch.Items[next]
			active++
			next++
			go func() {
				done <- e.runItem(ctx, batch, item)
			}()
		}

		// Fan-in: suspend until any in-flight item finishes.
		out := <-done
		active--

		if err := e.bookkeep(batch, outcomes, filled, out, active); err != nil {
			return e.assemble(batch, outcomes, completed, time.Since(started)), err
		}
		completed++
	}

	result := e.assemble(batch, outcomes, completed, time.Since(started))
	e.logger.Info().
		Str("batch_id", batch.ID).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("elapsed", result.Elapsed).
		Msg("sketch: batch finished")
	return result, nil
}

// bookkeep records one completion. Any inconsistency here means the admission
// accounting is broken, which is fatal for the batch.
func (e *Engine) bookkeep(batch *Batch, outcomes []Outcome, filled []bool, out Outcome, active int) error {
	if active < 0 {
		return fmt.Errorf("%w: active count went negative", ErrScheduler)
	}
	if out.Index < 0 || out.Index >= len(outcomes) {
		return fmt.Errorf("%w: outcome index %d out of range", ErrScheduler, out.Index)
	}
	if filled[out.Index] {
		return fmt.Errorf("%w: duplicate outcome for index %d", ErrScheduler, out.Index)
	}
	filled[out.Index] = true
	outcomes[out.Index] = out
	if out.Success {
		batch.Items[out.Index].Status = StatusSucceeded
	} else {
		batch.Items[out.Index].Status = StatusFailed
	}
	return nil
}

// assemble computes batch aggregates over the index-addressed outcome slots.
func (e *Engine) assemble(batch *Batch, outcomes []Outcome, completed int, elapsed time.Duration) *Result {
	result := &Result{
		Outcomes: outcomes,
		Total:    len(outcomes),
		Elapsed:  elapsed,
	}
	var itemTime time.Duration
	for i := range outcomes {
		if !batch.Items[i].Status.Terminal() {
			continue
		}
		if outcomes[i].Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		itemTime += outcomes[i].Elapsed
	}
	if completed > 0 {
		result.AvgPerItem = itemTime / time.Duration(completed)
	}
	return result
}
