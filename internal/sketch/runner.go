package sketch

import (
	"context"
	"fmt"
	"time"
)

// runItem executes exactly one item against the backend and converts any
// failure, including a panic inside the backend, into a failed Outcome. A
// malformed or oversized item therefore never aborts its siblings.
func (e *Engine) runItem(ctx context.Context, batch *Batch, item Item) (out Outcome) {
	start := time.Now()
	out = Outcome{Index: item.Index}

	defer func() {
		if r := recover(); r != nil {
			out.Success = false
			out.Artifact = nil
			out.Err = fmt.Sprintf("backend panic: %v", r)
			out.Elapsed = time.Since(start)
			e.logger.Error().
				Str("batch_id", batch.ID).
				Int("index", item.Index).
				Msgf("sketch: recovered backend panic: %v", r)
		}
	}()

	artifact, err := e.backend.Convert(ctx, item, batch.Style, batch.Options)
	out.Elapsed = time.Since(start)
	if err != nil {
		out.Err = err.Error()
		e.logger.Debug().
			Str("batch_id", batch.ID).
			Int("index", item.Index).
			Dur("elapsed", out.Elapsed).
			Msgf("sketch: item failed: %v", err)
		return out
	}

	out.Success = true
	out.Artifact = artifact
	return out
}
