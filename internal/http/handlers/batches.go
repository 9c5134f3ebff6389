package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/sketch"
)

type batchItemPayload struct {
	Data string `json:"data"`
	Name string `json:"name,omitempty"`
}

type batchOptions struct {
	Quality string `json:"quality,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

type batchConvertRequest struct {
	Items       []batchItemPayload `json:"items"`
	Style       string             `json:"style"`
	Options     batchOptions       `json:"options"`
	Concurrency int                `json:"concurrency,omitempty"`
	BaseSeed    *int64             `json:"base_seed,omitempty"`
}

type batchResultItem struct {
	Index      int            `json:"index"`
	Success    bool           `json:"success"`
	Data       string         `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type batchResponse struct {
	BatchID               string            `json:"batch_id"`
	TotalImages           int               `json:"total_images"`
	Successful            int               `json:"successful"`
	Failed                int               `json:"failed"`
	ProcessingTimeMs      int64             `json:"processing_time_ms"`
	AverageTimePerImageMs int64             `json:"average_time_per_image_ms"`
	Results               []batchResultItem `json:"results"`
}

// BatchConvert runs a sketch batch synchronously and streams the rendered
// images back inline. A batch with failing items is still a 200; callers
// inspect each result's success flag. Nothing is persisted.
func (a *App) BatchConvert(w http.ResponseWriter, r *http.Request) {
	var req batchConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	batch, err := a.buildBatch(&req)
	if err != nil {
		a.validationError(w, err)
		return
	}

	result, err := a.Engine.Run(r.Context(), batch)
	if err != nil {
		a.Logger.Error().Err(err).Str("batch_id", batch.ID).Msg("batch: scheduler failure")
		a.error(w, http.StatusInternalServerError, "internal", "batch scheduling failed")
		return
	}

	a.json(w, http.StatusOK, buildBatchResponse(batch.ID, result))
}

// validationError maps a domain validation error onto the response envelope.
func (a *App) validationError(w http.ResponseWriter, err error) {
	code := "bad_request"
	switch {
	case errors.Is(err, domain.ErrBatchTooLarge):
		code = "batch_too_large"
	case errors.Is(err, domain.ErrItemTooLarge):
		code = "item_too_large"
	case errors.Is(err, domain.ErrUnsupportedStyle):
		code = "unsupported_style"
	}
	a.error(w, http.StatusBadRequest, code, err.Error())
}

// buildBatch validates the request and assembles the engine input.
func (a *App) buildBatch(req *batchConvertRequest) (*sketch.Batch, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items must not be empty", domain.ErrInvalidBatch)
	}
	if len(req.Items) > a.Config.MaxBatchSize {
		return nil, fmt.Errorf("%w: limit is %d items", domain.ErrBatchTooLarge, a.Config.MaxBatchSize)
	}
	style, ok := sketch.ParseStyle(req.Style)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedStyle, req.Style)
	}

	items := make([]sketch.Item, len(req.Items))
	for i, payload := range req.Items {
		data, err := base64.StdEncoding.DecodeString(payload.Data)
		if err != nil || len(data) == 0 {
			return nil, fmt.Errorf("%w: item %d must be non-empty base64", domain.ErrInvalidBatch, i)
		}
		if len(data) > a.Config.MaxItemBytes {
			return nil, fmt.Errorf("%w: item %d is over %d bytes", domain.ErrItemTooLarge, i, a.Config.MaxItemBytes)
		}
		name := payload.Name
		if name == "" {
			name = fmt.Sprintf("image-%02d", i+1)
		}
		items[i] = sketch.Item{Index: i, Name: name, Data: data, Status: sketch.StatusPending}
	}

	baseSeed := sketch.NewBaseSeed()
	if req.BaseSeed != nil {
		baseSeed = *req.BaseSeed
	}
	sketch.AssignSeeds(baseSeed, items)

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = a.Config.BatchConcurrency
	}

	return &sketch.Batch{
		ID:          uuid.NewString(),
		Style:       style,
		Options:     sketch.Options(req.Options),
		Items:       items,
		Concurrency: concurrency,
		BaseSeed:    baseSeed,
	}, nil
}

func buildBatchResponse(batchID string, result *sketch.Result) batchResponse {
	resp := batchResponse{
		BatchID:               batchID,
		TotalImages:           result.Total,
		Successful:            result.Succeeded,
		Failed:                result.Failed,
		ProcessingTimeMs:      result.Elapsed.Milliseconds(),
		AverageTimePerImageMs: result.AvgPerItem.Milliseconds(),
		Results:               make([]batchResultItem, len(result.Outcomes)),
	}
	for i, out := range result.Outcomes {
		item := batchResultItem{
			Index:      out.Index,
			Success:    out.Success,
			DurationMs: out.Elapsed.Milliseconds(),
		}
		if out.Success && out.Artifact != nil {
			item.Data = base64.StdEncoding.EncodeToString(out.Artifact.Data)
			item.Metadata = map[string]any{
				"format":   out.Artifact.Format,
				"width":    out.Artifact.Width,
				"height":   out.Artifact.Height,
				"provider": out.Artifact.Provider,
			}
			if out.Artifact.Model != "" {
				item.Metadata["model"] = out.Artifact.Model
			}
		} else {
			item.Error = out.Err
		}
		resp.Results[i] = item
	}
	return resp
}
