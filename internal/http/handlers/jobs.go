package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
	"server/pkg/zip"
)

// jobPayload is the JSON document persisted with a queued job. The worker
// decodes it back into engine input; seeds are not stored per item because
// they derive from the job's base seed.
type jobPayload struct {
	Items   []batchItemPayload `json:"items"`
	Options batchOptions       `json:"options"`
}

type jobEnqueueResponse struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	ItemCount      int    `json:"item_count"`
	RemainingQuota int    `json:"remaining_quota"`
}

type jobStatusResponse struct {
	JobID       string          `json:"job_id"`
	TaskType    string          `json:"task_type"`
	Status      string          `json:"status"`
	Style       string          `json:"style"`
	ItemCount   int             `json:"item_count"`
	Concurrency int             `json:"concurrency"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Result      json.RawMessage `json:"result"`
	Error       string          `json:"error,omitempty"`
}

type jobAssetItem struct {
	AssetID    string          `json:"asset_id"`
	ItemIndex  int             `json:"item_index"`
	URL        string          `json:"url"`
	MIME       string          `json:"mime"`
	Bytes      int64           `json:"bytes"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Seed       int64           `json:"seed"`
	Properties json.RawMessage `json:"properties"`
	CreatedAt  time.Time       `json:"created_at"`
}

// JobsEnqueue validates a batch request, burns one unit of the user's quota
// and queues it for the background worker. It responds 202 with the job id.
func (a *App) JobsEnqueue(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

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

	payload := jobPayload{Items: req.Items, Options: req.Options}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to encode job payload")
		return
	}

	var jobID string
	var remaining int
	row := a.SQL.QueryRow(r.Context(), sqlinline.QEnqueueSketchJob,
		userID, string(batch.Style), payloadJSON, len(batch.Items), batch.Concurrency, batch.BaseSeed)
	if err := row.Scan(&jobID, &remaining); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusForbidden, "quota_exceeded", "sketch quota exhausted")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("jobs: enqueue failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to enqueue job")
		return
	}

	a.Logger.Info().Str("job_id", jobID).Str("user_id", userID).Int("items", len(batch.Items)).Msg("jobs: enqueued")
	a.json(w, http.StatusAccepted, jobEnqueueResponse{
		JobID:          jobID,
		Status:         string(domain.JobStatusQueued),
		ItemCount:      len(batch.Items),
		RemainingQuota: remaining,
	})
}

// JobStatus returns the lifecycle state of a job owned by the caller.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	jobID := chi.URLParam(r, "jobID")

	var job domain.Job
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectJobStatus, jobID, userID)
	err := row.Scan(&job.ID, &job.UserID, &job.Type, &job.Status, &job.Style,
		&job.ItemCount, &job.Concurrency, &job.CreatedAt, &job.UpdatedAt, &job.ResultJSON, &job.ErrorMessage)
	if err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("jobs: status lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusOK, jobStatusResponse{
		JobID:       job.ID,
		TaskType:    string(job.Type),
		Status:      string(job.Status),
		Style:       job.Style,
		ItemCount:   job.ItemCount,
		Concurrency: job.Concurrency,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		Result:      json.RawMessage(job.ResultJSON),
		Error:       job.ErrorMessage,
	})
}

// JobAssets lists the rendered sketches of a finished job.
func (a *App) JobAssets(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	jobID := chi.URLParam(r, "jobID")

	assets, err := a.loadJobAssets(r, jobID, userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("jobs: asset listing failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"job_id": jobID, "assets": assets})
}

// JobDownload streams a zip archive of every rendered sketch in the job.
func (a *App) JobDownload(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	jobID := chi.URLParam(r, "jobID")

	assets, err := a.loadJobAssets(r, jobID, userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("jobs: download listing failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "job has no downloadable assets")
		return
	}

	entries := make([]zip.Asset, 0, len(assets))
	for _, asset := range assets {
		data, err := a.Store.Read(r.Context(), asset.storageKey)
		if err != nil {
			a.Logger.Warn().Err(err).Str("job_id", jobID).Int("item_index", asset.ItemIndex).Msg("jobs: missing stored asset")
			continue
		}
		entries = append(entries, zip.Asset{
			Filename: fmt.Sprintf("sketch-%03d", asset.ItemIndex+1),
			MIME:     asset.MIME,
			Data:     data,
		})
	}
	if len(entries) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "stored assets are unavailable")
		return
	}

	archive, err := zip.ArchiveAssets(entries)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("jobs: archive build failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "sketch-job-"+jobID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

type jobAssetRecord struct {
	jobAssetItem
	storageKey string
}

func (a *App) loadJobAssets(r *http.Request, jobID, userID string) ([]jobAssetRecord, error) {
	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectJobAssets, jobID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]jobAssetRecord, 0, 8)
	for rows.Next() {
		var rec jobAssetRecord
		if err := rows.Scan(&rec.AssetID, &rec.ItemIndex, &rec.storageKey, &rec.MIME,
			&rec.Bytes, &rec.Width, &rec.Height, &rec.Seed, &rec.Properties, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.URL = a.assetURL(rec.storageKey)
		assets = append(assets, rec)
	}
	return assets, rows.Err()
}

func (a *App) assetURL(storageKey string) string {
	base := a.Config.StorageBaseURL
	if base == "" {
		return "/assets/" + storageKey
	}
	return base + "/" + storageKey
}
