package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/providers/genai"
	"server/internal/providers/sketchai"
	"server/internal/sketch"
	"server/internal/sqlinline"
	"server/internal/storage"
)

const jobPollInterval = 2 * time.Second

var errNoJobAvailable = errors.New("no job available")

// claimedJob mirrors the columns returned by the claim query.
type claimedJob struct {
	ID          string
	UserID      string
	Style       string
	Payload     json.RawMessage
	ItemCount   int
	Concurrency int
	BaseSeed    int64
}

// jobPayload mirrors the document the API stores at enqueue time.
type jobPayload struct {
	Items []struct {
		Data string `json:"data"`
		Name string `json:"name,omitempty"`
	} `json:"items"`
	Options struct {
		Quality string `json:"quality,omitempty"`
		Width   int    `json:"width,omitempty"`
		Height  int    `json:"height,omitempty"`
	} `json:"options"`
}

type jobWorker struct {
	ctx    context.Context
	runner *infra.SQLRunner
	logger infra.Logger
	engine *sketch.Engine
	store  *storage.FileStore
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	backend := buildBackend(ctx, cfg, runner, logger)

	worker := &jobWorker{
		ctx:    ctx,
		runner: runner,
		logger: logger,
		engine: sketch.NewEngine(backend, logger, cfg.BatchMaxConcurrency),
		store:  fileStore,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func buildBackend(ctx context.Context, cfg *infra.Config, runner *infra.SQLRunner, logger infra.Logger) sketch.Backend {
	if cfg.SketchProvider != "gemini" {
		logger.Info().Str("provider", cfg.SketchProvider).Msg("worker: using local sketch backend")
		return sketchai.NewLocalBackend(logger)
	}

	apiKey := strings.TrimSpace(cfg.GeminiAPIKey)
	if apiKey == "" {
		credStore := credentials.NewStore(runner)
		keyFromStore, err := credStore.GeminiAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("worker: failed to load gemini api key from store")
		} else {
			apiKey = keyFromStore
		}
	}

	client, err := genai.NewClient(genai.Options{
		APIKey:     apiKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure gemini client")
	}
	if apiKey == "" {
		logger.Warn().Str("model", client.Model()).Msg("worker: gemini api key missing, using synthetic rendering")
	}
	return sketchai.NewRemoteBackend(client)
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		j, err := w.claimJob()
		if err != nil {
			if !errors.Is(err, errNoJobAvailable) {
				w.logger.Error().Err(err).Msg("worker: failed to claim job")
			}
			time.Sleep(jobPollInterval)
			continue
		}

		w.handleJob(j)
	}
}

func (w *jobWorker) claimJob() (claimedJob, error) {
	row := w.runner.QueryRow(w.ctx, sqlinline.QWorkerClaimJob)
	var j claimedJob
	if err := row.Scan(&j.ID, &j.UserID, &j.Style, &j.Payload, &j.ItemCount, &j.Concurrency, &j.BaseSeed); err != nil {
		if infra.IsNoRows(err) {
			return claimedJob{}, errNoJobAvailable
		}
		return claimedJob{}, err
	}
	// Ensure payload bytes are not aliased to the driver's buffer.
	j.Payload = append(json.RawMessage(nil), j.Payload...)
	return j, nil
}

func (w *jobWorker) handleJob(j claimedJob) {
	w.logger.Info().Str("job_id", j.ID).Str("style", j.Style).Int("items", j.ItemCount).Msg("worker: picked job")

	result, err := w.processJob(j)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", j.ID).Msg("worker: job failed")
		w.finishJob(j.ID, string(domain.JobStatusFailed), nil, err.Error())
		return
	}

	summary, err := json.Marshal(map[string]any{
		"total":                result.Total,
		"succeeded":            result.Succeeded,
		"failed":               result.Failed,
		"processing_time_ms":   result.Elapsed.Milliseconds(),
		"avg_time_per_item_ms": result.AvgPerItem.Milliseconds(),
	})
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", j.ID).Msg("worker: encode result failed")
		summary = []byte(`{}`)
	}
	w.finishJob(j.ID, string(domain.JobStatusSucceeded), summary, "")
}

func (w *jobWorker) finishJob(jobID, status string, result []byte, errMsg string) {
	if result == nil {
		result = []byte(`{}`)
	}
	if _, err := w.runner.Exec(w.ctx, sqlinline.QUpdateJobResult, jobID, status, result, errMsg); err != nil {
		w.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: update job result failed")
	}
}

// processJob rebuilds the batch from the stored payload, runs the engine and
// persists every successful item as an asset.
func (w *jobWorker) processJob(j claimedJob) (*sketch.Result, error) {
	var payload jobPayload
	if err := json.Unmarshal(j.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	style, ok := sketch.ParseStyle(j.Style)
	if !ok {
		return nil, fmt.Errorf("unsupported style %q", j.Style)
	}

	items := make([]sketch.Item, len(payload.Items))
	for i, p := range payload.Items {
		data, err := base64Decode(p.Data)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("image-%02d", i+1)
		}
		items[i] = sketch.Item{Index: i, Name: name, Data: data, Status: sketch.StatusPending}
	}
	sketch.AssignSeeds(j.BaseSeed, items)

	batch := &sketch.Batch{
		ID:    j.ID,
		Style: style,
		Options: sketch.Options{
			Quality: payload.Options.Quality,
			Width:   payload.Options.Width,
			Height:  payload.Options.Height,
		},
		Items:       items,
		Concurrency: j.Concurrency,
		BaseSeed:    j.BaseSeed,
	}

	result, err := w.engine.Run(w.ctx, batch)
	if err != nil {
		return nil, err
	}

	for _, out := range result.Outcomes {
		if !out.Success || out.Artifact == nil {
			continue
		}
		w.persistOutcome(j, out)
	}
	return result, nil
}

func (w *jobWorker) persistOutcome(j claimedJob, out sketch.Outcome) {
	art := out.Artifact
	key := fmt.Sprintf("sketches/%s/sketch-%03d%s", j.ID, out.Index+1, extensionForMIME(art.Format))
	savedKey, err := w.store.Write(w.ctx, key, art.Data)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", j.ID).Int("item_index", out.Index).Msg("worker: persist asset failed")
		return
	}

	properties, _ := json.Marshal(map[string]any{
		"provider":    art.Provider,
		"model":       art.Model,
		"style":       j.Style,
		"duration_ms": out.Elapsed.Milliseconds(),
	})
	seed := j.BaseSeed + int64(out.Index)
	if _, err := w.runner.Exec(
		w.ctx,
		sqlinline.QInsertAsset,
		j.UserID,
		j.ID,
		out.Index,
		savedKey,
		art.Format,
		int64(len(art.Data)),
		art.Width,
		art.Height,
		seed,
		properties,
	); err != nil {
		w.logger.Error().Err(err).Str("job_id", j.ID).Int("item_index", out.Index).Msg("worker: insert asset failed")
	}
}

func base64Decode(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("data must be base64: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("data must not be empty")
	}
	return data, nil
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	default:
		return ".bin"
	}
}
