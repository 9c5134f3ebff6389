package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/sketch"
	"server/internal/storage"
)

// App bundles the dependencies shared by all HTTP handlers. Verifier is
// optional; without it Google sign-in responds 501.
type App struct {
	Config   *infra.Config
	Logger   zerolog.Logger
	SQL      infra.SQLExecutor
	Engine   *sketch.Engine
	Store    *storage.FileStore
	Verifier TokenVerifier
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, sql infra.SQLExecutor, engine *sketch.Engine, store *storage.FileStore) *App {
	return &App{Config: cfg, Logger: logger, SQL: sql, Engine: engine, Store: store}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]any{"error": map[string]string{"code": errCode, "message": message}})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
