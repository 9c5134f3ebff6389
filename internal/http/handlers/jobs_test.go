package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server/internal/domain"
	"server/internal/middleware"
)

// sqlStub answers QueryRow with canned values and records the last query.
type sqlStub struct {
	rowVals   []any
	rowErr    error
	lastQuery string
	lastArgs  []any
}

func (s *sqlStub) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.lastQuery = query
	s.lastArgs = args
	return pgconn.CommandTag{}, nil
}

func (s *sqlStub) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.lastQuery = query
	s.lastArgs = args
	return valsRow{vals: s.rowVals, err: s.rowErr}
}

func (s *sqlStub) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type valsRow struct {
	vals []any
	err  error
}

func (r valsRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: want %d destinations, got %d", len(r.vals), len(dest))
	}
	for i, v := range r.vals {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *int64:
			*d = v.(int64)
		case *time.Time:
			*d = v.(time.Time)
		case *json.RawMessage:
			*d = json.RawMessage(v.(string))
		case *[]byte:
			*d = []byte(v.(string))
		case *domain.JobType:
			*d = domain.JobType(v.(string))
		case *domain.JobStatus:
			*d = domain.JobStatus(v.(string))
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}

func authedRequest(method, target, body, userID string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func withJobID(req *http.Request, jobID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("jobID", jobID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestJobsEnqueueAccepted(t *testing.T) {
	app := newTestApp(t)
	stub := &sqlStub{rowVals: []any{"4b8f2a7e-0000-0000-0000-000000000001", 9}}
	app.SQL = stub

	body, err := json.Marshal(map[string]any{
		"style": "pencil",
		"items": []map[string]string{{"data": testPhotoB64(t)}},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.JobsEnqueue(rec, authedRequest(http.MethodPost, "/v1/sketch/jobs", string(body), "user-1"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp jobEnqueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "4b8f2a7e-0000-0000-0000-000000000001", resp.JobID)
	assert.Equal(t, "QUEUED", resp.Status)
	assert.Equal(t, 1, resp.ItemCount)
	assert.Equal(t, 9, resp.RemainingQuota)

	// Enqueue binds user, style, payload, item count, concurrency, base seed.
	require.Len(t, stub.lastArgs, 6)
	assert.Equal(t, "user-1", stub.lastArgs[0])
	assert.Equal(t, "pencil", stub.lastArgs[1])
	assert.Equal(t, 1, stub.lastArgs[3])
}

func TestJobsEnqueueQuotaExceeded(t *testing.T) {
	app := newTestApp(t)
	app.SQL = &sqlStub{rowErr: pgx.ErrNoRows}

	body, err := json.Marshal(map[string]any{
		"style": "pencil",
		"items": []map[string]string{{"data": testPhotoB64(t)}},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.JobsEnqueue(rec, authedRequest(http.MethodPost, "/v1/sketch/jobs", string(body), "user-1"))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "quota_exceeded")
}

func TestJobsEnqueueRequiresAuth(t *testing.T) {
	app := newTestApp(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/sketch/jobs", strings.NewReader("{}"))
	app.JobsEnqueue(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJobStatusFound(t *testing.T) {
	app := newTestApp(t)
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	app.SQL = &sqlStub{rowVals: []any{
		"job-1", "user-1", "SKETCH_BATCH", "SUCCEEDED", "ink",
		4, 2, created, created.Add(time.Minute), `{"succeeded":4,"failed":0}`, "",
	}}

	rec := httptest.NewRecorder()
	req := withJobID(authedRequest(http.MethodGet, "/v1/sketch/jobs/job-1", "", "user-1"), "job-1")
	app.JobStatus(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp jobStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, "SUCCEEDED", resp.Status)
	assert.Equal(t, "ink", resp.Style)
	assert.Equal(t, 4, resp.ItemCount)
	assert.JSONEq(t, `{"succeeded":4,"failed":0}`, string(resp.Result))
}

func TestJobStatusNotFound(t *testing.T) {
	app := newTestApp(t)
	app.SQL = &sqlStub{rowErr: pgx.ErrNoRows}

	rec := httptest.NewRecorder()
	req := withJobID(authedRequest(http.MethodGet, "/v1/sketch/jobs/missing", "", "user-1"), "missing")
	app.JobStatus(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestStatsSummary(t *testing.T) {
	app := newTestApp(t)
	app.SQL = &sqlStub{rowVals: []any{int64(2), int64(1), int64(7), int64(3), int64(5)}}

	rec := httptest.NewRecorder()
	app.StatsSummary(rec, authedRequest(http.MethodGet, "/v1/stats/summary", "", "user-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Queued)
	assert.Equal(t, int64(7), resp.Succeeded)
	assert.Equal(t, int64(5), resp.Last24h)
}
