package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server/internal/infra"
	"server/internal/providers/sketchai"
	"server/internal/sketch"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := &infra.Config{
		MaxBatchSize:        5,
		MaxItemBytes:        1 << 20,
		BatchConcurrency:    2,
		BatchMaxConcurrency: 4,
	}
	engine := sketch.NewEngine(sketchai.NewLocalBackend(zerolog.Nop()), zerolog.Nop(), cfg.BatchMaxConcurrency)
	return NewApp(cfg, zerolog.Nop(), nil, engine, nil)
}

func testPhotoB64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			shade := uint8((x * 255) / 24)
			img.Set(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func postBatch(t *testing.T, app *App, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/sketch/batch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.BatchConvert(rec, req)
	return rec
}

func TestBatchConvertRendersEveryItem(t *testing.T) {
	app := newTestApp(t)
	photo := testPhotoB64(t)
	body, err := json.Marshal(map[string]any{
		"style": "pencil",
		"items": []map[string]string{
			{"data": photo, "name": "first"},
			{"data": photo},
			{"data": photo},
		},
	})
	require.NoError(t, err)

	rec := postBatch(t, app, string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.BatchID)
	assert.Equal(t, 3, resp.TotalImages)
	assert.Equal(t, 3, resp.Successful)
	assert.Equal(t, 0, resp.Failed)
	require.Len(t, resp.Results, 3)
	for i, res := range resp.Results {
		assert.Equal(t, i, res.Index)
		assert.True(t, res.Success)
		assert.NotEmpty(t, res.Data)
		assert.Equal(t, "local", res.Metadata["provider"])
	}
}

func TestBatchConvertIsolatesBadItem(t *testing.T) {
	app := newTestApp(t)
	photo := testPhotoB64(t)
	garbage := base64.StdEncoding.EncodeToString([]byte("not an image"))
	body, err := json.Marshal(map[string]any{
		"style": "ink",
		"items": []map[string]string{
			{"data": photo},
			{"data": garbage},
			{"data": photo},
		},
	})
	require.NoError(t, err)

	rec := postBatch(t, app, string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Successful)
	assert.Equal(t, 1, resp.Failed)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)
	assert.NotEmpty(t, resp.Results[1].Error)
	assert.Empty(t, resp.Results[1].Data)
	assert.True(t, resp.Results[2].Success)
}

func TestBatchConvertValidation(t *testing.T) {
	app := newTestApp(t)
	photo := testPhotoB64(t)
	oversized := base64.StdEncoding.EncodeToString(make([]byte, app.Config.MaxItemBytes+1))

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", "{", "bad_request"},
		{"empty items", `{"style":"pencil","items":[]}`, "bad_request"},
		{"unknown style", `{"style":"oil","items":[{"data":"` + photo + `"}]}`, "unsupported_style"},
		{"bad base64", `{"style":"pencil","items":[{"data":"%%%"}]}`, "bad_request"},
		{"oversized item", `{"style":"pencil","items":[{"data":"` + oversized + `"}]}`, "item_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postBatch(t, app, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBatchConvertRejectsOverLimit(t *testing.T) {
	app := newTestApp(t)
	photo := testPhotoB64(t)
	items := make([]map[string]string, app.Config.MaxBatchSize+1)
	for i := range items {
		items[i] = map[string]string{"data": photo}
	}
	body, err := json.Marshal(map[string]any{"style": "pencil", "items": items})
	require.NoError(t, err)

	rec := postBatch(t, app, string(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "batch_too_large")
}

func TestBatchConvertIsDeterministicWithBaseSeed(t *testing.T) {
	app := newTestApp(t)
	photo := testPhotoB64(t)
	body, err := json.Marshal(map[string]any{
		"style":     "charcoal",
		"base_seed": 42,
		"items":     []map[string]string{{"data": photo}, {"data": photo}},
	})
	require.NoError(t, err)

	first := postBatch(t, app, string(body))
	second := postBatch(t, app, string(body))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b batchResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	require.Len(t, a.Results, 2)
	assert.Equal(t, a.Results[0].Data, b.Results[0].Data)
	assert.Equal(t, a.Results[1].Data, b.Results[1].Data)
	// Adjacent items use consecutive seeds, so their grain differs.
	assert.NotEqual(t, a.Results[0].Data, a.Results[1].Data)
}
