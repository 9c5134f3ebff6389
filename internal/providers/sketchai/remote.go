package sketchai

import (
	"context"
	"fmt"
	"net/http"

	"server/internal/providers/genai"
	"server/internal/sketch"
)

// RemoteBackend adapts the Gemini client to the sketch.Backend contract.
type RemoteBackend struct {
	client *genai.Client
}

func NewRemoteBackend(client *genai.Client) *RemoteBackend {
	return &RemoteBackend{client: client}
}

func (b *RemoteBackend) Convert(ctx context.Context, item sketch.Item, style sketch.Style, opts sketch.Options) (*sketch.Artifact, error) {
	asset, err := b.client.SketchImage(ctx, genai.SketchRequest{
		ImageData: item.Data,
		MIME:      sniffMIME(item.Data),
		Style:     string(style),
		Seed:      item.Seed,
		Quality:   opts.Quality,
		Width:     opts.Width,
		Height:    opts.Height,
		RequestID: item.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini sketch: %w", err)
	}
	return &sketch.Artifact{
		Data:     asset.Data,
		Format:   asset.Format,
		Width:    asset.Width,
		Height:   asset.Height,
		Provider: "gemini",
		Model:    b.client.Model(),
	}, nil
}

func sniffMIME(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return http.DetectContentType(data)
}

var _ sketch.Backend = (*RemoteBackend)(nil)
