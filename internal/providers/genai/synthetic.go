package genai

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"strings"

	_ "image/jpeg"
)

const (
	defaultSketchWidth  = 768
	defaultSketchHeight = 768
)

// syntheticSketch renders a deterministic placeholder sketch from the request
// seed: a paper-toned canvas with seeded hatch strokes. The same seed always
// yields the same image, so batches stay reproducible without an API key.
func (c *Client) syntheticSketch(req SketchRequest) (*SketchAsset, error) {
	width, height := req.Width, req.Height
	if width <= 0 || height <= 0 {
		if w, h := decodeImageDimensions(req.ImageData); w > 0 && h > 0 {
			width, height = w, h
		} else {
			width, height = defaultSketchWidth, defaultSketchHeight
		}
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	paper := uint8(245)
	for i := range img.Pix {
		img.Pix[i] = paper
	}

	rng := rand.New(rand.NewPCG(uint64(req.Seed), 0x736b6574636800))
	strokes := 60 + rng.IntN(60)
	dark := strokeShade(req.Style)
	for i := 0; i < strokes; i++ {
		drawStroke(img, rng, dark)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("genai: encode synthetic sketch: %w", err)
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Int64("seed", req.Seed).
		Str("style", req.Style).
		Msg("genai: rendered synthetic sketch")

	return &SketchAsset{
		Data:   buf.Bytes(),
		Format: "image/png",
		Width:  width,
		Height: height,
	}, nil
}

func strokeShade(style string) uint8 {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "charcoal":
		return 40
	case "ink":
		return 10
	default:
		return 80
	}
}

// drawStroke draws one slightly slanted line segment with jittered endpoints.
func drawStroke(img *image.Gray, rng *rand.Rand, shade uint8) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	x := rng.IntN(w)
	y := rng.IntN(h)
	length := 10 + rng.IntN(w/4+1)
	slope := rng.IntN(5) - 2
	for i := 0; i < length; i++ {
		px := x + i
		py := y + i*slope/8
		if px < 0 || px >= w || py < 0 || py >= h {
			break
		}
		img.SetGray(px, py, color.Gray{Y: shade})
	}
}

// decodeImageDimensions sniffs the bounds of an encoded image without
// keeping the decoded pixels.
func decodeImageDimensions(data []byte) (int, int) {
	if len(data) == 0 {
		return 0, 0
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
