package sketchai

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math/rand/v2"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/rs/zerolog"

	"server/internal/sketch"
)

// LocalBackend renders sketches in-process with the classic grayscale →
// invert → blur → color-dodge pipeline. It needs no credentials and no
// network, which makes it the default backend for development and the
// fallback provider in production.
type LocalBackend struct {
	logger zerolog.Logger
}

func NewLocalBackend(logger zerolog.Logger) *LocalBackend {
	return &LocalBackend{logger: logger}
}

func (b *LocalBackend) Convert(ctx context.Context, item sketch.Item, style sketch.Style, opts sketch.Options) (*sketch.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(item.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	gray := toGray(src)
	if opts.Width > 0 && opts.Height > 0 {
		gray = scaleGray(gray, opts.Width, opts.Height)
	}

	radius := blurRadius(opts.Quality)
	dodged := colorDodge(gray, boxBlur(inverted(gray), radius))
	applyStyle(dodged, style, item.Seed)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dodged); err != nil {
		return nil, fmt.Errorf("encode sketch: %w", err)
	}

	bounds := dodged.Bounds()
	return &sketch.Artifact{
		Data:     buf.Bytes(),
		Format:   "image/png",
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Provider: "local",
	}, nil
}

func blurRadius(quality string) int {
	switch quality {
	case "high":
		return 8
	case "draft":
		return 2
	default:
		return 4
	}
}

func toGray(src image.Image) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, src.At(x, y))
		}
	}
	return out
}

// scaleGray resizes with nearest-neighbor sampling. Output quality matters
// less than avoiding an extra dependency for a thumbnail-grade resize.
func scaleGray(src *image.Gray, width, height int) *image.Gray {
	srcBounds := src.Bounds()
	sw, sh := srcBounds.Dx(), srcBounds.Dy()
	if sw == width && sh == height {
		return src
	}
	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		sy := y * sh / height
		for x := 0; x < width; x++ {
			sx := x * sw / width
			out.SetGray(x, y, src.GrayAt(sx, sy))
		}
	}
	return out
}

func inverted(src *image.Gray) *image.Gray {
	out := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}

// boxBlur applies a two-pass (horizontal then vertical) box blur.
func boxBlur(src *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return src
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tmp := image.NewGray(bounds)
	out := image.NewGray(bounds)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, count := 0, 0
			for dx := -radius; dx <= radius; dx++ {
				px := x + dx
				if px < 0 || px >= w {
					continue
				}
				sum += int(src.GrayAt(px, y).Y)
				count++
			}
			tmp.Pix[y*tmp.Stride+x] = uint8(sum / count)
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum, count := 0, 0
			for dy := -radius; dy <= radius; dy++ {
				py := y + dy
				if py < 0 || py >= h {
					continue
				}
				sum += int(tmp.GrayAt(x, py).Y)
				count++
			}
			out.Pix[y*out.Stride+x] = uint8(sum / count)
		}
	}
	return out
}

// colorDodge blends the grayscale base against the blurred negative, which
// leaves near-white paper with dark strokes along luminance edges.
func colorDodge(base, blend *image.Gray) *image.Gray {
	out := image.NewGray(base.Bounds())
	for i := range base.Pix {
		b := int(base.Pix[i])
		d := int(blend.Pix[i])
		if d >= 255 {
			out.Pix[i] = 255
			continue
		}
		v := b * 255 / (255 - d)
		if v > 255 {
			v = 255
		}
		out.Pix[i] = uint8(v)
	}
	return out
}

// applyStyle post-processes the dodged image per style. The item seed drives
// grain and hatch placement so items in one batch vary while staying
// reproducible.
func applyStyle(img *image.Gray, style sketch.Style, seed int64) {
	rng := rand.New(rand.NewPCG(uint64(seed), 0x6c6f63616c00))
	switch style {
	case sketch.StyleInk:
		for i, v := range img.Pix {
			if v < 170 {
				img.Pix[i] = 0
			} else {
				img.Pix[i] = 255
			}
		}
	case sketch.StyleCharcoal:
		for i, v := range img.Pix {
			shifted := int(v)*int(v)/255 - rng.IntN(12)
			if shifted < 0 {
				shifted = 0
			}
			img.Pix[i] = uint8(shifted)
		}
	case sketch.StyleCrosshatch:
		hatch(img, rng)
	default: // pencil: light seeded grain
		for i := range img.Pix {
			if rng.IntN(24) == 0 && img.Pix[i] > 30 {
				img.Pix[i] -= uint8(10 + rng.IntN(20))
			}
		}
	}
}

// hatch darkens diagonal bands inside already-dark regions.
func hatch(img *image.Gray, rng *rand.Rand) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	offset := rng.IntN(6)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*img.Stride + x
			if img.Pix[i] >= 200 {
				continue
			}
			if (x+y+offset)%6 == 0 || (x-y+offset)%9 == 0 {
				img.Pix[i] = 20
			}
		}
	}
}

var _ sketch.Backend = (*LocalBackend)(nil)
