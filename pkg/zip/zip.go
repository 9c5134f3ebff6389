package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets bundles rendered sketches into a single zip payload for
// download. Filenames get an extension matching their MIME type when missing.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		name := withExtension(asset.Filename, asset.MIME)
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("zip: create entry %q: %w", name, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write entry %q: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func withExtension(name, mime string) string {
	if strings.Contains(name, ".") {
		return name
	}
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return name + ".png"
	case "image/jpeg", "image/jpg":
		return name + ".jpg"
	default:
		return name
	}
}
