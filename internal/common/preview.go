package common

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

// PreviewRenderer produces a thumbnail image of the given dimensions from a
// scenario folder.
type PreviewRenderer interface {
	Render(scenarioFolder string, width, height int) (image.Image, error)
}

type previewRenderer struct {
}

func NewPreviewRenderer() PreviewRenderer {
	return &previewRenderer{}
}

// Render decodes the first preview image shipped inside the scenario folder
// and scales it to the requested size.
func (r *previewRenderer) Render(scenarioFolder string, width, height int) (image.Image, error) {
	entries, err := os.ReadDir(scenarioFolder)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		var img image.Image
		path := filepath.Join(scenarioFolder, entry.Name())
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png":
			img, err = decodeWith(path, png.Decode)
		case ".jpg", ".jpeg":
			img, err = decodeWith(path, jpeg.Decode)
		default:
			continue
		}
		if err != nil {
			continue
		}

		return resize.Resize(uint(width), uint(height), img, resize.Lanczos2), nil
	}

	return nil, fmt.Errorf("no preview image found in %s", scenarioFolder)
}

func decodeWith(path string, decode func(r io.Reader) (image.Image, error)) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return decode(f)
}
