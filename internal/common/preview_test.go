package common

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreviewRenderer(t *testing.T) {
	folder := t.TempDir()
	out, err := os.Create(filepath.Join(folder, "canis_river_preview.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(out, image.NewRGBA(image.Rect(0, 0, 64, 64))))
	require.NoError(t, out.Close())

	img, err := NewPreviewRenderer().Render(folder, 128, 128)
	require.NoError(t, err)
	require.Equal(t, 128, img.Bounds().Dx())
	require.Equal(t, 128, img.Bounds().Dy())
}

func TestPreviewRendererNoImage(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "canis_river.scmap"), []byte{0x4d}, 0600))

	_, err := NewPreviewRenderer().Render(folder, 128, 128)
	require.Error(t, err)
}
