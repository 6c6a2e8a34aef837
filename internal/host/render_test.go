package host

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderHalfBlocks_OneCellPerPixelPair(t *testing.T) {
	img := solid(4, 3, color.RGBA{R: 255, A: 255})
	img.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})

	out := RenderHalfBlocks(img, 4)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2, "odd rows round up")
	for _, line := range lines {
		assert.Equal(t, 4, strings.Count(line, upperHalf))
		assert.Equal(t, 4, lipgloss.Width(line))
	}
}

func TestRenderHalfBlocks_Downscales(t *testing.T) {
	img := solid(240, 135, color.RGBA{B: 255, A: 255})

	out := RenderHalfBlocks(img, 60)

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 17)
	assert.Equal(t, 60, strings.Count(lines[0], upperHalf))
}

func TestRenderHalfBlocks_Empty(t *testing.T) {
	assert.Empty(t, RenderHalfBlocks(solid(4, 4, color.RGBA{}), 0))
	assert.Empty(t, RenderHalfBlocks(image.NewRGBA(image.Rectangle{}), 10))
}

func TestFitColumns(t *testing.T) {
	panel := image.Rect(0, 0, 240, 135)
	tests := []struct {
		name          string
		width, height int
		want          int
	}{
		{"large terminal", 300, 100, 240},
		{"narrow", 100, 40, 98},
		{"short", 250, 20, 53},
		{"unknown size", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FitColumns(panel, tt.width, tt.height))
		})
	}
}

func TestSaveSnapshot(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 18, 9, 30, 15, 250_000_000, time.UTC)

	path, err := SaveSnapshot(solid(240, 135, color.RGBA{R: 255, A: 255}), dir, now)
	require.NoError(t, err)

	assert.Equal(t, "granitica-20261018-093015.250.png", path[len(dir)+1:])
	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 240, 135), img.Bounds())
}

func TestRenderInline_HalfBlocks(t *testing.T) {
	img := solid(240, 135, color.RGBA{B: 255, A: 255})

	out, err := RenderInline(img, InlineHalfBlocks, 80)
	require.NoError(t, err)
	assert.Equal(t, RenderHalfBlocks(img, 80), out)

	out, err = RenderInline(img, "", 80)
	require.NoError(t, err)
	assert.NotEmpty(t, out, "half blocks are the default")
}

func TestRenderInline_Errors(t *testing.T) {
	img := solid(240, 135, color.RGBA{A: 255})

	_, err := RenderInline(img, "ascii", 80)
	assert.ErrorContains(t, err, `unknown inline protocol "ascii"`)

	_, err = RenderInline(img, InlineKitty, 0)
	assert.ErrorContains(t, err, "into 0 columns")
}
