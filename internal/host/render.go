package host

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
)

// upperHalf paints the top pixel in the foreground and the bottom pixel in
// the background
const upperHalf = "▀"

// RenderHalfBlocks draws img into cols terminal columns, two pixel rows per
// line. Images wider than cols are downscaled keeping the aspect ratio.
func RenderHalfBlocks(img image.Image, cols int) string {
	b := img.Bounds()
	if cols <= 0 || b.Empty() {
		return ""
	}
	var src image.Image = img
	if b.Dx() != cols {
		src = imaging.Resize(img, cols, 0, imaging.Box)
	}
	b = src.Bounds()

	var out strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			out.WriteByte('\n')
		}

		// group runs of identical cells into one styled span
		runStart := b.Min.X
		var runFg, runBg string
		for x := b.Min.X; x <= b.Max.X; x++ {
			var fg, bg string
			if x < b.Max.X {
				fg = hexColor(src, x, y)
				bg = "#000000"
				if y+1 < b.Max.Y {
					bg = hexColor(src, x, y+1)
				}
				if x == runStart {
					runFg, runBg = fg, bg
					continue
				}
				if fg == runFg && bg == runBg {
					continue
				}
			}
			out.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(runFg)).
				Background(lipgloss.Color(runBg)).
				Render(strings.Repeat(upperHalf, x-runStart)))
			runStart, runFg, runBg = x, fg, bg
		}
	}
	return out.String()
}

func hexColor(img image.Image, x, y int) string {
	r, g, b, _ := img.At(x, y).RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// FitColumns picks the panel width for a terminal of the given size,
// leaving room for the border, status line and help.
func FitColumns(panel image.Rectangle, width, height int) int {
	cols := min(panel.Dx(), width-2)
	if rows := height - chromeLines; rows > 0 {
		cols = min(cols, rows*2*panel.Dx()/panel.Dy())
	}
	return max(cols, 0)
}

// SaveSnapshot writes img as a timestamped PNG in dir and returns its path.
func SaveSnapshot(img image.Image, dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	path := filepath.Join(dir, "granitica-"+now.Format("20060102-150405.000")+".png")
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return path, nil
}
