// Package gfx implements the device screen as an in-memory RGBA
// framebuffer. The firmware draws into it from its tick loop while the
// terminal host and the mirror read snapshots from other goroutines.
package gfx

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/muurk/granitica/internal/firmware"
)

// Framebuffer is a firmware.Display backed by an image.RGBA.
type Framebuffer struct {
	mu    sync.RWMutex
	img   *image.RGBA
	face  font.Face
	frame uint64
}

// NewFramebuffer creates a black framebuffer of the given size
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		img:  image.NewRGBA(image.Rect(0, 0, width, height)),
		face: basicfont.Face7x13,
	}
	draw.Draw(fb.img, fb.img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return fb
}

// Bounds returns the screen rectangle
func (f *Framebuffer) Bounds() image.Rectangle {
	return f.img.Bounds()
}

// Frame returns a counter that changes whenever something is drawn
func (f *Framebuffer) Frame() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frame
}

// Snapshot returns a copy of the current screen and its frame counter
func (f *Framebuffer) Snapshot() (*image.RGBA, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := image.NewRGBA(f.img.Bounds())
	copy(out.Pix, f.img.Pix)
	return out, f.frame
}

func (f *Framebuffer) fill(r image.Rectangle, c color.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	draw.Draw(f.img, r.Intersect(f.img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
	f.frame++
}

// FillScreen paints the whole screen
func (f *Framebuffer) FillScreen(c color.RGBA) {
	f.fill(f.img.Bounds(), c)
}

// FillRect paints a w x h rectangle
func (f *Framebuffer) FillRect(x, y, w, h int, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	f.fill(image.Rect(x, y, x+w, y+h), c)
}

// DrawRect outlines a w x h rectangle one pixel wide
func (f *Framebuffer) DrawRect(x, y, w, h int, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	f.HLine(x, y, w, c)
	f.HLine(x, y+h-1, w, c)
	f.VLine(x, y, h, c)
	f.VLine(x+w-1, y, h, c)
}

// HLine draws a horizontal line of w pixels
func (f *Framebuffer) HLine(x, y, w int, c color.RGBA) {
	f.FillRect(x, y, w, 1, c)
}

// VLine draws a vertical line of h pixels
func (f *Framebuffer) VLine(x, y, h int, c color.RGBA) {
	f.FillRect(x, y, 1, h, c)
}

// Text renders s with its cell box's top-left corner at (x, y). Sizes
// other than 1 scale the 7x13 glyphs with nearest-neighbour sampling.
func (f *Framebuffer) Text(x, y int, s string, style firmware.TextStyle) {
	if s == "" {
		return
	}
	scale := style.Size
	if scale <= 0 {
		scale = 1
	}

	metrics := f.face.Metrics()
	ascent := metrics.Ascent.Ceil()
	w := font.MeasureString(f.face, s).Ceil()
	h := ascent + metrics.Descent.Ceil()

	cell := image.NewRGBA(image.Rect(0, 0, w, h))
	if style.Background.A != 0 {
		draw.Draw(cell, cell.Bounds(), image.NewUniform(style.Background), image.Point{}, draw.Src)
	}
	d := font.Drawer{
		Dst:  cell,
		Src:  image.NewUniform(style.Foreground),
		Face: f.face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(s)

	dst := image.Rect(x, y,
		x+int(math.Round(float64(w)*scale)),
		y+int(math.Round(float64(h)*scale)))

	f.mu.Lock()
	defer f.mu.Unlock()
	xdraw.NearestNeighbor.Scale(f.img, dst, cell, cell.Bounds(), xdraw.Over, nil)
	f.frame++
}

var _ firmware.Display = (*Framebuffer)(nil)
