package host

import (
	"fmt"
	"image"

	"github.com/blacktop/go-termimg"
)

// Inline graphics protocols for printing a screen outside the interactive view
const (
	InlineHalfBlocks = "halfblocks"
	InlineKitty      = "kitty"
	InlineITerm2     = "iterm2"
	InlineSixel      = "sixel"
)

// RenderInline returns img as terminal output cols cells wide. Half blocks
// work everywhere; the image protocols need a terminal that supports them.
func RenderInline(img image.Image, protocol string, cols int) (string, error) {
	b := img.Bounds()
	if cols <= 0 || b.Empty() {
		return "", fmt.Errorf("cannot render %dx%d image into %d columns", b.Dx(), b.Dy(), cols)
	}
	rows := max((cols*b.Dy()+b.Dx()-1)/b.Dx()/2, 1)

	switch protocol {
	case InlineHalfBlocks, "":
		return RenderHalfBlocks(img, cols), nil
	case InlineKitty:
		return renderTermimg(img, termimg.Kitty, cols, rows)
	case InlineITerm2:
		return renderTermimg(img, termimg.ITerm2, cols, rows)
	case InlineSixel:
		return renderTermimg(img, termimg.Sixel, cols, rows)
	default:
		return "", fmt.Errorf("unknown inline protocol %q (want %s, %s, %s or %s)",
			protocol, InlineHalfBlocks, InlineKitty, InlineITerm2, InlineSixel)
	}
}

func renderTermimg(img image.Image, protocol termimg.Protocol, cols, rows int) (string, error) {
	ti := termimg.New(img)
	if ti == nil {
		return "", fmt.Errorf("failed to prepare image for %v", protocol)
	}
	out, err := ti.Protocol(protocol).Size(cols, rows).Scale(termimg.ScaleFit).Render()
	if err != nil {
		return "", fmt.Errorf("failed to render inline image: %w", err)
	}
	return out, nil
}
