package firmware

import "image/color"

// rgb565 expands a 16-bit panel colour to 8 bits per channel
func rgb565(v uint16) color.RGBA {
	r := uint8(v >> 11 & 0x1F)
	g := uint8(v >> 5 & 0x3F)
	b := uint8(v & 0x1F)
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
		A: 0xFF,
	}
}

// Panel palette
var (
	Black     = rgb565(0x0000)
	Blue      = rgb565(0x001F)
	Red       = rgb565(0xF800)
	Green     = rgb565(0x07E0)
	Cyan      = rgb565(0x07FF)
	Magenta   = rgb565(0xF81F)
	Yellow    = rgb565(0xFFE0)
	White     = rgb565(0xFFFF)
	Orange    = rgb565(0xFDA0)
	DarkGrey  = rgb565(0x7BEF)
	LightGrey = rgb565(0xD69A)

	// Transparent as a TextStyle background leaves pixels untouched
	Transparent = color.RGBA{}
)
