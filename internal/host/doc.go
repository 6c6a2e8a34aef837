// Package host runs the handheld inside a terminal.
//
// The firmware machine keeps its own goroutine and tick loop, exactly as on
// the device. This package supplies the two things it needs from the outside
// world: a Keyboard fed from bubbletea key messages, and a view that paints
// the gfx.Framebuffer into the terminal with half-block cells, two panel rows
// per text line.
//
// # Key Mapping
//
// Printable keys type themselves. Escape and backtick leave the current
// screen, Tab cycles the spreading factor, Backspace deletes. The arrow keys
// produce the characters the handheld prints on its arrow caps (; . , /).
// Ctrl+C quits, F1 toggles the key help and F2 saves a PNG screenshot.
package host
