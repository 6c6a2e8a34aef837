package firmware

import "image/color"

// GPSFix is one poll of the GPS receiver. Position fields are meaningful
// only when HasFix is set; Satellites is reported either way.
type GPSFix struct {
	HasFix     bool
	Lat        float64
	Lon        float64
	AltitudeM  float64
	SpeedKmh   float64
	Satellites int
	UTCHour    int
	UTCMinute  int
}

// Message is one decoded radio packet
type Message struct {
	Payload string
}

// GPS yields the latest fix without blocking
type GPS interface {
	PollGPS() GPSFix
}

// Receiver yields at most one pending radio message per poll together with
// the signal quality of the last reception.
type Receiver interface {
	PollRadio() (Message, bool)
	RSSI() float64
	SNR() float64
}

// Telemetry is everything the core polls at the start of a tick
type Telemetry interface {
	GPS
	Receiver
}

// Radio is the transmit side of the transceiver.
type Radio interface {
	Configure(cfg RadioConfig) error
	Transmit(payload string) error
	StartReceive() error
}

// TextStyle describes how Display.Text renders a string. A zero alpha
// Background leaves the pixels behind the glyphs untouched.
type TextStyle struct {
	Foreground color.RGBA
	Background color.RGBA
	Size       float64
}

// Display is the drawing surface. Coordinates are pixels from the top-left
// corner; text is positioned by the top-left corner of its cell box.
type Display interface {
	FillScreen(c color.RGBA)
	FillRect(x, y, w, h int, c color.RGBA)
	DrawRect(x, y, w, h int, c color.RGBA)
	HLine(x, y, w int, c color.RGBA)
	VLine(x, y, h int, c color.RGBA)
	Text(x, y int, s string, style TextStyle)
}

type telemetry struct {
	GPS
	Receiver
}

// JoinTelemetry combines separate GPS and radio receivers into a Telemetry
func JoinTelemetry(gps GPS, rx Receiver) Telemetry {
	return telemetry{GPS: gps, Receiver: rx}
}
