package lora

import "github.com/muurk/granitica/internal/serialport"

// DefaultBaud is the factory UART rate of the RYLR896
const DefaultBaud = 115200

type (
	// Port is the byte stream to the module
	Port = serialport.Port
	// Opener opens a named port at a baud rate
	Opener = serialport.Opener
)

// OpenSerial opens the module's UART, at DefaultBaud when baud is zero
func OpenSerial(name string, baud int) (Port, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	return serialport.Open(name, baud)
}
