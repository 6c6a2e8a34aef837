// Package serialport opens the UARTs the GPS receiver and LoRa module hang
// off, behind a small interface that tests replace with pipes.
package serialport

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Port is the byte stream to a device. serial.Port satisfies it.
type Port interface {
	io.ReadWriteCloser
}

// Opener opens a named port at a baud rate
type Opener func(name string, baud int) (Port, error)

// Open opens a UART with 8N1 framing
func Open(name string, baud int) (Port, error) {
	if baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d for %s", baud, name)
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return port, nil
}

// List returns the serial ports present on this machine
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
