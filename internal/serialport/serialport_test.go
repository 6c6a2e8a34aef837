package serialport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpen_RejectsInvalidBaud(t *testing.T) {
	_, err := Open("/dev/ttyUSB0", 0)
	assert.ErrorContains(t, err, "invalid baud rate 0")
}

func TestOpen_MissingDevice(t *testing.T) {
	_, err := Open("/dev/granitica-does-not-exist", 9600)
	assert.ErrorContains(t, err, "failed to open /dev/granitica-does-not-exist")
}
