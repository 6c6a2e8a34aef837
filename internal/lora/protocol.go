package lora

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/muurk/granitica/internal/firmware"
)

// MaxPayload is the largest AT+SEND payload in bytes
const MaxPayload = 240

// Response prefixes
const (
	prefixOK      = "+OK"
	prefixErr     = "+ERR="
	prefixReceive = "+RCV="
	prefixReady   = "+READY"
)

// bandwidthCodes maps kHz to the AT+PARAMETER bandwidth index
var bandwidthCodes = []struct {
	khz  float64
	code int
}{
	{7.8, 0},
	{10.4, 1},
	{15.6, 2},
	{20.8, 3},
	{31.25, 4},
	{41.7, 5},
	{62.5, 6},
	{125, 7},
	{250, 8},
	{500, 9},
}

// BandwidthCode returns the AT+PARAMETER index for a bandwidth in kHz
func BandwidthCode(khz float64) (int, error) {
	for _, b := range bandwidthCodes {
		if math.Abs(b.khz-khz) < 0.05 {
			return b.code, nil
		}
	}
	return 0, fmt.Errorf("%w: %g kHz", ErrUnsupportedBandwidth, khz)
}

// parameterCommand builds AT+PARAMETER from a radio configuration. The
// module takes coding rate as 1..4 for 4/5..4/8 and a preamble of 4..7.
func parameterCommand(c firmware.RadioConfig) (string, error) {
	bw, err := BandwidthCode(c.BandwidthKHz)
	if err != nil {
		return "", err
	}
	cr := min(max(int(c.CodingRate)-4, 1), 4)
	preamble := min(max(int(c.PreambleLength), 4), 7)
	return fmt.Sprintf("AT+PARAMETER=%d,%d,%d,%d", c.SpreadingFactor, bw, cr, preamble), nil
}

func bandCommand(frequencyMHz float64) string {
	return fmt.Sprintf("AT+BAND=%d", int64(math.Round(frequencyMHz*1e6)))
}

func powerCommand(dbm int8) string {
	return fmt.Sprintf("AT+CRFOP=%d", min(max(int(dbm), 0), 15))
}

func sendCommand(dest uint16, payload string) (string, error) {
	if len(payload) > MaxPayload {
		return "", fmt.Errorf("%w: %d bytes", ErrPayloadTooLong, len(payload))
	}
	if strings.ContainsAny(payload, "\r\n") {
		return "", ErrInvalidPayload
	}
	return fmt.Sprintf("AT+SEND=%d,%d,%s", dest, len(payload), payload), nil
}

// commandName returns the part of an AT command before '='
func commandName(cmd string) string {
	name, _, _ := strings.Cut(cmd, "=")
	return name
}

// Reception is one decoded +RCV line
type Reception struct {
	Address uint16
	Payload string
	RSSI    float64
	SNR     float64
}

// ParseReception decodes the part of a +RCV line after '='. The payload may
// itself contain commas, so it is sliced by its declared length.
func ParseReception(s string) (Reception, error) {
	addrStr, rest, ok := strings.Cut(s, ",")
	if !ok {
		return Reception{}, fmt.Errorf("malformed +RCV: %q", s)
	}
	lenStr, rest, ok := strings.Cut(rest, ",")
	if !ok {
		return Reception{}, fmt.Errorf("malformed +RCV: %q", s)
	}

	addr, err := strconv.ParseUint(addrStr, 10, 16)
	if err != nil {
		return Reception{}, fmt.Errorf("invalid +RCV address %q: %w", addrStr, err)
	}
	n, err := strconv.Atoi(lenStr)
	if err != nil || n < 0 || n > len(rest) {
		return Reception{}, fmt.Errorf("invalid +RCV length %q", lenStr)
	}

	payload := rest[:n]
	rssiStr, snrStr, ok := strings.Cut(strings.TrimPrefix(rest[n:], ","), ",")
	if !ok {
		return Reception{}, fmt.Errorf("malformed +RCV signal fields: %q", rest[n:])
	}
	rssi, err := strconv.ParseFloat(rssiStr, 64)
	if err != nil {
		return Reception{}, fmt.Errorf("invalid +RCV RSSI %q: %w", rssiStr, err)
	}
	snr, err := strconv.ParseFloat(snrStr, 64)
	if err != nil {
		return Reception{}, fmt.Errorf("invalid +RCV SNR %q: %w", snrStr, err)
	}

	return Reception{Address: uint16(addr), Payload: payload, RSSI: rssi, SNR: snr}, nil
}

// parseResult classifies a command response line. Lines that are neither
// +OK nor +ERR (query answers such as +ADDRESS=3) count as success.
func parseResult(cmd, line string) error {
	if code, found := strings.CutPrefix(line, prefixErr); found {
		n, err := strconv.Atoi(code)
		if err != nil {
			return &ModuleError{Command: commandName(cmd), Code: ResultUnknownError}
		}
		return &ModuleError{Command: commandName(cmd), Code: ResultCode(n)}
	}
	return nil
}
