package lora

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/granitica/internal/firmware"
)

func TestBandwidthCode(t *testing.T) {
	tests := []struct {
		khz     float64
		want    int
		wantErr bool
	}{
		{7.8, 0, false},
		{31.25, 4, false},
		{41.7, 5, false},
		{125, 7, false},
		{250, 8, false},
		{500, 9, false},
		{100, 0, true},
		{0, 0, true},
	}

	for _, tt := range tests {
		got, err := BandwidthCode(tt.khz)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedBandwidth, "%g kHz", tt.khz)
			continue
		}
		require.NoError(t, err, "%g kHz", tt.khz)
		assert.Equal(t, tt.want, got, "%g kHz", tt.khz)
	}
}

func TestParameterCommand(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*firmware.RadioConfig)
		want   string
	}{
		{"defaults", func(*firmware.RadioConfig) {}, "AT+PARAMETER=9,7,3,7"},
		{"sf12", func(c *firmware.RadioConfig) { c.SpreadingFactor = firmware.SF12 }, "AT+PARAMETER=12,7,3,7"},
		{"coding rate 4/5", func(c *firmware.RadioConfig) { c.CodingRate = 5 }, "AT+PARAMETER=9,7,1,7"},
		{"coding rate below range", func(c *firmware.RadioConfig) { c.CodingRate = 2 }, "AT+PARAMETER=9,7,1,7"},
		{"coding rate above range", func(c *firmware.RadioConfig) { c.CodingRate = 12 }, "AT+PARAMETER=9,7,4,7"},
		{"short preamble", func(c *firmware.RadioConfig) { c.PreambleLength = 2 }, "AT+PARAMETER=9,7,3,4"},
		{"bandwidth 250", func(c *firmware.RadioConfig) { c.BandwidthKHz = 250 }, "AT+PARAMETER=9,8,3,7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := firmware.DefaultRadioConfig()
			tt.modify(&cfg)

			got, err := parameterCommand(cfg)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBandAndPowerCommands(t *testing.T) {
	assert.Equal(t, "AT+BAND=868000000", bandCommand(868))
	assert.Equal(t, "AT+BAND=915125000", bandCommand(915.125))
	assert.Equal(t, "AT+CRFOP=10", powerCommand(10))
	assert.Equal(t, "AT+CRFOP=15", powerCommand(22))
	assert.Equal(t, "AT+CRFOP=0", powerCommand(-3))
}

func TestSendCommand(t *testing.T) {
	got, err := sendCommand(0, "PING from Cardputer (SF9)")
	require.NoError(t, err)
	assert.Equal(t, "AT+SEND=0,25,PING from Cardputer (SF9)", got)

	got, err = sendCommand(12, "")
	require.NoError(t, err)
	assert.Equal(t, "AT+SEND=12,0,", got)

	_, err = sendCommand(0, "line\rbreak")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "AT+SEND", commandName("AT+SEND=0,2,hi"))
	assert.Equal(t, "AT+MODE", commandName("AT+MODE=0"))
	assert.Equal(t, "AT", commandName("AT"))
}

func TestParseReception(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Reception
		wantErr bool
	}{
		{
			name:  "simple",
			input: "50,5,HELLO,-99,40",
			want:  Reception{Address: 50, Payload: "HELLO", RSSI: -99, SNR: 40},
		},
		{
			name:  "payload with commas",
			input: "3,23,GEO:51.500000,-0.120000,-72,8",
			want:  Reception{Address: 3, Payload: "GEO:51.500000,-0.120000", RSSI: -72, SNR: 8},
		},
		{
			name:  "empty payload",
			input: "1,0,,-110,-7",
			want:  Reception{Address: 1, Payload: "", RSSI: -110, SNR: -7},
		},
		{
			name:  "fractional snr",
			input: "1,2,hi,-80,-2.5",
			want:  Reception{Address: 1, Payload: "hi", RSSI: -80, SNR: -2.5},
		},
		{name: "missing fields", input: "50", wantErr: true},
		{name: "bad address", input: "x,2,hi,-80,1", wantErr: true},
		{name: "length beyond line", input: "1,40,hi,-80,1", wantErr: true},
		{name: "negative length", input: "1,-1,hi,-80,1", wantErr: true},
		{name: "missing snr", input: "1,2,hi,-80", wantErr: true},
		{name: "bad rssi", input: "1,2,hi,loud,1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReception(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResult(t *testing.T) {
	assert.NoError(t, parseResult("AT+MODE=0", "+OK"))
	assert.NoError(t, parseResult("AT+ADDRESS?", "+ADDRESS=3"))

	err := parseResult("AT+SEND=0,2,hi", "+ERR=12")
	var modErr *ModuleError
	require.True(t, errors.As(err, &modErr))
	assert.Equal(t, "AT+SEND", modErr.Command)
	assert.Equal(t, ResultCRCError, modErr.Code)
	assert.Equal(t, "AT+SEND failed: CRC error (+ERR=12)", err.Error())

	err = parseResult("AT+SEND=0,2,hi", "+ERR=zz")
	require.True(t, errors.As(err, &modErr))
	assert.Equal(t, ResultUnknownError, modErr.Code)
}

func TestModuleError(t *testing.T) {
	tests := []struct {
		name      string
		err       *ModuleError
		retryable bool
	}{
		{"timeout", &ModuleError{Command: "AT+SEND", Err: ErrTimeout}, true},
		{"closed", &ModuleError{Command: "AT+SEND", Err: ErrClosed}, false},
		{"tx over time", &ModuleError{Command: "AT+SEND", Code: ResultTXOverTime}, true},
		{"rx over time", &ModuleError{Command: "AT+MODE", Code: ResultRXOverTime}, true},
		{"crc", &ModuleError{Command: "AT+SEND", Code: ResultCRCError}, true},
		{"unknown command", &ModuleError{Command: "AT+FOO", Code: ResultUnknownCommand}, false},
		{"over run", &ModuleError{Command: "AT+SEND", Code: ResultTXOverRun}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.Retryable())
		})
	}

	wrapped := &ModuleError{Command: "AT+SEND", Err: ErrTimeout}
	assert.ErrorIs(t, wrapped, ErrTimeout)
	assert.Equal(t, "AT+SEND failed: lora module did not respond", wrapped.Error())
	assert.Equal(t, "ResultCode(99)", ResultCode(99).String())
}
