package lora

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks
var (
	// ErrClosed is returned by operations on a closed module
	ErrClosed = errors.New("lora module closed")
	// ErrTimeout is returned when the module does not answer a command
	ErrTimeout = errors.New("lora module did not respond")
	// ErrPayloadTooLong is returned for payloads over MaxPayload bytes
	ErrPayloadTooLong = errors.New("payload exceeds 240 bytes")
	// ErrInvalidPayload is returned for payloads containing line breaks
	ErrInvalidPayload = errors.New("payload contains a line break")
	// ErrUnsupportedBandwidth is returned for bandwidths the module cannot use
	ErrUnsupportedBandwidth = errors.New("unsupported bandwidth")
)

// ResultCode is the number the module reports in a +ERR=n response
type ResultCode int

const (
	// ResultNoEnter indicates the command was not terminated by \r\n
	ResultNoEnter ResultCode = 1
	// ResultNoAT indicates the command did not start with AT
	ResultNoAT ResultCode = 2
	// ResultNoEquals indicates a missing = in an AT command
	ResultNoEquals ResultCode = 3
	// ResultUnknownCommand indicates an unrecognised command
	ResultUnknownCommand ResultCode = 4
	// ResultTXOverTime indicates the transmission timed out
	ResultTXOverTime ResultCode = 10
	// ResultRXOverTime indicates the reception timed out
	ResultRXOverTime ResultCode = 11
	// ResultCRCError indicates a CRC failure
	ResultCRCError ResultCode = 12
	// ResultTXOverRun indicates the payload exceeded 240 bytes
	ResultTXOverRun ResultCode = 13
	// ResultUnknownError indicates an unclassified failure
	ResultUnknownError ResultCode = 15
)

// String returns a human-readable name for the result code
func (c ResultCode) String() string {
	switch c {
	case ResultNoEnter:
		return "missing line terminator"
	case ResultNoAT:
		return "missing AT prefix"
	case ResultNoEquals:
		return "missing ="
	case ResultUnknownCommand:
		return "unknown command"
	case ResultTXOverTime:
		return "TX over time"
	case ResultRXOverTime:
		return "RX over time"
	case ResultCRCError:
		return "CRC error"
	case ResultTXOverRun:
		return "TX over run"
	case ResultUnknownError:
		return "unknown error"
	default:
		return fmt.Sprintf("ResultCode(%d)", int(c))
	}
}

// ModuleError is a command the module answered with +ERR=n, or one that
// failed on the serial link
type ModuleError struct {
	Command string     // AT command name, e.g. "AT+SEND"
	Code    ResultCode // Module result code, zero when Err is set
	Err     error      // Underlying error (if any)
}

// Error implements the error interface
func (e *ModuleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s failed: %s (+ERR=%d)", e.Command, e.Code, int(e.Code))
}

// Unwrap returns the underlying error for error chain inspection
func (e *ModuleError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the command may succeed
func (e *ModuleError) Retryable() bool {
	if errors.Is(e.Err, ErrTimeout) {
		return true
	}
	switch e.Code {
	case ResultTXOverTime, ResultRXOverTime, ResultCRCError:
		return true
	default:
		return false
	}
}
