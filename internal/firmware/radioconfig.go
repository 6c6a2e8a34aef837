package firmware

import "fmt"

// SpreadingFactor is the LoRa spreading factor. Only SF7, SF9 and SF12 are
// offered on the device.
type SpreadingFactor uint8

const (
	SF7  SpreadingFactor = 7
	SF9  SpreadingFactor = 9
	SF12 SpreadingFactor = 12
)

// SpreadingFactors lists the legal values in cycle order
var SpreadingFactors = []SpreadingFactor{SF7, SF9, SF12}

// Next returns the following value in the 7 -> 9 -> 12 -> 7 cycle. Values
// outside the legal set restart the cycle at SF7.
func (sf SpreadingFactor) Next() SpreadingFactor {
	switch sf {
	case SF7:
		return SF9
	case SF9:
		return SF12
	default:
		return SF7
	}
}

// Valid reports whether sf is one of the offered values
func (sf SpreadingFactor) Valid() bool {
	return sf == SF7 || sf == SF9 || sf == SF12
}

// ParseSpreadingFactor converts a config value into a SpreadingFactor
func ParseSpreadingFactor(n int) (SpreadingFactor, error) {
	sf := SpreadingFactor(n)
	if n < 0 || n > 255 || !sf.Valid() {
		return 0, fmt.Errorf("invalid spreading factor %d: must be 7, 9 or 12", n)
	}
	return sf, nil
}

// RadioConfig holds the PHY parameters handed to Radio.Configure.
type RadioConfig struct {
	FrequencyMHz    float64
	BandwidthKHz    float64
	SpreadingFactor SpreadingFactor
	// CodingRate is the denominator of 4/x
	CodingRate     uint8
	SyncWord       uint8
	PowerDBm       int8
	PreambleLength uint16
	TCXOVoltage    float64
}

// DefaultRadioConfig returns the 868 MHz profile the device boots with
func DefaultRadioConfig() RadioConfig {
	return RadioConfig{
		FrequencyMHz:    868.0,
		BandwidthKHz:    125.0,
		SpreadingFactor: SF9,
		CodingRate:      7,
		SyncWord:        0x12,
		PowerDBm:        10,
		PreambleLength:  8,
		TCXOVoltage:     1.6,
	}
}

// WithSpreadingFactor returns a copy of c using sf
func (c RadioConfig) WithSpreadingFactor(sf SpreadingFactor) RadioConfig {
	c.SpreadingFactor = sf
	return c
}
