// Package gps provides the position sources polled by the firmware: a
// Receiver that decodes NMEA from a serial GPS module, and a Simulator that
// flies a deterministic track for running without hardware.
//
// Both satisfy firmware.GPS. PollGPS never blocks; the Receiver decodes on a
// background goroutine and publishes an immutable snapshot.
package gps
