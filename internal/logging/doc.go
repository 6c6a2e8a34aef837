// Package logging provides structured logging for the Granitica device.
//
// This package wraps a package-global zap logger with convenience functions
// for the diagnostics the device emits while it runs: radio traffic, the
// periodic GPS status line, radio configuration changes and raw serial
// bytes from the drivers.
//
// # Log Levels
//
//   - Debug: Serial traffic hex dumps, mode changes, mirror frames
//   - Info: TX/RX packets, GPS status, radio configuration
//   - Warn: Recoverable radio failures (configuration rejected)
//   - Error: Transmit or receive failures
//
// # Configuration
//
// Logging is silent unless a level is given via --log-level or the
// GRANITICA_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize("debug", "/tmp/granitica.log"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// The screen owns the terminal while the device runs, so file output with
// lumberjack rotation is the usual choice. Without a file, output goes to
// stderr.
//
// # Specialized Logging
//
//	logging.LogTX(9, "PING from Cardputer (SF9)")
//	logging.LogRX(9, -87, 9.25, "hello")
//	logging.LogGPSFix(true, 51.5, -0.12, 35, 8)
//	logging.LogRawBytes("RYLR896 rx", line)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
