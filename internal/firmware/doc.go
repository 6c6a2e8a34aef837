// Package firmware is the single-threaded application core of the Granitica
// handheld: a GPS monitor, a LoRa chat terminal, an RSSI sniffer and an
// on-device manual sharing one 240x135 screen and one keyboard.
//
// Each tick the Machine polls telemetry, dispatches at most one keyboard
// batch, runs any radio actions the batch produced and renders the active
// mode. All hardware sits behind the small interfaces in collaborators.go,
// so the same core drives real serial devices, simulators and tests.
//
// The active mode is a tagged variant (GPSMode, TerminalMode, SnifferMode,
// HelpMode). Per-mode state such as the chat input buffer lives inside the
// variant, so leaving a mode discards it.
package firmware
