// Package config manages the Granitica configuration file.
//
// The file is YAML and selects the device backends (simulated or serial
// hardware for both the radio and the GPS), the radio parameters applied at
// boot, the display tick and the optional screen mirror. Command-line flags
// override whatever the file says.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/granitica/config.yaml or $HOME/.config/granitica/config.yaml
//   - macOS: $HOME/.config/granitica/config.yaml
//   - Windows: %LOCALAPPDATA%\granitica\config.yaml
//
// # Usage Example
//
//	store, err := config.DefaultStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg, err := store.Load() // defaults when the file does not exist
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Radio.SpreadingFactor = 12
//	if err := store.Save(cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Files are read and written through an afero.Fs, so tests run against
// afero.NewMemMapFs. Saves are atomic: the file is written next to its
// destination and renamed over it.
package config
