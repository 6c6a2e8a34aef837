// Granitica runs the handheld firmware in a terminal.
//
// The device screen is painted with half-block characters and the
// keyboard is read from the terminal. The radio and GPS are either
// simulated or real modules on serial ports (a REYAX RYLR896 and any NMEA
// receiver). The screen can also be mirrored to browsers and other
// terminals on the local network.
//
// Usage:
//
//	granitica [flags]
//	granitica [command] [flags]
//
// Running without a command starts the device. See 'granitica --help' for
// the other commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/granitica/internal/config"
	"github.com/muurk/granitica/internal/firmware"
	"github.com/muurk/granitica/internal/gfx"
	"github.com/muurk/granitica/internal/host"
	"github.com/muurk/granitica/internal/logging"
	"github.com/muurk/granitica/internal/mirror"
	"github.com/muurk/granitica/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
	logFile    string
)

// deviceOptions are the root command flags that override the config file
type deviceOptions struct {
	radio     string
	radioPort string
	gps       string
	gpsPort   string
	sf        int
	mirror    bool
	columns   int
}

var device deviceOptions

var rootCmd = &cobra.Command{
	Use:   "granitica",
	Short: "Handheld GPS and LoRa terminal",
	Long: `Granitica runs the handheld firmware in your terminal.

Four screens share the device: a GPS monitor, a LoRa chat terminal, an
RSSI sniffer and a help viewer. Press G, L, S or H to switch between them,
Tab to cycle the spreading factor and Space to send a ping.

The radio and GPS are simulated unless the config file or flags select real
modules on serial ports. Use 'granitica ports' to list them.`,
	Example: `  # Run with simulated radio and GPS
  granitica

  # Use a RYLR896 on a USB serial adapter, starting on SF12
  granitica --radio rylr896 --radio-port /dev/ttyUSB0 --sf 12

  # Use a real GPS and mirror the screen to the local network
  granitica --gps nmea --gps-port /dev/ttyACM0 --mirror

  # Log protocol traffic to a file while running
  granitica --log-level debug --log-file granitica.log`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDevice,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is $XDG_CONFIG_HOME/granitica/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides GRANITICA_LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file with rotation")

	rootCmd.Flags().StringVar(&device.radio, "radio", "", "Radio driver (sim, rylr896)")
	rootCmd.Flags().StringVar(&device.radioPort, "radio-port", "", "Serial port of the LoRa module")
	rootCmd.Flags().StringVar(&device.gps, "gps", "", "GPS driver (sim, nmea)")
	rootCmd.Flags().StringVar(&device.gpsPort, "gps-port", "", "Serial port of the GPS receiver")
	rootCmd.Flags().IntVar(&device.sf, "sf", 0, "Spreading factor at boot (7, 9, 12)")
	rootCmd.Flags().BoolVar(&device.mirror, "mirror", false, "Serve the screen to the local network")
	rootCmd.Flags().IntVar(&device.columns, "columns", 0, "Screen width in terminal cells (0 fits the window)")
}

func openStore() (*config.Store, error) {
	if configPath != "" {
		return config.NewStore(afero.NewOsFs(), configPath), nil
	}
	return config.DefaultStore()
}

// loadConfig reads the config file and applies the flags the user set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}

	applyOverrides(cfg, device, cmd.Flags().Changed)
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// applyOverrides copies the flags for which changed reports true into cfg
func applyOverrides(cfg *config.Config, o deviceOptions, changed func(name string) bool) {
	if changed("radio") {
		cfg.Radio.Driver = o.radio
	}
	if changed("radio-port") {
		cfg.Radio.Port = o.radioPort
		if !changed("radio") {
			cfg.Radio.Driver = config.DriverRYLR896
		}
	}
	if changed("gps") {
		cfg.GPS.Driver = o.gps
	}
	if changed("gps-port") {
		cfg.GPS.Port = o.gpsPort
		if !changed("gps") {
			cfg.GPS.Driver = config.DriverNMEA
		}
	}
	if changed("sf") {
		cfg.Radio.SpreadingFactor = o.sf
	}
	if changed("mirror") {
		cfg.Mirror.Enabled = o.mirror
	}
	if changed("columns") {
		cfg.Display.Columns = o.columns
	}
}

// initLogging starts the logger. While the device owns the terminal,
// logs go to a file next to the config unless one was chosen.
func initLogging(cfg *config.Config, interactive bool) error {
	file := cfg.Log.File
	level := cfg.Log.Level
	if level == "" {
		level = os.Getenv(logging.LogLevelEnvVar)
	}
	if interactive && level != "" && file == "" {
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		file = filepath.Join(dir, "granitica.log")
	}
	if err := logging.Initialize(level, file); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

func runDevice(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(cfg, true); err != nil {
		return err
	}
	defer logging.Sync()

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("granitica needs an interactive terminal; use 'granitica snapshot' to render without one")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("Starting Granitica",
		zap.String("version", version.Full()),
		zap.String("radio", cfg.Radio.Driver),
		zap.String("gps", cfg.GPS.Driver),
	)

	b, err := openBackends(ctx, cfg, nil, nil)
	if err != nil {
		return err
	}
	defer b.Close()

	fb := gfx.NewFramebuffer(firmware.ScreenWidth, firmware.ScreenHeight)
	kb := host.NewKeyboard()
	radio := cfg.RadioConfig()
	machine := firmware.New(b.telemetry(), b.radio, fb, firmware.Options{
		Version: version.Version,
		Radio:   &radio,
		Clock:   b.clock,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		done <- machine.Run(ctx, kb, cfg.Display.TickInterval)
	}()

	if cfg.Mirror.Enabled {
		srv := mirror.NewServer(fb, mirror.Config{
			Listen:        cfg.Mirror.Listen,
			Name:          cfg.Mirror.Name,
			Version:       version.Version,
			FrameInterval: cfg.Mirror.FrameInterval,
			Advertise:     cfg.Mirror.Advertise,
		})
		if err := srv.Start(ctx); err != nil {
			cancel()
			<-stopped
			return err
		}
		defer srv.Close()
	}

	model := host.New(fb, kb, host.Options{
		Title:       "Granitica " + version.Version,
		Columns:     cfg.Display.Columns,
		SnapshotDir: cfg.Display.SnapshotDir,
		Done:        done,
	})
	err = host.Run(ctx, model)

	// the firmware may be mid-pause; let it finish before closing the ports
	cancel()
	<-stopped
	logging.Info("Granitica stopped")
	return err
}
