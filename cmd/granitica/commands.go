package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/granitica/internal/config"
	"github.com/muurk/granitica/internal/host"
	"github.com/muurk/granitica/internal/logging"
	"github.com/muurk/granitica/internal/mirror"
	"github.com/muurk/granitica/internal/serialport"
	"github.com/muurk/granitica/internal/version"
)

// Command flags
var (
	snapshotDir   string
	snapshotScale int
	snapshotShow  string
	showColumns   int
	configForce   bool
	browseTimeout int
	fetchOutput   string
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mirrorsCmd)

	snapshotCmd.Flags().StringVarP(&snapshotDir, "output", "o", ".", "Directory to write the PNG files to")
	snapshotCmd.Flags().IntVar(&snapshotScale, "scale", 1, "Enlarge each screen by this factor")
	snapshotCmd.Flags().StringVar(&snapshotShow, "show", "", "Also print each screen here (halfblocks, kitty, iterm2, sixel)")
	snapshotCmd.Flags().IntVar(&showColumns, "show-columns", 80, "Width in terminal cells of the printed screens")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	mirrorsCmd.AddCommand(mirrorsFetchCmd)
	mirrorsCmd.PersistentFlags().IntVar(&browseTimeout, "timeout", 3, "Discovery timeout in seconds")
	mirrorsFetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "mirror.png", "File to write the frame to")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("granitica %s\n", version.Full())
	},
}

// portsCmd lists serial ports
var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports a LoRa module or GPS receiver can be attached to.

Pass one of them to --radio-port or --gps-port, or set it in the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serialport.List()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found.")
			fmt.Println("\nTroubleshooting:")
			fmt.Println("  - Check that the USB serial adapter is plugged in")
			fmt.Println("  - On Linux, make sure your user is in the dialout group")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	},
}

// snapshotCmd renders every screen to PNG without a terminal
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Render every screen to PNG files",
	Long: `Run the firmware headless with simulated radio and GPS and save a PNG of
each screen: gps.png, terminal.png, sniffer.png and help.png.

Simulated time is used, so the output is the same on every run.`,
	Example: `  # Write the screens to the current directory
  granitica snapshot

  # Write 4x enlarged screens to ./shots
  granitica snapshot -o shots --scale 4

  # Preview the screens in a terminal with Kitty graphics
  granitica snapshot --show kitty`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := initLogging(cfg, false); err != nil {
			return err
		}
		defer logging.Sync()

		paths, err := renderSnapshots(cmd.Context(), cfg, snapshotDir, snapshotScale)
		for _, p := range paths {
			fmt.Println(p)
			if snapshotShow == "" {
				continue
			}
			if showErr := printInline(p); showErr != nil {
				return showErr
			}
		}
		return err
	},
}

func printInline(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	out, err := host.RenderInline(img, snapshotShow, showColumns)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// configCmd manages the config file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		exists, err := store.Exists()
		if err != nil {
			return err
		}
		if exists && !configForce {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", store.Path())
		}
		if err := store.Save(config.Default()); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", store.Path())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long:  `Print the settings after applying defaults to the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		cfg, err := store.Load()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Printf("# %s\n%s", store.Path(), data)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		fmt.Println(store.Path())
		return nil
	},
}

// mirrorsCmd discovers screen mirrors on the network
var mirrorsCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "List Granitica screen mirrors on the network",
	Long: `List the devices started with --mirror on the local network, found over
mDNS. Open the printed URL in a browser to watch the screen.`,
	Example: `  # Browse for 3 seconds (default)
  granitica mirrors

  # Longer browse for slow networks
  granitica mirrors --timeout 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Browsing for mirrors (timeout: %ds)...\n\n", browseTimeout)

		peers, err := mirror.Browse(cmd.Context(), time.Duration(browseTimeout)*time.Second)
		if err != nil {
			return fmt.Errorf("browse failed: %w", err)
		}
		if len(peers) == 0 {
			fmt.Println("No mirrors found.")
			return nil
		}

		fmt.Printf("Found %d mirror(s):\n\n", len(peers))
		for i, p := range peers {
			fmt.Printf("%d. %s\n", i+1, p)
			fmt.Printf("   View:   %s\n", p.BaseURL())
			fmt.Printf("   Stream: %s\n", p.StreamURL())
		}
		return nil
	},
}

var mirrorsFetchCmd = &cobra.Command{
	Use:   "fetch <instance|ws-url>",
	Short: "Save the current screen of a mirror",
	Example: `  # Save the screen of a mirror found by name
  granitica mirrors fetch granitica-bench -o bench.png

  # Save the screen of a mirror by URL
  granitica mirrors fetch ws://192.168.1.20:8135/ws`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := resolveStream(cmd, args[0])
		if err != nil {
			return err
		}

		img, err := mirror.Fetch(cmd.Context(), url)
		if err != nil {
			return err
		}
		if err := imaging.Save(img, fetchOutput); err != nil {
			return fmt.Errorf("failed to save %s: %w", fetchOutput, err)
		}
		fmt.Printf("Saved %s\n", fetchOutput)
		return nil
	},
}

// resolveStream returns target when it is a websocket URL, or looks the
// instance up over mDNS
func resolveStream(cmd *cobra.Command, target string) (string, error) {
	if strings.HasPrefix(target, "ws://") || strings.HasPrefix(target, "wss://") {
		return target, nil
	}

	peers, err := mirror.Browse(cmd.Context(), time.Duration(browseTimeout)*time.Second)
	if err != nil {
		return "", fmt.Errorf("browse failed: %w", err)
	}
	for _, p := range peers {
		if p.Instance == target {
			return p.StreamURL(), nil
		}
	}
	return "", errors.New("no mirror named " + target + " found; run 'granitica mirrors' to list them")
}
