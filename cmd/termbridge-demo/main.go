// Command termbridge-demo is an interactive event viewer built on the screen session.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/termbridge/config"
	"github.com/lixenwraith/termbridge/screen"
	"github.com/lixenwraith/termbridge/status"
	"github.com/lixenwraith/termbridge/terminal"
)

var (
	configPath string
	driverName string
	outputMode string
	debugMode  bool
	mouseMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "termbridge-demo",
	Short: "Show terminal events delivered through async polls",
	Long: `Initialize a screen session and print every event it delivers.

Each event is fetched by one async poll; the handle is released before
the next poll is spawned.

Keys:
  m        toggle mouse reporting
  o        cycle output mode
  q, Esc   quit`,
	SilenceUsage: true,
	RunE:         runDemo,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "TOML config file")
	flags.StringVar(&driverName, "driver", config.DriverANSI, "Terminal driver: ansi or tcell")
	flags.StringVar(&outputMode, "output-mode", "normal", "Output mode: normal, 256, 216, grayscale")
	flags.BoolVar(&debugMode, "debug", false, "Write debug logs to logs/termbridge.log")
	flags.BoolVar(&mouseMode, "mouse", false, "Enable mouse reporting")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	defer recoverCrash()

	s, reg, logger, cleanup, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return newViewer(s, reg, logger).run()
}

// recoverCrash ensures the terminal is reset even if the demo crashes
func recoverCrash() {
	if r := recover(); r != nil {
		terminal.EmergencyReset(os.Stdout)
		// Use \r\n for raw mode compatibility to avoid zig-zag output
		fmt.Fprintf(os.Stderr, "\r\n\x1b[31mTERMBRIDGE CRASHED: %v\x1b[0m\r\n", r)
		fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
		os.Exit(1)
	}
}

// openSession resolves config, sets up logging and initializes a session.
// cleanup shuts the session down and closes the log file.
func openSession(cmd *cobra.Command) (*screen.Session, *status.Registry, *slog.Logger, func(), error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	level, _ := cfg.Level()
	logger, logFile := setupLogging(debugMode, level)

	closeLog := func() {
		if logFile != nil {
			logFile.Close()
		}
	}

	drv, err := newDriver(cfg)
	if err != nil {
		closeLog()
		return nil, nil, nil, nil, err
	}

	reg := status.NewRegistry()
	s := screen.New(drv,
		screen.WithConfig(cfg),
		screen.WithLogger(logger),
		screen.WithMetrics(reg),
	)
	if err := s.Init(); err != nil {
		closeLog()
		return nil, nil, nil, nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}

	cleanup := func() {
		s.Shutdown()
		closeLog()
	}
	return s, reg, logger, cleanup, nil
}

// resolveConfig loads the config file, then applies explicitly set flags on top
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = driverName
	}
	if flags.Changed("output-mode") {
		cfg.OutputMode = outputMode
	}
	if flags.Changed("mouse") && mouseMode {
		cfg.InputMode = append(cfg.InputMode, "mouse")
	}
	if debugMode {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newDriver builds the driver named by cfg for the controlling terminal
func newDriver(cfg config.Config) (terminal.Driver, error) {
	switch cfg.Driver {
	case config.DriverANSI:
		return terminal.NewANSIDriver(nil, terminal.WithEscapeTimeout(cfg.EscapeTimeout.Duration)), nil
	case config.DriverTcell:
		return terminal.NewTcellDriver(nil), nil
	default:
		return nil, fmt.Errorf("%w: driver %q", config.ErrInvalid, cfg.Driver)
	}
}
