// Command audiotriggerd listens for the 1 kHz acoustic signature of a
// misaligned laser and engages the safety interlock, while scanning the
// enclosure temperature channels and driving the exhaust fan.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lsst-ts/ts-audiotrigger/internal/runner"
	"github.com/lsst-ts/ts-audiotrigger/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// simulate swaps hardware backends for in-memory fakes.
	simulate bool
	// disableMicrophone skips the laser alignment loop.
	disableMicrophone bool
	// logLevel overrides the configured zap level.
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "audiotriggerd",
		Short: "Run the laser interlock and temperature scanner daemon.",
		Long: `Runs two independent monitoring loops for the laser enclosure.

The laser alignment loop records the microphone, looks for an anomalous
1 kHz tone and engages the interlock relay after repeated detections.
The temperature scanner loop reads the serial sensor stream, drives the
exhaust fan via hysteresis and republishes smoothed telemetry.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &runner.Options{
				ConfigPath:        configPath,
				Simulate:          simulate,
				DisableMicrophone: disableMicrophone,
				LogLevel:          logLevel,
			}

			return runner.Run(ctx, options)
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (defaults apply when empty)")
	rootCmd.Flags().BoolVar(&simulate, "simulate", false, "use simulated hardware backends")
	rootCmd.Flags().BoolVar(&disableMicrophone, "disable-microphone", false, "skip the laser alignment loop")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func main() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
