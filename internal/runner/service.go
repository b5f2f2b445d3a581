package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lsst-ts/ts-audiotrigger/internal/config"
	"github.com/lsst-ts/ts-audiotrigger/internal/logger"
)

// Options controls the audiotriggerd process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Simulate overrides the configuration's simulation flag.
	Simulate bool
	// DisableMicrophone overrides the configuration's microphone flag.
	DisableMicrophone bool
	// LogLevel overrides the configuration's log level when non-empty.
	LogLevel string
}

// Run loads configuration, builds the backends and runs the daemon
// until the context is canceled.
func Run(ctx context.Context, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.Simulate {
		cfg.Simulate = true
	}

	if opts.DisableMicrophone {
		cfg.DisableMicrophone = true
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	level, ok := logger.ParseLevel(cfg.LogLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	log := logger.New(zap.NewAtomicLevelAt(level))
	defer log.Sync()

	log.Infow("starting audiotriggerd",
		"simulate", cfg.Simulate,
		"disable_microphone", cfg.DisableMicrophone,
		"interlock_addr", cfg.InterlockAddr,
		"fan_addr", cfg.FanAddr,
		"ess_addr", cfg.ESSAddr)

	backends, err := Build(cfg, log)
	if err != nil {
		return err
	}
	defer backends.Close()

	r, err := New(cfg, log, backends)
	if err != nil {
		return err
	}

	return r.Run(ctx)
}
