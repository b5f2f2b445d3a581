// Package config loads and validates the audiotrigger daemon configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings for both monitoring loops.
type Config struct {
	// Simulate swaps all hardware backends for in-memory fakes.
	Simulate bool `yaml:"simulate"`
	// DisableMicrophone skips the audio loop entirely. The interlock
	// still opens at startup so the laser can propagate.
	DisableMicrophone bool `yaml:"disable_microphone"`
	// LogLevel is the zap log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// SerialPort is the temperature scanner serial device path.
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the serial port baud rate.
	BaudRate int `yaml:"baud_rate"`

	// AudioDevice is the index of the microphone input device.
	AudioDevice int `yaml:"audio_device"`
	// SampleRate overrides the device default sample rate when non-zero.
	SampleRate float64 `yaml:"sample_rate"`
	// RecordDuration is the length of each microphone sample.
	RecordDuration time.Duration `yaml:"record_duration"`

	// RelayPin is the GPIO pin driving the laser interlock relay.
	RelayPin int `yaml:"relay_pin"`
	// FanPin is the GPIO pin driving the exhaust fan relay.
	FanPin int `yaml:"fan_pin"`

	// FanOnTemp turns the fan on at or above this temperature (deg C).
	FanOnTemp float64 `yaml:"fan_on_temp"`
	// FanOffTemp turns the fan off at or below this temperature (deg C).
	FanOffTemp float64 `yaml:"fan_off_temp"`

	// CountThreshold is the number of consecutive detections required
	// to engage the interlock.
	CountThreshold int `yaml:"count_threshold"`
	// Cooldown is how long the interlock stays engaged before reopening.
	Cooldown time.Duration `yaml:"cooldown"`
	// WindowLength is the rolling temperature average window size.
	WindowLength int `yaml:"window_length"`

	// InterlockAddr is the listen address for interlock telemetry.
	InterlockAddr string `yaml:"interlock_addr"`
	// FanAddr is the listen address for fan control telemetry.
	FanAddr string `yaml:"fan_addr"`
	// ESSAddr is the listen address for smoothed temperature telemetry.
	ESSAddr string `yaml:"ess_addr"`
	// MQTTBroker, when set, mirrors every telemetry message to this broker.
	MQTTBroker string `yaml:"mqtt_broker"`

	// HeartbeatInterval is the heartbeat publish period.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// SampleWait is the wait between serial scanner readings.
	SampleWait time.Duration `yaml:"sample_wait"`
	// LoopRetryWait is the pause after a failed loop iteration.
	LoopRetryWait time.Duration `yaml:"loop_retry_wait"`
}

// Defaults matching the deployed enclosure hardware.
const (
	DefaultSerialPort        = "/dev/ttyUSB_lower_right"
	DefaultBaudRate          = 19200
	DefaultRecordDuration    = 100 * time.Millisecond
	DefaultRelayPin          = 7
	DefaultFanPin            = 4
	DefaultFanOnTemp         = 25.0
	DefaultFanOffTemp        = 23.0
	DefaultCountThreshold    = 7
	DefaultCooldown          = 10 * time.Second
	DefaultWindowLength      = 8
	DefaultInterlockAddr     = "127.0.0.1:18840"
	DefaultFanAddr           = "127.0.0.1:18830"
	DefaultESSAddr           = "127.0.0.1:15000"
	DefaultHeartbeatInterval = time.Second
	DefaultSampleWait        = 5 * time.Second
	DefaultLoopRetryWait     = time.Second
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errFanThresholds is returned when the hysteresis gap is not positive.
	errFanThresholds = errors.New("fan_on_temp must be greater than fan_off_temp")
	// errCountThreshold is returned for a non-positive detection count.
	errCountThreshold = errors.New("count_threshold must be positive")
	// errWindowLength is returned for a non-positive rolling window size.
	errWindowLength = errors.New("window_length must be positive")
	// errCooldown is returned for a non-positive cooldown duration.
	errCooldown = errors.New("cooldown must be positive")
	// errBaudRate is returned for a non-positive baud rate.
	errBaudRate = errors.New("baud_rate must be positive")
)

// Default returns a configuration populated with deployment defaults.
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path, fills defaults for
// omitted fields and validates the result. An empty path yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate fills defaults for omitted fields and checks invariants.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if cfg.BaudRate <= 0 {
		return errBaudRate
	}

	if cfg.FanOnTemp <= cfg.FanOffTemp {
		return errFanThresholds
	}

	if cfg.CountThreshold <= 0 {
		return errCountThreshold
	}

	if cfg.WindowLength <= 0 {
		return errWindowLength
	}

	if cfg.Cooldown <= 0 {
		return errCooldown
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.SerialPort == "" {
		cfg.SerialPort = DefaultSerialPort
	}

	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}

	if cfg.RecordDuration == 0 {
		cfg.RecordDuration = DefaultRecordDuration
	}

	if cfg.RelayPin == 0 {
		cfg.RelayPin = DefaultRelayPin
	}

	if cfg.FanPin == 0 {
		cfg.FanPin = DefaultFanPin
	}

	if cfg.FanOnTemp == 0 {
		cfg.FanOnTemp = DefaultFanOnTemp
	}

	if cfg.FanOffTemp == 0 {
		cfg.FanOffTemp = DefaultFanOffTemp
	}

	if cfg.CountThreshold == 0 {
		cfg.CountThreshold = DefaultCountThreshold
	}

	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}

	if cfg.WindowLength == 0 {
		cfg.WindowLength = DefaultWindowLength
	}

	if cfg.InterlockAddr == "" {
		cfg.InterlockAddr = DefaultInterlockAddr
	}

	if cfg.FanAddr == "" {
		cfg.FanAddr = DefaultFanAddr
	}

	if cfg.ESSAddr == "" {
		cfg.ESSAddr = DefaultESSAddr
	}

	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}

	if cfg.SampleWait == 0 {
		cfg.SampleWait = DefaultSampleWait
	}

	if cfg.LoopRetryWait == 0 {
		cfg.LoopRetryWait = DefaultLoopRetryWait
	}
}
