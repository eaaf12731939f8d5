// Package config loads the engine's optional on-disk startup defaults
// (SPEC_FULL.md §10's EngineConfig): sample rate, block size, channel
// layout, default EQ curve, and default HRTF path. It is read once at
// control-domain startup and never touched by the audio thread.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/atomozero/venicedaw-core/internal/errorkind"
)

// validBlockSizes is the discrete buffer-size set SPEC_FULL.md §6
// allows, each with a known latency figure at 44.1kHz.
var validBlockSizes = map[int]bool{
	64: true, 128: true, 256: true, 512: true, 1024: true, 2048: true,
}

// EQBandDefault is one band of the on-disk default EQ curve.
type EQBandDefault struct {
	Freq float32 `yaml:"freq"`
	Gain float32 `yaml:"gain"`
	Q    float32 `yaml:"q"`
}

// EngineConfig is the on-disk declarative shape of engine startup
// defaults. Every field has a sensible zero-value fallback applied by
// Defaults/Load so a partial or absent file still produces a usable
// configuration.
type EngineConfig struct {
	SampleRate      float64         `yaml:"sample_rate"`
	BlockSize       int             `yaml:"block_size"`
	ChannelLayout   string          `yaml:"channel_layout"`
	DefaultEQ       []EQBandDefault `yaml:"default_eq"`
	DefaultHRTFPath string          `yaml:"default_hrtf_path"`
	LogLevel        string          `yaml:"log_level"`
}

// Defaults returns the engine's built-in startup defaults, per
// SPEC_FULL.md §6: 44100 Hz sample rate, 256-sample blocks, stereo
// layout.
func Defaults() EngineConfig {
	return EngineConfig{
		SampleRate:    44100,
		BlockSize:     256,
		ChannelLayout: "stereo",
		LogLevel:      "info",
	}
}

// Load reads and parses an EngineConfig from path, merging any field
// the file leaves zero-valued with Defaults(). A missing file is not an
// error: Load returns the defaults unchanged.
func Load(path string) (EngineConfig, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: reading config %s: %v", errorkind.ErrConfigurationInvalid, path, err)
	}

	var onDisk EngineConfig
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return cfg, fmt.Errorf("%w: parsing config %s: %v", errorkind.ErrConfigurationInvalid, path, err)
	}

	applyOverrides(&cfg, onDisk)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyOverrides(cfg *EngineConfig, onDisk EngineConfig) {
	if onDisk.SampleRate != 0 {
		cfg.SampleRate = onDisk.SampleRate
	}
	if onDisk.BlockSize != 0 {
		cfg.BlockSize = onDisk.BlockSize
	}
	if onDisk.ChannelLayout != "" {
		cfg.ChannelLayout = onDisk.ChannelLayout
	}
	if len(onDisk.DefaultEQ) > 0 {
		cfg.DefaultEQ = onDisk.DefaultEQ
	}
	if onDisk.DefaultHRTFPath != "" {
		cfg.DefaultHRTFPath = onDisk.DefaultHRTFPath
	}
	if onDisk.LogLevel != "" {
		cfg.LogLevel = onDisk.LogLevel
	}
}

// Validate rejects a configuration SPEC_FULL.md §7's ConfigurationInvalid
// kind names: an unsupported block size or a non-positive sample rate.
func Validate(cfg EngineConfig) error {
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %v", errorkind.ErrConfigurationInvalid, cfg.SampleRate)
	}
	if !validBlockSizes[cfg.BlockSize] {
		return fmt.Errorf("%w: block size %d not in {64,128,256,512,1024,2048}", errorkind.ErrConfigurationInvalid, cfg.BlockSize)
	}
	switch cfg.ChannelLayout {
	case "mono", "stereo", "surround51", "surround71", "atmos":
	default:
		return fmt.Errorf("%w: unrecognized channel layout %q", errorkind.ErrConfigurationInvalid, cfg.ChannelLayout)
	}
	return nil
}
