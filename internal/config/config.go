// Package config handles editor configuration loading and management.
package config

import (
	"time"

	"github.com/Faultbox/terrasculpt/internal/brush"
	"github.com/Faultbox/terrasculpt/pkg/formats"
)

// Config holds all terrain editor settings.
type Config struct {
	History  HistoryConfig  `yaml:"history"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Brush    BrushConfig    `yaml:"brush"`
	Codec    CodecConfig    `yaml:"codec"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HistoryConfig bounds the per-brush undo stacks.
type HistoryConfig struct {
	MaxUndoSteps int `yaml:"max_undo_steps"`
}

// AutosaveConfig holds periodic save settings.
type AutosaveConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Dir      string        `yaml:"dir"`
}

// BrushConfig holds the defaults a new brush starts from.
type BrushConfig struct {
	Size      float32 `yaml:"size"`
	Strength  float32 `yaml:"strength"`
	Falloff   string  `yaml:"falloff"` // linear, smooth, sharp, constant
	Spacing   float32 `yaml:"spacing"`
	NoiseSeed int64   `yaml:"noise_seed"`
}

// Settings converts the configured defaults into brush settings. Zero
// or unknown fields keep the brush package defaults.
func (b BrushConfig) Settings() brush.Settings {
	s := brush.DefaultSettings()
	if b.Size > 0 {
		s.Size = b.Size
	}
	if b.Strength > 0 {
		s.Strength = b.Strength
	}
	if b.Spacing > 0 {
		s.Spacing = b.Spacing
	}
	switch b.Falloff {
	case "linear":
		s.Falloff = brush.FalloffLinear
	case "smooth":
		s.Falloff = brush.FalloffSmooth
	case "sharp":
		s.Falloff = brush.FalloffSharp
	case "constant":
		s.Falloff = brush.FalloffConstant
	}
	return s
}

// CodecConfig holds terrain file read/write settings.
type CodecConfig struct {
	Compress          bool   `yaml:"compress"`
	MaxChunkPayloadMB int    `yaml:"max_chunk_payload_mb"`
	MaxChunks         uint32 `yaml:"max_chunks"`
	MaxAssets         uint32 `yaml:"max_assets"`
}

// DecodeLimits converts the configured ceilings for the terrain codec.
// Zero fields fall back to the codec defaults.
func (c CodecConfig) DecodeLimits() formats.DecodeLimits {
	limits := formats.DefaultDecodeLimits()
	if c.MaxChunkPayloadMB > 0 {
		limits.MaxChunkPayload = uint32(c.MaxChunkPayloadMB) << 20
	}
	if c.MaxChunks > 0 {
		limits.MaxChunks = c.MaxChunks
	}
	if c.MaxAssets > 0 {
		limits.MaxAssets = c.MaxAssets
	}
	return limits
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		History: HistoryConfig{
			MaxUndoSteps: 50,
		},
		Autosave: AutosaveConfig{
			Enabled:  true,
			Interval: 5 * time.Minute,
			Dir:      "",
		},
		Brush: BrushConfig{
			Size:     5,
			Strength: 1,
			Falloff:  "smooth",
			Spacing:  0.25,
		},
		Codec: CodecConfig{
			Compress:          true,
			MaxChunkPayloadMB: 64,
			MaxChunks:         65536,
			MaxAssets:         1 << 20,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
