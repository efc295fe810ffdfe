package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile    = flag.String("logfile", "", "Log file path")
	flagUndoSteps  = flag.Int("undo-steps", 0, "Maximum undo steps per brush")
	flagNoCompress = flag.Bool("no-compress", false, "Write terrain files uncompressed")
	flagNoAutosave = flag.Bool("no-autosave", false, "Disable periodic autosave")
	flagBrushSize  = flag.Float64("brush-size", 0, "Default brush radius")
	flagNoiseSeed  = flag.Int64("noise-seed", 0, "Seed for the noise height operation")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagUndoSteps > 0 {
		cfg.History.MaxUndoSteps = *flagUndoSteps
	}
	if *flagNoCompress {
		cfg.Codec.Compress = false
	}
	if *flagNoAutosave {
		cfg.Autosave.Enabled = false
	}
	if *flagBrushSize > 0 {
		cfg.Brush.Size = float32(*flagBrushSize)
	}
	if *flagNoiseSeed != 0 {
		cfg.Brush.NoiseSeed = *flagNoiseSeed
	}
}
