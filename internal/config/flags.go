package config

import "flag"

// Flags are the command-line overrides shared by every command.
type Flags struct {
	Config      string
	Debug       bool
	Format      string
	LogFile     string
	PreferEuler bool
	NoStrips    bool
	Overwrite   bool
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file (.yaml or .toml)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Format, "format", "", "Output format id (see 'formats')")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
	fs.BoolVar(&f.PreferEuler, "prefer-euler", false, "Compose joint matrices from Euler angles")
	fs.BoolVar(&f.NoStrips, "no-strips", false, "Skip triangle-strip generation")
	fs.BoolVar(&f.Overwrite, "overwrite", false, "Replace existing output files")
	return f
}

// apply overrides cfg with the flags that were set.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Format != "" {
		cfg.Convert.Format = f.Format
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.PreferEuler {
		cfg.Convert.PreferEuler = true
	}
	if f.NoStrips {
		cfg.Strips.Build = false
	}
	if f.Overwrite {
		cfg.Convert.Overwrite = true
	}
}
