// Package config resolves viewer and reader settings from defaults, an
// optional config file, MCVIZ_* environment variables and explicit flags,
// in that order of precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/KamilKalowski/mc-sim/src/paths"
)

// EnvPrefix is prepended to every environment override, e.g. MCVIZ_KEEP_PATHS.
const EnvPrefix = "MCVIZ"

// DefaultFile is where the simulator writes its per-path prices.
const DefaultFile = "output/per_path_price_output.csv"

// DefaultTitle is the fixed chart title.
const DefaultTitle = "Monte Carlo Paths (subset)"

// Configuration holds the resolved settings shared by the viewer and the reader.
type Configuration struct {
	File       string  `json:"file" mapstructure:"file"`
	KeepPaths  int     `json:"keep_paths" mapstructure:"keep_paths"`
	StepStride int     `json:"step_stride" mapstructure:"step_stride"`
	ChunkSize  int     `json:"chunksize" mapstructure:"chunksize"`
	Title      string  `json:"title" mapstructure:"title"`
	Opacity    float64 `json:"opacity" mapstructure:"opacity"`
	Width      int     `json:"width" mapstructure:"width"`
	Height     int     `json:"height" mapstructure:"height"`
	Caption    bool    `json:"caption" mapstructure:"caption"`
	LogLevel   string  `json:"log_level" mapstructure:"log_level"`

	// keys set by the config file, the environment or an explicit flag
	set map[string]bool
}

func defaults() map[string]interface{} {
	o := paths.DefaultOptions()
	return map[string]interface{}{
		"file":        DefaultFile,
		"keep_paths":  o.KeepPaths,
		"step_stride": o.StepStride,
		"chunksize":   o.ChunkSize,
		"title":       DefaultTitle,
		"opacity":     0.4,
		"width":       0,
		"height":      0,
		"caption":     false,
		"log_level":   "info",
	}
}

// Load resolves the configuration. file may be empty. Flags in fs that were
// set explicitly on the command line and match a config key (dashes read as
// underscores) override everything else; fs may be nil.
func Load(file string, fs *flag.FlagSet) (*Configuration, error) {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	known := defaults()
	set := map[string]bool{}
	for key := range known {
		if v.InConfig(key) {
			set[key] = true
		}
		if val, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(key)); ok && val != "" {
			set[key] = true
		}
	}
	if fs != nil {
		fs.Visit(func(f *flag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := known[key]; ok {
				v.Set(key, f.Value.String())
				set[key] = true
			}
		})
	}

	cfg := &Configuration{set: set}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsSet reports whether key (e.g. "keep_paths") was given by the config file,
// a MCVIZ_* variable or an explicit flag rather than left at its default.
func (c *Configuration) IsSet(key string) bool {
	return c.set[key]
}

// Options returns the loader options carried by the configuration.
func (c *Configuration) Options() paths.Options {
	return paths.Options{KeepPaths: c.KeepPaths, StepStride: c.StepStride, ChunkSize: c.ChunkSize}
}

// Validate checks the loader options and the rendering settings.
func (c *Configuration) Validate() error {
	if err := c.Options().Validate(); err != nil {
		return err
	}
	if c.Opacity < 0 || c.Opacity > 1 {
		return fmt.Errorf("opacity must be within [0,1], got %g", c.Opacity)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("width/height must be >= 0, got %dx%d", c.Width, c.Height)
	}
	return nil
}
