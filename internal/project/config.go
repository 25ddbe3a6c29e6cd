package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"cxxtweak/internal/trace"
	"cxxtweak/internal/tweak"
)

var (
	// ErrUnknownKey is returned for keys the config does not define.
	ErrUnknownKey = errors.New("unknown configuration key")
	// ErrBadValue is returned for keys with values out of range.
	ErrBadValue = errors.New("invalid configuration value")
)

// Config is the decoded cxxtweak.toml. Zero values mean "use the default".
type Config struct {
	Tweaks       TweaksConfig       `toml:"tweaks"`
	Insert       InsertConfig       `toml:"insert"`
	Output       OutputConfig       `toml:"output"`
	Cache        CacheConfig        `toml:"cache"`
	Trace        TraceConfig        `toml:"trace"`
	Scan         ScanConfig         `toml:"scan"`
	Preprocessor PreprocessorConfig `toml:"preprocessor"`

	// Path is the file the config was read from, empty for Default().
	Path string `toml:"-"`
}

type TweaksConfig struct {
	Disabled []string `toml:"disabled"`
}

type InsertConfig struct {
	// Anchor is "after" or "before": which side of an existing
	// using-declaration a new one is placed on.
	Anchor string `toml:"anchor"`
}

type OutputConfig struct {
	Color       string `toml:"color"` // auto|on|off
	DiffContext int    `toml:"diff_context"`
	PathMode    string `toml:"path_mode"`
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
	Format string `toml:"format"`
}

type ScanConfig struct {
	Jobs       int      `toml:"jobs"`
	Extensions []string `toml:"extensions"`
}

type PreprocessorConfig struct {
	Defines map[string]string `toml:"defines"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Insert: InsertConfig{Anchor: "after"},
		Output: OutputConfig{Color: "auto", DiffContext: 3, PathMode: "auto"},
		Trace:  TraceConfig{Level: "off", Output: "stderr", Format: "auto"},
	}
}

// Load finds cxxtweak.toml above startDir and decodes it over Default().
// ok is false when there is no config file.
func Load(startDir string) (cfg Config, ok bool, err error) {
	path, ok, err := FindConfig(startDir)
	if err != nil || !ok {
		return Default(), ok, err
	}
	cfg, err = LoadFile(path)
	return cfg, true, err
}

// LoadFile decodes path over Default() and validates the result.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: %w: %s", path, ErrUnknownKey, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if meta.IsDefined("cache", "dir") && cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(filepath.Dir(path), cfg.Cache.Dir)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	if _, err := tweak.ParseAnchorPlacement(c.Insert.Anchor); err != nil {
		return fmt.Errorf("%w: [insert].anchor: %w", ErrBadValue, err)
	}
	switch c.Output.Color {
	case "", "auto", "on", "off":
	default:
		return fmt.Errorf("%w: [output].color = %q (expected: auto|on|off)", ErrBadValue, c.Output.Color)
	}
	switch c.Output.PathMode {
	case "", "auto", "absolute", "relative", "basename":
	default:
		return fmt.Errorf("%w: [output].path_mode = %q", ErrBadValue, c.Output.PathMode)
	}
	if c.Output.DiffContext < 0 {
		return fmt.Errorf("%w: [output].diff_context must be >= 0", ErrBadValue)
	}
	if c.Scan.Jobs < 0 {
		return fmt.Errorf("%w: [scan].jobs must be >= 0", ErrBadValue)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("%w: [trace].level: %w", ErrBadValue, err)
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		return fmt.Errorf("%w: [trace].format: %w", ErrBadValue, err)
	}
	for _, id := range c.Tweaks.Disabled {
		if _, ok := tweak.Default.New(id); !ok {
			return fmt.Errorf("%w: [tweaks].disabled names unknown tweak %q", ErrBadValue, id)
		}
	}
	for name := range c.Preprocessor.Defines {
		if name == "" || strings.ContainsAny(name, " \t()") {
			return fmt.Errorf("%w: [preprocessor].defines: bad macro name %q", ErrBadValue, name)
		}
	}
	return nil
}

// TweakOptions converts the [insert] section.
func (c *Config) TweakOptions() tweak.Options {
	anchor, _ := tweak.ParseAnchorPlacement(c.Insert.Anchor)
	return tweak.Options{Anchor: anchor}
}
