package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Product-tuned defaults. The numbers are deliberately configuration,
// not invariants: field feedback keeps moving them.
const (
	DefaultDedupWindow       = 10 * time.Second
	DefaultPhantomMultiplier = 1.5
	DefaultBounceMultiplier  = 1.0
	DefaultMaxSampleAge      = 15 * time.Second

	DefaultEntryDelay     = 0
	DefaultMergeWindow    = 15 * time.Minute
	DefaultMergeGrace     = 1 * time.Minute
	DefaultEndOfDayWatch  = 45 * time.Minute
	DefaultExitAdjustment = 5 * time.Minute

	DefaultClassifierTimeout = 10 * time.Second
)

type Config struct {
	// Event validation.
	DedupWindow       time.Duration
	PhantomMultiplier float64
	BounceMultiplier  float64
	MaxSampleAge      time.Duration

	// Session lifecycle.
	EntryDelay     time.Duration
	MergeWindow    time.Duration
	MergeGrace     time.Duration
	EndOfDayWatch  time.Duration
	ExitAdjustment time.Duration

	ClassifierTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		DedupWindow:       DefaultDedupWindow,
		PhantomMultiplier: DefaultPhantomMultiplier,
		BounceMultiplier:  DefaultBounceMultiplier,
		MaxSampleAge:      DefaultMaxSampleAge,
		EntryDelay:        DefaultEntryDelay,
		MergeWindow:       DefaultMergeWindow,
		MergeGrace:        DefaultMergeGrace,
		EndOfDayWatch:     DefaultEndOfDayWatch,
		ExitAdjustment:    DefaultExitAdjustment,
		ClassifierTimeout: DefaultClassifierTimeout,
	}
}

// fileConfig is the yaml shape: durations are strings like "15m" so
// the file stays human-editable.
type fileConfig struct {
	DedupWindow       string  `yaml:"dedupWindow"`
	PhantomMultiplier float64 `yaml:"phantomMultiplier"`
	BounceMultiplier  float64 `yaml:"bounceMultiplier"`
	MaxSampleAge      string  `yaml:"maxSampleAge"`

	EntryDelay     string `yaml:"entryDelay"`
	MergeWindow    string `yaml:"mergeWindow"`
	MergeGrace     string `yaml:"mergeGrace"`
	EndOfDayWatch  string `yaml:"endOfDayWatch"`
	ExitAdjustment string `yaml:"exitAdjustment"`

	ClassifierTimeout string `yaml:"classifierTimeout"`
}

// LoadConfig reads a yaml config file over the defaults. Fields the
// file omits keep their defaults so a partial file is fine.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if file.PhantomMultiplier > 0 {
		cfg.PhantomMultiplier = file.PhantomMultiplier
	}
	if file.BounceMultiplier > 0 {
		cfg.BounceMultiplier = file.BounceMultiplier
	}

	durations := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{file.DedupWindow, "dedupWindow", &cfg.DedupWindow},
		{file.MaxSampleAge, "maxSampleAge", &cfg.MaxSampleAge},
		{file.EntryDelay, "entryDelay", &cfg.EntryDelay},
		{file.MergeWindow, "mergeWindow", &cfg.MergeWindow},
		{file.MergeGrace, "mergeGrace", &cfg.MergeGrace},
		{file.EndOfDayWatch, "endOfDayWatch", &cfg.EndOfDayWatch},
		{file.ExitAdjustment, "exitAdjustment", &cfg.ExitAdjustment},
		{file.ClassifierTimeout, "classifierTimeout", &cfg.ClassifierTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse %s %q: %w", d.name, d.raw, err)
		}
		*d.dst = parsed
	}

	return cfg, nil
}
