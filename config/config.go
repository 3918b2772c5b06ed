// Package config loads the game settings: defaults, an optional YAML file and
// QUADRIS_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"quadris/tetris"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvProgressFile = "QUADRIS_PROGRESS_FILE"
	EnvLevelsFile   = "QUADRIS_LEVELS_FILE"
	EnvLogFile      = "QUADRIS_LOG_FILE"
	EnvLogLevel     = "QUADRIS_LOG_LEVEL"
	EnvSeed         = "QUADRIS_SEED"
)

const (
	RandomUniform = "uniform"
	RandomBag     = "bag"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	ProgressFile string `yaml:"progress_file"`
	// LevelsFile replaces the built in levels when set.
	LevelsFile string `yaml:"levels_file"`
	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
	// Seed makes the pieces repeat across runs. Zero picks a new one every time.
	Seed       uint64 `yaml:"seed"`
	Randomizer string `yaml:"randomizer"`
	NoGhost    bool   `yaml:"no_ghost"`
	FrameRate  int    `yaml:"frame_rate"`
	Board      Board  `yaml:"board"`
	Rules      Rules  `yaml:"rules"`
}

type Board struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Rules struct {
	LinesPerLevel int           `yaml:"lines_per_level"`
	MaxLevel      int           `yaml:"max_level"`
	Curve         string        `yaml:"curve"`
	BaseDrop      time.Duration `yaml:"base_drop"`
	DropStep      time.Duration `yaml:"drop_step"`
	MinDrop       time.Duration `yaml:"min_drop"`
}

func Default() *Config {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	r := tetris.DefaultRules()
	return &Config{
		ProgressFile: filepath.Join(dir, "quadris", "progress.yaml"),
		LogFile:      filepath.Join(os.TempDir(), "quadris.log"),
		LogLevel:     "info",
		Randomizer:   RandomUniform,
		FrameRate:    60,
		Board:        Board{Width: 10, Height: 20},
		Rules: Rules{
			LinesPerLevel: r.LinesPerLevel,
			MaxLevel:      r.MaxLevel,
			Curve:         string(r.Curve),
			BaseDrop:      r.BaseDrop,
			DropStep:      r.DropStep,
			MinDrop:       r.MinDrop,
		},
	}
}

// Load returns the defaults overridden by the YAML file at path, when path is
// not empty, and then by the environment.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unable to decode config %s: %w", path, err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvProgressFile); ok {
		c.ProgressFile = v
	}
	if v, ok := os.LookupEnv(EnvLevelsFile); ok {
		c.LevelsFile = v
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok {
		c.LogFile = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvSeed); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalid, EnvSeed, err)
		}
		c.Seed = seed
	}
	return nil
}

// Validate reports every problem of c at once.
func (c *Config) Validate() error {
	var errs []error
	if c.ProgressFile == "" {
		errs = append(errs, errors.New("progress_file is empty"))
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Randomizer != RandomUniform && c.Randomizer != RandomBag {
		errs = append(errs, fmt.Errorf("randomizer %q, want %s or %s", c.Randomizer, RandomUniform, RandomBag))
	}
	if c.FrameRate < 1 || c.FrameRate > 240 {
		errs = append(errs, fmt.Errorf("frame_rate %d out of 1-240", c.FrameRate))
	}
	if c.Board.Width < 4 || c.Board.Height < 4 {
		errs = append(errs, fmt.Errorf("board %dx%d is smaller than 4x4", c.Board.Width, c.Board.Height))
	}
	r := c.Rules
	if r.LinesPerLevel < 1 {
		errs = append(errs, errors.New("rules.lines_per_level must be positive"))
	}
	if r.MaxLevel < 0 {
		errs = append(errs, errors.New("rules.max_level can't be negative"))
	}
	if tetris.Curve(r.Curve) != tetris.Linear && tetris.Curve(r.Curve) != tetris.Guideline {
		errs = append(errs, fmt.Errorf("rules.curve %q, want %s or %s", r.Curve, tetris.Linear, tetris.Guideline))
	}
	if r.MinDrop <= 0 || r.BaseDrop < r.MinDrop || r.DropStep < 0 {
		errs = append(errs, errors.New("rules drops must satisfy 0 < min_drop <= base_drop and drop_step >= 0"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// SlogLevel returns the log level. Validate makes sure it parses.
func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	_ = l.UnmarshalText([]byte(c.LogLevel))
	return l
}

// FrameInterval is the time between two frames of the game loop.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// EngineOptions turns the config into options for a new game engine.
func (c *Config) EngineOptions(l *slog.Logger) tetris.Options {
	seed := c.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	src := rand.New(rand.NewPCG(seed, seed))
	var r tetris.Randomizer = tetris.NewUniform(src)
	if c.Randomizer == RandomBag {
		r = tetris.NewBag(src)
	}
	return tetris.Options{
		Width:  c.Board.Width,
		Height: c.Board.Height,
		Rules: tetris.Rules{
			LinesPerLevel: c.Rules.LinesPerLevel,
			MaxLevel:      c.Rules.MaxLevel,
			Curve:         tetris.Curve(c.Rules.Curve),
			BaseDrop:      c.Rules.BaseDrop,
			DropStep:      c.Rules.DropStep,
			MinDrop:       c.Rules.MinDrop,
		},
		Randomizer: r,
		Seed:       seed,
		Logger:     l,
	}
}
