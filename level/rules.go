// Package level holds the level table and the manager that enforces the rules
// of the level being played and keeps track of the player's progress.
package level

import (
	"quadris/tetris"
	"slices"
	"time"
)

// RuleSet is the configuration of one level. It's never modified after the
// table is loaded.
type RuleSet struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	TargetLines int    `yaml:"target_lines"`
	// TimeLimit is in seconds. Zero means the level is untimed.
	TimeLimit int     `yaml:"time_limit,omitempty"`
	Speed     float64 `yaml:"speed_multiplier"`
	// Shapes restricts the pieces that are dealt. Empty means every shape.
	Shapes []tetris.Shape `yaml:"shapes,omitempty"`
	Rules  SpecialRules   `yaml:"rules,omitempty"`
	// Requires is the level that has to be completed first. Zero means none.
	Requires int               `yaml:"requires,omitempty"`
	Stars    []StarRequirement `yaml:"stars"`
}

type SpecialRules struct {
	// MaxRotations caps the rotations of a whole attempt when set.
	MaxRotations            *int `yaml:"max_rotations,omitempty"`
	DisableDownAcceleration bool `yaml:"disable_down_acceleration,omitempty"`
	ReverseControls         bool `yaml:"reverse_controls,omitempty"`
}

// StarRequirement is met when every threshold it sets is met or exceeded.
// Zero thresholds are not checked.
type StarRequirement struct {
	Lines int `yaml:"lines,omitempty"`
	Score int `yaml:"score,omitempty"`
	// TimeRemaining is in seconds and only applies to timed levels.
	TimeRemaining int `yaml:"time_remaining,omitempty"`
}

// Limit returns the time limit and whether the level has one.
func (r RuleSet) Limit() (time.Duration, bool) {
	return time.Duration(r.TimeLimit) * time.Second, r.TimeLimit > 0
}

// AllowedShapes returns the shapes dealt on the level.
func (r RuleSet) AllowedShapes() []tetris.Shape {
	if len(r.Shapes) == 0 {
		return slices.Clone(tetris.Shapes)
	}
	return slices.Clone(r.Shapes)
}

// Met reports whether the requirement holds for the result of an attempt.
// The remaining time is ignored when limited is false.
func (s StarRequirement) Met(lines, score int, remaining time.Duration, limited bool) bool {
	if lines < s.Lines || score < s.Score {
		return false
	}
	if limited && remaining < time.Duration(s.TimeRemaining)*time.Second {
		return false
	}
	return true
}

// StarsFor walks the requirements in order and returns how many in a row are met.
func (r RuleSet) StarsFor(lines, score int, remaining time.Duration, limited bool) int {
	var stars int
	for _, s := range r.Stars {
		if !s.Met(lines, score, remaining, limited) {
			break
		}
		stars++
	}
	return stars
}
