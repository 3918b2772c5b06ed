package level

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"quadris/tetris"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// MaxStars is the number of star thresholds a level may define.
const MaxStars = 3

var ErrInvalidTable = errors.New("invalid level table")

//go:embed levels.yaml
var levelsYAML []byte

// Default returns the table shipped with the game. It's parsed once.
var Default = sync.OnceValue(func() *Table {
	t, err := Parse(levelsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded levels: %v", err))
	}
	return t
})

// Table is the read-only list of levels, ordered by id.
type Table struct {
	levels []RuleSet
	byID   map[int]int
}

type tableFile struct {
	Levels []RuleSet `yaml:"levels"`
}

// Parse decodes and validates a YAML level table. Unknown keys are rejected.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	return newTable(f.Levels)
}

// LoadFile reads a level table from path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read levels: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func newTable(levels []RuleSet) (*Table, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrInvalidTable)
	}
	t := &Table{byID: make(map[int]int, len(levels))}
	t.levels = slices.Clone(levels)
	slices.SortFunc(t.levels, func(a, b RuleSet) int { return a.ID - b.ID })

	var errs []error
	for i, l := range t.levels {
		if _, ok := t.byID[l.ID]; ok {
			errs = append(errs, fmt.Errorf("level %d: duplicated id", l.ID))
			continue
		}
		t.byID[l.ID] = i
	}
	for _, l := range t.levels {
		errs = append(errs, t.validate(l)...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	return t, nil
}

func (t *Table) validate(l RuleSet) []error {
	var errs []error
	add := func(format string, a ...any) {
		errs = append(errs, fmt.Errorf("level %d: "+format, append([]any{l.ID}, a...)...))
	}
	if l.ID <= 0 {
		add("id must be positive")
	}
	if l.TargetLines <= 0 {
		add("target_lines must be positive")
	}
	if l.TimeLimit < 0 {
		add("time_limit can't be negative")
	}
	if l.Speed <= 0 {
		add("speed_multiplier must be positive")
	}
	if r := l.Rules.MaxRotations; r != nil && *r < 0 {
		add("max_rotations can't be negative")
	}
	if len(l.Stars) > MaxStars {
		add("%d star thresholds, at most %d", len(l.Stars), MaxStars)
	}
	if l.Requires != 0 {
		if _, ok := t.byID[l.Requires]; !ok || l.Requires == l.ID {
			add("requires unknown level %d", l.Requires)
		}
	}
	seen := map[tetris.Shape]bool{}
	for _, s := range l.Shapes {
		if seen[s] {
			add("shape %s listed twice", s)
		}
		seen[s] = true
	}
	return errs
}

// Get returns the level with the given id.
func (t *Table) Get(id int) (RuleSet, bool) {
	i, ok := t.byID[id]
	if !ok {
		return RuleSet{}, false
	}
	return t.levels[i], true
}

// All returns every level ordered by id.
func (t *Table) All() []RuleSet { return slices.Clone(t.levels) }

func (t *Table) Len() int { return len(t.levels) }
