// Package tetris contains the logic of the game: pieces, the board, scoring
// and the engine that drives a single session in classic or level mode.
package tetris

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Mode string

const (
	Classic   Mode = "classic"
	LevelMode Mode = "level"
)

// GameState holds everything that changes during one attempt.
// A reset replaces the whole value, it is never patched in place.
type GameState struct {
	AttemptID    uuid.UUID
	Score        int
	Level        int
	LinesClear   int
	DropInterval time.Duration

	// Tetromino is nil until the first spawn.
	Tetromino     *Piece
	NextTetromino *Piece
	Offset        Position

	Paused   bool
	GameOver bool

	Mode          Mode
	LevelID       int
	LevelComplete bool
	LevelFailed   bool
	Stars         int
}

func newGameState(mode Mode, levelID int, rules Rules) *GameState {
	return &GameState{
		AttemptID:    uuid.New(),
		Level:        1,
		DropInterval: rules.DropInterval(1),
		Mode:         mode,
		LevelID:      levelID,
	}
}

// applyClear adds the score for n cleared lines and moves the level forward.
func (s *GameState) applyClear(n int, rules Rules) {
	s.Score += ScoreFor(n, s.Level)
	s.LinesClear += n
	if l := rules.Level(s.LinesClear); l != s.Level {
		s.Level = l
		s.DropInterval = rules.DropInterval(l)
	}
}

// halted reports whether the attempt reached one of its final states.
func (s *GameState) halted() bool {
	return s.GameOver || s.LevelComplete || s.LevelFailed
}

var lineScores = map[int]int{1: 100, 2: 300, 3: 500, 4: 800}

// ScoreFor returns the points for clearing lines rows at once on the given level.
func ScoreFor(lines, level int) int {
	return lineScores[lines] * level
}

// LevelFor returns the level reached after clearing lines rows in total.
func LevelFor(lines int) int { return DefaultRules().Level(lines) }

// DropIntervalFor returns the gravity interval of a level with the default rules.
func DropIntervalFor(level int) time.Duration { return DefaultRules().DropInterval(level) }

type Curve string

const (
	// Linear removes DropStep per level.
	Linear Curve = "linear"
	// Guideline follows https://tetris.wiki/Marathon
	Guideline Curve = "guideline"
)

// Rules configures leveling and gravity.
type Rules struct {
	LinesPerLevel int
	// MaxLevel caps the level. Zero means no cap.
	MaxLevel int
	Curve    Curve
	BaseDrop time.Duration
	DropStep time.Duration
	MinDrop  time.Duration
}

func DefaultRules() Rules {
	return Rules{
		LinesPerLevel: 10,
		Curve:         Linear,
		BaseDrop:      time.Second,
		DropStep:      100 * time.Millisecond,
		MinDrop:       100 * time.Millisecond,
	}
}

func (r Rules) Level(lines int) int {
	per := r.LinesPerLevel
	if per <= 0 {
		per = 10
	}
	l := lines/per + 1
	if r.MaxLevel > 0 && l > r.MaxLevel {
		l = r.MaxLevel
	}
	return l
}

// DropInterval never increases with the level and never goes below MinDrop.
func (r Rules) DropInterval(level int) time.Duration {
	if level < 1 {
		level = 1
	}
	var d time.Duration
	switch r.Curve {
	case Guideline:
		// Time = (0.8-((Level-1)*0.007))^(Level-1)
		// the formula turns around after level 20 so we clamp it there.
		level = min(level, 20)
		seconds := math.Pow(0.8-float64(level-1)*0.007, float64(level-1))
		d = time.Duration(seconds * float64(time.Second))
	default:
		d = r.BaseDrop - time.Duration(level-1)*r.DropStep
	}
	return max(d, r.MinDrop)
}
