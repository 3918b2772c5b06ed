// Package progress keeps what outlives a game: completed levels, best scores
// and stars, the classic high score and a short history of finished games.
package progress

import (
	"errors"
	"maps"
	"quadris/tetris"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ErrNoProgress is returned by stores that have nothing saved yet.
var ErrNoProgress = errors.New("no progress saved")

// Record is the whole persisted progress. Stores always write it in one piece.
type Record struct {
	Completed  []int       `yaml:"completed"`
	BestScores map[int]int `yaml:"best_scores"`
	BestStars  map[int]int `yaml:"best_stars"`
	HighScore  int         `yaml:"high_score"`
	History    []Entry     `yaml:"history"`
}

// Entry is one finished game.
type Entry struct {
	ID       uuid.UUID   `yaml:"id"`
	Mode     tetris.Mode `yaml:"mode"`
	LevelID  int         `yaml:"level_id,omitempty"`
	Score    int         `yaml:"score"`
	Lines    int         `yaml:"lines"`
	Stars    int         `yaml:"stars,omitempty"`
	Passed   bool        `yaml:"passed,omitempty"`
	PlayedAt time.Time   `yaml:"played_at"`
}

// Empty returns a record with no progress.
func Empty() Record {
	return Record{
		Completed:  []int{},
		BestScores: map[int]int{},
		BestStars:  map[int]int{},
		History:    []Entry{},
	}
}

// Clone returns a deep copy of r. Nil fields come back empty.
func (r Record) Clone() Record {
	c := Empty()
	c.Completed = append(c.Completed, r.Completed...)
	maps.Copy(c.BestScores, r.BestScores)
	maps.Copy(c.BestStars, r.BestStars)
	c.HighScore = r.HighScore
	c.History = append(c.History, r.History...)
	return c
}

// normalize sorts and dedups the completed ids and fills nil maps.
func (r *Record) normalize() {
	n := r.Clone()
	slices.Sort(n.Completed)
	n.Completed = slices.Compact(n.Completed)
	*r = n
}

func (r Record) IsCompleted(id int) bool {
	_, ok := slices.BinarySearch(r.Completed, id)
	return ok
}

func (r Record) TotalStars() int {
	var total int
	for _, s := range r.BestStars {
		total += s
	}
	return total
}
