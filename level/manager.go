package level

import (
	"log/slog"
	"quadris/progress"
	"quadris/tetris"
	"time"
)

var _ tetris.LevelSession = (*Manager)(nil)

type Options struct {
	// Table defaults to the embedded levels.
	Table *Table
	// Book defaults to an in memory book.
	Book   *progress.Book
	Clock  Clock
	Logger *slog.Logger
}

// Manager enforces the rules of the active level and records completions in
// the progress book. The rotation count and the attempt time belong to the
// current attempt and start over on every LoadLevel and Restart.
type Manager struct {
	table  *Table
	book   *progress.Book
	clock  Clock
	logger *slog.Logger

	active    *RuleSet
	rotations int
	start     time.Time
	pausedAt  time.Time
	paused    time.Duration
}

// Info describes a level together with the player's progress on it.
type Info struct {
	RuleSet
	Unlocked  bool
	Completed bool
	BestScore int
	BestStars int
}

type Summary struct {
	Completed   int
	TotalStars  int
	TotalLevels int
	MaxStars    int
}

func NewManager(o Options) *Manager {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Table == nil {
		o.Table = Default()
	}
	if o.Book == nil {
		o.Book = progress.NewBook(progress.NewMemoryStore(), o.Logger)
	}
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	return &Manager{
		table:  o.Table,
		book:   o.Book,
		clock:  o.Clock,
		logger: o.Logger,
	}
}

// LoadLevel activates level id. It fails when the level is unknown or locked.
func (m *Manager) LoadLevel(id int) bool {
	l, ok := m.table.Get(id)
	if !ok {
		m.logger.Debug("unknown level", slog.Int("level_id", id))
		return false
	}
	if !m.IsUnlocked(id) {
		m.logger.Debug("locked level", slog.Int("level_id", id), slog.Int("requires", l.Requires))
		return false
	}
	m.active = &l
	m.Restart()
	m.logger.Debug("level loaded", slog.Int("level_id", id), slog.String("name", l.Name))
	return true
}

// IsUnlocked reports whether level id can be played. Level 1 always can.
func (m *Manager) IsUnlocked(id int) bool {
	l, ok := m.table.Get(id)
	if !ok {
		return false
	}
	if id == 1 || l.Requires == 0 {
		return true
	}
	return m.book.IsCompleted(l.Requires)
}

// Active returns the rules of the loaded level.
func (m *Manager) Active() (RuleSet, bool) {
	if m.active == nil {
		return RuleSet{}, false
	}
	return *m.active, true
}

func (m *Manager) LevelID() int {
	if m.active == nil {
		return 0
	}
	return m.active.ID
}

func (m *Manager) AllowedShapes() []tetris.Shape {
	if m.active == nil {
		return nil
	}
	return m.active.AllowedShapes()
}

func (m *Manager) SpeedMultiplier() float64 {
	if m.active == nil {
		return 1
	}
	return m.active.Speed
}

func (m *Manager) TargetLines() int {
	if m.active == nil {
		return 0
	}
	return m.active.TargetLines
}

func (m *Manager) ReverseControls() bool {
	return m.active != nil && m.active.Rules.ReverseControls
}

// CheckRuleViolation reports whether the active level forbids a.
func (m *Manager) CheckRuleViolation(a tetris.Action) bool {
	if m.active == nil {
		return false
	}
	switch a {
	case tetris.RotateRight:
		limit := m.active.Rules.MaxRotations
		return limit != nil && m.rotations >= *limit
	case tetris.Accelerate, tetris.DropDown:
		return m.active.Rules.DisableDownAcceleration
	}
	return false
}

func (m *Manager) RecordRotation() { m.rotations++ }

func (m *Manager) Rotations() int { return m.rotations }

// Elapsed returns the time played in the current attempt, pauses excluded.
func (m *Manager) Elapsed() time.Duration {
	if m.start.IsZero() {
		return 0
	}
	now := m.clock.Now()
	if !m.pausedAt.IsZero() {
		now = m.pausedAt
	}
	return now.Sub(m.start) - m.paused
}

// IsTimeUp reports whether a timed level ran out of time.
func (m *Manager) IsTimeUp() bool {
	if m.active == nil {
		return false
	}
	limit, ok := m.active.Limit()
	return ok && m.Elapsed() >= limit
}

// TimeRemaining returns what's left of the time limit, never below zero.
// limited is false for untimed levels.
func (m *Manager) TimeRemaining() (remaining time.Duration, limited bool) {
	if m.active == nil {
		return 0, false
	}
	limit, ok := m.active.Limit()
	if !ok {
		return 0, false
	}
	return max(limit-m.Elapsed(), 0), true
}

// CheckLevelComplete reports whether the target was reached in time.
func (m *Manager) CheckLevelComplete(lines, _ int) bool {
	return m.active != nil && lines >= m.active.TargetLines && !m.IsTimeUp()
}

func (m *Manager) CalculateStars(lines, score int, remaining time.Duration, limited bool) int {
	if m.active == nil {
		return 0
	}
	return m.active.StarsFor(lines, score, remaining, limited)
}

// CompleteLevel records the completion of the active level. Save errors are
// logged by the book and the game goes on.
func (m *Manager) CompleteLevel(lines, score, stars int) {
	if m.active == nil {
		return
	}
	m.logger.Info("level completed",
		slog.Int("level_id", m.active.ID),
		slog.Int("lines", lines),
		slog.Int("score", score),
		slog.Int("stars", stars),
	)
	_ = m.book.Complete(m.active.ID, score, stars)
}

// Restart begins a new attempt of the active level.
func (m *Manager) Restart() {
	m.rotations = 0
	m.start = m.clock.Now()
	m.pausedAt = time.Time{}
	m.paused = 0
}

// Pause stops the attempt clock until Resume.
func (m *Manager) Pause() {
	if m.start.IsZero() || !m.pausedAt.IsZero() {
		return
	}
	m.pausedAt = m.clock.Now()
}

func (m *Manager) Resume() {
	if m.pausedAt.IsZero() {
		return
	}
	m.paused += m.clock.Now().Sub(m.pausedAt)
	m.pausedAt = time.Time{}
}

// Info returns level id with the player's progress on it.
func (m *Manager) Info(id int) (Info, bool) {
	l, ok := m.table.Get(id)
	if !ok {
		return Info{}, false
	}
	return Info{
		RuleSet:   l,
		Unlocked:  m.IsUnlocked(id),
		Completed: m.book.IsCompleted(id),
		BestScore: m.book.BestScore(id),
		BestStars: m.book.BestStars(id),
	}, true
}

// Levels returns the info of every level in the table.
func (m *Manager) Levels() []Info {
	levels := m.table.All()
	infos := make([]Info, 0, len(levels))
	for _, l := range levels {
		i, _ := m.Info(l.ID)
		infos = append(infos, i)
	}
	return infos
}

func (m *Manager) Summary() Summary {
	rec := m.book.Record()
	s := Summary{TotalLevels: m.table.Len()}
	for _, l := range m.table.All() {
		if rec.IsCompleted(l.ID) {
			s.Completed++
		}
		s.TotalStars += rec.BestStars[l.ID]
		s.MaxStars += len(l.Stars)
	}
	return s
}

// NextUnlocked returns the first unlocked level that isn't completed yet.
func (m *Manager) NextUnlocked() (int, bool) {
	for _, l := range m.table.All() {
		if m.IsUnlocked(l.ID) && !m.book.IsCompleted(l.ID) {
			return l.ID, true
		}
	}
	return 0, false
}

// ResetProgress forgets every completion and unloads the active level.
func (m *Manager) ResetProgress() error {
	m.active = nil
	m.start = time.Time{}
	return m.book.Reset()
}
