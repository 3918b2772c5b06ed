package tetris

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"
)

type Action string

const (
	MoveLeft    Action = "left"       // Moves the Tetromino one step to the left.
	MoveRight   Action = "right"      // Moves the Tetromino one step to the right.
	MoveDown    Action = "down"       // Moves the Tetromino one step down.
	Accelerate  Action = "accelerate" // Repeated move down while the key is held.
	DropDown    Action = "drop"       // Drops the Tetromino down the stack and locks it.
	RotateRight Action = "rotatecw"   // Rotates the Tetromino clockwise.
	Pause       Action = "pause"      // Toggles pause.
	Restart     Action = "reset"      // Restarts the attempt.
)

// LevelSession is the level mode rule engine the game consults while a level is played.
type LevelSession interface {
	LevelID() int
	AllowedShapes() []Shape
	SpeedMultiplier() float64
	TargetLines() int
	ReverseControls() bool
	// CheckRuleViolation reports whether the active level forbids the action.
	// Only RotateRight and Accelerate are ever restricted.
	CheckRuleViolation(a Action) bool
	RecordRotation()
	IsTimeUp() bool
	TimeRemaining() (remaining time.Duration, limited bool)
	CheckLevelComplete(lines, score int) bool
	CalculateStars(lines, score int, remaining time.Duration, limited bool) int
	CompleteLevel(lines, score, stars int)
	// Restart begins a new attempt of the active level.
	Restart()
}

// pauser is implemented by sessions whose clock can be stopped.
type pauser interface {
	Pause()
	Resume()
}

type Options struct {
	Width, Height int
	Rules         Rules
	// Randomizer defaults to Uniform seeded with Seed.
	Randomizer Randomizer
	// Seed is used when Randomizer is nil. Zero picks a random seed.
	Seed   uint64
	Logger *slog.Logger
}

// Snapshot is a copy of the game that's safe to read after the engine moves on.
type Snapshot struct {
	GameState
	Width, Height int
	Stack         [][]Color
	// GhostY is the row the current Tetromino would lock on.
	GhostY        int
	TargetLines   int
	TimeRemaining time.Duration
	TimeLimited   bool
}

type Engine struct {
	width, height int
	rules         Rules
	random        Randomizer
	resolver      CollisionResolver
	logger        *slog.Logger

	mode    Mode
	session LevelSession
	board   *Board
	state   *GameState
	timer   time.Duration
}

func NewEngine(o Options) *Engine {
	if o.Width <= 0 {
		o.Width = 10
	}
	if o.Height <= 0 {
		o.Height = 20
	}
	if o.Rules == (Rules{}) {
		o.Rules = DefaultRules()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Randomizer == nil {
		seed := o.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		o.Randomizer = NewUniform(rand.New(rand.NewPCG(seed, seed)))
	}
	return &Engine{
		width:  o.Width,
		height: o.Height,
		rules:  o.Rules,
		random: o.Randomizer,
		logger: o.Logger,
		board:  NewBoard(o.Width, o.Height),
		state:  newGameState("", 0, o.Rules),
	}
}

// StartClassic starts an endless game.
func (e *Engine) StartClassic() {
	e.mode = Classic
	e.session = nil
	e.Reset()
}

// StartLevel starts an attempt of the level loaded in s.
func (e *Engine) StartLevel(s LevelSession) {
	e.mode = LevelMode
	e.session = s
	e.Reset()
}

// Reset throws away the board and the state and spawns the first Tetromino.
// Level progress is kept; only the current attempt starts over.
func (e *Engine) Reset() {
	var id int
	if e.session != nil {
		id = e.session.LevelID()
		e.session.Restart()
	}
	e.board = NewBoard(e.width, e.height)
	e.state = newGameState(e.mode, id, e.rules)
	e.timer = 0
	e.Spawn()
	e.logger.Debug("new attempt", slog.String("mode", string(e.mode)), slog.Int("level_id", id), slog.String("attempt", e.state.AttemptID.String()))
}

// Spawn turns the next Tetromino into the current one and draws a new next.
func (e *Engine) Spawn() {
	allowed := e.allowedShapes()
	if e.state.NextTetromino == nil {
		e.state.NextTetromino = NewPiece(e.random.Next(allowed))
	}
	e.state.Tetromino = e.state.NextTetromino
	e.state.NextTetromino = NewPiece(e.random.Next(allowed))

	x := e.board.Width/2 - e.state.Tetromino.Width()/2
	e.state.Offset = Position{X: x, Y: 0}
	if !e.board.IsValidPosition(e.state.Tetromino, x, 0) {
		e.state.GameOver = true
		e.logger.Debug("game over", slog.Bool("top_out", e.board.IsGameOver()), slog.Int("score", e.state.Score), slog.Int("lines", e.state.LinesClear))
	}
}

// Move shifts the Tetromino by dx, dy if the new position is free.
func (e *Engine) Move(dx, dy int) bool {
	if !e.canAct() {
		return false
	}
	x, y := e.state.Offset.X+dx, e.state.Offset.Y+dy
	if !e.resolver.IsValid(e.state.Tetromino, e.board, x, y) {
		return false
	}
	e.state.Offset = Position{X: x, Y: y}
	return true
}

// Rotate rotates the Tetromino clockwise, wall kicking it when needed.
func (e *Engine) Rotate() bool {
	if !e.canAct() {
		return false
	}
	if e.inLevel() && e.session.CheckRuleViolation(RotateRight) {
		return false
	}
	ok, x, y := e.resolver.TryRotate(e.state.Tetromino, e.board, e.state.Offset.X, e.state.Offset.Y)
	if !ok {
		return false
	}
	e.state.Offset = Position{X: x, Y: y}
	if e.inLevel() {
		e.session.RecordRotation()
	}
	return true
}

// Drop moves the Tetromino one row down. A false return means it has to lock.
func (e *Engine) Drop() bool {
	return e.Move(0, 1)
}

// HardDrop moves the Tetromino to its resting row and locks it.
func (e *Engine) HardDrop() bool {
	if !e.canAct() || !e.CanAccelerate() {
		return false
	}
	e.state.Offset.Y += e.board.DropDistance(e.state.Tetromino, e.state.Offset.X, e.state.Offset.Y)
	e.lock()
	return true
}

// CanAccelerate reports whether held-down or hard drops are allowed.
func (e *Engine) CanAccelerate() bool {
	return !e.inLevel() || !e.session.CheckRuleViolation(Accelerate)
}

// ReverseControls reports whether the active level swaps left and right.
func (e *Engine) ReverseControls() bool {
	return e.inLevel() && e.session.ReverseControls()
}

func (e *Engine) TogglePause() bool {
	if e.state.halted() {
		return false
	}
	e.state.Paused = !e.state.Paused
	if p, ok := e.session.(pauser); ok && e.inLevel() {
		if e.state.Paused {
			p.Pause()
		} else {
			p.Resume()
		}
	}
	return true
}

// Update advances the game clock by delta and applies gravity when it's due.
func (e *Engine) Update(delta time.Duration) {
	if e.state.Paused || e.state.halted() || e.state.Tetromino == nil || e.state.Mode == "" {
		return
	}
	if e.inLevel() && e.session.IsTimeUp() {
		e.state.LevelFailed = true
		e.logger.Debug("level failed", slog.Int("level_id", e.state.LevelID), slog.Int("lines", e.state.LinesClear))
		return
	}
	e.timer += delta
	if e.timer <= e.dropInterval() {
		return
	}
	e.timer = 0
	if !e.Drop() {
		e.lock()
	}
}

// Action dispatches an input intent and reports whether it changed anything.
func (e *Engine) Action(a Action) bool {
	switch a {
	case MoveLeft:
		return e.Move(-1, 0)
	case MoveRight:
		return e.Move(1, 0)
	case MoveDown:
		return e.Drop()
	case Accelerate:
		return e.CanAccelerate() && e.Drop()
	case DropDown:
		return e.HardDrop()
	case RotateRight:
		return e.Rotate()
	case Pause:
		return e.TogglePause()
	case Restart:
		e.Reset()
		return true
	}
	return false
}

// Read returns a copy of the current game.
func (e *Engine) Read() *Snapshot {
	s := &Snapshot{
		GameState: *e.state,
		Width:     e.board.Width,
		Height:    e.board.Height,
		Stack:     e.board.Snapshot(),
	}
	s.Tetromino = e.state.Tetromino.copy()
	s.NextTetromino = e.state.NextTetromino.copy()
	if t := s.Tetromino; t != nil {
		s.GhostY = s.Offset.Y + e.board.DropDistance(t, s.Offset.X, s.Offset.Y)
	}
	if e.inLevel() {
		s.TargetLines = e.session.TargetLines()
		s.TimeRemaining, s.TimeLimited = e.session.TimeRemaining()
	}
	return s
}

// lock writes the Tetromino into the stack, clears lines and either finishes
// the level or spawns the next Tetromino.
func (e *Engine) lock() {
	t, o := e.state.Tetromino, e.state.Offset
	if !e.board.Place(t, o.X, o.Y) {
		e.logger.Error("unable to lock tetromino", slog.String("shape", t.Shape.String()), slog.Int("x", o.X), slog.Int("y", o.Y))
		e.state.GameOver = true
		return
	}
	if n := e.board.ClearFullRows(); n > 0 {
		e.state.applyClear(n, e.rules)
		e.logger.Debug("lines clear", slog.Int("lines", n), slog.Int("score", e.state.Score), slog.Int("level", e.state.Level))
	}
	if e.inLevel() && e.session.CheckLevelComplete(e.state.LinesClear, e.state.Score) {
		remaining, limited := e.session.TimeRemaining()
		stars := e.session.CalculateStars(e.state.LinesClear, e.state.Score, remaining, limited)
		e.session.CompleteLevel(e.state.LinesClear, e.state.Score, stars)
		e.state.LevelComplete = true
		e.state.Stars = stars
		e.logger.Debug("level complete", slog.Int("level_id", e.state.LevelID), slog.Int("stars", stars))
		return
	}
	e.Spawn()
}

func (e *Engine) canAct() bool {
	return !e.state.Paused && !e.state.halted() && e.state.Tetromino != nil
}

func (e *Engine) inLevel() bool {
	return e.state.Mode == LevelMode && e.session != nil
}

func (e *Engine) allowedShapes() []Shape {
	if e.inLevel() {
		if s := e.session.AllowedShapes(); len(s) > 0 {
			return s
		}
	}
	return slices.Clone(Shapes)
}

// dropInterval is the gravity interval scaled by the level speed.
func (e *Engine) dropInterval() time.Duration {
	d := e.state.DropInterval
	if e.inLevel() {
		if m := e.session.SpeedMultiplier(); m > 0 {
			d = time.Duration(float64(d) / m)
		}
	}
	return d
}
