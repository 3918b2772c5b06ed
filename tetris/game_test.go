package tetris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession is a LevelSession with canned answers that records the calls it gets.
type fakeSession struct {
	id          int
	allowed     []Shape
	speed       float64
	target      int
	forbidden   map[Action]bool
	timeUp      bool
	remaining   time.Duration
	limited     bool
	stars       int
	reversed    bool
	rotations   int
	restarts    int
	paused      bool
	completions []int
}

func newFakeSession() *fakeSession {
	return &fakeSession{id: 7, speed: 1, target: 100, forbidden: map[Action]bool{}}
}

func (f *fakeSession) LevelID() int                     { return f.id }
func (f *fakeSession) AllowedShapes() []Shape           { return f.allowed }
func (f *fakeSession) SpeedMultiplier() float64         { return f.speed }
func (f *fakeSession) TargetLines() int                 { return f.target }
func (f *fakeSession) ReverseControls() bool            { return f.reversed }
func (f *fakeSession) CheckRuleViolation(a Action) bool { return f.forbidden[a] }
func (f *fakeSession) RecordRotation()                  { f.rotations++ }
func (f *fakeSession) IsTimeUp() bool                   { return f.timeUp }
func (f *fakeSession) Restart()                         { f.restarts++ }
func (f *fakeSession) Pause()                           { f.paused = true }
func (f *fakeSession) Resume()                          { f.paused = false }
func (f *fakeSession) TimeRemaining() (time.Duration, bool) {
	return f.remaining, f.limited
}
func (f *fakeSession) CheckLevelComplete(lines, _ int) bool { return lines >= f.target }
func (f *fakeSession) CalculateStars(int, int, time.Duration, bool) int {
	return f.stars
}
func (f *fakeSession) CompleteLevel(_, score, _ int) {
	f.completions = append(f.completions, score)
}

// fillBottom fills the bottom row except the columns in gaps.
func fillBottom(e *Engine, gaps ...int) {
	for x := range e.board.Width {
		e.board.grid[e.board.Height-1][x] = Red
	}
	for _, g := range gaps {
		e.board.grid[e.board.Height-1][g] = ""
	}
}

func TestSpawn(t *testing.T) {
	tests := []struct {
		shape Shape
		wantX int
	}{
		{J, 4},
		{O, 4},
		{I, 3},
		{T, 4},
	}
	for _, tt := range tests {
		t.Run(tt.shape.String(), func(t *testing.T) {
			t.Parallel()
			e := NewTestEngine(tt.shape)
			assert.Equal(t, Position{X: tt.wantX, Y: 0}, e.state.Offset)
			assert.False(t, e.state.GameOver)
		})
	}

	t.Run("next tetromino becomes the current one", func(t *testing.T) {
		e := NewTestEngine(J, O, T)
		require.Equal(t, J, e.state.Tetromino.Shape)
		require.Equal(t, O, e.state.NextTetromino.Shape)
		e.Spawn()
		assert.Equal(t, O, e.state.Tetromino.Shape)
		assert.Equal(t, T, e.state.NextTetromino.Shape)
	})

	t.Run("blocked spawn is game over and leaves the stack alone", func(t *testing.T) {
		e := NewTestEngine(J)
		e.board.grid[0][4] = Red
		before := e.board.Snapshot()
		e.Spawn()
		assert.True(t, e.state.GameOver)
		assert.True(t, e.board.IsGameOver())
		assert.Equal(t, before, e.board.Snapshot())
	})
}

func TestMoveActions(t *testing.T) {
	// Initial state of the test:
	//
	// .	0 1 2 3 4 5 6 7 8 9		.	0 1 2
	// 0	X X X X O X X X X X		0	O X X
	// 1	X X X X O O O X X X		1	O O O
	tests := []struct {
		name        string
		action      Action
		updateStack func(e *Engine)
		wantOK      bool
		want        Position
	}{
		{name: "Move left unblocked", action: MoveLeft, wantOK: true, want: Position{3, 0}},
		{name: "Move left blocked", action: MoveLeft, updateStack: func(e *Engine) { e.board.grid[1][3] = Red }, want: Position{4, 0}},
		{name: "Move right unblocked", action: MoveRight, wantOK: true, want: Position{5, 0}},
		{name: "Move right blocked", action: MoveRight, updateStack: func(e *Engine) { e.board.grid[1][7] = Red }, want: Position{4, 0}},
		{name: "Move down unblocked", action: MoveDown, wantOK: true, want: Position{4, 1}},
		{name: "Move down blocked", action: MoveDown, updateStack: func(e *Engine) { e.board.grid[2][5] = Red }, want: Position{4, 0}},
		{name: "Rotate when unblocked", action: RotateRight, wantOK: true, want: Position{4, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewTestEngine(J)
			if tt.updateStack != nil {
				tt.updateStack(e)
			}
			assert.Equal(t, tt.wantOK, e.Action(tt.action))
			assert.Equal(t, tt.want, e.state.Offset)
		})
	}

	t.Run("nothing moves while paused", func(t *testing.T) {
		e := NewTestEngine(J)
		require.True(t, e.TogglePause())
		assert.False(t, e.Move(-1, 0))
		assert.False(t, e.Rotate())
		assert.False(t, e.HardDrop())
		assert.Equal(t, Position{4, 0}, e.state.Offset)
		assert.Equal(t, 0, e.state.Tetromino.Rotation)
	})

	t.Run("nothing moves before the first spawn", func(t *testing.T) {
		e := NewEngine(Options{})
		assert.False(t, e.Move(1, 0))
		assert.False(t, e.Rotate())
		assert.False(t, e.Drop())
		e.Update(time.Hour)
		assert.Nil(t, e.state.Tetromino)
	})
}

func TestUpdate(t *testing.T) {
	t.Run("gravity waits for the drop interval", func(t *testing.T) {
		e := NewTestEngine(J)
		e.Update(500 * time.Millisecond)
		assert.Equal(t, 0, e.state.Offset.Y)
		e.Update(600 * time.Millisecond)
		assert.Equal(t, 1, e.state.Offset.Y)
		e.Update(900 * time.Millisecond)
		assert.Equal(t, 1, e.state.Offset.Y, "the timer restarts after a drop")
	})

	t.Run("a blocked drop locks the tetromino and spawns the next", func(t *testing.T) {
		e := NewTestEngine(J, O)
		e.state.Offset.Y = 18
		e.Update(1100 * time.Millisecond)
		assert.Equal(t, Blue, e.board.Cell(4, 18))
		assert.Equal(t, Blue, e.board.Cell(6, 19))
		assert.Equal(t, O, e.state.Tetromino.Shape)
		assert.Equal(t, Position{4, 0}, e.state.Offset)
	})

	t.Run("paused games don't fall", func(t *testing.T) {
		e := NewTestEngine(J)
		e.TogglePause()
		e.Update(5 * time.Second)
		assert.Equal(t, 0, e.state.Offset.Y)
	})

	t.Run("no mode no gravity", func(t *testing.T) {
		e := NewEngine(Options{Randomizer: NewSequence(J)})
		e.Reset()
		require.NotNil(t, e.state.Tetromino)
		e.Update(5 * time.Second)
		assert.Equal(t, 0, e.state.Offset.Y)
	})
}

func TestLockAndClear(t *testing.T) {
	t.Run("clearing a line scores and counts", func(t *testing.T) {
		// the I spawns on columns 3 to 6.
		e := NewTestEngine(I, O)
		fillBottom(e, 3, 4, 5, 6)
		require.True(t, e.HardDrop())
		assert.Equal(t, 1, e.state.LinesClear)
		assert.Equal(t, 100, e.state.Score)
		assert.Equal(t, O, e.state.Tetromino.Shape)
		assert.False(t, e.board.IsGameOver())
		for x := range 10 {
			assert.Empty(t, e.board.Cell(x, 19))
		}
	})

	t.Run("clearing the tenth line levels up and speeds up", func(t *testing.T) {
		e := NewTestEngine(I)
		e.state.LinesClear = 9
		fillBottom(e, 3, 4, 5, 6)
		e.HardDrop()
		assert.Equal(t, 2, e.state.Level)
		assert.Equal(t, 900*time.Millisecond, e.state.DropInterval)
	})

	t.Run("hard drop rests on the stack", func(t *testing.T) {
		e := NewTestEngine(O, J)
		e.board.grid[10][4] = Red
		e.HardDrop()
		assert.Equal(t, Yellow, e.board.Cell(4, 9))
		assert.Equal(t, Yellow, e.board.Cell(5, 8))
	})
}

func TestLevelSession(t *testing.T) {
	t.Run("reaching the target completes the level", func(t *testing.T) {
		s := newFakeSession()
		s.target = 1
		s.stars = 2
		e := NewEngine(Options{Randomizer: NewSequence(I, O)})
		e.StartLevel(s)
		fillBottom(e, 3, 4, 5, 6)
		e.HardDrop()

		assert.True(t, e.state.LevelComplete)
		assert.Equal(t, 2, e.state.Stars)
		assert.Equal(t, []int{100}, s.completions)
		assert.Equal(t, I, e.state.Tetromino.Shape, "no new tetromino after the level is complete")

		e.Update(time.Hour)
		assert.False(t, e.Move(1, 0))
		assert.Len(t, s.completions, 1)
	})

	t.Run("time up fails the level", func(t *testing.T) {
		s := newFakeSession()
		e := NewEngine(Options{Randomizer: NewSequence(J)})
		e.StartLevel(s)
		s.timeUp = true
		e.Update(2 * time.Second)
		assert.True(t, e.state.LevelFailed)
		assert.Equal(t, 0, e.state.Offset.Y)
		assert.False(t, e.Rotate())
	})

	t.Run("rotation limit", func(t *testing.T) {
		s := newFakeSession()
		e := NewEngine(Options{Randomizer: NewSequence(T)})
		e.StartLevel(s)
		require.True(t, e.Rotate())
		assert.Equal(t, 1, s.rotations)

		s.forbidden[RotateRight] = true
		assert.False(t, e.Rotate())
		assert.Equal(t, 1, e.state.Tetromino.Rotation)
		assert.Equal(t, 1, s.rotations)
	})

	t.Run("down acceleration ban blocks hard drops", func(t *testing.T) {
		s := newFakeSession()
		s.forbidden[Accelerate] = true
		e := NewEngine(Options{Randomizer: NewSequence(J)})
		e.StartLevel(s)
		assert.False(t, e.CanAccelerate())
		assert.False(t, e.Action(DropDown))
		assert.False(t, e.Action(Accelerate))
		assert.True(t, e.Action(MoveDown), "single steps are still allowed")
	})

	t.Run("speed multiplier shortens the interval", func(t *testing.T) {
		s := newFakeSession()
		s.speed = 2
		e := NewEngine(Options{Randomizer: NewSequence(J)})
		e.StartLevel(s)
		e.Update(600 * time.Millisecond)
		assert.Equal(t, 1, e.state.Offset.Y)
	})

	t.Run("allowed shapes restrict the spawns", func(t *testing.T) {
		s := newFakeSession()
		s.allowed = []Shape{O}
		e := NewEngine(Options{Seed: 42})
		e.StartLevel(s)
		for range 20 {
			assert.Equal(t, O, e.state.Tetromino.Shape)
			e.Spawn()
		}
	})

	t.Run("reset restarts the attempt but keeps the level", func(t *testing.T) {
		s := newFakeSession()
		e := NewEngine(Options{Randomizer: NewSequence(J)})
		e.StartLevel(s)
		first := e.state.AttemptID
		e.state.Score = 500
		e.Action(Restart)
		assert.Equal(t, 2, s.restarts)
		assert.Equal(t, LevelMode, e.state.Mode)
		assert.Equal(t, 7, e.state.LevelID)
		assert.Equal(t, 0, e.state.Score)
		assert.NotEqual(t, first, e.state.AttemptID)
	})

	t.Run("pause stops the level clock", func(t *testing.T) {
		s := newFakeSession()
		e := NewEngine(Options{Randomizer: NewSequence(J)})
		e.StartLevel(s)
		e.TogglePause()
		assert.True(t, s.paused)
		e.TogglePause()
		assert.False(t, s.paused)
	})

	t.Run("reverse controls", func(t *testing.T) {
		s := newFakeSession()
		s.reversed = true
		e := NewEngine(Options{Randomizer: NewSequence(J)})
		assert.False(t, e.ReverseControls())
		e.StartLevel(s)
		assert.True(t, e.ReverseControls())
	})
}

func TestRead(t *testing.T) {
	s := newFakeSession()
	s.target = 15
	s.remaining, s.limited = 90*time.Second, true
	e := NewEngine(Options{Randomizer: NewSequence(J, L)})
	e.StartLevel(s)

	r := e.Read()
	assert.Equal(t, 18, r.GhostY)
	assert.Equal(t, 15, r.TargetLines)
	assert.Equal(t, 90*time.Second, r.TimeRemaining)
	assert.True(t, r.TimeLimited)
	assert.Equal(t, L, r.NextTetromino.Shape)

	// the copy doesn't follow the engine.
	r.Stack[19][0] = Red
	r.Tetromino.Rotation = 3
	assert.Empty(t, e.board.Cell(0, 19))
	assert.Equal(t, 0, e.state.Tetromino.Rotation)
}
