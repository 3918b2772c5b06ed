package tetris

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotateCycle(t *testing.T) {
	for _, s := range Shapes {
		t.Run(s.String(), func(t *testing.T) {
			t.Parallel()
			p := NewPiece(s)
			want := p.Grid()
			for range 4 {
				assert.True(t, p.Rotate())
			}
			assert.Equal(t, 0, p.Rotation)
			assert.Equal(t, want, p.Grid())
		})
	}

	t.Run("O never changes", func(t *testing.T) {
		p := NewPiece(O)
		for range 3 {
			p.Rotate()
			assert.Equal(t, 0, p.Rotation)
			assert.Equal(t, [][]bool{{true, true}, {true, true}}, p.Grid())
		}
	})

	t.Run("Rotated leaves the piece alone", func(t *testing.T) {
		p := NewPiece(T)
		r := p.Rotated()
		assert.Equal(t, 0, p.Rotation)
		assert.Equal(t, 1, r.Rotation)
		assert.Equal(t, 3, r.Height())
		assert.Equal(t, 2, r.Width())
	})
}

func TestShapeText(t *testing.T) {
	for _, s := range Shapes {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var got Shape
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}
	_, err := ParseShape("X")
	assert.Error(t, err)
}

func TestIsValidPosition(t *testing.T) {
	// 		0 1 2 3 4 5 6 7 8 9			0 1 2
	// 17	. . . . . . . . . .		0	O X X
	// 18	. . . . . C . . . .		1	O O O
	// 19	. . . . . . . . . .
	tests := []struct {
		name      string
		x, y      int
		wantValid bool
	}{
		{name: "empty spot", x: 3, y: 0, wantValid: true},
		{name: "stack collision", x: 3, y: 17},
		{name: "left bound", x: -1, y: 0},
		{name: "right bound", x: 8, y: 0},
		{name: "bottom bound", x: 0, y: 19},
		{name: "resting on the floor", x: 0, y: 18, wantValid: true},
		{name: "above the top is allowed", x: 3, y: -1, wantValid: true},
		{name: "above the top still checks walls", x: -1, y: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := NewTestBoard(10, 20, ".....C....", "..........")
			assert.Equal(t, tt.wantValid, b.IsValidPosition(NewPiece(J), tt.x, tt.y))
		})
	}
}

func TestPlace(t *testing.T) {
	t.Run("writes the piece color", func(t *testing.T) {
		b := NewBoard(10, 20)
		require.True(t, b.Place(NewPiece(J), 3, 18))
		want := NewTestBoard(10, 20, "...b......", "...bbb....")
		for y := range 20 {
			for x := range 10 {
				if want.Cell(x, y) != "" {
					assert.Equal(t, Blue, b.Cell(x, y), "cell %d,%d", x, y)
				} else {
					assert.Empty(t, b.Cell(x, y), "cell %d,%d", x, y)
				}
			}
		}
	})

	t.Run("cells above the board are dropped", func(t *testing.T) {
		b := NewBoard(10, 20)
		require.True(t, b.Place(NewPiece(J), 3, -1))
		assert.Equal(t, Blue, b.Cell(3, 0))
		assert.Equal(t, Blue, b.Cell(5, 0))
	})

	t.Run("invalid position leaves the grid untouched", func(t *testing.T) {
		b := NewTestBoard(10, 20, ".....C....", "..........")
		before := b.Snapshot()
		assert.False(t, b.Place(NewPiece(J), 4, 17))
		assert.False(t, b.Place(NewPiece(I), 8, 5))
		assert.Equal(t, before, b.Snapshot())
	})
}

func TestClearFullRows(t *testing.T) {
	t.Run("non contiguous rows", func(t *testing.T) {
		b := NewTestBoard(4, 10,
			"Z...", // 0
			".Y..", // 1
			"..W.", // 2
			"...V", // 3
			"A...", // 4
			"XXXX", // 5
			"B...", // 6
			"XXXX", // 7
			"C...", // 8
			"DD..", // 9
		)
		assert.Equal(t, 2, b.ClearFullRows())
		assert.Len(t, b.Snapshot(), 10)

		want := NewTestBoard(4, 10,
			"....",
			"....",
			"Z...",
			".Y..",
			"..W.",
			"...V",
			"A...",
			"B...",
			"C...",
			"DD..",
		)
		assert.Equal(t, want.Snapshot(), b.Snapshot())
	})

	t.Run("adjacent rows at the bottom", func(t *testing.T) {
		b := NewTestBoard(10, 20, "J.........", "JJJJJJJJJJ", "JJJJJJJJJJ")
		assert.Equal(t, 2, b.ClearFullRows())
		assert.Equal(t, NewTestBoard(10, 20, "J").Snapshot(), b.Snapshot())
	})

	t.Run("nothing to clear", func(t *testing.T) {
		b := NewTestBoard(10, 20, "JJJJJJJJJ.")
		assert.Equal(t, 0, b.ClearFullRows())
	})
}

func TestIsGameOver(t *testing.T) {
	b := NewBoard(10, 20)
	assert.False(t, b.IsGameOver())
	b.grid[1][3] = Blue
	assert.False(t, b.IsGameOver())
	b.grid[0][3] = Blue
	assert.True(t, b.IsGameOver())
}

func TestTryOffsetSearch(t *testing.T) {
	var r CollisionResolver
	tests := []struct {
		name         string
		block        []Position
		x, y         int
		wantX, wantY int
	}{
		{name: "up comes first", x: 4, y: 4, wantX: 4, wantY: 3},
		{name: "right-up when up is blocked", block: []Position{{4, 3}}, x: 4, y: 4, wantX: 5, wantY: 3},
		{name: "left-up after right-up", block: []Position{{5, 3}}, x: 4, y: 4, wantX: 3, wantY: 3},
		{name: "right after the upper row", block: []Position{{3, 3}, {4, 3}, {5, 3}, {6, 3}}, x: 4, y: 4, wantX: 5, wantY: 4},
		{name: "down is the last resort", block: []Position{{3, 3}, {4, 3}, {5, 3}, {6, 3}, {3, 4}, {6, 4}, {3, 5}, {6, 5}}, x: 4, y: 4, wantX: 4, wantY: 5},
		{
			name:  "nothing fits returns the original position",
			block: []Position{{3, 3}, {4, 3}, {5, 3}, {6, 3}, {3, 4}, {6, 4}, {3, 5}, {6, 5}, {4, 6}, {5, 6}},
			x:     4, y: 4, wantX: 4, wantY: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := NewBoard(10, 20)
			for _, p := range tt.block {
				b.grid[p.Y][p.X] = Red
			}
			x, y := r.TryOffsetSearch(NewPiece(O), b, tt.x, tt.y)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestTryRotate(t *testing.T) {
	var r CollisionResolver

	t.Run("rotates in place", func(t *testing.T) {
		p := NewPiece(T)
		ok, x, y := r.TryRotate(p, NewBoard(10, 20), 4, 10)
		assert.True(t, ok)
		assert.Equal(t, []int{4, 10}, []int{x, y})
		assert.Equal(t, 1, p.Rotation)
	})

	t.Run("wall kick against the right wall", func(t *testing.T) {
		// .	0 1 2 3 4 5 6 7 8 9
		// 5	. . . . . . . . O .
		// 6	. . . . . . . . O O
		// 7	. . . . . . . . O .
		p := &Piece{Shape: T, Rotation: 1}
		ok, x, y := r.TryRotate(p, NewBoard(10, 20), 8, 5)
		assert.True(t, ok)
		assert.Equal(t, []int{7, 4}, []int{x, y})
		assert.Equal(t, 2, p.Rotation)
	})

	t.Run("failed rotation keeps the piece as it was", func(t *testing.T) {
		b := NewBoard(10, 20)
		for y := range 20 {
			for x := range 10 {
				b.grid[y][x] = Red
			}
		}
		// carve the T out of a full board so nothing else fits.
		for _, c := range []Position{{5, 10}, {4, 11}, {5, 11}, {6, 11}} {
			b.grid[c.Y][c.X] = ""
		}
		p := NewPiece(T)
		before := p.Grid()
		ok, x, y := r.TryRotate(p, b, 4, 10)
		assert.False(t, ok)
		assert.Equal(t, []int{4, 10}, []int{x, y})
		assert.Equal(t, 0, p.Rotation)
		assert.Equal(t, before, p.Grid())
	})
}

func TestScoreFor(t *testing.T) {
	tests := []struct{ lines, level, want int }{
		{0, 1, 0},
		{1, 1, 100},
		{2, 2, 600},
		{3, 1, 500},
		{4, 3, 2400},
		{5, 1, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d lines on level %d", tt.lines, tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreFor(tt.lines, tt.level))
		})
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		lines, wantLevel int
	}{
		{0, 1},
		{9, 1},
		{10, 2},
		{12, 2},
		{25, 3},
		{94, 10},
		{209, 21},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("for %d lines should have level %d", tt.lines, tt.wantLevel), func(t *testing.T) {
			assert.Equal(t, tt.wantLevel, LevelFor(tt.lines))
		})
	}

	t.Run("max level caps the level", func(t *testing.T) {
		r := DefaultRules()
		r.MaxLevel = 20
		assert.Equal(t, 20, r.Level(500))
	})
}

func TestDropInterval(t *testing.T) {
	tests := []struct {
		level int
		want  time.Duration
	}{
		{1, time.Second},
		{2, 900 * time.Millisecond},
		{5, 600 * time.Millisecond},
		{10, 100 * time.Millisecond},
		{30, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("level %d", tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, DropIntervalFor(tt.level))
		})
	}

	for _, c := range []Curve{Linear, Guideline} {
		t.Run(fmt.Sprintf("%s never increases", c), func(t *testing.T) {
			r := DefaultRules()
			r.Curve = c
			r.MinDrop = 20 * time.Millisecond
			prev := r.DropInterval(1)
			for l := 2; l <= 40; l++ {
				d := r.DropInterval(l)
				assert.LessOrEqual(t, d, prev, "level %d", l)
				assert.GreaterOrEqual(t, d, r.MinDrop, "level %d", l)
				prev = d
			}
		})
	}
}

func TestRandomizer(t *testing.T) {
	t.Run("uniform only deals allowed shapes", func(t *testing.T) {
		u := NewUniform(rand.New(rand.NewPCG(1, 2)))
		allowed := []Shape{I, O}
		for range 100 {
			assert.Contains(t, allowed, u.Next(allowed))
		}
	})

	t.Run("bag deals every allowed shape once per round", func(t *testing.T) {
		b := NewBag(rand.New(rand.NewPCG(3, 4)))
		for range 3 {
			seen := map[Shape]int{}
			for range len(Shapes) {
				seen[b.Next(Shapes)]++
			}
			assert.Len(t, seen, len(Shapes))
		}
	})

	t.Run("bag refills when the allowed set changes", func(t *testing.T) {
		b := NewBag(rand.New(rand.NewPCG(5, 6)))
		b.Next(Shapes)
		for range 4 {
			assert.Contains(t, []Shape{I, T}, b.Next([]Shape{I, T}))
		}
	})
}
