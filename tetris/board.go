package tetris

import "slices"

// Board is the playfield.
// Columns are 0 > Width-1 left to right and represent the X axis.
// Rows are 0 > Height-1 top to bottom and represent the Y axis.
// An empty Color is an empty cell. Otherwise it has the color it will be rendered with.
type Board struct {
	Width  int
	Height int

	grid [][]Color
}

func NewBoard(width, height int) *Board {
	b := &Board{Width: width, Height: height, grid: make([][]Color, height)}
	for i := range b.grid {
		b.grid[i] = make([]Color, width)
	}
	return b
}

// IsValidPosition reports whether piece p fits with its top-left corner at x, y.
//
//	.	0 1 2 3 4 5 6 7 8 9		.	0 1 2
//	-1	X X X O X X X X X X		0	O X X
//	0	X X X O O O X X X X		1	O O O
//	1	X X X X X X X X X X
//
// Cells above row 0 are allowed as long as they are inside the side walls.
func (b *Board) IsValidPosition(p *Piece, x, y int) bool {
	for ir, r := range p.Grid() {
		for ic, c := range r {
			if !c {
				continue
			}
			xPos, yPos := x+ic, y+ir
			if xPos < 0 || xPos >= b.Width || yPos >= b.Height {
				return false
			}
			if yPos >= 0 && b.grid[yPos][xPos] != "" {
				return false
			}
		}
	}
	return true
}

// Place writes the piece into the grid. Nothing is written if the position is invalid.
func (b *Board) Place(p *Piece, x, y int) bool {
	if !b.IsValidPosition(p, x, y) {
		return false
	}
	color := p.Color()
	for ir, r := range p.Grid() {
		for ic, c := range r {
			if c && y+ir >= 0 {
				b.grid[y+ir][x+ic] = color
			}
		}
	}
	return true
}

// ClearFullRows removes every complete row and shifts the rows above it down.
// It returns the number of rows removed.
func (b *Board) ClearFullRows() int {
	var cleared int
	for row := b.Height - 1; row >= 0; {
		if slices.Contains(b.grid[row], "") {
			row--
			continue
		}
		// the row above shifts into this index so it is checked again.
		b.grid = slices.Delete(b.grid, row, row+1)
		b.grid = slices.Insert(b.grid, 0, make([]Color, b.Width))
		cleared++
	}
	return cleared
}

// IsGameOver reports whether the top row holds any block.
func (b *Board) IsGameOver() bool {
	return slices.ContainsFunc(b.grid[0], func(c Color) bool { return c != "" })
}

// Cell returns the color at x, y or an empty Color when out of bounds.
func (b *Board) Cell(x, y int) Color {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return ""
	}
	return b.grid[y][x]
}

// DropDistance returns how many rows p can fall from x, y before it rests.
func (b *Board) DropDistance(p *Piece, x, y int) int {
	var d int
	for b.IsValidPosition(p, x, y+d+1) {
		d++
	}
	return d
}

// Snapshot returns a copy of the grid that is safe to keep after the board changes.
func (b *Board) Snapshot() [][]Color {
	s := make([][]Color, len(b.grid))
	for i := range b.grid {
		s[i] = slices.Clone(b.grid[i])
	}
	return s
}
