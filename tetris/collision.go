package tetris

// Position is an x, y offset on the board.
type Position struct {
	X, Y int
}

// kickOffsets are tried in order when a rotation is blocked in place.
var kickOffsets = []Position{
	{0, -1},  // up
	{1, -1},  // right-up
	{-1, -1}, // left-up
	{1, 0},   // right
	{-1, 0},  // left
	{1, 1},   // right-down
	{-1, 1},  // left-down
	{0, 1},   // down
}

// CollisionResolver validates positions and finds a wall kick for blocked rotations.
type CollisionResolver struct{}

func (CollisionResolver) IsValid(p *Piece, b *Board, x, y int) bool {
	return b.IsValidPosition(p, x, y)
}

// TryOffsetSearch returns the first kicked position where p fits.
// When nothing fits it returns x, y unchanged, which callers must re-check.
func (CollisionResolver) TryOffsetSearch(p *Piece, b *Board, x, y int) (int, int) {
	for _, o := range kickOffsets {
		if b.IsValidPosition(p, x+o.X, y+o.Y) {
			return x + o.X, y + o.Y
		}
	}
	return x, y
}

// TryRotate rotates p clockwise if the rotated piece fits at x, y or at a kicked position.
// p is only modified when the rotation succeeds.
func (r CollisionResolver) TryRotate(p *Piece, b *Board, x, y int) (bool, int, int) {
	candidate := p.Rotated()
	if b.IsValidPosition(candidate, x, y) {
		*p = *candidate
		return true, x, y
	}
	kx, ky := r.TryOffsetSearch(candidate, b, x, y)
	if b.IsValidPosition(candidate, kx, ky) {
		*p = *candidate
		return true, kx, ky
	}
	return false, x, y
}
