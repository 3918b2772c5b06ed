package tetris

// Sequence is a Randomizer that deals shapes in a fixed order and keeps
// repeating the last one. It ignores the allowed set.
type Sequence struct {
	shapes []Shape
	next   int
}

func NewSequence(shapes ...Shape) *Sequence { return &Sequence{shapes: shapes} }

func (s *Sequence) Next([]Shape) Shape {
	shape := s.shapes[min(s.next, len(s.shapes)-1)]
	s.next++
	return shape
}

// NewTestEngine creates a started classic game on a 10x20 board that deals the given shapes.
func NewTestEngine(shapes ...Shape) *Engine {
	if len(shapes) == 0 {
		shapes = []Shape{J}
	}
	e := NewEngine(Options{Randomizer: NewSequence(shapes...)})
	e.StartClassic()
	return e
}

// NewTestBoard returns a board with the rows described by layout stacked at its bottom.
// Any character other than '.' or ' ' is a filled cell.
func NewTestBoard(width, height int, layout ...string) *Board {
	b := NewBoard(width, height)
	top := height - len(layout)
	for ir, r := range layout {
		for ic, c := range r {
			if ic < width && c != '.' && c != ' ' {
				b.grid[top+ir][ic] = Color(string(c))
			}
		}
	}
	return b
}
