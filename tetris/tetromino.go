package tetris

import "fmt"

// Shape identifies one of the seven tetromino kinds.
type Shape uint8

const (
	I Shape = iota
	J
	L
	O
	S
	Z
	T
)

// Shapes lists every kind in catalog order.
var Shapes = []Shape{I, J, L, O, S, Z, T}

// Color is the tag a locked cell is rendered with. An empty string is an empty cell.
type Color string

const (
	Cyan    Color = "cyan"
	Blue    Color = "blue"
	Orange  Color = "orange"
	Yellow  Color = "yellow"
	Green   Color = "green"
	Red     Color = "red"
	Magenta Color = "magenta"
)

type kind struct {
	name   string
	color  Color
	states [][][]bool
}

// catalog is indexed by Shape. Row 0 of every state is the top row of the piece.
var catalog = [...]kind{
	/*
		.	0 1 2 3		.	0
		0	O O O O		0	O
		.				1	O
		.				2	O
		.				3	O
	*/
	I: {
		name:  "I",
		color: Cyan,
		states: [][][]bool{
			{{true, true, true, true}},
			{{true}, {true}, {true}, {true}},
		},
	},
	/*
		.	0 1 2
		0	O X X
		1	O O O
	*/
	J: {
		name:  "J",
		color: Blue,
		states: [][][]bool{
			{{true, false, false}, {true, true, true}},
			{{true, true}, {true, false}, {true, false}},
			{{true, true, true}, {false, false, true}},
			{{false, true}, {false, true}, {true, true}},
		},
	},
	/*
		.	0 1 2
		0	X X O
		1	O O O
	*/
	L: {
		name:  "L",
		color: Orange,
		states: [][][]bool{
			{{false, false, true}, {true, true, true}},
			{{true, false}, {true, false}, {true, true}},
			{{true, true, true}, {true, false, false}},
			{{true, true}, {false, true}, {false, true}},
		},
	},
	/*
		.	0 1
		0	O O
		1	O O
	*/
	O: {
		name:  "O",
		color: Yellow,
		states: [][][]bool{
			{{true, true}, {true, true}},
		},
	},
	/*
		.	0 1 2
		0	X O O
		1	O O X
	*/
	S: {
		name:  "S",
		color: Green,
		states: [][][]bool{
			{{false, true, true}, {true, true, false}},
			{{true, false}, {true, true}, {false, true}},
		},
	},
	/*
		.	0 1 2
		0	O O X
		1	X O O
	*/
	Z: {
		name:  "Z",
		color: Red,
		states: [][][]bool{
			{{true, true, false}, {false, true, true}},
			{{false, true}, {true, true}, {true, false}},
		},
	},
	/*
		.	0 1 2
		0	X O X
		1	O O O
	*/
	T: {
		name:  "T",
		color: Magenta,
		states: [][][]bool{
			{{false, true, false}, {true, true, true}},
			{{true, false}, {true, true}, {true, false}},
			{{true, true, true}, {false, true, false}},
			{{false, true}, {true, true}, {false, true}},
		},
	},
}

func (s Shape) valid() bool { return int(s) < len(catalog) }

func (s Shape) String() string {
	if !s.valid() {
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
	return catalog[s].name
}

// Color returns the color cells of this shape lock with.
func (s Shape) Color() Color { return catalog[s].color }

// States returns the number of rotation states of the shape.
func (s Shape) States() int { return len(catalog[s].states) }

func (s Shape) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("unknown shape %d", uint8(s))
	}
	return []byte(catalog[s].name), nil
}

func (s *Shape) UnmarshalText(b []byte) error {
	p, err := ParseShape(string(b))
	if err != nil {
		return err
	}
	*s = p
	return nil
}

// ParseShape returns the shape named by a single letter such as "T".
func ParseShape(name string) (Shape, error) {
	for i, k := range catalog {
		if k.name == name {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shape %q", name)
}

// Piece is a shape in one of its rotation states.
type Piece struct {
	Shape    Shape
	Rotation int
}

// NewPiece returns a piece of shape s in its spawn orientation.
func NewPiece(s Shape) *Piece {
	return &Piece{Shape: s}
}

// Grid returns the filled cells of the current rotation state.
// The returned matrix is shared with the catalog and must not be modified.
func (p *Piece) Grid() [][]bool {
	return catalog[p.Shape].states[p.Rotation]
}

func (p *Piece) Width() int  { return len(p.Grid()[0]) }
func (p *Piece) Height() int { return len(p.Grid()) }

func (p *Piece) Color() Color { return p.Shape.Color() }

// Rotate advances the piece to its next rotation state clockwise.
// A shape with a single state doesn't change but the rotation still succeeds.
func (p *Piece) Rotate() bool {
	p.Rotation = (p.Rotation + 1) % p.Shape.States()
	return true
}

// Rotated returns the next rotation state without modifying p.
func (p *Piece) Rotated() *Piece {
	c := *p
	c.Rotate()
	return &c
}

func (p *Piece) copy() *Piece {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
