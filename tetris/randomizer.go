package tetris

import (
	"math/rand/v2"
	"slices"
)

// Randomizer picks the next shape out of the allowed set.
type Randomizer interface {
	Next(allowed []Shape) Shape
}

// Uniform picks every allowed shape with the same probability on each draw.
type Uniform struct {
	rand *rand.Rand
}

func NewUniform(r *rand.Rand) *Uniform { return &Uniform{rand: r} }

func (u *Uniform) Next(allowed []Shape) Shape {
	return allowed[u.rand.IntN(len(allowed))]
}

// Bag deals every allowed shape once in random order before refilling.
// A change of the allowed set discards whatever is left in the bag.
type Bag struct {
	rand    *rand.Rand
	allowed []Shape
	bag     []Shape
}

func NewBag(r *rand.Rand) *Bag { return &Bag{rand: r} }

func (b *Bag) Next(allowed []Shape) Shape {
	if !slices.Equal(b.allowed, allowed) {
		b.allowed = slices.Clone(allowed)
		b.bag = nil
	}
	if len(b.bag) == 0 {
		b.bag = slices.Clone(b.allowed)
		b.rand.Shuffle(len(b.bag), func(i, j int) { b.bag[i], b.bag[j] = b.bag[j], b.bag[i] })
	}
	s := b.bag[0]
	b.bag = b.bag[1:]
	return s
}
