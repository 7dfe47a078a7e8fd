package ticket

import (
	"errors"
	"math/rand/v2"
)

// MaxNumber is the exclusive upper bound of a ticket number.
const MaxNumber = 1_000_000

const maxUniqueAttempts = 1000

var ErrTicketSpaceExhausted = errors.New("no free ticket number found")

type Generator interface {
	Generate() int
	GenerateUnique(taken map[int]struct{}) (int, error)
}

type generator struct {
	intN func(n int) int
}

func NewGenerator() Generator {
	return &generator{intN: rand.IntN}
}

// Generate returns a number in [0, MaxNumber). Collisions with earlier tickets are possible.
func (g *generator) Generate() int {
	return g.intN(MaxNumber)
}

// GenerateUnique draws until it finds a number not in taken.
func (g *generator) GenerateUnique(taken map[int]struct{}) (int, error) {
	if len(taken) >= MaxNumber {
		return 0, ErrTicketSpaceExhausted
	}
	for range maxUniqueAttempts {
		n := g.Generate()
		if _, used := taken[n]; !used {
			return n, nil
		}
	}
	return 0, ErrTicketSpaceExhausted
}
