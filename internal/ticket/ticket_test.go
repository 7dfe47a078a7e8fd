package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_InRange(t *testing.T) {
	g := NewGenerator()
	for range 10000 {
		n := g.Generate()
		if n < 0 || n >= MaxNumber {
			t.Fatalf("ticket %d out of range [0, %d)", n, MaxNumber)
		}
	}
}

func TestGenerateUnique(t *testing.T) {
	seq := []int{5, 5, 7, 9}
	i := 0
	g := &generator{intN: func(int) int {
		n := seq[i%len(seq)]
		i++
		return n
	}}

	t.Run("skips taken numbers", func(t *testing.T) {
		i = 0
		n, err := g.GenerateUnique(map[int]struct{}{5: {}})
		require.NoError(t, err)
		assert.Equal(t, 7, n)
	})

	t.Run("gives up when every draw collides", func(t *testing.T) {
		i = 0
		_, err := g.GenerateUnique(map[int]struct{}{5: {}, 7: {}, 9: {}})
		assert.ErrorIs(t, err, ErrTicketSpaceExhausted)
	})

	t.Run("empty taken set accepts first draw", func(t *testing.T) {
		i = 0
		n, err := g.GenerateUnique(nil)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	})
}
