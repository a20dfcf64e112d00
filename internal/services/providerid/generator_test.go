package providerid

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	gen := NewGenerator()
	for i := 0; i < 500; i++ {
		id := gen.Generate()
		require.Len(t, id, 11)
		assert.True(t, IsValid(id), id)
	}
}

func TestGenerate_Distribution(t *testing.T) {
	gen := NewGenerator()
	var counts [10]int
	const runs = 2000
	for i := 0; i < runs; i++ {
		for _, c := range gen.Generate() {
			counts[c-'0']++
		}
	}
	// 22000 digits, expected 2200 per value
	for d, n := range counts {
		assert.InDelta(t, 2200, n, 400, "digit %d", d)
	}
}

func TestGenerate_KeepsLeadingZeros(t *testing.T) {
	gen := NewGeneratorWithReader(bytes.NewReader(make([]byte, 64)))
	assert.Equal(t, "00000000000", gen.Generate())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerate_FallsBackOnReaderError(t *testing.T) {
	id := NewGeneratorWithReader(failingReader{}).Generate()
	assert.True(t, IsValid(id))
}

func TestGenerator_Next(t *testing.T) {
	id, err := NewGenerator().Next(context.Background())
	require.NoError(t, err)
	assert.True(t, IsValid(id))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("01234567890"))
	assert.False(t, IsValid("0123456789"))
	assert.False(t, IsValid("012345678901"))
	assert.False(t, IsValid("0123456789a"))
	assert.False(t, IsValid(""))
}

func TestUniqueGenerator(t *testing.T) {
	t.Run("retries on collision", func(t *testing.T) {
		calls := 0
		u := NewUniqueGenerator(NewGenerator(), func(ctx context.Context, id string) (bool, error) {
			calls++
			return calls < 3, nil
		}, 5)

		id, err := u.Next(context.Background())
		require.NoError(t, err)
		assert.True(t, IsValid(id))
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted", func(t *testing.T) {
		u := NewUniqueGenerator(NewGenerator(), func(ctx context.Context, id string) (bool, error) {
			return true, nil
		}, 2)

		_, err := u.Next(context.Background())
		assert.ErrorIs(t, err, ErrExhausted)
	})

	t.Run("lookup error", func(t *testing.T) {
		u := NewUniqueGenerator(NewGenerator(), func(ctx context.Context, id string) (bool, error) {
			return false, errors.New("db down")
		}, 2)

		_, err := u.Next(context.Background())
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrExhausted)
	})
}
