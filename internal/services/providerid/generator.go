// internal/services/providerid/generator.go
package providerid

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"

	"provider-enrollment/internal/models"
)

var (
	ErrExhausted = errors.New("no unused provider id found")

	validID = regexp.MustCompile(`^\d{11}$`)
	ten     = big.NewInt(10)
)

// IsValid reports whether id is exactly 11 decimal digits.
func IsValid(id string) bool {
	return validID.MatchString(id)
}

// Generator produces random 11-digit Medicaid provider identifiers.
type Generator struct {
	random io.Reader
}

// NewGenerator returns a Generator reading from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader}
}

// NewGeneratorWithReader is used by tests to make output deterministic.
func NewGeneratorWithReader(r io.Reader) *Generator {
	return &Generator{random: r}
}

// Generate returns 11 independent uniformly distributed digits. Leading zeros
// are kept. It never fails: if the entropy source errors it falls back to
// crypto/rand.
func (g *Generator) Generate() string {
	buf := make([]byte, models.ProviderIDLength)
	for i := range buf {
		buf[i] = '0' + g.digit()
	}
	return string(buf)
}

func (g *Generator) digit() byte {
	n, err := rand.Int(g.random, ten)
	if err != nil {
		n, err = rand.Int(rand.Reader, ten)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
		}
	}
	return byte(n.Int64())
}

// Next adapts Generate to the context-aware source used by the workflow.
func (g *Generator) Next(context.Context) (string, error) {
	return g.Generate(), nil
}

// ExistsFunc reports whether an identifier is already assigned.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// UniqueGenerator retries Generate until exists reports an unused id.
type UniqueGenerator struct {
	gen         *Generator
	exists      ExistsFunc
	maxAttempts int
}

func NewUniqueGenerator(gen *Generator, exists ExistsFunc, maxAttempts int) *UniqueGenerator {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &UniqueGenerator{gen: gen, exists: exists, maxAttempts: maxAttempts}
}

// Next returns an id not currently assigned to any application.
func (u *UniqueGenerator) Next(ctx context.Context) (string, error) {
	for attempt := 0; attempt < u.maxAttempts; attempt++ {
		id := u.gen.Generate()
		taken, err := u.exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check provider id: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrExhausted, u.maxAttempts)
}
