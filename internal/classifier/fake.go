package classifier

import (
	"context"
	"math/rand/v2"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Fake answers at random. The image and threshold are ignored.
type Fake struct {
	// rnd is the source of answers.
	rnd *rand.Rand
	// mu guards rnd, which is not safe for concurrent use.
	mu sync.Mutex
}

// NewFake creates a Fake seeded with seed, so runs are reproducible.
func NewFake(seed uint64) *Fake {
	return &Fake{
		rnd: rand.New(rand.NewPCG(seed, seed)), //nolint:gosec // Not security sensitive.
	}
}

// ImageContainsCat returns a coin flip.
func (f *Fake) ImageContainsCat(context.Context, domain.Image, float32) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.rnd.IntN(2) == 1, nil
}
