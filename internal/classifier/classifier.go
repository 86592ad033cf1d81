package classifier

import (
	"context"
	"errors"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Classifier decides whether an image contains a cat with at least the given confidence (0-100).
type Classifier interface {
	ImageContainsCat(ctx context.Context, image domain.Image, confidenceThreshold float32) (bool, error)
}

// ErrClassifierUnavailable is returned when the detection backend cannot answer.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, image domain.Image, confidenceThreshold float32) (bool, error)

// ImageContainsCat calls f.
func (f Func) ImageContainsCat(ctx context.Context, image domain.Image, confidenceThreshold float32) (bool, error) {
	return f(ctx, image, confidenceThreshold)
}
