package barcode

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxAttempts bounds Allocate when the caller passes no limit.
const DefaultMaxAttempts = 10

var ErrMaxAttemptsExceeded = errors.New("sku_attempts_exceeded")

// AttemptsError reports an exhausted collision loop.
type AttemptsError struct {
	EntityID int64
	Attempts int
	Last     string
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("no free EAN-13 code for entity %d after %d attempts (last %s)", e.EntityID, e.Attempts, e.Last)
}

func (e *AttemptsError) Unwrap() error {
	return ErrMaxAttemptsExceeded
}

// ExistsFunc reports whether a code is already taken in storage.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Allocate generates a code for entityID that exists reports as free.
// The first candidate is Generate(entityID); each collision moves to
// Alternative(entityID, attempt). At most maxAttempts candidates are tried.
func (g *Generator) Allocate(ctx context.Context, entityID int64, exists ExistsFunc, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var candidate string
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if attempt == 0 {
			candidate = g.Generate(entityID)
		} else {
			candidate = g.Alternative(entityID, attempt)
		}
		if exists == nil {
			return candidate, nil
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check sku %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", &AttemptsError{EntityID: entityID, Attempts: maxAttempts, Last: candidate}
}
