package rules

import (
	"errors"
	"fmt"

	"github.com/roach88/tmdbg/internal/ir"
)

// NonDeterminismError reports two rules selecting the same (state, symbol).
type NonDeterminismError struct {
	// Key is the colliding (state, read symbol) pair.
	Key ir.RuleKey

	// First and Second are the load-order indexes of the colliding rules.
	First  int
	Second int
}

// Error implements the error interface.
func (e *NonDeterminismError) Error() string {
	return fmt.Sprintf("non-deterministic rules %d and %d both match %s", e.First, e.Second, e.Key)
}

// IsNonDeterminism returns true if err is or wraps a NonDeterminismError.
func IsNonDeterminism(err error) bool {
	var nd *NonDeterminismError
	return errors.As(err, &nd)
}
