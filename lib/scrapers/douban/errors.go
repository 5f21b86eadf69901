package douban

import (
	"errors"
	"fmt"
)

// user-facing, non-retryable failure classes. these are surfaced
// verbatim to the caller instead of being absorbed by pagination.
var (
	ErrNotFound            = errors.New("profile not found or private")
	ErrAccessBlocked       = errors.New("access blocked by the site")
	ErrChallengeUnresolved = errors.New("challenge page persisted after submitting a solution")
	ErrSolverExhausted     = errors.New("proof-of-work solver hit its iteration ceiling")
)

// NetworkError wraps transport-level failures (timeouts, refused
// connections). Callers absorb these at the page level: a page that
// fails with a NetworkError is simply missing from the collection.
type NetworkError struct {
	URL string
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}
