// Package session keeps survey wizard sessions between requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/cb-discovery/internal/survey"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 12 * time.Hour

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// ErrConflict is returned when a session changed between load and save.
var ErrConflict = errors.New("session was modified concurrently")

// Store persists survey sessions by ID.
//
// Save is a compare-and-set on Session.Version: it succeeds only when the
// stored version equals s.Version (a missing session counts as version 0)
// and then stores s with the version incremented. A stale copy gets
// ErrConflict; a versioned copy of a deleted session gets ErrNotFound.
type Store interface {
	Get(ctx context.Context, id string) (survey.Session, error)
	Save(ctx context.Context, s survey.Session) error
	Delete(ctx context.Context, id string) error
}

// checkVersion applies the Save contract given the stored version, if any.
func checkVersion(s survey.Session, stored int64, exists bool) error {
	if !exists {
		if s.Version != 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, s.ID)
		}
		return nil
	}
	if stored != s.Version {
		return fmt.Errorf("%w: %s at version %d, stored %d", ErrConflict, s.ID, s.Version, stored)
	}
	return nil
}
