// Package profilestore loads brand and influencer candidates for the match
// pipeline. Every read returns a fresh snapshot that later writes do not
// affect.
package profilestore

import (
	"context"
	"errors"
	"fmt"

	"sponsorloop-workers/internal/models"
)

var (
	ErrNotFound  = errors.New("profile not found")
	ErrDuplicate = errors.New("profile already exists")
	ErrReadOnly  = errors.New("profile store is read-only")
	ErrBadRole   = errors.New("unknown profile role")
)

// Store is the read side used by matching.
type Store interface {
	ListByRole(ctx context.Context, role models.Role) ([]models.Profile, error)
	SearchByText(ctx context.Context, role models.Role, text, category string) ([]models.Profile, error)
	Get(ctx context.Context, id string) (models.Profile, error)
}

// Writer registers new profiles.
type Writer interface {
	Create(ctx context.Context, p models.Profile) (models.Profile, error)
}

// ReadWriter is a Store that accepts registrations.
type ReadWriter interface {
	Store
	Writer
}

func checkRole(role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrBadRole, role)
	}
	return nil
}
