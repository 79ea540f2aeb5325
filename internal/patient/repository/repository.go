package repository

import (
	"context"

	"github.com/adityakmrtiwari/CliNote/internal/patient"
)

// Repository persists patients; all lookups are scoped to the owning user.
type Repository interface {
	Create(ctx context.Context, p *patient.Patient) error
	Get(ctx context.Context, userID, id string) (*patient.Patient, error)
	// List returns the user's patients, newest first.
	List(ctx context.Context, userID string) ([]*patient.Patient, error)
	GetMany(ctx context.Context, userID string, ids []string) ([]*patient.Patient, error)
	Delete(ctx context.Context, userID, id string) error
}
