package repository

import (
	"context"

	"github.com/adityakmrtiwari/CliNote/internal/note"
)

// Repository is the note persistence contract. Every method is scoped to the
// owning user; notes of other users behave as missing.
type Repository interface {
	// Create inserts a new note and fails with note.ErrConflict when the
	// (user, patient) pair already has one.
	Create(ctx context.Context, n *note.Note) error
	// UpsertGenerated atomically inserts or updates the note for the
	// (user, patient) pair with freshly generated content.
	UpsertGenerated(ctx context.Context, g note.Generated) (*note.Note, error)
	Get(ctx context.Context, userID, id string) (*note.Note, error)
	// ListByUser returns the user's notes, most recently updated first.
	ListByUser(ctx context.Context, userID string) ([]*note.Note, error)
	// ListByPatient returns the notes of one patient, newest first.
	ListByPatient(ctx context.Context, userID, patientID string) ([]*note.Note, error)
	Update(ctx context.Context, userID, id string, p note.Patch) (*note.Note, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteByPatient(ctx context.Context, userID, patientID string) (int64, error)
}
