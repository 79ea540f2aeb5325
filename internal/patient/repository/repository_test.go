package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakmrtiwari/CliNote/internal/database/testhelper"
	"github.com/adityakmrtiwari/CliNote/internal/patient"
)

// exercise runs the same contract against every implementation.
func exercise(t *testing.T, r Repository) {
	ctx := context.Background()

	older := &patient.Patient{UserID: "u1", Name: "Ann", Age: 51, Gender: "Female"}
	require.NoError(t, r.Create(ctx, older))
	require.NotEmpty(t, older.ID)
	time.Sleep(5 * time.Millisecond)
	newer := &patient.Patient{UserID: "u1", Name: "Bob", Age: 40, Gender: "Male"}
	require.NoError(t, r.Create(ctx, newer))
	foreign := &patient.Patient{UserID: "u2", Name: "Cy", Age: 9, Gender: "Other"}
	require.NoError(t, r.Create(ctx, foreign))

	got, err := r.Get(ctx, "u1", older.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = r.Get(ctx, "u1", foreign.ID)
	require.ErrorIs(t, err, patient.ErrNotFound)

	list, err := r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	many, err := r.GetMany(ctx, "u1", []string{older.ID, foreign.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, many, 1)
	assert.Equal(t, older.ID, many[0].ID)

	empty, err := r.GetMany(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.ErrorIs(t, r.Delete(ctx, "u2", older.ID), patient.ErrNotFound)
	require.NoError(t, r.Delete(ctx, "u1", older.ID))
	require.ErrorIs(t, r.Delete(ctx, "u1", older.ID), patient.ErrNotFound)

	list, err = r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestMemoryRepo(t *testing.T) {
	exercise(t, NewMemoryRepo())
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	p := &patient.Patient{UserID: "u1", Name: "Ann", Gender: "Female"}
	require.NoError(t, r.Create(ctx, p))

	got, err := r.Get(ctx, "u1", p.ID)
	require.NoError(t, err)
	got.Name = "changed"

	again, err := r.Get(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", again.Name)
}

func TestMongoRepo(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	r, err := NewMongoRepo(context.Background(), db.Collection("patients"))
	require.NoError(t, err)
	exercise(t, r)
}
