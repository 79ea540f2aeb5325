package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakmrtiwari/CliNote/internal/database/testhelper"
	"github.com/adityakmrtiwari/CliNote/internal/models"
)

func TestMongoUserRepository(t *testing.T) {
	db := testhelper.SetupTestDB(t)
	ctx := context.Background()
	repo, err := NewMongoUserRepository(ctx, db.Collection("users"))
	require.NoError(t, err)

	u := &models.User{Name: "A", Email: "a@example.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))
	assert.ErrorIs(t, repo.Create(ctx, &models.User{Name: "B", Email: "a@example.com"}), ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// two local users without sub do not collide on the partial sub index
	require.NoError(t, repo.Create(ctx, &models.User{Name: "C", Email: "c@example.com"}))

	first, err := repo.UpsertBySub(ctx, &models.User{Sub: "kc-1", Email: "kc@example.com", Name: "KC"})
	require.NoError(t, err)
	second, err := repo.UpsertBySub(ctx, &models.User{Sub: "kc-1", Email: "kc@example.com", Name: "KC Renamed"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "KC Renamed", second.Name)
}
