package users

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adityakmrtiwari/CliNote/internal/models"
)

// MemoryUserRepository is an in-memory UserRepository for tests and the standalone service.
type MemoryUserRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byID: map[string]*models.User{}}
}

func (r *MemoryUserRepository) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.byID {
		if x.Email == u.Email {
			return ErrEmailTaken
		}
	}
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	c := *u
	r.byID[u.ID] = &c
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(r.byID[id]), nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email }), nil
}

func (r *MemoryUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Sub != "" && u.Sub == sub }), nil
}

func (r *MemoryUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, x := range r.byID {
		if x.Sub == u.Sub {
			x.Email, x.Name, x.UpdatedAt = u.Email, u.Name, now
			return r.copyOf(x), nil
		}
	}
	c := *u
	c.ID = primitive.NewObjectID().Hex()
	c.CreatedAt, c.UpdatedAt = now, now
	r.byID[c.ID] = &c
	return r.copyOf(&c), nil
}

func (r *MemoryUserRepository) find(match func(*models.User) bool) *models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if match(u) {
			return r.copyOf(u)
		}
	}
	return nil
}

func (r *MemoryUserRepository) copyOf(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
