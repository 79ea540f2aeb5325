package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adityakmrtiwari/CliNote/internal/patient"
)

// MemoryRepo is a simple in-memory repository used by the standalone service and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*patient.Patient
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*patient.Patient)}
}

func (m *MemoryRepo) Create(ctx context.Context, p *patient.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	c := *p
	m.store[p.ID] = &c
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, userID, id string) (*patient.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok || p.UserID != userID {
		return nil, patient.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *MemoryRepo) List(ctx context.Context, userID string) ([]*patient.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*patient.Patient{}
	for _, p := range m.store {
		if p.UserID == userID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepo) GetMany(ctx context.Context, userID string, ids []string) ([]*patient.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*patient.Patient, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.store[id]; ok && p.UserID == userID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.UserID != userID {
		return patient.ErrNotFound
	}
	delete(m.store, id)
	return nil
}
