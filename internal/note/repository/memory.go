package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adityakmrtiwari/CliNote/internal/note"
)

// MemoryRepo is an in-memory Repository used by the standalone service and tests.
// It enforces the same one-note-per-(user, patient) rule as the Mongo index.
type MemoryRepo struct {
	mu        sync.RWMutex
	store     map[string]*note.Note
	byPatient map[string]string // userID+"/"+patientID -> note id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*note.Note), byPatient: make(map[string]string)}
}

func pairKey(userID, patientID string) string { return userID + "/" + patientID }

func clone(n *note.Note) *note.Note {
	c := *n
	return &c
}

func (m *MemoryRepo) Create(ctx context.Context, n *note.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(n.UserID, n.PatientID)
	if _, ok := m.byPatient[k]; ok {
		return note.ErrConflict
	}
	if n.ID == "" {
		n.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	n.LastUpdated = now
	m.store[n.ID] = clone(n)
	m.byPatient[k] = n.ID
	return nil
}

func (m *MemoryRepo) UpsertGenerated(ctx context.Context, g note.Generated) (*note.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	k := pairKey(g.UserID, g.PatientID)
	n, ok := m.store[m.byPatient[k]]
	if !ok {
		n = &note.Note{
			ID:        primitive.NewObjectID().Hex(),
			UserID:    g.UserID,
			PatientID: g.PatientID,
			CreatedAt: now,
		}
		m.store[n.ID] = n
		m.byPatient[k] = n.ID
	}
	n.TemplateType = g.TemplateType
	n.Transcript = g.Transcript
	n.AIGeneratedNote = g.Note
	n.Status = note.StatusCompleted
	if g.AudioURL != "" {
		n.AudioURL = g.AudioURL
	}
	n.UpdatedAt = now
	n.LastUpdated = now
	return clone(n), nil
}

func (m *MemoryRepo) Get(ctx context.Context, userID, id string) (*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.store[id]
	if !ok || n.UserID != userID {
		return nil, note.ErrNotFound
	}
	return clone(n), nil
}

func (m *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*note.Note{}
	for _, n := range m.store {
		if n.UserID == userID {
			out = append(out, clone(n))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryRepo) ListByPatient(ctx context.Context, userID, patientID string) ([]*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*note.Note{}
	for _, n := range m.store {
		if n.UserID == userID && n.PatientID == patientID {
			out = append(out, clone(n))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepo) Update(ctx context.Context, userID, id string, p note.Patch) (*note.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.store[id]
	if !ok || n.UserID != userID {
		return nil, note.ErrNotFound
	}
	if p.Status != nil && !n.Status.CanTransition(*p.Status) {
		return nil, note.ErrInvalidTransition
	}
	if p.Transcript != nil {
		n.Transcript = *p.Transcript
	}
	if p.AIGeneratedNote != nil {
		n.AIGeneratedNote = *p.AIGeneratedNote
	}
	if p.TemplateType != nil {
		n.TemplateType = *p.TemplateType
	}
	if p.AudioURL != nil {
		n.AudioURL = *p.AudioURL
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
	n.UpdatedAt = time.Now().UTC()
	n.LastUpdated = n.UpdatedAt
	return clone(n), nil
}

func (m *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.store[id]
	if !ok || n.UserID != userID {
		return note.ErrNotFound
	}
	delete(m.store, id)
	delete(m.byPatient, pairKey(n.UserID, n.PatientID))
	return nil
}

func (m *MemoryRepo) DeleteByPatient(ctx context.Context, userID, patientID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, v := range m.store {
		if v.UserID == userID && v.PatientID == patientID {
			delete(m.store, id)
			n++
		}
	}
	delete(m.byPatient, pairKey(userID, patientID))
	return n, nil
}
