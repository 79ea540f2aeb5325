package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adityakmrtiwari/CliNote/internal/note"
	"github.com/adityakmrtiwari/CliNote/internal/note/repository"
)

// PatientDirectory resolves patient summaries for note listings.
type PatientDirectory interface {
	Refs(ctx context.Context, userID string, ids []string) (map[string]note.PatientRef, error)
}

// CreateInput is a manual note creation request. AIGeneratedNote is the raw
// JSON from the client; when present and not null the note starts as completed.
type CreateInput struct {
	PatientID       string
	TemplateType    note.TemplateType
	Transcript      string
	AIGeneratedNote json.RawMessage
	AudioURL        string
}

// Service implements note business operations on top of a Repository.
type Service struct {
	repo     repository.Repository
	patients PatientDirectory
}

func NewService(repo repository.Repository, patients PatientDirectory) *Service {
	return &Service{repo: repo, patients: patients}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(patients PatientDirectory) *Service {
	return NewService(repository.NewMemoryRepo(), patients)
}

// Create stores a new note; note.ErrConflict when the patient already has one.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*note.Note, error) {
	n := &note.Note{
		UserID:       userID,
		PatientID:    in.PatientID,
		TemplateType: in.TemplateType,
		Transcript:   in.Transcript,
		AudioURL:     in.AudioURL,
		Status:       note.StatusDraft,
	}
	if !note.IsNull(in.AIGeneratedNote) {
		n.AIGeneratedNote = note.SanitizeJSON(in.AIGeneratedNote)
		n.Status = note.StatusCompleted
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// SaveGenerated upserts AI output for the (user, patient) pair.
func (s *Service) SaveGenerated(ctx context.Context, g note.Generated) (*note.Note, error) {
	return s.repo.UpsertGenerated(ctx, g)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*note.Note, error) {
	n, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachPatients(ctx, userID, []*note.Note{n}); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*note.Note, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return list, s.attachPatients(ctx, userID, list)
}

func (s *Service) ListByPatient(ctx context.Context, userID, patientID string) ([]*note.Note, error) {
	list, err := s.repo.ListByPatient(ctx, userID, patientID)
	if err != nil {
		return nil, err
	}
	return list, s.attachPatients(ctx, userID, list)
}

// NotesByPatient maps patient id to that patient's note for the given user.
func (s *Service) NotesByPatient(ctx context.Context, userID string) (map[string]*note.Note, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*note.Note, len(list))
	for _, n := range list {
		if _, ok := out[n.PatientID]; !ok {
			out[n.PatientID] = n
		}
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, p note.Patch) (*note.Note, error) {
	if p.TemplateType != nil && !p.TemplateType.Valid() {
		return nil, fmt.Errorf("%w: %q", note.ErrInvalidTemplate, *p.TemplateType)
	}
	if p.Status != nil && !p.Status.Valid() {
		return nil, note.ErrInvalidTransition
	}
	n, err := s.repo.Update(ctx, userID, id, p)
	if err != nil {
		return nil, err
	}
	if err := s.attachPatients(ctx, userID, []*note.Note{n}); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// DeleteByPatient removes every note of a patient; used when the patient is deleted.
func (s *Service) DeleteByPatient(ctx context.Context, userID, patientID string) (int64, error) {
	return s.repo.DeleteByPatient(ctx, userID, patientID)
}

func (s *Service) attachPatients(ctx context.Context, userID string, list []*note.Note) error {
	if s.patients == nil || len(list) == 0 {
		return nil
	}
	ids := make([]string, 0, len(list))
	seen := map[string]bool{}
	for _, n := range list {
		if !seen[n.PatientID] {
			seen[n.PatientID] = true
			ids = append(ids, n.PatientID)
		}
	}
	refs, err := s.patients.Refs(ctx, userID, ids)
	if err != nil {
		return fmt.Errorf("load patients: %w", err)
	}
	for _, n := range list {
		if ref, ok := refs[n.PatientID]; ok {
			r := ref
			n.Patient = &r
		}
	}
	return nil
}
