package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adityakmrtiwari/CliNote/internal/note"
	"github.com/adityakmrtiwari/CliNote/internal/patient"
	"github.com/adityakmrtiwari/CliNote/internal/patient/repository"
)

var ErrInvalidPatient = errors.New("invalid patient")

var genders = map[string]bool{"Male": true, "Female": true, "Other": true}

// NoteStore is the part of the note service patients depend on.
type NoteStore interface {
	NotesByPatient(ctx context.Context, userID string) (map[string]*note.Note, error)
	DeleteByPatient(ctx context.Context, userID, patientID string) (int64, error)
}

type CreateInput struct {
	Name   string
	Age    int
	Gender string
}

type Service struct {
	repo  repository.Repository
	notes NoteStore
}

func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

// SetNotes wires the note store after construction; the note service needs
// this service as its PatientDirectory, so one side is set late.
func (s *Service) SetNotes(notes NoteStore) { s.notes = notes }

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*patient.Patient, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPatient)
	}
	if in.Age < 0 {
		return nil, fmt.Errorf("%w: age must be >= 0", ErrInvalidPatient)
	}
	if !genders[in.Gender] {
		return nil, fmt.Errorf("%w: gender must be Male, Female or Other", ErrInvalidPatient)
	}
	p := &patient.Patient{UserID: userID, Name: name, Age: in.Age, Gender: in.Gender}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the user's patients; with includeNotes each carries its note.
func (s *Service) List(ctx context.Context, userID string, includeNotes bool) ([]*patient.Patient, error) {
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !includeNotes || s.notes == nil || len(list) == 0 {
		return list, nil
	}
	byPatient, err := s.notes.NotesByPatient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	for _, p := range list {
		p.Note = byPatient[p.ID]
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, userID, id string, includeNote bool) (*patient.Patient, error) {
	p, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if includeNote && s.notes != nil {
		byPatient, err := s.notes.NotesByPatient(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load notes: %w", err)
		}
		p.Note = byPatient[p.ID]
	}
	return p, nil
}

// Exists reports whether the patient belongs to the user.
func (s *Service) Exists(ctx context.Context, userID, id string) (bool, error) {
	_, err := s.repo.Get(ctx, userID, id)
	if errors.Is(err, patient.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes the patient and then its notes.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	if s.notes == nil {
		return nil
	}
	if _, err := s.notes.DeleteByPatient(ctx, userID, id); err != nil {
		return fmt.Errorf("delete patient notes: %w", err)
	}
	return nil
}

// Refs implements the note service's PatientDirectory.
func (s *Service) Refs(ctx context.Context, userID string, ids []string) (map[string]note.PatientRef, error) {
	list, err := s.repo.GetMany(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]note.PatientRef, len(list))
	for _, p := range list {
		out[p.ID] = p.Ref()
	}
	return out, nil
}
