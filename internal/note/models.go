package note

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("note not found")
	// ErrConflict is returned when a note already exists for the (user, patient) pair.
	ErrConflict = errors.New("a note for this patient already exists")
	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidTemplate   = errors.New("invalid templateType")
)

// TemplateType is the documentation template a note was written against.
type TemplateType string

const (
	TemplateSOAP            TemplateType = "SOAP"
	TemplateProgress        TemplateType = "PROGRESS"
	TemplateConsultation    TemplateType = "CONSULTATION"
	TemplateDischarge       TemplateType = "DISCHARGE"
	TemplateGeneralMedicine TemplateType = "General Medicine"
)

// TemplateTypes lists every accepted template in display order.
var TemplateTypes = []TemplateType{TemplateSOAP, TemplateProgress, TemplateConsultation, TemplateDischarge, TemplateGeneralMedicine}

func (t TemplateType) Valid() bool {
	for _, v := range TemplateTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a note.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusProcessing || s == StatusCompleted
}

// CanTransition reports whether a note in state s may move to next.
// A completed note can only go back to processing (regeneration).
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case StatusDraft:
		return next == StatusProcessing || next == StatusCompleted
	case StatusProcessing:
		return next == StatusCompleted || next == StatusDraft
	case StatusCompleted:
		return next == StatusProcessing
	}
	return false
}

// PredecessorsOf returns the states from which a note may move to next.
func PredecessorsOf(next Status) []Status {
	var out []Status
	for _, s := range []Status{StatusDraft, StatusProcessing, StatusCompleted} {
		if s.CanTransition(next) {
			out = append(out, s)
		}
	}
	return out
}

// GeneratedNote holds the structured sections of a clinical note.
type GeneratedNote struct {
	Subjective string `json:"subjective" bson:"subjective"`
	Objective  string `json:"objective" bson:"objective"`
	Assessment string `json:"assessment" bson:"assessment"`
	Plan       string `json:"plan" bson:"plan"`
	Summary    string `json:"summary" bson:"summary"`
}

func (g GeneratedNote) IsEmpty() bool {
	return g == GeneratedNote{}
}

// PatientRef is the subset of patient data embedded in note listings.
type PatientRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

// Note is the persisted clinical note. At most one note exists per (UserID, PatientID).
type Note struct {
	ID              string        `json:"id" bson:"_id"`
	UserID          string        `json:"userId" bson:"userId"`
	PatientID       string        `json:"patientId" bson:"patientId"`
	TemplateType    TemplateType  `json:"templateType" bson:"templateType"`
	Transcript      string        `json:"transcript" bson:"transcript"`
	AIGeneratedNote GeneratedNote `json:"aiGeneratedNote" bson:"aiGeneratedNote"`
	AudioURL        string        `json:"audioUrl,omitempty" bson:"audioUrl,omitempty"`
	Status          Status        `json:"status" bson:"status"`
	LastUpdated     time.Time     `json:"lastUpdated" bson:"lastUpdated"`
	CreatedAt       time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updatedAt"`

	Patient *PatientRef `json:"patient,omitempty" bson:"-"`
}

// Generated carries the fields written by an AI generation.
type Generated struct {
	UserID       string
	PatientID    string
	TemplateType TemplateType
	Transcript   string
	Note         GeneratedNote
	AudioURL     string
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Transcript      *string
	AIGeneratedNote *GeneratedNote
	TemplateType    *TemplateType
	AudioURL        *string
	Status          *Status
}
