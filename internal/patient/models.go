package patient

import (
	"errors"
	"time"

	"github.com/adityakmrtiwari/CliNote/internal/note"
)

var ErrNotFound = errors.New("patient not found")

// Patient is a demographic record owned by one clinician.
type Patient struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Name      string    `json:"name" bson:"name"`
	Age       int       `json:"age" bson:"age"`
	Gender    string    `json:"gender" bson:"gender"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`

	// Note is filled on request (includeNote/includeNotes).
	Note *note.Note `json:"note,omitempty" bson:"-"`
}

// Ref returns the summary embedded in note listings.
func (p *Patient) Ref() note.PatientRef {
	return note.PatientRef{ID: p.ID, Name: p.Name, Age: p.Age, Gender: p.Gender}
}
