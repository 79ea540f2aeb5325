package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakmrtiwari/CliNote/internal/note"
)

type staticDirectory map[string]note.PatientRef

func (d staticDirectory) Refs(ctx context.Context, userID string, ids []string) (map[string]note.PatientRef, error) {
	out := map[string]note.PatientRef{}
	for _, id := range ids {
		if r, ok := d[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func newTestService() *Service {
	return NewMemoryService(staticDirectory{
		"p1": {ID: "p1", Name: "Ann", Age: 51, Gender: "Female"},
		"p2": {ID: "p2", Name: "Bob", Age: 40, Gender: "Male"},
	})
}

func TestCreate_StatusFollowsContent(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	draft, err := s.Create(ctx, "u1", CreateInput{PatientID: "p1", TemplateType: note.TemplateSOAP, Transcript: "t"})
	require.NoError(t, err)
	assert.Equal(t, note.StatusDraft, draft.Status)

	done, err := s.Create(ctx, "u1", CreateInput{
		PatientID:       "p2",
		TemplateType:    note.TemplateSOAP,
		AIGeneratedNote: json.RawMessage(`{"subjective":"cough","plan":3}`),
	})
	require.NoError(t, err)
	assert.Equal(t, note.StatusCompleted, done.Status)
	assert.Equal(t, "cough", done.AIGeneratedNote.Subjective)

	_, err = s.Create(ctx, "u1", CreateInput{PatientID: "p1", TemplateType: note.TemplateSOAP})
	require.ErrorIs(t, err, note.ErrConflict)
}

func TestListAttachesPatients(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	_, err := s.Create(ctx, "u1", CreateInput{PatientID: "p1", TemplateType: note.TemplateSOAP})
	require.NoError(t, err)
	_, err = s.Create(ctx, "u1", CreateInput{PatientID: "gone", TemplateType: note.TemplateSOAP})
	require.NoError(t, err)

	list, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	byPatient := map[string]*note.Note{}
	for _, n := range list {
		byPatient[n.PatientID] = n
	}
	require.NotNil(t, byPatient["p1"].Patient)
	assert.Equal(t, "Ann", byPatient["p1"].Patient.Name)
	assert.Nil(t, byPatient["gone"].Patient)

	m, err := s.NotesByPatient(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, m, 2)

	other, err := s.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestUpdate_Validation(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	n, err := s.Create(ctx, "u1", CreateInput{PatientID: "p1", TemplateType: note.TemplateSOAP})
	require.NoError(t, err)

	bad := note.TemplateType("Poetry")
	_, err = s.Update(ctx, "u1", n.ID, note.Patch{TemplateType: &bad})
	require.ErrorIs(t, err, note.ErrInvalidTemplate)

	unknown := note.Status("archived")
	_, err = s.Update(ctx, "u1", n.ID, note.Patch{Status: &unknown})
	require.ErrorIs(t, err, note.ErrInvalidTransition)

	completed := note.StatusCompleted
	upd, err := s.Update(ctx, "u1", n.ID, note.Patch{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, note.StatusCompleted, upd.Status)
	require.NotNil(t, upd.Patient)

	draft := note.StatusDraft
	_, err = s.Update(ctx, "u1", n.ID, note.Patch{Status: &draft})
	require.ErrorIs(t, err, note.ErrInvalidTransition)

	_, err = s.Update(ctx, "u2", n.ID, note.Patch{Status: &completed})
	require.ErrorIs(t, err, note.ErrNotFound)
}

func TestDeleteByPatient(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	_, err := s.Create(ctx, "u1", CreateInput{PatientID: "p1", TemplateType: note.TemplateSOAP})
	require.NoError(t, err)

	deleted, err := s.DeleteByPatient(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	list, err := s.ListByPatient(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
