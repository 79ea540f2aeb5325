package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakmrtiwari/CliNote/internal/note"
	noteservice "github.com/adityakmrtiwari/CliNote/internal/note/service"
	"github.com/adityakmrtiwari/CliNote/internal/patient"
	"github.com/adityakmrtiwari/CliNote/pkg/ai"
	"github.com/adityakmrtiwari/CliNote/pkg/retry"
)

const validJSON = `{"subjective":"Sore throat for 2 days.","objective":["- Temp 38.1C","- Red pharynx"],"assessment":"Viral pharyngitis.","plan":["- Fluids","- Rest"],"summary":"Mild viral pharyngitis."}`

type step struct {
	text string
	err  error
}

// scriptedGen returns the scripted results in order and records prompts.
type scriptedGen struct {
	mu      sync.Mutex
	steps   []step
	calls   int
	prompts []string
}

func (g *scriptedGen) GenerateText(ctx context.Context, prompt string, jsonOutput bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	i := g.calls
	g.calls++
	if i >= len(g.steps) {
		i = len(g.steps) - 1
	}
	return g.steps[i].text, g.steps[i].err
}

type patientsStub map[string]bool

func (p patientsStub) Exists(ctx context.Context, userID, id string) (bool, error) {
	return p[userID+"/"+id], nil
}

type sleepRecorder struct{ waits []time.Duration }

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func overloaded() error {
	return &ai.Error{Kind: ai.Transient, StatusCode: 503, Err: errors.New("model is overloaded")}
}

func newTestService(gen ai.TextGenerator) (*Service, *sleepRecorder, *noteservice.Service) {
	rec := &sleepRecorder{}
	notes := noteservice.NewMemoryService(nil)
	svc := NewService(gen, notes, patientsStub{"u1/p1": true}, retry.Policy{Sleep: rec.sleep})
	return svc, rec, notes
}

func soapRequest() Request {
	return Request{UserID: "u1", PatientID: "p1", TemplateType: note.TemplateSOAP, Transcript: "Patient reports sore throat."}
}

func TestGenerate_SuccessCompletesNote(t *testing.T) {
	gen := &scriptedGen{steps: []step{{text: validJSON}}}
	svc, rec, _ := newTestService(gen)

	n, err := svc.Generate(context.Background(), soapRequest())
	require.NoError(t, err)
	assert.Equal(t, note.StatusCompleted, n.Status)
	assert.Equal(t, "Sore throat for 2 days.", n.AIGeneratedNote.Subjective)
	assert.Equal(t, "- Temp 38.1C\n- Red pharynx", n.AIGeneratedNote.Objective)
	assert.Equal(t, "Viral pharyngitis.", n.AIGeneratedNote.Assessment)
	assert.Equal(t, "- Fluids\n- Rest", n.AIGeneratedNote.Plan)
	assert.Equal(t, "Mild viral pharyngitis.", n.AIGeneratedNote.Summary)
	assert.Empty(t, rec.waits)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Patient reports sore throat.")
	assert.Contains(t, gen.prompts[0], `template type "SOAP"`)
}

func TestGenerate_RetriesTransientWithBackoff(t *testing.T) {
	gen := &scriptedGen{steps: []step{{err: overloaded()}, {err: overloaded()}, {text: validJSON}}}
	svc, rec, _ := newTestService(gen)

	n, err := svc.Generate(context.Background(), soapRequest())
	require.NoError(t, err)
	assert.Equal(t, note.StatusCompleted, n.Status)
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.waits)
}

func TestGenerate_ExhaustedRetriesNothingPersisted(t *testing.T) {
	gen := &scriptedGen{steps: []step{{err: overloaded()}}}
	svc, rec, notes := newTestService(gen)

	_, err := svc.Generate(context.Background(), soapRequest())
	require.Error(t, err)
	assert.Equal(t, ai.Transient, ai.KindOf(err))
	assert.Equal(t, 3, gen.calls)
	assert.Len(t, rec.waits, 2)

	list, err := notes.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGenerate_PermanentErrorNotRetried(t *testing.T) {
	gen := &scriptedGen{steps: []step{{err: &ai.Error{Kind: ai.Permanent, StatusCode: 400, Err: errors.New("API key not valid")}}}}
	svc, rec, _ := newTestService(gen)

	_, err := svc.Generate(context.Background(), soapRequest())
	require.Error(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.Empty(t, rec.waits)
}

func TestGenerate_MalformedOutput(t *testing.T) {
	gen := &scriptedGen{steps: []step{{text: "Sure! Here is your note: subjective..."}}}
	svc, _, notes := newTestService(gen)

	_, err := svc.Generate(context.Background(), soapRequest())
	require.Error(t, err)
	assert.Equal(t, ai.Malformed, ai.KindOf(err))
	list, _ := notes.ListByUser(context.Background(), "u1")
	assert.Empty(t, list)
}

func TestGenerate_FencedJSONAccepted(t *testing.T) {
	gen := &scriptedGen{steps: []step{{text: "```json\n" + validJSON + "\n```"}}}
	svc, _, _ := newTestService(gen)

	n, err := svc.Generate(context.Background(), soapRequest())
	require.NoError(t, err)
	assert.Equal(t, "Viral pharyngitis.", n.AIGeneratedNote.Assessment)
}

func TestGenerate_UpsertsSameNote(t *testing.T) {
	gen := &scriptedGen{steps: []step{{text: validJSON}, {text: `{"subjective":"Better now.","objective":"","assessment":"Resolving.","plan":"None","summary":"Follow-up."}`}}}
	svc, _, notes := newTestService(gen)
	ctx := context.Background()

	req := soapRequest()
	req.AudioURL = "https://cdn.example.com/a.webm"
	first, err := svc.Generate(ctx, req)
	require.NoError(t, err)

	req.AudioURL = ""
	second, err := svc.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Better now.", second.AIGeneratedNote.Subjective)
	assert.Equal(t, "https://cdn.example.com/a.webm", second.AudioURL)

	list, err := notes.ListByPatient(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGenerate_RejectsBeforeCallingAI(t *testing.T) {
	gen := &scriptedGen{steps: []step{{text: validJSON}}}
	svc, _, _ := newTestService(gen)

	req := soapRequest()
	req.TemplateType = "Poetry"
	_, err := svc.Generate(context.Background(), req)
	assert.ErrorIs(t, err, note.ErrInvalidTemplate)

	req = soapRequest()
	req.PatientID = "someone-elses"
	_, err = svc.Generate(context.Background(), req)
	assert.ErrorIs(t, err, patient.ErrNotFound)

	assert.Equal(t, 0, gen.calls)
}

func TestRequestMissing(t *testing.T) {
	assert.Equal(t, []string{"transcript", "templateType", "patientId"}, Request{Transcript: "  "}.Missing())
	assert.Empty(t, soapRequest().Missing())
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(note.TemplateProgress, "  BP stable.  ")
	assert.Contains(t, p, `template type "PROGRESS"`)
	assert.Contains(t, p, "---\nBP stable.\n---")
	for _, k := range []string{`"subjective"`, `"objective"`, `"assessment"`, `"plan"`, `"summary"`} {
		assert.True(t, strings.Contains(p, k), k)
	}
}

// deletingGen removes the patient while the model is "thinking".
type deletingGen struct {
	patients patientsStub
	key      string
}

func (g *deletingGen) GenerateText(ctx context.Context, prompt string, jsonOutput bool) (string, error) {
	delete(g.patients, g.key)
	return validJSON, nil
}

func TestGenerate_PatientDeletedDuringGeneration(t *testing.T) {
	stub := patientsStub{"u1/p1": true}
	notes := noteservice.NewMemoryService(nil)
	svc := NewService(&deletingGen{patients: stub, key: "u1/p1"}, notes, stub, retry.Policy{Sleep: (&sleepRecorder{}).sleep})

	_, err := svc.Generate(context.Background(), soapRequest())
	require.ErrorIs(t, err, patient.ErrNotFound)

	list, err := notes.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
