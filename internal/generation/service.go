// Package generation turns a consultation transcript into a structured note:
// prompt, AI call under retry, JSON parse, sanitize, upsert.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adityakmrtiwari/CliNote/internal/note"
	"github.com/adityakmrtiwari/CliNote/internal/patient"
	"github.com/adityakmrtiwari/CliNote/pkg/ai"
	"github.com/adityakmrtiwari/CliNote/pkg/logger"
	"github.com/adityakmrtiwari/CliNote/pkg/metrics"
	"github.com/adityakmrtiwari/CliNote/pkg/retry"
)

// NoteSaver persists generated content; satisfied by the note service.
type NoteSaver interface {
	SaveGenerated(ctx context.Context, g note.Generated) (*note.Note, error)
	Delete(ctx context.Context, userID, id string) error
}

// PatientChecker reports patient ownership; satisfied by the patient service.
type PatientChecker interface {
	Exists(ctx context.Context, userID, id string) (bool, error)
}

type Request struct {
	UserID       string
	PatientID    string
	TemplateType note.TemplateType
	Transcript   string
	AudioURL     string
}

// Missing lists the required request fields that are empty.
func (r Request) Missing() []string {
	var out []string
	if strings.TrimSpace(r.Transcript) == "" {
		out = append(out, "transcript")
	}
	if r.TemplateType == "" {
		out = append(out, "templateType")
	}
	if r.PatientID == "" {
		out = append(out, "patientId")
	}
	return out
}

type Service struct {
	gen      ai.TextGenerator
	notes    NoteSaver
	patients PatientChecker
	policy   retry.Policy
}

// NewService wires the pipeline. policy.Retryable defaults to ai.IsTransient;
// an OnRetry hook is added that logs and counts the retry.
func NewService(gen ai.TextGenerator, notes NoteSaver, patients PatientChecker, policy retry.Policy) *Service {
	policy = policy.WithDefaults()
	if policy.Retryable == nil {
		policy.Retryable = ai.IsTransient
	}
	hook := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.AIRetries.Inc()
		logger.Warnw("AI provider overloaded, retrying", logger.Fields{
			"attempt": fmt.Sprintf("%d/%d", attempt, policy.Attempts),
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		if hook != nil {
			hook(attempt, delay, err)
		}
	}
	return &Service{gen: gen, notes: notes, patients: patients, policy: policy}
}

// Generate runs the full pipeline. Errors: note.ErrInvalidTemplate,
// patient.ErrNotFound, *ai.Error (Malformed when the output is not JSON),
// note.ErrConflict, or a wrapped storage error.
func (s *Service) Generate(ctx context.Context, req Request) (*note.Note, error) {
	if !req.TemplateType.Valid() {
		return nil, fmt.Errorf("%w: %q", note.ErrInvalidTemplate, req.TemplateType)
	}
	if s.patients != nil {
		ok, err := s.patients.Exists(ctx, req.UserID, req.PatientID)
		if err != nil {
			return nil, fmt.Errorf("lookup patient: %w", err)
		}
		if !ok {
			return nil, patient.ErrNotFound
		}
	}

	prompt := BuildPrompt(req.TemplateType, req.Transcript)
	start := time.Now()
	text, err := retry.Do(ctx, s.policy, func(ctx context.Context) (string, error) {
		return s.gen.GenerateText(ctx, prompt, true)
	})
	metrics.AIRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.count(err)
		return nil, err
	}

	raw := json.RawMessage(stripFence(text))
	if !json.Valid(raw) {
		err = &ai.Error{Kind: ai.Malformed, Err: errors.New("response is not JSON")}
		s.count(err)
		return nil, err
	}

	saved, err := s.notes.SaveGenerated(ctx, note.Generated{
		UserID:       req.UserID,
		PatientID:    req.PatientID,
		TemplateType: req.TemplateType,
		Transcript:   req.Transcript,
		Note:         note.SanitizeJSON(raw),
		AudioURL:     req.AudioURL,
	})
	if err != nil {
		s.count(err)
		return nil, err
	}
	// The patient may have been deleted while the model was running; its
	// cascade would then have missed this note.
	if s.patients != nil {
		ok, err := s.patients.Exists(ctx, req.UserID, req.PatientID)
		if err != nil {
			s.count(err)
			return nil, fmt.Errorf("lookup patient: %w", err)
		}
		if !ok {
			if err := s.notes.Delete(ctx, req.UserID, saved.ID); err != nil && !errors.Is(err, note.ErrNotFound) {
				s.count(err)
				return nil, fmt.Errorf("remove note of deleted patient: %w", err)
			}
			s.count(patient.ErrNotFound)
			return nil, patient.ErrNotFound
		}
	}
	metrics.AIGenerations.WithLabelValues("success").Inc()
	if saved.CreatedAt.Equal(saved.UpdatedAt) {
		metrics.NoteUpserts.WithLabelValues("created").Inc()
	} else {
		metrics.NoteUpserts.WithLabelValues("updated").Inc()
	}
	return saved, nil
}

func (s *Service) count(err error) {
	switch {
	case errors.Is(err, note.ErrConflict):
		metrics.AIGenerations.WithLabelValues("conflict").Inc()
	case ai.KindOf(err) == ai.Malformed:
		metrics.AIGenerations.WithLabelValues("malformed").Inc()
	default:
		metrics.AIGenerations.WithLabelValues("failed").Inc()
	}
}

// stripFence removes a ```json ... ``` wrapper some models add despite the JSON mime hint.
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "```"))
}
