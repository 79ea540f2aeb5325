package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/adityakmrtiwari/CliNote/internal/generation"
	"github.com/adityakmrtiwari/CliNote/internal/note"
	"github.com/adityakmrtiwari/CliNote/internal/patient"
	"github.com/adityakmrtiwari/CliNote/pkg/ai"
	"github.com/adityakmrtiwari/CliNote/pkg/logger"
	"github.com/adityakmrtiwari/CliNote/pkg/middleware"
	"github.com/adityakmrtiwari/CliNote/pkg/response"
)

// GenerateRequest is the body of POST /api/ai/generate-soap-and-save.
type GenerateRequest struct {
	Transcript   string `json:"transcript"`
	TemplateType string `json:"templateType"`
	PatientID    string `json:"patientId"`
	AudioURL     string `json:"audioUrl"`
}

// AIHandler exposes the note generation pipeline.
type AIHandler struct {
	svc *generation.Service
}

func NewAIHandler(svc *generation.Service) *AIHandler {
	return &AIHandler{svc: svc}
}

// Register routes under /ai; rg must already run AuthMiddleware.
func (h *AIHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/ai")
	a.POST("/generate-soap-and-save", h.GenerateAndSave)
}

// GenerateAndSave validates the request, generates a note and upserts it for the patient.
func (h *AIHandler) GenerateAndSave(c *gin.Context) {
	var body GenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "Transcript, templateType, and patientId are required", err)
		return
	}
	req := generation.Request{
		UserID:       middleware.UserID(c),
		PatientID:    body.PatientID,
		TemplateType: note.TemplateType(body.TemplateType),
		Transcript:   body.Transcript,
		AudioURL:     body.AudioURL,
	}
	if missing := req.Missing(); len(missing) > 0 {
		response.Error(c, http.StatusBadRequest, "Transcript, templateType, and patientId are required", gin.H{"missing": missing})
		return
	}

	n, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, req, err)
		return
	}
	response.Success(c, http.StatusCreated, "SOAP note generated and saved successfully", n)
}

func (h *AIHandler) writeError(c *gin.Context, req generation.Request, err error) {
	switch {
	case errors.Is(err, note.ErrInvalidTemplate):
		response.Error(c, http.StatusBadRequest, "Invalid templateType", gin.H{"allowed": note.TemplateTypes})
		return
	case errors.Is(err, patient.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Patient not found", nil)
		return
	}

	kind := "internal"
	var aerr *ai.Error
	switch {
	case errors.Is(err, note.ErrConflict):
		kind = "conflict"
	case errors.As(err, &aerr):
		kind = aerr.Kind.String()
	}
	logger.Errorw("note generation failed", logger.Fields{
		"kind":      kind,
		"type":      fmt.Sprintf("%T", err),
		"message":   err.Error(),
		"userId":    req.UserID,
		"patientId": req.PatientID,
	})
	if kind == "internal" {
		logger.Debugf("note generation failed: %+v\n%s", err, debug.Stack())
	}

	switch kind {
	case "conflict":
		response.Error(c, http.StatusConflict, "A note for this patient already exists", err)
	case ai.Malformed.String():
		response.Error(c, http.StatusInternalServerError, "AI response was not valid JSON", err)
	default:
		response.Error(c, http.StatusInternalServerError, "Failed to generate and save SOAP note", err)
	}
}
