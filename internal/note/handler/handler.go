package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adityakmrtiwari/CliNote/internal/note"
	"github.com/adityakmrtiwari/CliNote/internal/note/service"
	"github.com/adityakmrtiwari/CliNote/pkg/logger"
	"github.com/adityakmrtiwari/CliNote/pkg/middleware"
	"github.com/adityakmrtiwari/CliNote/pkg/response"
)

// PatientChecker reports whether the patient belongs to the user.
type PatientChecker interface {
	Exists(ctx context.Context, userID, id string) (bool, error)
}

type createRequest struct {
	PatientID       string          `json:"patientId"`
	TemplateType    string          `json:"templateType"`
	Transcript      string          `json:"transcript"`
	AIGeneratedNote json.RawMessage `json:"aiGeneratedNote"`
	AudioURL        string          `json:"audioUrl"`
}

type updateRequest struct {
	Transcript      string          `json:"transcript"`
	AIGeneratedNote json.RawMessage `json:"aiGeneratedNote"`
	TemplateType    string          `json:"templateType"`
	AudioURL        string          `json:"audioUrl"`
	Status          string          `json:"status"`
}

// patch keeps only the non-empty fields.
func (r updateRequest) patch() note.Patch {
	var p note.Patch
	if r.Transcript != "" {
		p.Transcript = &r.Transcript
	}
	if !note.IsNull(r.AIGeneratedNote) {
		g := note.SanitizeJSON(r.AIGeneratedNote)
		p.AIGeneratedNote = &g
	}
	if r.TemplateType != "" {
		t := note.TemplateType(r.TemplateType)
		p.TemplateType = &t
	}
	if r.AudioURL != "" {
		p.AudioURL = &r.AudioURL
	}
	if r.Status != "" {
		s := note.Status(r.Status)
		p.Status = &s
	}
	return p
}

// RegisterNoteRoutes mounts /notes on rg; rg must already run AuthMiddleware.
func RegisterNoteRoutes(rg *gin.RouterGroup, svc *service.Service, patients PatientChecker) {
	g := rg.Group("/notes")

	g.POST("", func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if req.PatientID == "" || req.TemplateType == "" || req.Transcript == "" {
			response.Error(c, http.StatusBadRequest, "PatientId, templateType, and transcript are required", nil)
			return
		}
		tmpl := note.TemplateType(req.TemplateType)
		if !tmpl.Valid() {
			response.Error(c, http.StatusBadRequest, "Invalid templateType", note.TemplateTypes)
			return
		}
		ctx := c.Request.Context()
		userID := middleware.UserID(c)
		ok, err := patients.Exists(ctx, userID, req.PatientID)
		if err != nil {
			serverError(c, "Failed to create note", err)
			return
		}
		if !ok {
			response.Error(c, http.StatusNotFound, "Patient not found", nil)
			return
		}
		n, err := svc.Create(ctx, userID, service.CreateInput{
			PatientID:       req.PatientID,
			TemplateType:    tmpl,
			Transcript:      req.Transcript,
			AIGeneratedNote: req.AIGeneratedNote,
			AudioURL:        req.AudioURL,
		})
		if err != nil {
			writeError(c, "Failed to create note", err)
			return
		}
		response.Success(c, http.StatusCreated, "Note created successfully", n)
	})

	g.GET("/all", func(c *gin.Context) {
		list, err := svc.ListByUser(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			serverError(c, "Failed to retrieve notes", err)
			return
		}
		response.Success(c, http.StatusOK, "All notes retrieved successfully", list)
	})

	g.GET("/patient/:patientId", func(c *gin.Context) {
		list, err := svc.ListByPatient(c.Request.Context(), middleware.UserID(c), c.Param("patientId"))
		if err != nil {
			serverError(c, "Failed to retrieve notes", err)
			return
		}
		response.Success(c, http.StatusOK, "Notes retrieved successfully", list)
	})

	g.GET("/note/:id", func(c *gin.Context) {
		n, err := svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			writeError(c, "Failed to retrieve note", err)
			return
		}
		response.Success(c, http.StatusOK, "Note retrieved successfully", n)
	})

	g.PUT("/note/:id", func(c *gin.Context) {
		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		n, err := svc.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.patch())
		if err != nil {
			writeError(c, "Failed to update note", err)
			return
		}
		response.Success(c, http.StatusOK, "Note updated successfully", n)
	})

	g.DELETE("/note/:id", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
			writeError(c, "Failed to delete note", err)
			return
		}
		response.Success(c, http.StatusOK, "Note deleted successfully", nil)
	})
}

// writeError maps note errors to status codes; anything unknown is a 500 with msg.
func writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, note.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Note not found", nil)
	case errors.Is(err, note.ErrConflict):
		response.Error(c, http.StatusConflict, "A note for this patient already exists", err)
	case errors.Is(err, note.ErrInvalidTransition):
		response.Error(c, http.StatusBadRequest, "Invalid status transition", err)
	case errors.Is(err, note.ErrInvalidTemplate):
		response.Error(c, http.StatusBadRequest, "Invalid templateType", err)
	default:
		serverError(c, msg, err)
	}
}

func serverError(c *gin.Context, msg string, err error) {
	logger.Errorw(msg, logger.Fields{"path": c.FullPath(), "error": err.Error()})
	response.Error(c, http.StatusInternalServerError, msg, err)
}
