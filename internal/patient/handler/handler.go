package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adityakmrtiwari/CliNote/internal/patient"
	"github.com/adityakmrtiwari/CliNote/internal/patient/service"
	"github.com/adityakmrtiwari/CliNote/pkg/logger"
	"github.com/adityakmrtiwari/CliNote/pkg/middleware"
	"github.com/adityakmrtiwari/CliNote/pkg/response"
)

type createRequest struct {
	Name   string `json:"name" binding:"required"`
	Age    *int   `json:"age" binding:"required,gte=0"`
	Gender string `json:"gender" binding:"required,oneof=Male Female Other"`
}

// RegisterPatientRoutes mounts /patients on rg; rg must already run AuthMiddleware.
func RegisterPatientRoutes(rg *gin.RouterGroup, svc *service.Service) {
	g := rg.Group("/patients")

	g.POST("", func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Name, age and gender are required", err)
			return
		}
		p, err := svc.Create(c.Request.Context(), middleware.UserID(c), service.CreateInput{Name: req.Name, Age: *req.Age, Gender: req.Gender})
		if err != nil {
			if errors.Is(err, service.ErrInvalidPatient) {
				response.Error(c, http.StatusBadRequest, "Invalid patient data", err)
				return
			}
			serverError(c, "Failed to create patient", err)
			return
		}
		response.Success(c, http.StatusCreated, "Patient created successfully", p)
	})

	g.GET("", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context(), middleware.UserID(c), c.Query("includeNotes") == "true")
		if err != nil {
			serverError(c, "Failed to retrieve patients", err)
			return
		}
		response.Success(c, http.StatusOK, "Patients retrieved successfully", list)
	})

	g.GET("/:id", func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Query("includeNote") == "true")
		if err != nil {
			if errors.Is(err, patient.ErrNotFound) {
				response.Error(c, http.StatusNotFound, "Patient not found", nil)
				return
			}
			serverError(c, "Failed to retrieve patient", err)
			return
		}
		response.Success(c, http.StatusOK, "Patient retrieved successfully", p)
	})

	g.DELETE("/:id", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
			if errors.Is(err, patient.ErrNotFound) {
				response.Error(c, http.StatusNotFound, "Patient not found", nil)
				return
			}
			serverError(c, "Failed to delete patient", err)
			return
		}
		response.Success(c, http.StatusOK, "Patient and associated note deleted successfully", nil)
	})
}

func serverError(c *gin.Context, msg string, err error) {
	logger.Errorw(msg, logger.Fields{"path": c.FullPath(), "error": err.Error()})
	response.Error(c, http.StatusInternalServerError, msg, err)
}
