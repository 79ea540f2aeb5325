package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adityakmrtiwari/CliNote/internal/storage"
	"github.com/adityakmrtiwari/CliNote/pkg/logger"
	"github.com/adityakmrtiwari/CliNote/pkg/metrics"
	"github.com/adityakmrtiwari/CliNote/pkg/middleware"
	"github.com/adityakmrtiwari/CliNote/pkg/response"
)

// MaxAudioBytes caps a single recording upload.
const MaxAudioBytes = 25 << 20

// AudioHandler accepts consultation recordings.
type AudioHandler struct {
	store    storage.AudioStore
	maxBytes int64
}

func NewAudioHandler(store storage.AudioStore) *AudioHandler {
	return &AudioHandler{store: store, maxBytes: MaxAudioBytes}
}

// Register routes under /audio; rg must already run AuthMiddleware.
func (h *AudioHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/audio")
	a.POST("/upload", h.Upload)
}

// Upload stores the multipart field "audio" and returns {audioUrl}.
func (h *AudioHandler) Upload(c *gin.Context) {
	// allow some room for multipart framing
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)

	fh, err := c.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.AudioUploads.WithLabelValues("rejected").Inc()
			response.Error(c, http.StatusRequestEntityTooLarge, "File too large", nil)
			return
		}
		metrics.AudioUploads.WithLabelValues("rejected").Inc()
		response.Error(c, http.StatusBadRequest, "No file uploaded", err)
		return
	}
	if fh.Size > h.maxBytes {
		metrics.AudioUploads.WithLabelValues("rejected").Inc()
		response.Error(c, http.StatusRequestEntityTooLarge, "File too large", nil)
		return
	}
	ct := fh.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if !allowedAudioType(ct) {
		metrics.AudioUploads.WithLabelValues("rejected").Inc()
		response.Error(c, http.StatusBadRequest, "Only audio files are allowed", gin.H{"contentType": ct})
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "No file uploaded", err)
		return
	}
	defer f.Close()

	userID := middleware.UserID(c)
	key := path.Join("audio", userID, uuid.NewString()+audioExt(fh.Filename, ct))
	url, err := h.store.PutAudio(c.Request.Context(), key, f, fh.Size, ct)
	if err != nil {
		metrics.AudioUploads.WithLabelValues("failed").Inc()
		logger.Errorw("audio upload failed", logger.Fields{"userId": userID, "key": key, "error": err.Error()})
		response.Error(c, http.StatusInternalServerError, "Audio upload failed", err)
		return
	}
	metrics.AudioUploads.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, "Audio uploaded successfully", gin.H{"audioUrl": url})
}

func allowedAudioType(ct string) bool {
	return strings.HasPrefix(ct, "audio/") || ct == "video/webm"
}

// audioExt prefers the client file extension and falls back to the MIME type.
func audioExt(filename, ct string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
