package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"liedetect/internal/analysis"
	"liedetect/internal/config"
	"liedetect/internal/logger"
	"liedetect/internal/model"
	"liedetect/internal/storage"
	"liedetect/internal/store"
	"liedetect/internal/transcribe"
	"liedetect/internal/utils"
)

// Handler carries the request handlers and their injected collaborators.
type Handler struct {
	cfg        *config.Config
	log        *logger.Logger
	sessions   *store.SessionStore
	media      *storage.MediaStorage
	whisper    *transcribe.WhisperService
	analysis   *analysis.AnalysisService
	enrichment *analysis.EnrichmentService
}

// NewHandler builds the handler set.
func NewHandler(
	cfg *config.Config,
	log *logger.Logger,
	sessions *store.SessionStore,
	media *storage.MediaStorage,
	whisper *transcribe.WhisperService,
	analysisSvc *analysis.AnalysisService,
	enrichment *analysis.EnrichmentService,
) *Handler {
	return &Handler{
		cfg:        cfg,
		log:        log,
		sessions:   sessions,
		media:      media,
		whisper:    whisper,
		analysis:   analysisSvc,
		enrichment: enrichment,
	}
}

// healthCheck returns server health status.
func (h *Handler) healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "liedetect-backend",
	})
}

// createSession mints a fresh session id. The session document itself is
// only created once the first mutation (an upload) happens.
func (h *Handler) createSession(c *gin.Context) {
	utils.Created(c, gin.H{
		"sessionId": uuid.NewString(),
	})
}

// uploadMedia handles interview video upload for one role.
func (h *Handler) uploadMedia(c *gin.Context) {
	sessionID := c.PostForm("sessionId")
	role := c.DefaultPostForm("role", model.RoleAnswerer)

	file, err := c.FormFile("video")
	if sessionID == "" || err != nil {
		utils.Error(c, http.StatusBadRequest, "sessionId and video file are required")
		return
	}
	if !model.ValidRole(role) {
		utils.Error(c, http.StatusBadRequest, "role must be 'questioner' or 'answerer'")
		return
	}
	if file.Size > h.cfg.MaxUploadMB*1024*1024 {
		utils.Error(c, http.StatusBadRequest, "uploaded file exceeds size limit")
		return
	}

	record, err := h.media.SaveMedia(c.Request.Context(), sessionID, role, file)
	if err != nil {
		h.log.Warn("media upload failed", map[string]interface{}{
			"session_id": sessionID,
			"role":       role,
			"error":      err.Error(),
		})
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	utils.Created(c, gin.H{
		"sessionId":   sessionID,
		"role":        role,
		"videoKey":    record.Key,
		"bucket":      record.Bucket,
		"contentType": record.ContentType,
	})
}

// getSession returns the stored session document.
func (h *Handler) getSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	session, err := h.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(c, http.StatusNotFound, "session not found")
			return
		}
		utils.Error(c, http.StatusInternalServerError, "failed to load session")
		return
	}
	utils.Success(c, gin.H{"session": session})
}

// SessionRequest is the JSON body shared by the analysis and transcript
// endpoints.
type SessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// runLieDetect triggers a full analysis run for the session.
func (h *Handler) runLieDetect(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "sessionId is required")
		return
	}

	summary, err := h.analysis.Run(c.Request.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrUnknownSession):
			utils.Error(c, http.StatusNotFound, err.Error())
		case errors.Is(err, analysis.ErrNoMediaUploaded):
			utils.Error(c, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("analysis run failed", map[string]interface{}{
				"session_id": req.SessionID,
				"error":      err.Error(),
			})
			utils.Error(c, http.StatusInternalServerError, "unable to complete request right now")
		}
		return
	}

	utils.Success(c, gin.H{
		"sessionId": req.SessionID,
		"summary":   summary,
	})
}

// getTranscript returns the session transcript, producing it on first call,
// and re-runs summary enrichment against it.
func (h *Handler) getTranscript(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "sessionId is required")
		return
	}

	ctx := c.Request.Context()

	// A previously stored transcript is reused as-is, but enrichment still
	// runs so a summary computed after the transcript picks up alignment.
	if session, err := h.sessions.Get(req.SessionID); err == nil && session.Transcript != "" {
		summary, err := h.enrichment.Enrich(ctx, req.SessionID, session.Transcript)
		if err != nil {
			h.enrichmentError(c, req.SessionID, err)
			return
		}
		utils.Success(c, gin.H{
			"sessionId":  req.SessionID,
			"transcript": session.Transcript,
			"summary":    summary,
		})
		return
	}

	transcript, err := h.whisper.Transcribe(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, transcribe.ErrNoMedia) {
			utils.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Warn("transcription failed", map[string]interface{}{
			"session_id": req.SessionID,
			"error":      err.Error(),
		})
		utils.Error(c, http.StatusInternalServerError, "unable to complete request right now")
		return
	}

	summary, err := h.enrichment.Enrich(ctx, req.SessionID, transcript)
	if err != nil {
		h.enrichmentError(c, req.SessionID, err)
		return
	}

	utils.Success(c, gin.H{
		"sessionId":  req.SessionID,
		"transcript": transcript,
		"summary":    summary,
	})
}

func (h *Handler) enrichmentError(c *gin.Context, sessionID string, err error) {
	h.log.Warn("enrichment failed", map[string]interface{}{
		"session_id": sessionID,
		"error":      err.Error(),
	})
	utils.Error(c, http.StatusInternalServerError, "unable to complete request right now")
}
