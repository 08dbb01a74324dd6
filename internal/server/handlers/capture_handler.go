package handlers

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/capture"
)

const maxFrameBytes = 8 << 20

// CaptureHandler drives the scale photo sessions of the terminals.
type CaptureHandler struct {
	registry *capture.Registry
	logger   *zap.Logger
}

// NewCaptureHandler constructs the capture HTTP adapter.
func NewCaptureHandler(registry *capture.Registry, logger *zap.Logger) *CaptureHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaptureHandler{registry: registry, logger: logger}
}

type failureView struct {
	Reason  capture.FailureReason `json:"reason"`
	Message string                `json:"message"`
}

type sessionView struct {
	ID      string        `json:"id"`
	State   capture.State `json:"state"`
	Failure *failureView  `json:"failure,omitempty"`
	Width   int           `json:"width,omitempty"`
	Height  int           `json:"height,omitempty"`
	Bytes   int           `json:"bytes,omitempty"`
}

func viewOf(s *capture.Session) sessionView {
	v := sessionView{ID: s.ID, State: s.Pipeline.State()}
	if f := s.Pipeline.LastFailure(); f != nil {
		v.Failure = &failureView{Reason: f.Reason, Message: f.Err.Error()}
	}
	if p, ok := s.Pipeline.Payload(); ok {
		v.Width, v.Height, v.Bytes = p.Width, p.Height, len(p.Data)
	}
	return v
}

func (h *CaptureHandler) session(c *gin.Context) (*capture.Session, bool) {
	s, err := h.registry.Get(c.Param("id"), ActorFrom(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	return s, true
}

// Open creates a session and requests the terminal camera. A failed request
// still creates the session; the failure reason is part of the response.
func (h *CaptureHandler) Open(c *gin.Context) {
	var terminal capture.Terminal
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&terminal); err != nil {
			badRequest(c, h.logger, err)
			return
		}
	}

	s, err := h.registry.Open(c.Request.Context(), ActorFrom(c).ID, terminal)
	if err != nil {
		h.logger.Info("capture session opened without camera", zap.String("session_id", s.ID), zap.Error(err))
	}
	c.JSON(http.StatusCreated, viewOf(s))
}

// Show returns the session state.
func (h *CaptureHandler) Show(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

// Request asks the terminal camera again after a failure, cancel or retake.
func (h *CaptureHandler) Request(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Pipeline.Request(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

// Frame receives the live frame pushed by the terminal (JPEG or PNG body).
func (h *CaptureHandler) Frame(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes)
	frame, _, err := image.Decode(body)
	if err != nil {
		_, _ = io.Copy(io.Discard, body)
		badRequest(c, h.logger, err)
		return
	}
	if err := s.Feed.Push(frame); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// Shot captures the current frame and releases the camera.
func (h *CaptureHandler) Shot(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := s.Pipeline.Capture(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

// Preview returns the captured photo.
func (h *CaptureHandler) Preview(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	payload, err := s.Pipeline.Evidence()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, payload.ContentType, payload.Data)
}

// Cancel stops streaming without a photo.
func (h *CaptureHandler) Cancel(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Pipeline.Cancel(); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

// Retake discards the captured photo.
func (h *CaptureHandler) Retake(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Pipeline.Retake(); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

// Release closes the session and frees the camera.
func (h *CaptureHandler) Release(c *gin.Context) {
	if err := h.registry.Release(c.Param("id"), ActorFrom(c).ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
