package uploads

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-upload/internal/shared/config"
	"notes-upload/internal/shared/server/middleware"
	"notes-upload/internal/shared/server/respond"
	"notes-upload/internal/wizard"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches upload wizard routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads", h.create)
	rg.GET("/uploads/:id", h.get)
	rg.POST("/uploads/:id/file", h.selectFile)
	rg.PUT("/uploads/:id/details", h.setDetails)
	rg.POST("/uploads/:id/next", h.next)
	rg.POST("/uploads/:id/back", h.back)
	rg.POST("/uploads/:id/submit", h.submit)
	rg.DELETE("/uploads/:id", h.discard)
}

func (h *Handler) create(c *gin.Context) {
	rec, err := h.Svc.Create(c.Request.Context(), middleware.OwnerKey(c))
	if err != nil {
		h.fail(c, State{}, err)
		return
	}
	c.Set(middleware.UploadIDKey, rec.ID)
	respond.JSON(c, http.StatusCreated, toResponse(State{Record: rec}))
}

func (h *Handler) get(c *gin.Context) {
	id := h.uploadID(c)
	rec, err := h.Svc.Get(c.Request.Context(), middleware.OwnerKey(c), id)
	if err != nil {
		h.fail(c, State{}, err)
		return
	}
	respond.OK(c, toResponse(State{Record: rec}))
}

func (h *Handler) selectFile(c *gin.Context) {
	id := h.uploadID(c)
	maxBytes := h.Svc.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxUploadBytes
	}
	// Multipart framing needs headroom on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, State{}, ErrFileTooLarge)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	before, _ := h.Svc.Get(c.Request.Context(), middleware.OwnerKey(c), id)
	st, err := h.Svc.SelectFile(c.Request.Context(), middleware.OwnerKey(c), id,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		h.fail(c, st, err)
		return
	}
	h.transition(c, before.Step, st.Record.Step)
	respond.OK(c, toResponse(st))
}

func (h *Handler) setDetails(c *gin.Context) {
	id := h.uploadID(c)
	var req wizard.Details
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	st, err := h.Svc.SetDetails(c.Request.Context(), middleware.OwnerKey(c), id, req)
	if err != nil {
		h.fail(c, st, err)
		return
	}
	respond.OK(c, toResponse(st))
}

func (h *Handler) next(c *gin.Context) {
	h.move(c, h.Svc.Next)
}

func (h *Handler) back(c *gin.Context) {
	h.move(c, h.Svc.Back)
}

func (h *Handler) move(c *gin.Context, fn func(ctx context.Context, ownerKey, id string) (State, error)) {
	id := h.uploadID(c)
	before, err := h.Svc.Get(c.Request.Context(), middleware.OwnerKey(c), id)
	if err != nil {
		h.fail(c, State{}, err)
		return
	}
	st, err := fn(c.Request.Context(), middleware.OwnerKey(c), id)
	if err != nil {
		h.fail(c, st, err)
		return
	}
	h.transition(c, before.Step, st.Record.Step)
	respond.OK(c, toResponse(st))
}

func (h *Handler) submit(c *gin.Context) {
	id := h.uploadID(c)
	st, err := h.Svc.Submit(c.Request.Context(), middleware.OwnerKey(c), id, middleware.SessionFromContext(c))
	if err != nil {
		h.fail(c, st, err)
		return
	}
	respond.OK(c, toResponse(st))
}

func (h *Handler) discard(c *gin.Context) {
	id := h.uploadID(c)
	if err := h.Svc.Discard(c.Request.Context(), middleware.OwnerKey(c), id); err != nil {
		h.fail(c, State{}, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadID(c *gin.Context) string {
	id := c.Param("id")
	c.Set(middleware.UploadIDKey, id)
	return id
}

func (h *Handler) transition(c *gin.Context, from, to wizard.Step) {
	if from != to {
		c.Set(middleware.StepTransitionKey, fmt.Sprintf("%d->%d", from, to))
	}
}

// fail maps service and wizard errors to responses. Submit failures carry
// the wizard state, including its toasts, in the error details.
func (h *Handler) fail(c *gin.Context, st State, err error) {
	var details any
	if st.Record.ID != "" {
		details = toResponse(st)
	}
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "upload not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrFileTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", wizard.FallbackUploadMessage, nil)
	case errors.Is(err, wizard.ErrInvalidUnit):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, wizard.ErrSubmitInProgress):
		respond.Error(c, http.StatusConflict, "submit_in_progress", "a submit is already in progress", nil)
	case errors.Is(err, wizard.ErrMissingFile):
		respond.Error(c, http.StatusUnprocessableEntity, "missing_file", wizard.MessageMissingFile, details)
	case errors.Is(err, wizard.ErrMissingFields):
		respond.Error(c, http.StatusUnprocessableEntity, "missing_fields", wizard.MessageMissingFields, details)
	case errors.Is(err, wizard.ErrMalformedSession):
		respond.Error(c, http.StatusUnauthorized, "session_invalid", wizard.MessageMalformedSession, details)
	case errors.Is(err, wizard.ErrUploadFailed):
		respond.Error(c, http.StatusBadGateway, "upload_failed", toastMessage(st, wizard.FallbackUploadMessage), details)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process upload", nil)
	}
}

func toastMessage(st State, def string) string {
	if len(st.Toasts) > 0 {
		return st.Toasts[len(st.Toasts)-1].Message
	}
	return def
}
