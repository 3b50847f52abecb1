package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"keytrace/internal/capture"
	"keytrace/internal/models"
	"keytrace/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CaptureHandler struct {
	log      *zap.Logger
	registry *capture.Registry
	catalog  *models.TaskCatalog
}

func NewCaptureHandler(log *zap.Logger, registry *capture.Registry, catalog *models.TaskCatalog) *CaptureHandler {
	return &CaptureHandler{log: log, registry: registry, catalog: catalog}
}

type attachRequest struct {
	TaskType string `json:"taskType"`
	Route    string `json:"route"`
}

type screenResponse struct {
	ScreenID  string          `json:"screenId"`
	TaskType  models.TaskType `json:"taskType"`
	StartedAt models.Millis   `json:"startedAt"`
}

// rawEvent is one browser input event. Type is a DOM-style name such as "keydown" or "mousemove".
type rawEvent struct {
	Type      string        `json:"type" binding:"required"`
	Key       string        `json:"key"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Timestamp models.Millis `json:"timestamp"`
}

type eventsRequest struct {
	Events []rawEvent `json:"events" binding:"required,dive"`
}

type completeRequest struct {
	Duration int64 `json:"duration"`
}

// Attach starts capturing a task screen for the caller's session. The task type is taken
// from the request, or resolved from the screen route when only a route is given.
func (h *CaptureHandler) Attach(c *gin.Context) {
	var req attachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	var taskType models.TaskType
	switch {
	case req.TaskType != "":
		t, err := models.ParseTaskType(req.TaskType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		taskType = t
	case req.Route != "":
		taskType = h.catalog.Resolve(req.Route)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "taskType or route is required"})
		return
	}

	rec, err := h.registry.Attach(session.ID(c), taskType)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, screenResponse{
		ScreenID:  rec.ID(),
		TaskType:  rec.TaskType(),
		StartedAt: models.MillisFromTime(rec.StartedAt()),
	})
}

// Current returns the screen capturing for the caller's session, so a reloaded page can
// resume it instead of attaching a new one.
func (h *CaptureHandler) Current(c *gin.Context) {
	rec, ok := h.registry.Active(session.ID(c))
	if !ok {
		h.fail(c, capture.ErrScreenNotFound)
		return
	}
	c.JSON(http.StatusOK, screenResponse{
		ScreenID:  rec.ID(),
		TaskType:  rec.TaskType(),
		StartedAt: models.MillisFromTime(rec.StartedAt()),
	})
}

// Detach stops capturing a screen.
func (h *CaptureHandler) Detach(c *gin.Context) {
	if _, ok := h.recorder(c); !ok {
		return
	}
	if err := h.registry.Detach(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Events feeds a batch of input events, in occurrence order, to the screen's recorder.
// The batch is validated as a whole before anything is recorded.
func (h *CaptureHandler) Events(c *gin.Context) {
	rec, ok := h.recorder(c)
	if !ok {
		return
	}

	var req eventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Failed to bind telemetry batch", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	type handle func() (capture.Outcome, error)
	calls := make([]handle, 0, len(req.Events))
	for i, ev := range req.Events {
		call, err := toCall(rec, ev)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("event %d: %v", i, err)})
			return
		}
		calls = append(calls, call)
	}

	recorded, dropped := 0, 0
	for _, call := range calls {
		outcome, err := call()
		if err != nil {
			h.fail(c, err)
			return
		}
		if outcome == capture.Recorded {
			recorded++
		} else {
			dropped++
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"recorded": recorded, "dropped": dropped})
}

func toCall(rec *capture.Recorder, ev rawEvent) (func() (capture.Outcome, error), error) {
	if ev.Timestamp <= 0 {
		return nil, fmt.Errorf("%w: missing timestamp", capture.ErrInvalidEvent)
	}
	if kind, err := models.ParseKeyKind(ev.Type); err == nil {
		raw := capture.RawKey{Key: ev.Key, Kind: kind, Timestamp: ev.Timestamp}
		return func() (capture.Outcome, error) { return rec.HandleKey(raw) }, nil
	}
	if kind, err := models.ParsePointerKind(ev.Type); err == nil {
		raw := capture.RawPointer{X: ev.X, Y: ev.Y, Kind: kind, Timestamp: ev.Timestamp}
		return func() (capture.Outcome, error) { return rec.HandlePointer(raw) }, nil
	}
	return nil, fmt.Errorf("%w: unknown event type %q", capture.ErrInvalidEvent, ev.Type)
}

// Complete records the task completion for a screen.
func (h *CaptureHandler) Complete(c *gin.Context) {
	rec, ok := h.recorder(c)
	if !ok {
		return
	}

	var req completeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
			return
		}
	}

	completion, err := rec.Complete(c.Request.Context(), req.Duration)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, completion)
}

// recorder loads the screen named in the path, hiding screens owned by other sessions.
func (h *CaptureHandler) recorder(c *gin.Context) (*capture.Recorder, bool) {
	rec, err := h.registry.Get(c.Param("id"))
	if err == nil && rec.SessionID() != session.ID(c) {
		err = capture.ErrScreenNotFound
	}
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return rec, true
}

func (h *CaptureHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrMissingSession):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnknownTaskType), errors.Is(err, capture.ErrInvalidEvent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, capture.ErrScreenNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, capture.ErrInactive), errors.Is(err, capture.ErrAlreadyCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, capture.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.log.Error("Capture request failed", zap.String("screen_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record"})
	}
}
