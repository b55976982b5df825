package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumenlearn/guidance-backend/internal/http/response"
	"github.com/lumenlearn/guidance-backend/internal/pkg/ctxutil"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
	"github.com/lumenlearn/guidance-backend/internal/realtime"
	"github.com/lumenlearn/guidance-backend/internal/realtime/bus"
	"github.com/lumenlearn/guidance-backend/internal/services"
)

type DiagnosticHandler struct {
	log               *logger.Logger
	diagnosticService services.DiagnosticService
	hub               *realtime.SSEHub
	bus               bus.Bus
}

func NewDiagnosticHandler(
	log *logger.Logger,
	diagnosticService services.DiagnosticService,
	hub *realtime.SSEHub,
	b bus.Bus,
) *DiagnosticHandler {
	return &DiagnosticHandler{
		log:               log.With("handler", "DiagnosticHandler"),
		diagnosticService: diagnosticService,
		hub:               hub,
		bus:               b,
	}
}

func (dh *DiagnosticHandler) StartAttempt(c *gin.Context) {
	var req struct {
		Subject string `json:"subject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	attempt, state, err := dh.diagnosticService.StartAttempt(c.Request.Context(), req.Subject)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if state != nil {
		dh.broadcast(c, realtime.SSEEventOnboardingStateChanged, state)
	}
	response.RespondOK(c, gin.H{"attempt": attempt, "state": state})
}

func (dh *DiagnosticHandler) SubmitAttempt(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	state, err := dh.diagnosticService.SubmitAttempt(c.Request.Context(), attemptID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	dh.broadcast(c, realtime.SSEEventDiagnosticSubmitted, gin.H{"attempt_id": attemptID})
	dh.broadcast(c, realtime.SSEEventOnboardingStateChanged, state)
	response.RespondOK(c, state)
}

func (dh *DiagnosticHandler) broadcast(c *gin.Context, event realtime.SSEEvent, data any) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return
	}
	msg := realtime.SSEMessage{
		Channel: rd.UserID.String(),
		Event:   event,
		Data:    data,
	}
	if dh.hub != nil {
		dh.hub.Broadcast(msg)
	}
	if dh.bus != nil {
		if err := dh.bus.Publish(c.Request.Context(), msg); err != nil {
			dh.log.Warn("bus publish failed", "error", err)
		}
	}
}
