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

type PracticeHandler struct {
	log             *logger.Logger
	practiceService services.PracticeService
	hub             *realtime.SSEHub
	bus             bus.Bus
}

func NewPracticeHandler(
	log *logger.Logger,
	practiceService services.PracticeService,
	hub *realtime.SSEHub,
	b bus.Bus,
) *PracticeHandler {
	return &PracticeHandler{
		log:             log.With("handler", "PracticeHandler"),
		practiceService: practiceService,
		hub:             hub,
		bus:             b,
	}
}

func (ph *PracticeHandler) CompleteActivity(c *gin.Context) {
	activityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	state, err := ph.practiceService.CompleteActivity(c.Request.Context(), activityID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
		msg := realtime.SSEMessage{
			Channel: rd.UserID.String(),
			Event:   realtime.SSEEventOnboardingStateChanged,
			Data:    state,
		}
		if ph.hub != nil {
			ph.hub.Broadcast(msg)
		}
		if ph.bus != nil {
			if err := ph.bus.Publish(c.Request.Context(), msg); err != nil {
				ph.log.Warn("bus publish failed", "error", err)
			}
		}
	}
	response.RespondOK(c, state)
}
