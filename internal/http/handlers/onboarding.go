package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumenlearn/guidance-backend/internal/http/response"
	"github.com/lumenlearn/guidance-backend/internal/onboarding"
	"github.com/lumenlearn/guidance-backend/internal/pkg/ctxutil"
	"github.com/lumenlearn/guidance-backend/internal/pkg/dbctx"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
	"github.com/lumenlearn/guidance-backend/internal/realtime"
	"github.com/lumenlearn/guidance-backend/internal/realtime/bus"
	"github.com/lumenlearn/guidance-backend/internal/services"
)

type OnboardingHandler struct {
	log               *logger.Logger
	onboardingService services.OnboardingService
	hub               *realtime.SSEHub
	bus               bus.Bus
}

func NewOnboardingHandler(
	log *logger.Logger,
	onboardingService services.OnboardingService,
	hub *realtime.SSEHub,
	b bus.Bus,
) *OnboardingHandler {
	return &OnboardingHandler{
		log:               log.With("handler", "OnboardingHandler"),
		onboardingService: onboardingService,
		hub:               hub,
		bus:               b,
	}
}

// GetState never fails the page load over a store hiccup. If the facts
// cannot be read it serves the degraded unknown state and the client shows
// nothing onboarding-related.
func (oh *OnboardingHandler) GetState(c *gin.Context) {
	state, err := oh.onboardingService.GetState(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			response.RespondServiceError(c, err)
			return
		}
		oh.log.Warn("degraded onboarding read", "error", err, "user_id", rd.UserID)
		c.JSON(http.StatusOK, gin.H{
			"stage":  onboarding.StageUnknown,
			"prompt": nil,
		})
		return
	}
	response.RespondOK(c, state)
}

func (oh *OnboardingHandler) AcknowledgeWelcome(c *gin.Context) {
	state, err := oh.onboardingService.AcknowledgeWelcome(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	oh.broadcastState(c, state)
	response.RespondOK(c, state)
}

func (oh *OnboardingHandler) DismissPrompt(c *gin.Context) {
	var req struct {
		PromptID string `json:"prompt_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	state, err := oh.onboardingService.DismissPrompt(c.Request.Context(), req.PromptID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	oh.broadcastState(c, state)
	response.RespondOK(c, state)
}

// broadcastState pushes the fresh state to every connected client of the
// user, locally and through the bus for clients on other instances.
func (oh *OnboardingHandler) broadcastState(c *gin.Context, state *services.OnboardingState) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil || state == nil {
		return
	}
	msg := realtime.SSEMessage{
		Channel: rd.UserID.String(),
		Event:   realtime.SSEEventOnboardingStateChanged,
		Data:    state,
	}
	if oh.hub != nil {
		oh.hub.Broadcast(msg)
	}
	if oh.bus != nil {
		if err := oh.bus.Publish(c.Request.Context(), msg); err != nil {
			oh.log.Warn("bus publish failed", "error", err)
		}
	}
}
