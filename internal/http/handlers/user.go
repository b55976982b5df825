package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/lumenlearn/guidance-backend/internal/http/response"
	"github.com/lumenlearn/guidance-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, user)
}
