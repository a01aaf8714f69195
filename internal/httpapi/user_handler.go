package httpapi

import (
	"net/http"
	"strconv"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/services/user"

	"github.com/gin-gonic/gin"
)

func (h *Handler) verifyUser(c *gin.Context) {
	var req user.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	verified, err := h.users.VerifyUser(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, verified)
}

func (h *Handler) getUser(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func (h *Handler) getUserStats(c *gin.Context) {
	userStats, err := h.tasks.GetUserStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, userStats)
}

func (h *Handler) getUserByTelegram(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		c.Error(errutil.BadRequest("telegram_id must be an integer", err))
		return
	}

	u, err := h.users.GetByTelegramID(c.Request.Context(), telegramID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, u)
}
