package httpapi

import (
	"net/http"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/services/broadcast"

	"github.com/gin-gonic/gin"
)

func (h *Handler) sendBroadcast(c *gin.Context) {
	var req broadcast.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	b, err := h.broadcasts.Send(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

type broadcastStatusBody struct {
	SentCount   int `json:"sent_count"`
	FailedCount int `json:"failed_count"`
}

// updateBroadcastStatus is the delivery-status webhook counterpart: the
// transport layer reports back how many messages went out.
func (h *Handler) updateBroadcastStatus(c *gin.Context) {
	var body broadcastStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	if err := h.broadcasts.UpdateDeliveryStatus(c.Request.Context(), c.Param("id"), body.SentCount, body.FailedCount); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listBroadcasts(c *gin.Context) {
	broadcasts, err := h.broadcasts.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"broadcasts": broadcasts})
}
