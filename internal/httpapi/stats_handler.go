package httpapi

import (
	"net/http"

	"mahalla-taskboard/pkg/rediskey"
	"mahalla-taskboard/services/stats"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getStatistics(c *gin.Context) {
	period := stats.Period(c.Param("period"))

	view, err := h.cache.GetOrLoad(rediskey.BuildStatsKey(period.String()), func() (any, error) {
		return h.stats.GetStatistics(c.Request.Context(), period)
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) getMahallaStats(c *gin.Context) {
	period := stats.Period(c.DefaultQuery("period", stats.PeriodAll.String()))

	view, err := h.stats.GetMahallaStats(c.Request.Context(), c.Param("id"), period)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}
