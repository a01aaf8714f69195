package httpapi

import (
	"net/http"

	"mahalla-taskboard/pkg/errutil"
	"mahalla-taskboard/services/territory"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createRegion(c *gin.Context) {
	var req territory.CreateRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	region, err := h.territories.CreateRegion(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, region)
}

func (h *Handler) listRegions(c *gin.Context) {
	regions, err := h.territories.ListRegions(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"regions": regions})
}

func (h *Handler) createDistrict(c *gin.Context) {
	var req territory.CreateDistrictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	district, err := h.territories.CreateDistrict(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, district)
}

func (h *Handler) listDistricts(c *gin.Context) {
	districts, err := h.territories.ListDistricts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"districts": districts})
}

func (h *Handler) createMahalla(c *gin.Context) {
	var req territory.CreateMahallaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	mahalla, err := h.territories.CreateMahalla(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, mahalla)
}

func (h *Handler) listMahallas(c *gin.Context) {
	mahallas, err := h.territories.ListMahallas(c.Request.Context(), c.Query("district_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mahallas": mahallas})
}

func (h *Handler) getMahalla(c *gin.Context) {
	mahalla, err := h.territories.GetMahalla(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, mahalla)
}
