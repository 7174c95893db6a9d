package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

// GetDoctors is the doctor directory; ?approved=true hides unapproved doctors.
func (h *Handler) GetDoctors(c *gin.Context) {
	approvedOnly := false
	if raw := c.Query("approved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "approved must be a boolean"})
			return
		}
		approvedOnly = v
	}

	list, err := h.Svc.ListDoctors(c.Request.Context(), approvedOnly)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	d, err := h.Svc.GetDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDoctorProfile(c *gin.Context) {
	id := c.Param("id")
	if id != callerID(c) {
		forbidden(c)
		return
	}

	var patch models.DoctorProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.Svc.UpdateDoctorProfile(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) ApproveDoctor(c *gin.Context) {
	d, err := h.Svc.ApproveDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
