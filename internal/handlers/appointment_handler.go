package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

type CreateAppointmentRequest struct {
	DoctorID    string  `json:"doctorId" binding:"required"`
	Date        string  `json:"date" binding:"required"`
	ProposedFee float64 `json:"proposedFee" binding:"gte=0"`
}

type RespondRequest struct {
	Decision models.AppointmentStatus `json:"decision" binding:"required"`
}

// ownFilter scopes a listing to the caller's side of the appointment.
func ownFilter(c *gin.Context) models.AppointmentFilter {
	var f models.AppointmentFilter
	switch callerRole(c) {
	case models.RoleDoctor:
		f.DoctorID = callerID(c)
	case models.RolePatient:
		f.PatientID = callerID(c)
	}
	return f
}

func canSee(c *gin.Context, apt *models.Appointment) bool {
	id := callerID(c)
	return callerRole(c) == models.RoleAdmin || apt.DoctorID == id || apt.PatientID == id
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time format, use RFC3339"})
		return
	}

	apt, err := h.Svc.CreateAppointment(c.Request.Context(), callerID(c), req.DoctorID, date, req.ProposedFee)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, apt)
}

// GetAppointments lists the caller's appointments, optionally by ?status=.
func (h *Handler) GetAppointments(c *gin.Context) {
	f := ownFilter(c)
	f.Status = models.AppointmentStatus(c.Query("status"))

	list, err := h.Svc.ListAppointments(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	apt, err := h.Svc.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !canSee(c, apt) {
		forbidden(c)
		return
	}
	c.JSON(http.StatusOK, apt)
}

// ownedByCaller loads the appointment and checks the caller is its doctor.
func (h *Handler) ownedByCaller(c *gin.Context) bool {
	apt, err := h.Svc.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return false
	}
	if apt.DoctorID != callerID(c) {
		forbidden(c)
		return false
	}
	return true
}

func (h *Handler) RespondToAppointment(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !h.ownedByCaller(c) {
		return
	}

	apt, err := h.Svc.RespondToAppointment(c.Request.Context(), c.Param("id"), req.Decision)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	var draft models.PrescriptionDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	if !h.ownedByCaller(c) {
		return
	}

	apt, err := h.Svc.CompleteAppointment(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

func (h *Handler) GetPrescriptions(c *gin.Context) {
	list, err := h.Svc.ListPrescriptions(c.Request.Context(), ownFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
