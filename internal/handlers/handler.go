package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/medconnect-api/internal/middleware"
	"github.com/harentsoaR/medconnect-api/internal/models"
	"github.com/harentsoaR/medconnect-api/internal/services"
	"github.com/harentsoaR/medconnect-api/internal/utils"
)

// Handler wires the clinic service to HTTP. Every route method lives on it.
type Handler struct {
	Svc    *services.ClinicService
	Tokens *utils.TokenIssuer
	Log    zerolog.Logger
}

func NewHandler(svc *services.ClinicService, tokens *utils.TokenIssuer, log zerolog.Logger) *Handler {
	return &Handler{Svc: svc, Tokens: tokens, Log: log}
}

// RegisterRoutes mounts the public and bearer-protected routes on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Health)
	r.POST("/signup", h.RegisterUser)
	r.POST("/login", h.Login)

	api := r.Group("/")
	api.Use(middleware.AuthMiddleware(h.Tokens))
	{
		api.GET("/me", h.GetCurrentUser)

		api.POST("/appointments", middleware.RequireRole(string(models.RolePatient)), h.CreateAppointment)
		api.GET("/appointments", h.GetAppointments)
		api.GET("/appointments/:id", h.GetAppointment)
		api.PATCH("/appointments/:id/respond", middleware.RequireRole(string(models.RoleDoctor)), h.RespondToAppointment)
		api.PATCH("/appointments/:id/complete", middleware.RequireRole(string(models.RoleDoctor)), h.CompleteAppointment)
		api.GET("/prescriptions", h.GetPrescriptions)

		api.POST("/messages", h.SendMessage)
		api.GET("/messages", h.GetConversation)

		api.GET("/notifications", h.GetNotifications)
		api.PATCH("/notifications/:id/read", h.MarkNotificationRead)

		api.GET("/doctors", h.GetDoctors)
		api.GET("/doctors/:id", h.GetDoctor)
		api.PATCH("/doctors/:id/profile", middleware.RequireRole(string(models.RoleDoctor)), h.UpdateDoctorProfile)
		api.PATCH("/doctors/:id/approve", middleware.RequireRole(string(models.RoleAdmin)), h.ApproveDoctor)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func callerID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

func callerRole(c *gin.Context) models.Role {
	return models.Role(c.GetString(middleware.UserRoleKey))
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied."})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// fail maps a service error onto its HTTP status.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	}

	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		h.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
