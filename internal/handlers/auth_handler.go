package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medconnect-api/internal/models"
	"github.com/harentsoaR/medconnect-api/internal/services"
)

type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.Svc.Signup(c.Request.Context(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.Svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := h.Tokens.GenerateJWT(user.ID, string(user.Role))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// GetCurrentUser returns the caller with their doctor or patient record.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Svc.GetUser(ctx, callerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := gin.H{"user": user}
	if err := h.attachRoleRecord(ctx, user, resp); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) attachRoleRecord(ctx context.Context, user *models.User, resp gin.H) error {
	switch user.Role {
	case models.RoleDoctor:
		d, err := h.Svc.GetDoctor(ctx, user.ID)
		if err != nil {
			return err
		}
		resp["doctor"] = d
	case models.RolePatient:
		p, err := h.Svc.GetPatient(ctx, user.ID)
		if err != nil {
			return err
		}
		resp["patient"] = p
	}
	return nil
}
