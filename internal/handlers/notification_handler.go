package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

// GetNotifications lists ?userId= (default: the caller) newest first with the
// unread count. Only admins may read another user's notifications.
func (h *Handler) GetNotifications(c *gin.Context) {
	userID := c.DefaultQuery("userId", callerID(c))
	if userID != callerID(c) && callerRole(c) != models.RoleAdmin {
		forbidden(c)
		return
	}

	ctx := c.Request.Context()
	list, err := h.Svc.Notifications.List(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	unread, err := h.Svc.Notifications.UnreadCount(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	n, err := h.Svc.Notifications.Get(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if n.UserID != callerID(c) && callerRole(c) != models.RoleAdmin {
		forbidden(c)
		return
	}

	if err := h.Svc.Notifications.MarkRead(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	n.Read = true
	c.JSON(http.StatusOK, n)
}
