package handlers

import (
	"net/http"

	"food-rescue-api/config"
	"food-rescue-api/middleware"
	"food-rescue-api/models"

	"github.com/gin-gonic/gin"
)

// GetMyNotifications returns the caller's notifications, newest first
func GetMyNotifications(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var notifications []models.Notification
	query := config.DB.Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}
	query.Order("created_at desc").Find(&notifications)

	unread := 0
	for _, n := range notifications {
		if !n.IsRead {
			unread++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":         len(notifications),
		"unread":        unread,
		"notifications": notifications,
	})
}

// MarkNotificationRead marks one of the caller's notifications as read.
// Notifications are only ever mutated by their owner.
func MarkNotificationRead(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var notification models.Notification
	if err := config.DB.First(&notification, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	if notification.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This notification does not belong to you"})
		return
	}

	config.DB.Model(&notification).Update("is_read", true)
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read", "notification_id": notification.ID})
}

// MarkAllNotificationsRead marks every unread notification of the caller
func MarkAllNotificationsRead(c *gin.Context) {
	userID := middleware.GetUserID(c)

	res := config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)

	c.JSON(http.StatusOK, gin.H{
		"message": "All notifications marked as read",
		"updated": res.RowsAffected,
	})
}
