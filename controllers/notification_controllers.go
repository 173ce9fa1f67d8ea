package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/utils"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GetAllNotifications returns the caller's notifications, newest first.
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	userID := c.GetUint("user_id")

	var notifications []models.Notification
	if err := nc.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of notifications", notifications)
}

// MarkRead flags one of the caller's notifications as read.
func (nc *NotificationController) MarkRead(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("notification_id"))
	userID := c.GetUint("user_id")

	var notification models.Notification
	if err := nc.DB.Where("id = ? AND user_id = ?", id, userID).
		First(&notification).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if !notification.IsRead {
		if err := nc.DB.Model(&notification).Update("is_read", true).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		notification.IsRead = true
	}

	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", notification)
}

// MarkAllRead flags every unread notification for the caller. Idempotent.
func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	userID := c.GetUint("user_id")

	res := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "All notifications marked as read", gin.H{
		"updated": res.RowsAffected,
	})
}

// UnreadCount returns how many of the caller's notifications are unread.
func (nc *NotificationController) UnreadCount(c *gin.Context) {
	userID := c.GetUint("user_id")

	var count int64
	if err := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Unread notification count", gin.H{
		"unread_count": count,
	})
}
