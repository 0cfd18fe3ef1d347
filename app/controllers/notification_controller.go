package controllers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/befree-edtech/befree-backend/app/repository"
	"github.com/befree-edtech/befree-backend/internal/pkg/usercontext"
)

const notificationPageSize = 50

// HandleListNotifications returns the caller's notifications, newest first.
// GET /api/v1/notifications
func HandleListNotifications(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repo := repository.GetGlobalFactory().GetNotificationRepository()

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	notifications, err := repo.GetByUserID(userID, offset, notificationPageSize)
	if err != nil {
		log.Printf("list notifications for user %d failed: %v", userID, err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to get notifications")
	}

	unread, err := repo.CountUnread(userID)
	if err != nil {
		log.Printf("count unread notifications for user %d failed: %v", userID, err)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"notifications": notifications,
		"unread":        unread,
	})
}

// HandleMarkNotificationRead marks one of the caller's notifications as read.
// PATCH /api/v1/notifications/:id/read
func HandleMarkNotificationRead(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid notification id")
	}

	repo := repository.GetGlobalFactory().GetNotificationRepository()
	if _, err := repo.GetByIDForUser(uint(id), userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fiber.StatusNotFound, "Notification not found")
		}
		log.Printf("notification lookup failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to update notification")
	}

	if err := repo.MarkRead(uint(id), userID); err != nil {
		log.Printf("mark notification read failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to update notification")
	}
	return respondMessage(c, fiber.StatusOK, "Notification marked as read")
}
