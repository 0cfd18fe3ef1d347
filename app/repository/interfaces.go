package repository

import (
	"github.com/befree-edtech/befree-backend/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	EmailExists(email string) (bool, error)
}

// PlanRepository defines the interface for plan-related database operations
type PlanRepository interface {
	GetByID(id uint) (*models.Plan, error)
	GetByIDOrName(idOrName string) (*models.Plan, error)
	GetAll() ([]models.Plan, error)
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByUserID(userID uint, offset, limit int) ([]models.Notification, error)
	GetByIDForUser(id, userID uint) (*models.Notification, error)
	MarkRead(id, userID uint) error
	CountUnread(userID uint) (int64, error)
}
