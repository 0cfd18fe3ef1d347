package checkout

import (
	"github.com/befree-edtech/befree-backend/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the checkout service. Transaction
// yields a repository bound to a single DB transaction so multi-step
// mutations commit or roll back as one unit.
type Repository interface {
	Transaction(fn func(Repository) error) error
	FindPlan(idOrName string) (*models.Plan, error)
	CreateOrder(order *models.Order) error
	GetOrderByOrderID(orderID string) (*models.Order, error)
	UpdateOrder(orderID string, updates map[string]interface{}) error
	ListOrdersByUser(userID uint) ([]models.Order, error)
	CreatePaymentTransactionIfNotExists(entry *models.PaymentTransaction) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a checkout repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

// FindPlan resolves a plan by numeric id or by name.
func (r *gormRepository) FindPlan(idOrName string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("id = ? OR name = ?", idOrName, idOrName).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) CreateOrder(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *gormRepository) GetOrderByOrderID(orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) UpdateOrder(orderID string, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("order_id = ?", orderID).Updates(updates).Error
}

func (r *gormRepository) ListOrdersByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// CreatePaymentTransactionIfNotExists appends a ledger entry, ignoring the
// insert when an entry with the same (order_id, ngenius_payment_ref,
// transaction_type) already exists. Racing verify calls therefore cannot
// produce duplicate ledger rows.
func (r *gormRepository) CreatePaymentTransactionIfNotExists(entry *models.PaymentTransaction) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "order_id"},
			{Name: "ngenius_payment_ref"},
			{Name: "transaction_type"},
		},
		DoNothing: true,
	}).Create(entry)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
