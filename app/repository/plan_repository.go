package repository

import (
	"github.com/befree-edtech/befree-backend/app/models"
	"gorm.io/gorm"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// GetByID retrieves a plan by its numeric ID
func (r *planRepository) GetByID(id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByIDOrName resolves a plan by numeric id or by name
func (r *planRepository) GetByIDOrName(idOrName string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("id = ? OR name = ?", idOrName, idOrName).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetAll returns all plans ordered for the pricing page
func (r *planRepository) GetAll() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Order("price ASC").Find(&plans).Error
	return plans, err
}
