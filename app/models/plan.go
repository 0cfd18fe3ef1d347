package models

import (
	"encoding/json"
	"time"
)

const (
	PlanPeriodDay   = "day"
	PlanPeriodWeek  = "week"
	PlanPeriodMonth = "month"
	PlanPeriodYear  = "year"
)

// Plan is a purchasable subscription tier shown on the pricing page.
type Plan struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name" validate:"required,max=100"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price" validate:"gte=0"`
	Period      string    `gorm:"type:varchar(10);not null;default:'month'" json:"period" validate:"oneof=day week month year"`
	Description string    `gorm:"type:varchar(500)" json:"description"`
	Features    string    `gorm:"type:json" json:"-"`
	CTA         string    `gorm:"type:varchar(20)" json:"cta"`
	Popular     bool      `gorm:"default:false" json:"popular"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FeatureList decodes the JSON features column into a string slice.
func (p *Plan) FeatureList() []string {
	if p.Features == "" {
		return nil
	}
	var features []string
	if err := json.Unmarshal([]byte(p.Features), &features); err != nil {
		return nil
	}
	return features
}
