package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/befree-edtech/befree-backend/app/models"
	"github.com/befree-edtech/befree-backend/app/repository"
	"github.com/befree-edtech/befree-backend/internal/pkg/cache"
)

const (
	planListCacheKey = "plans:all"
	planListCacheTTL = 5 * time.Minute
)

type planView struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Period      string   `json:"period"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	CTA         string   `json:"cta"`
	Popular     bool     `json:"popular"`
}

func toPlanView(plan *models.Plan) planView {
	return planView{
		ID:          plan.ID,
		Name:        plan.Name,
		Price:       plan.Price,
		Period:      plan.Period,
		Description: plan.Description,
		Features:    plan.FeatureList(),
		CTA:         plan.CTA,
		Popular:     plan.Popular,
	}
}

// HandleListPlans returns all plans for the pricing page. The listing is
// cached in Redis; a cache miss or error falls through to the database.
// GET /api/v1/plans
func HandleListPlans(c *fiber.Ctx) error {
	if cached, err := cache.Get(planListCacheKey); err == nil && cached != "" {
		var views []planView
		if err := json.Unmarshal([]byte(cached), &views); err == nil {
			return respondData(c, fiber.StatusOK, views)
		}
	}

	plans, err := repository.GetGlobalFactory().GetPlanRepository().GetAll()
	if err != nil {
		log.Printf("list plans failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to get plans")
	}

	views := make([]planView, 0, len(plans))
	for i := range plans {
		views = append(views, toPlanView(&plans[i]))
	}

	if encoded, err := json.Marshal(views); err == nil {
		if err := cache.Set(planListCacheKey, string(encoded), planListCacheTTL); err != nil {
			log.Printf("plan list cache write failed: %v", err)
		}
	}

	return respondData(c, fiber.StatusOK, views)
}

// HandleGetPlan returns a single plan by numeric id or name.
// GET /api/v1/plans/:id
func HandleGetPlan(c *fiber.Ctx) error {
	plan, err := repository.GetGlobalFactory().GetPlanRepository().GetByIDOrName(c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fiber.StatusNotFound, "Plan not found")
		}
		log.Printf("get plan failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to get plan")
	}
	return respondData(c, fiber.StatusOK, toPlanView(plan))
}
