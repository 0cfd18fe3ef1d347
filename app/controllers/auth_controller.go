package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/befree-edtech/befree-backend/app/models"
	"github.com/befree-edtech/befree-backend/app/repository"
	"github.com/befree-edtech/befree-backend/internal/pkg/env"
	"github.com/befree-edtech/befree-backend/internal/pkg/security"
	"github.com/befree-edtech/befree-backend/internal/pkg/usercontext"
)

const authTokenTTL = 7 * 24 * time.Hour

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and returns a bearer token.
// POST /api/v1/auth/register
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	exists, err := repo.EmailExists(strings.TrimSpace(req.Email))
	if err != nil {
		log.Printf("register: email check failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to create account")
	}
	if exists {
		return respondError(c, fiber.StatusBadRequest, "An account with this email already exists")
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "Name, a valid email and a password of at least 6 characters are required")
	}
	if err := repo.Create(user); err != nil {
		log.Printf("register: create user failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	token, err := security.GenerateAuthToken(user.ID, authTokenTTL, env.GetEnv("AUTH_TOKEN_SECRET", ""))
	if err != nil {
		log.Printf("register: token generation failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	return respondData(c, fiber.StatusCreated, fiber.Map{
		"token": token,
		"user":  user,
	})
}

// HandleLogin verifies credentials and returns a bearer token.
// POST /api/v1/auth/login
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return respondError(c, fiber.StatusBadRequest, "Email and password are required")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		log.Printf("login: user lookup failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to log in")
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return respondError(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if !user.IsActive() {
		return respondError(c, fiber.StatusForbidden, "Account is not active")
	}

	token, err := security.GenerateAuthToken(user.ID, authTokenTTL, env.GetEnv("AUTH_TOKEN_SECRET", ""))
	if err != nil {
		log.Printf("login: token generation failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to log in")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Printf("login: last login update failed: %v", err)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user":  user,
	})
}

// HandleMe returns the authenticated caller's account.
// GET /api/v1/auth/me
func HandleMe(c *fiber.Ctx) error {
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, fiber.StatusNotFound, "User not found")
		}
		log.Printf("me: user lookup failed: %v", err)
		return respondError(c, fiber.StatusInternalServerError, "Failed to load account")
	}
	return respondData(c, fiber.StatusOK, user)
}
