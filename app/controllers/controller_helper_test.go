package controllers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, handler fiber.Handler) (int, map[string]interface{}) {
	t.Helper()

	app := fiber.New()
	app.Get("/test", handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestRespondData(t *testing.T) {
	status, body := performRequest(t, func(c *fiber.Ctx) error {
		return respondData(c, fiber.StatusCreated, fiber.Map{"id": "abc"})
	})

	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", data["id"])
	assert.NotContains(t, body, "message")
}

func TestRespondMessage(t *testing.T) {
	status, body := performRequest(t, func(c *fiber.Ctx) error {
		return respondMessage(c, fiber.StatusOK, "done")
	})

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "done", body["message"])
}

func TestRespondError(t *testing.T) {
	status, body := performRequest(t, func(c *fiber.Ctx) error {
		return respondError(c, fiber.StatusNotFound, "Order not found")
	})

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Order not found", body["message"])
	assert.NotContains(t, body, "data")
}
