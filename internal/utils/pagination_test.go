package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryParams(t *testing.T, query string) PaginationParams {
	t.Helper()

	app := fiber.New()
	var params PaginationParams
	app.Get("/sessions", func(c *fiber.Ctx) error {
		params = GetPaginationParams(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/sessions"+query, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return params
}

func TestGetPaginationParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		params := queryParams(t, "")
		assert.Equal(t, 1, params.Page)
		assert.Equal(t, defaultPageSize, params.Limit)
		assert.Empty(t, params.Search)
	})

	t.Run("explicit values", func(t *testing.T) {
		params := queryParams(t, "?page=3&limit=50&search=IMPORT")
		assert.Equal(t, 3, params.Page)
		assert.Equal(t, 50, params.Limit)
		assert.Equal(t, "IMPORT", params.Search)
	})

	t.Run("out of range values fall back", func(t *testing.T) {
		params := queryParams(t, "?page=0&limit=9999")
		assert.Equal(t, 1, params.Page)
		assert.Equal(t, defaultPageSize, params.Limit)
	})
}

func TestCalculatePagination(t *testing.T) {
	meta := CalculatePagination(2, 20, 45)
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 3, meta.LastPage)
	assert.Equal(t, 21, meta.From)
	assert.Equal(t, 40, meta.To)
	assert.True(t, meta.HasMore)

	empty := CalculatePagination(1, 20, 0)
	assert.Equal(t, 0, empty.From)
	assert.Equal(t, 0, empty.To)
	assert.False(t, empty.HasMore)

	last := CalculatePagination(3, 20, 45)
	assert.Equal(t, 45, last.To)
	assert.False(t, last.HasMore)
}

func TestGetOffset(t *testing.T) {
	assert.Equal(t, 0, GetOffset(1, 20))
	assert.Equal(t, 40, GetOffset(3, 20))
}
