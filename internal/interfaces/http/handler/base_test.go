package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/commercive/backend/internal/domain/shared"
	"github.com/commercive/backend/internal/interfaces/http/dto"
	"github.com/commercive/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestGetTenantID(t *testing.T) {
	tenantID := uuid.New()

	t.Run("reads JWT claims first", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set(middleware.JWTTenantIDKey, tenantID.String())
		c.Request.Header.Set("X-Tenant-ID", uuid.New().String())

		got, err := getTenantID(c)
		require.NoError(t, err)
		assert.Equal(t, tenantID, got)
	})

	t.Run("falls back to header", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Request.Header.Set("X-Tenant-ID", tenantID.String())

		got, err := getTenantID(c)
		require.NoError(t, err)
		assert.Equal(t, tenantID, got)
	})

	t.Run("errors when absent", func(t *testing.T) {
		c, _ := newTestContext(t)
		_, err := getTenantID(c)
		assert.Error(t, err)
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Request.Header.Set("X-Tenant-ID", "not-a-uuid")
		_, err := getTenantID(c)
		assert.Error(t, err)
	})
}

func TestGetUserID(t *testing.T) {
	userID := uuid.New()

	c, _ := newTestContext(t)
	c.Set(middleware.JWTUserIDKey, userID.String())

	got, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	c2, _ := newTestContext(t)
	_, err = getUserID(c2)
	assert.Error(t, err)
}

func TestHandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name         string
		err          error
		expectStatus int
		expectCode   string
	}{
		{
			name:         "not found maps to 404",
			err:          shared.ErrNotFound,
			expectStatus: http.StatusNotFound,
			expectCode:   dto.ErrCodeNotFound,
		},
		{
			name:         "replayed order maps to 409",
			err:          shared.ErrAlreadyReconciled,
			expectStatus: http.StatusConflict,
			expectCode:   dto.ErrCodeAlreadyReconciled,
		},
		{
			name:         "invalid transition maps to 422",
			err:          shared.ErrInvalidTransition,
			expectStatus: http.StatusUnprocessableEntity,
			expectCode:   dto.ErrCodeInvalidTransition,
		},
		{
			name:         "business rule maps to 422",
			err:          shared.NewDomainError("AMOUNT_EXCEEDS_OUTSTANDING", "too much"),
			expectStatus: http.StatusUnprocessableEntity,
			expectCode:   dto.ErrCodeBusinessRule,
		},
		{
			name:         "wrapped domain error resolves",
			err:          fmt.Errorf("saving request: %w", shared.ErrConcurrencyConflict),
			expectStatus: http.StatusConflict,
			expectCode:   dto.ErrCodeConcurrencyConflict,
		},
		{
			name:         "unknown error is internal",
			err:          fmt.Errorf("boom"),
			expectStatus: http.StatusInternalServerError,
			expectCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(t)
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectStatus, w.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectCode, resp.Error.Code)
		})
	}
}

func TestParseListRequest(t *testing.T) {
	t.Run("defaults apply when query is empty", func(t *testing.T) {
		c, _ := newTestContext(t)
		req, err := parseListRequest(c)
		require.NoError(t, err)
		assert.Equal(t, 1, req.Page)
		assert.Equal(t, 20, req.PageSize)
	})

	t.Run("binds explicit values", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&page_size=50&sort_by=amount&sort_dir=desc&search=jane", nil)

		req, err := parseListRequest(c)
		require.NoError(t, err)
		assert.Equal(t, 3, req.Page)
		assert.Equal(t, 50, req.PageSize)
		assert.Equal(t, "amount", req.SortBy)
		assert.Equal(t, "desc", req.SortDir)
		assert.Equal(t, "jane", req.Search)
	})

	t.Run("rejects unknown sort direction", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Request = httptest.NewRequest(http.MethodGet, "/?sort_dir=sideways", nil)

		_, err := parseListRequest(c)
		assert.Error(t, err)
	})
}
