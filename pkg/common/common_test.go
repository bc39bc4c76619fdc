package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============== Error Tests ==============

func TestAppError_Constructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"bad request", NewBadRequestError("bad", cause), http.StatusBadRequest},
		{"not found", NewNotFoundError("missing", cause), http.StatusNotFound},
		{"conflict", NewConflictError("taken", cause), http.StatusConflict},
		{"unprocessable", NewUnprocessableError("rule", cause), http.StatusUnprocessableEntity},
		{"internal", NewInternalError("oops", cause), http.StatusInternalServerError},
		{"unavailable", NewServiceUnavailableError("later", cause), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.ErrorIs(t, tt.err, cause)
			assert.Contains(t, tt.err.Error(), "boom")
		})
	}
}

func TestAppError_MessageWithoutCause(t *testing.T) {
	err := NewNotFoundError("gift card not found", nil)

	assert.Equal(t, "gift card not found", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestAsAppError(t *testing.T) {
	appErr := NewConflictError("already applied", nil)

	got, ok := AsAppError(fmt.Errorf("apply: %w", appErr))
	require.True(t, ok)
	assert.Same(t, appErr, got)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}

// ============== Response Tests ==============

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSuccessResponses(t *testing.T) {
	tests := []struct {
		name       string
		write      func(c *gin.Context)
		wantStatus int
	}{
		{"ok", func(c *gin.Context) { SuccessResponse(c, "x") }, http.StatusOK},
		{"created", func(c *gin.Context) { CreatedResponse(c, "x") }, http.StatusCreated},
		{"accepted", func(c *gin.Context) { SuccessResponseWithStatus(c, http.StatusAccepted, nil, "voucher sent") }, http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			tt.write(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.True(t, resp.Success)
			assert.Nil(t, resp.Error)
		})
	}
}

func TestSuccessResponseWithMeta(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SuccessResponseWithMeta(c, []string{"a"}, &Meta{Limit: 20, Offset: 0, Total: 41, TotalPages: 3})

	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.EqualValues(t, 41, resp.Meta.Total)
}

func TestAppErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	AppErrorResponse(c, NewUnprocessableError("insufficient gift card balance", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Error.Code)
	assert.Equal(t, "insufficient gift card balance", resp.Error.Message)
}

// ============== Health Tests ==============

func TestHealthCheckWithDeps(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
		},
		{
			name:       "all healthy",
			checks:     map[string]CheckFunc{"database": func(context.Context) error { return nil }},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "healthy"},
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"database": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("down") },
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/ready", HealthCheckWithDeps("giftcards", "1.0.0", time.Second, tt.checks))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "giftcards", body.Service)
			if tt.wantChecks != nil {
				assert.Equal(t, tt.wantChecks, body.Checks)
			}
		})
	}
}
