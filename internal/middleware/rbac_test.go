package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/model"
)

func newRBACContext(user *model.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(ContextUserKey, user)
	}
	return c, rec
}

func TestRequireRoles_AllowsMember(t *testing.T) {
	c, _ := newRBACContext(&model.User{ID: uuid.New(), Role: model.RoleManager})
	called := false

	err := RequireRoles(model.RoleAdmin, model.RoleManager)(okHandler(&called))(c)

	assert.NoError(t, err)
	assert.True(t, called)
}

func TestRequireRoles_RejectsUnauthenticated(t *testing.T) {
	c, _ := newRBACContext(nil)
	called := false

	err := RequireRoles(model.RoleAdmin)(okHandler(&called))(c)

	assert.False(t, called)
	assertGateError(t, err, http.StatusUnauthorized, apperrors.CodeUnauthenticated)
}

// The forbidden payload names both the allowed set and the caller's role.
func TestRequireRoles_ForbiddenNamesRoles(t *testing.T) {
	c, rec := newRBACContext(&model.User{ID: uuid.New(), Role: model.RoleManager})
	called := false

	err := RequireRoles(model.RoleAdmin)(okHandler(&called))(c)

	assert.NoError(t, err) // response written directly
	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Data    struct {
			RequiredRoles []string `json:"required_roles"`
			Role          string   `json:"role"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, apperrors.CodeForbidden, body.Code)
	assert.Equal(t, []string{model.RoleAdmin}, body.Data.RequiredRoles)
	assert.Equal(t, model.RoleManager, body.Data.Role)
}

func TestSelfOrRoles(t *testing.T) {
	ownID := uuid.New()
	otherID := uuid.New()

	tests := []struct {
		name    string
		role    string
		paramID string
		allowed bool
	}{
		{"admin passes for any resource", model.RoleAdmin, otherID.String(), true},
		{"manager passes for any resource", model.RoleManager, otherID.String(), true},
		{"user passes for own resource", model.RoleUser, ownID.String(), true},
		{"user rejected for foreign resource", model.RoleUser, otherID.String(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newRBACContext(&model.User{ID: ownID, Role: tt.role})
			c.SetParamNames("id")
			c.SetParamValues(tt.paramID)
			called := false

			err := SelfOrRoles("id", model.RoleAdmin, model.RoleManager)(okHandler(&called))(c)

			assert.NoError(t, err)
			assert.Equal(t, tt.allowed, called)
			if !tt.allowed {
				assert.Equal(t, http.StatusForbidden, rec.Code)
			}
		})
	}
}
