package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/bar-order-app/models"
)

func TestLogin(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "bartender@bar.test",
		"password": testPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	env := decode(t, w, &data)
	assert.True(t, env.Status)
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, models.RoleBartender, data.User.Role)

	w = app.do(t, http.MethodGet, "/api/auth/check", nil, bearer(data.Token))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "bartender@bar.test",
		"password": "nope",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decode(t, w, nil)
	assert.False(t, env.Status)
	assert.Equal(t, "invalid credentials", env.Message)
}

func TestStaffRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodGet, "/api/orders", nil, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterIsAdminOnly(t *testing.T) {
	app := newTestApp(t)
	body := map[string]string{
		"name":     "New Bartender",
		"email":    "new@bar.test",
		"password": "long-enough",
		"role":     "bartender",
	}

	w := app.do(t, http.MethodPost, "/api/auth/register", body, bearer(app.tokenFor(t, app.bartender)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPost, "/api/auth/register", body, bearer(app.tokenFor(t, app.admin)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, app.db.First(&user, "email = ?", "new@bar.test").Error)
	assert.Equal(t, models.RoleBartender, user.Role)

	w = app.do(t, http.MethodPost, "/api/auth/register", body, bearer(app.tokenFor(t, app.admin)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUsersIsAdminOnly(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/users", nil, bearer(app.tokenFor(t, app.bartender)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodGet, "/api/users", nil, bearer(app.tokenFor(t, app.admin)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	var users []models.User
	decode(t, w, &users)
	require.Len(t, users, 2)
	emails := []string{users[0].Email, users[1].Email}
	assert.ElementsMatch(t, []string{"admin@bar.test", "bartender@bar.test"}, emails)
}

func TestDeleteUser(t *testing.T) {
	app := newTestApp(t)
	admin := bearer(app.tokenFor(t, app.admin))

	w := app.do(t, http.MethodDelete, "/api/users/"+app.admin.ID, nil, bearer(app.tokenFor(t, app.bartender)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodDelete, "/api/users/missing", nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodDelete, "/api/users/"+app.admin.ID, nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "cannot delete the last admin", env.Message)

	w = app.do(t, http.MethodDelete, "/api/users/"+app.bartender.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var count int64
	require.NoError(t, app.db.Model(&models.User{}).Where("id = ?", app.bartender.ID).Count(&count).Error)
	assert.Zero(t, count)

	second := app.createUser(t, "second-admin@bar.test", models.RoleAdmin)
	w = app.do(t, http.MethodDelete, "/api/users/"+app.admin.ID, nil, bearer(app.tokenFor(t, second)))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
