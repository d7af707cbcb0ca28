package handler

import (
	"net/http"
	"testing"

	"github.com/rohanmehra24/memory-lane/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUserStoresSubmittedPassword(t *testing.T) {
	app, db := setupTest(t, &fakeUploader{}, nil)
	app.Post("/api/user/", CreateUser)

	res, err := app.Test(jsonRequest(http.MethodPost, "/api/user/",
		`{"email":"bo@example.com","username":"bo","name":"Bo","password":"secret123"}`), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var user models.User
	require.NoError(t, db.Where("username = ?", "bo").First(&user).Error)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")),
		"chosen password must verify against the stored hash")
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("")),
		"empty password must not unlock the account")
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("wrong")))
}

func TestCreateUserRejectsEmptyPassword(t *testing.T) {
	app, db := setupTest(t, &fakeUploader{}, nil)
	app.Post("/api/user/", CreateUser)

	res, err := app.Test(jsonRequest(http.MethodPost, "/api/user/",
		`{"email":"bo@example.com","username":"bo","name":"Bo"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count, "no account created without a password")
}

func TestCreateUserDoesNotEchoPassword(t *testing.T) {
	app, db := setupTest(t, &fakeUploader{}, nil)
	app.Post("/api/user/", CreateUser)

	res, err := app.Test(jsonRequest(http.MethodPost, "/api/user/",
		`{"email":"bo@example.com","username":"bo","name":"Bo","password":"secret123"}`), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	parsed := decodeResponse(t, res)
	assert.NotContains(t, string(parsed.Data), "secret123")
	assert.NotContains(t, string(parsed.Data), "password")

	var user models.User
	require.NoError(t, db.Where("username = ?", "bo").First(&user).Error)
	assert.NotEqual(t, "secret123", user.Password, "password stored hashed, never plaintext")
}
