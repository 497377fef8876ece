package serverutils

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"cert-evaluator-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperr.Validation("criteria", "empty"), fiber.StatusBadRequest},
		{"not found", apperr.NotFound("evaluation", uuid.New()), fiber.StatusNotFound},
		{"parse", &apperr.ParseError{Schema: "checks", Err: errors.New("bad")}, fiber.StatusBadGateway},
		{"collaborator", &apperr.CollaboratorError{Collaborator: "llm", Err: errors.New("down")}, fiber.StatusBadGateway},
		{"extraction", &apperr.ExtractionError{FileName: "a.pdf", Err: errors.New("bad")}, fiber.StatusUnprocessableEntity},
		{"fiber error", fiber.ErrForbidden, fiber.StatusForbidden},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
		})
	}
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/internal", func(ctx *fiber.Ctx) error { return errors.New("dsn=postgres://secret") })
	app.Get("/missing", func(ctx *fiber.Ctx) error { return apperr.NotFound("session", uuid.Nil) })

	resp, err := app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "secret")

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Text string `json:"text" validate:"required"`
		Mode string `json:"mode" validate:"omitempty,oneof=version in_place"`
	}

	assert.NoError(t, ValidateRequest(request{Text: "hi"}))

	err := ValidateRequest(request{})
	require.Error(t, err)
	var vErr *apperr.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "text", vErr.Field)

	err = ValidateRequest(request{Text: "hi", Mode: "sideways"})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "mode", vErr.Field)
}

func TestJwtMiddleware(t *testing.T) {
	secret := "test-secret"
	userId := uuid.New()

	app := fiber.New()
	app.Get("/me", NewJwtMiddleware(secret), func(ctx *fiber.Ctx) error {
		id, err := UserIdFromContext(ctx)
		if err != nil {
			return err
		}
		return ctx.SendString(id.String())
	})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, userId.String(), string(body))

	req = httptest.NewRequest("GET", "/me", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userId.String()}).SignedString([]byte("other"))
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
