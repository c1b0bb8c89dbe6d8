package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))

	// Other constraint violations and plain errors are not conflicts.
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestServiceErrorStatuses(t *testing.T) {
	conflict := ErrConflict("Already enrolled")
	serr, ok := conflict.(ServiceError)
	assert.True(t, ok)
	assert.Equal(t, 409, serr.Status)
	assert.Equal(t, "Already enrolled", serr.Error())

	assert.Equal(t, 404, ErrNotFound("x").(ServiceError).Status)
	assert.Equal(t, 400, ErrBadRequest("x").(ServiceError).Status)
	assert.Equal(t, 403, ErrForbidden("x").(ServiceError).Status)
	assert.Equal(t, 401, ErrUnauthorized("x").(ServiceError).Status)
}
