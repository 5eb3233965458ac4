package boardapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{pgx.ErrNoRows, http.StatusNotFound},
		{ErrValidation, http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{ErrExpired, http.StatusGone},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("%w: title missing", ErrValidation), http.StatusBadRequest},
		{errors.Join(ErrUpstream, errors.New("db down")), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), "%v", tc.err)
	}
}

func TestDbErr(t *testing.T) {
	assert.NoError(t, dbErr(nil))

	assert.ErrorIs(t, dbErr(pgx.ErrNoRows), ErrNotFound)

	dup := &pgconn.PgError{Code: uniqueViolation}
	assert.ErrorIs(t, dbErr(dup), ErrConflict)

	other := &pgconn.PgError{Code: "23503"}
	err := dbErr(other)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrConflict)
}
