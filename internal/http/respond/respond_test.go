package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/tweeter-be/internal/apperr"
)

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Message
}

func TestErr_ClassifiedErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.New(apperr.Validation, "name is missing"), http.StatusBadRequest, "name is missing"},
		{apperr.New(apperr.Conflict, "bob already exists"), http.StatusConflict, "bob already exists"},
		{apperr.Wrap(apperr.Unauthorized, "Authentication Error", errors.New("expired")), http.StatusUnauthorized, "Authentication Error"},
		{apperr.New(apperr.Forbidden, "Forbidden"), http.StatusForbidden, "Forbidden"},
		{apperr.New(apperr.NotFound, "Tweet not found: 1"), http.StatusNotFound, "Tweet not found: 1"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Err(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, tc.msg, decodeMessage(t, rec))
	}
}

func TestErr_HidesInternalDetail(t *testing.T) {
	for _, err := range []error{
		errors.New("pq: connection refused"),
		apperr.Wrap(apperr.Internal, "failed to create user", errors.New("disk full")),
	} {
		rec := httptest.NewRecorder()
		Err(rec, httptest.NewRequest(http.MethodGet, "/", nil), err)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal server error", decodeMessage(t, rec))
	}
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
}
