package handlers_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orgplan/orgplan/internal/adapters/http/dto"
)

var testTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body = %s", rec.Body.String())
	return v
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body = %s", rec.Body.String())
}

// requireProblem asserts an RFC 9457 response with the given status and
// returns it for further checks.
func requireProblem(t *testing.T, rec *httptest.ResponseRecorder, status int) dto.ErrorResponse {
	t.Helper()
	requireStatus(t, rec, status)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	resp := decodeJSON[dto.ErrorResponse](t, rec)
	require.Equal(t, status, resp.Status)
	return resp
}
