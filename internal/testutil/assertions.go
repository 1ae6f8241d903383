package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the decoded form of every API response
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// DecodeData decodes a successful envelope and returns its data
func DecodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var env Envelope[T]
	AssertJSONResponse(t, resp, &env)
	require.True(t, env.Success, "expected success envelope, message: %q", env.Message)
	return env.Data
}

// AssertErrorResponse verifies a failed envelope with the expected status and message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var env Envelope[json.RawMessage]
	AssertJSONResponse(t, resp, &env)
	assert.False(t, env.Success, "expected failure envelope")
	assert.Contains(t, env.Message, expectedMessage, "error message mismatch")
}
