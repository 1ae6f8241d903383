package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dom/notely/internal/api/response"
	"github.com/dom/notely/internal/token"
)

type stubValidator struct {
	identity token.Identity
	err      error
	calls    int
}

func (s *stubValidator) ValidateToken(tokenString string) (token.Identity, error) {
	s.calls++
	if tokenString != "good" {
		return token.Identity{}, errors.New("bad token")
	}
	return s.identity, s.err
}

func TestAuth(t *testing.T) {
	alice := token.Identity{UserID: uuid.New(), Username: "alice", Email: "alice@x.com"}

	tests := []struct {
		name            string
		header          string
		expectedStatus  int
		expectedMessage string
		validated       bool
	}{
		{
			name:            "missing header",
			header:          "",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Unauthorized: Token missing or malformed",
		},
		{
			name:            "wrong scheme",
			header:          "Basic good",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Unauthorized: Token missing or malformed",
		},
		{
			name:            "bearer without token",
			header:          "Bearer ",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Unauthorized: Token missing or malformed",
		},
		{
			name:            "extra fields",
			header:          "Bearer good extra",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Unauthorized: Token missing or malformed",
		},
		{
			name:            "invalid token",
			header:          "Bearer tampered",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Unauthorized: Invalid token",
			validated:       true,
		},
		{
			name:           "valid token",
			header:         "Bearer good",
			expectedStatus: http.StatusOK,
			validated:      true,
		},
		{
			name:           "lowercase scheme",
			header:         "bearer good",
			expectedStatus: http.StatusOK,
			validated:      true,
		},
		{
			name:           "uppercase scheme",
			header:         "BEARER good",
			expectedStatus: http.StatusOK,
			validated:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := &stubValidator{identity: alice}

			var reached bool
			var got token.Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				got, _ = GetIdentity(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Auth(validator, zap.NewNop())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.validated, validator.calls > 0)

			if tt.expectedStatus != http.StatusOK {
				assert.False(t, reached, "next handler must not run")

				var env response.Envelope
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
				assert.False(t, env.Success)
				assert.Equal(t, tt.expectedMessage, env.Message)
				return
			}

			assert.True(t, reached)
			assert.Equal(t, alice, got)
		})
	}
}

func TestGetIdentity_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := GetIdentity(req.Context())
	assert.False(t, ok)
}

func TestRecoverer(t *testing.T) {
	handler := Recoverer(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "Server error", env.Message)
}

func TestCORS(t *testing.T) {
	var reached bool
	handler := CORS("http://localhost:5173")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/entries", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, reached, "preflight must not reach the handler")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entries", nil))
	assert.True(t, reached)
}
