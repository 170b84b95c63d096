package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/weight-tracker-be/internal/auth"
	"github.com/isdelr/weight-tracker-be/internal/database"
	"github.com/isdelr/weight-tracker-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	users   *httptest.Server
	weights *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, database.SQLite, filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	// Both services share only the secret, as separate deployments would.
	secret := []byte("shared-secret")
	issuer := auth.NewCodec(secret, 24*time.Hour)
	verifier := auth.NewCodec(secret, 24*time.Hour)

	env := &testEnv{
		users:   httptest.NewServer(NewUserRouter([]string{"*"}, issuer, services.NewUserService(db, issuer))),
		weights: httptest.NewServer(NewWeightRouter([]string{"*"}, verifier, services.NewWeightService(db))),
	}
	t.Cleanup(env.users.Close)
	t.Cleanup(env.weights.Close)
	return env
}

func do(t *testing.T, method, url, token, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func signupAndLogin(t *testing.T, env *testEnv, name, email, password string) (int64, string) {
	t.Helper()
	status, body := do(t, http.MethodPost, env.users.URL+"/users", "",
		`{"fullName":"`+name+`","email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = do(t, http.MethodPost, env.users.URL+"/login", "",
		`{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, status, string(body))

	var login struct {
		UserID      int64  `json:"userId"`
		FullName    string `json:"fullName"`
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(body, &login))
	require.Equal(t, name, login.FullName)
	require.Equal(t, "bearer", login.TokenType)
	return login.UserID, login.AccessToken
}

func TestEndToEnd_SignupLoginAndRecordWeight(t *testing.T) {
	env := newTestEnv(t)

	userID, token := signupAndLogin(t, env, "A", "a@x.com", "p")
	assert.Equal(t, int64(1000), userID)

	status, body := do(t, http.MethodPost, env.weights.URL+"/weights", token, `{"weight":70.5,"userId":1000}`)
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = do(t, http.MethodGet, env.weights.URL+"/weights?userId=1000", token, "")
	require.Equal(t, http.StatusOK, status, string(body))

	var weights []struct {
		WeightID  int64     `json:"weightId"`
		Weight    float64   `json:"weight"`
		UserID    int64     `json:"userId"`
		Timestamp time.Time `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(body, &weights))
	require.Len(t, weights, 1)
	assert.Equal(t, int64(1), weights[0].WeightID)
	assert.Equal(t, 70.5, weights[0].Weight)
	assert.Equal(t, int64(1000), weights[0].UserID)
	assert.False(t, weights[0].Timestamp.IsZero())
}

func TestEndToEnd_Ownership(t *testing.T) {
	env := newTestEnv(t)

	aliceID, aliceToken := signupAndLogin(t, env, "Alice", "alice@x.com", "pw1")
	bobID, bobToken := signupAndLogin(t, env, "Bob", "bob@x.com", "pw2")
	require.NotEqual(t, aliceID, bobID)

	status, _ := do(t, http.MethodPost, env.weights.URL+"/weights", aliceToken, `{"weight":60,"userId":1000}`)
	require.Equal(t, http.StatusCreated, status)

	status, _ = do(t, http.MethodPost, env.weights.URL+"/weights", bobToken, `{"weight":90,"userId":1000}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = do(t, http.MethodGet, env.weights.URL+"/weights?userId=1000", bobToken, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = do(t, http.MethodGet, env.weights.URL+"/weights", bobToken, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodPut, env.weights.URL+"/weights?userId=1000&weightId=1", bobToken, `{"weight":1}`)
	assert.Equal(t, http.StatusForbidden, status)

	// Forbidden is reported even when the record does not exist.
	status, _ = do(t, http.MethodDelete, env.weights.URL+"/weights?userId=1000&weightId=99", bobToken, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = do(t, http.MethodDelete, env.weights.URL+"/weights?userId=1000&weightId=99", aliceToken, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body := do(t, http.MethodPut, env.weights.URL+"/weights?userId=1000&weightId=1", aliceToken, `{"weight":59.5}`)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"weight":59.5`)

	status, _ = do(t, http.MethodDelete, env.weights.URL+"/weights?userId=1000&weightId=1", aliceToken, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = do(t, http.MethodGet, env.weights.URL+"/weights?userId=1000", aliceToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestEndToEnd_AuthRequired(t *testing.T) {
	env := newTestEnv(t)
	_, token := signupAndLogin(t, env, "A", "a@x.com", "p")

	status, _ := do(t, http.MethodGet, env.weights.URL+"/weights?userId=1000", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, http.MethodGet, env.weights.URL+"/weights?userId=1000", "forged.token.value", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, http.MethodGet, env.users.URL+"/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := do(t, http.MethodGet, env.users.URL+"/users", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"userId":1000,"fullName":"A","email":"a@x.com"}]`, string(body))

	status, body = do(t, http.MethodGet, env.users.URL+"/users/1000", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"userId":1000,"fullName":"A","email":"a@x.com"}`, string(body))

	status, _ = do(t, http.MethodGet, env.users.URL+"/users/4242", token, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEndToEnd_SignupConflictsAndLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	signupAndLogin(t, env, "A", "a@x.com", "p")

	status, body := do(t, http.MethodPost, env.users.URL+"/users", "", `{"userId":1000,"fullName":"B","email":"b@x.com","password":"p"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "User ID already exists")

	status, body = do(t, http.MethodPost, env.users.URL+"/users", "", `{"fullName":"B","email":"a@x.com","password":"p"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Email already registered")

	statusWrong, bodyWrong := do(t, http.MethodPost, env.users.URL+"/login", "", `{"email":"a@x.com","password":"wrong"}`)
	statusUnknown, bodyUnknown := do(t, http.MethodPost, env.users.URL+"/login", "", `{"email":"zzz@x.com","password":"p"}`)
	assert.Equal(t, http.StatusUnauthorized, statusWrong)
	assert.Equal(t, http.StatusUnauthorized, statusUnknown)
	assert.JSONEq(t, string(bodyWrong), string(bodyUnknown))
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	status, body := do(t, http.MethodGet, env.users.URL+"/health", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"healthy","service":"user-management-api"}`, string(body))

	status, body = do(t, http.MethodGet, env.weights.URL+"/health", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"healthy","service":"weight-tracking-api"}`, string(body))

	status, _ = do(t, http.MethodGet, env.weights.URL+"/nope", "", "")
	assert.Equal(t, http.StatusNotFound, status)
}
