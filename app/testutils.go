package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mycogenesis/contenthub/internal/blogservice"
	"github.com/mycogenesis/contenthub/internal/common"
	"github.com/mycogenesis/contenthub/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

// dropProducer discards published events so handler tests run without a
// broker.
type dropProducer struct{}

func (dropProducer) Publish(_ context.Context, _ []byte, _ common.BindingKey, _ common.Exchange) error {
	return nil
}

func newTestApplication(t *testing.T) (*application, *sql.DB) {
	db := common.TestDB("file://../migrations", t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	userService := userservice.NewUserService(db, dropProducer{}, cache)
	blogService := blogservice.NewBlogService(db, cache, logger)

	app := &application{
		config:      &Config{Environment: "test"},
		logger:      logger,
		userService: userService,
		blogService: blogService,
		manager:     blogservice.NewContentManager(blogService, userService, nil, logger),
	}

	return app, db
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var body envelope
	if len(responseBody) > 0 {
		err = json.Unmarshal(responseBody, &body)
		if err != nil {
			t.Fatal(err)
		}
	}

	return res.StatusCode, res.Header, body
}

func (ts *testServer) request(t *testing.T, method, path string, payload any, token *string) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != nil {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.request(t, http.MethodGet, path, nil, token)
}

func (ts *testServer) post(t *testing.T, path string, payload any, token *string) (int, http.Header, envelope) {
	return ts.request(t, http.MethodPost, path, payload, token)
}

func (ts *testServer) put(t *testing.T, path string, payload any, token *string) (int, http.Header, envelope) {
	return ts.request(t, http.MethodPut, path, payload, token)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.request(t, http.MethodDelete, path, nil, token)
}

// createTestUser registers, activates, and logs in an account, promoting it
// directly in the database when a non-default role is asked for. It returns
// the access token.
func createTestUser(t *testing.T, ts *testServer, db *sql.DB, username string, role userservice.Role) string {
	payload := map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "Password1!",
	}

	status, _, body := ts.post(t, "/v1/users/register", payload, nil)
	if status != http.StatusCreated {
		t.Fatalf("register %s: got status %d", username, status)
	}

	activationToken, ok := body["token"].(string)
	if !ok {
		t.Fatalf("register %s: no activation token in response", username)
	}

	status, _, _ = ts.put(t, "/v1/users/activate", map[string]any{"token": activationToken}, nil)
	if status != http.StatusOK {
		t.Fatalf("activate %s: got status %d", username, status)
	}

	if role != userservice.RoleUser {
		_, err := db.Exec("UPDATE users SET role = $1 WHERE username = $2", string(role), username)
		if err != nil {
			t.Fatal(err)
		}
	}

	status, _, body = ts.post(t, "/v1/users/login", map[string]any{"username": username, "password": "Password1!"}, nil)
	if status != http.StatusOK {
		t.Fatalf("login %s: got status %d", username, status)
	}

	auth, ok := body["token"].(map[string]any)
	if !ok {
		t.Fatalf("login %s: no auth token in response", username)
	}

	return auth["access_token"].(string)
}
