package main

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mycogenesis/contenthub/internal/userservice"
)

func TestRegisterUserHandler(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	testCases := []struct {
		name       string
		payload    any
		setup      func(db *sql.DB) error
		wantStatus int
		wantErrors map[string]string
	}{
		{
			name: "valid request",
			payload: map[string]any{
				"username": "testuser",
				"email":    "testuser@example.com",
				"password": "Password1!",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "invalid email",
			payload: map[string]any{
				"username": "testuser",
				"email":    "not-an-email",
				"password": "Password1!",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: map[string]string{"email": "must be a valid email address"},
		},
		{
			name: "weak password",
			payload: map[string]any{
				"username": "testuser",
				"email":    "testuser@example.com",
				"password": "password",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: map[string]string{"password": "must be between 8 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one symbol"},
		},
		{
			name:       "empty payload",
			payload:    map[string]any{},
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: map[string]string{
				"username": "must be provided",
				"email":    "must be provided",
				"password": "must be provided",
			},
		},
		{
			name: "duplicate username",
			payload: map[string]any{
				"username": "testuser",
				"email":    "other@example.com",
				"password": "Password1!",
			},
			setup: func(db *sql.DB) error {
				hash := make([]byte, 16)
				if _, err := rand.Read(hash); err != nil {
					return err
				}

				_, err := db.Exec("INSERT INTO users (username, email, password) VALUES ($1, $2, $3)", "testuser", "testuser@example.com", hash)
				return err
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: map[string]string{"username": "this username is already taken"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setup != nil {
				assert.NoError(t, tc.setup(db))
			}

			status, _, body := ts.post(t, "/v1/users/register", tc.payload, nil)
			assert.Equal(t, tc.wantStatus, status)

			if tc.wantStatus == http.StatusCreated {
				token, ok := body["token"].(string)
				assert.True(t, ok)
				assert.Len(t, token, 26)
			}

			if tc.wantErrors != nil {
				errs, ok := body["error"].(map[string]any)
				assert.True(t, ok)
				for field, msg := range tc.wantErrors {
					assert.Equal(t, msg, errs[field])
				}
			}

			t.Cleanup(func() {
				_, err := db.Exec("DELETE FROM users")
				assert.NoError(t, err)
			})
		})
	}
}

func TestUpdateUserPasswordHandler(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	token := createTestUser(t, ts, db, "alice", userservice.RoleUser)

	t.Run("requires authentication", func(t *testing.T) {
		status, _, _ := ts.put(t, "/v1/users/password", map[string]any{"current_password": "Password1!", "new_password": "NewPassword1!"}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("wrong current password", func(t *testing.T) {
		status, _, _ := ts.put(t, "/v1/users/password", map[string]any{"current_password": "Wrong1!pass", "new_password": "NewPassword1!"}, &token)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("weak replacement", func(t *testing.T) {
		status, _, body := ts.put(t, "/v1/users/password", map[string]any{"current_password": "Password1!", "new_password": "weak"}, &token)
		assert.Equal(t, http.StatusUnprocessableEntity, status)

		errs, ok := body["error"].(map[string]any)
		assert.True(t, ok)
		assert.Contains(t, errs, "password")
	})

	t.Run("successful change", func(t *testing.T) {
		status, _, _ := ts.put(t, "/v1/users/password", map[string]any{"current_password": "Password1!", "new_password": "NewPassword1!"}, &token)
		assert.Equal(t, http.StatusOK, status)

		// the old password no longer logs in
		status, _, _ = ts.post(t, "/v1/users/login", map[string]any{"username": "alice", "password": "Password1!"}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _, _ = ts.post(t, "/v1/users/login", map[string]any{"username": "alice", "password": "NewPassword1!"}, nil)
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestUserAdminHandlers(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	userToken := createTestUser(t, ts, db, "bob", userservice.RoleUser)
	adminToken := createTestUser(t, ts, db, "adminuser", userservice.RoleAdmin)

	t.Run("plain users cannot read accounts", func(t *testing.T) {
		status, _, _ := ts.get(t, "/v1/users/id/1", &userToken)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("admins can read accounts", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/users/id/1", &adminToken)
		assert.Equal(t, http.StatusOK, status)

		user, ok := body["user"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "bob", user["username"])
	})

	t.Run("unknown account", func(t *testing.T) {
		status, _, _ := ts.get(t, "/v1/users/id/999", &adminToken)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("role change", func(t *testing.T) {
		status, _, _ := ts.put(t, "/v1/users/id/1/role", map[string]any{"role": "editor"}, &adminToken)
		assert.Equal(t, http.StatusOK, status)

		status, _, body := ts.get(t, "/v1/users/id/1", &adminToken)
		assert.Equal(t, http.StatusOK, status)
		user := body["user"].(map[string]any)
		assert.Equal(t, "editor", user["role"])
	})

	t.Run("invalid role", func(t *testing.T) {
		status, _, _ := ts.put(t, "/v1/users/id/1/role", map[string]any{"role": "superuser"}, &adminToken)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("deactivated accounts cannot log in", func(t *testing.T) {
		status, _, _ := ts.put(t, "/v1/users/id/1/deactivate", nil, &adminToken)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = ts.post(t, "/v1/users/login", map[string]any{"username": "bob", "password": "Password1!"}, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestPostHandlers(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	editorToken := createTestUser(t, ts, db, "editoruser", userservice.RoleEditor)
	viewerToken := createTestUser(t, ts, db, "vieweruser", userservice.RoleUser)
	adminToken := createTestUser(t, ts, db, "adminuser", userservice.RoleAdmin)

	payload := map[string]any{
		"title":   "Launch Day",
		"slug":    "launch-day",
		"content": "<p>We are live.</p>",
	}

	t.Run("anonymous writers are rejected", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/posts", payload, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("plain users cannot write", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/posts", payload, &viewerToken)
		assert.Equal(t, http.StatusForbidden, status)
	})

	var id int

	t.Run("editors can create", func(t *testing.T) {
		status, _, body := ts.post(t, "/v1/posts", payload, &editorToken)
		assert.Equal(t, http.StatusCreated, status)

		rawID, ok := body["id"].(float64)
		assert.True(t, ok)
		id = int(rawID)
	})

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/posts", payload, &editorToken)
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("public reads", func(t *testing.T) {
		status, _, body := ts.get(t, fmt.Sprintf("/v1/posts/id/%d", id), nil)
		assert.Equal(t, http.StatusOK, status)
		post := body["post"].(map[string]any)
		assert.Equal(t, "draft", post["status"])

		status, _, body = ts.get(t, "/v1/posts/slug/launch-day", nil)
		assert.Equal(t, http.StatusOK, status)
		post = body["post"].(map[string]any)
		assert.Equal(t, "Launch Day", post["title"])

		status, _, body = ts.get(t, "/v1/posts", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Len(t, body["posts"], 1)
	})

	t.Run("view counting is fire and forget", func(t *testing.T) {
		status, _, _ := ts.post(t, fmt.Sprintf("/v1/posts/id/%d/views", id), nil, nil)
		assert.Equal(t, http.StatusAccepted, status)
	})

	t.Run("publish", func(t *testing.T) {
		status, _, body := ts.put(t, fmt.Sprintf("/v1/posts/id/%d/publish", id), nil, &editorToken)
		assert.Equal(t, http.StatusOK, status)

		post := body["post"].(map[string]any)
		assert.Equal(t, "published", post["status"])
	})

	t.Run("statistics need the analytics permission", func(t *testing.T) {
		status, _, _ := ts.get(t, "/v1/posts/statistics", &viewerToken)
		assert.Equal(t, http.StatusForbidden, status)

		status, _, body := ts.get(t, "/v1/posts/statistics", &editorToken)
		assert.Equal(t, http.StatusOK, status)
		assert.NotNil(t, body["statistics"])
	})

	t.Run("only admins delete", func(t *testing.T) {
		status, _, _ := ts.delete(t, fmt.Sprintf("/v1/posts/id/%d", id), &editorToken)
		assert.Equal(t, http.StatusForbidden, status)

		status, _, _ = ts.delete(t, fmt.Sprintf("/v1/posts/id/%d", id), &adminToken)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = ts.get(t, fmt.Sprintf("/v1/posts/id/%d", id), nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestCategoryHandlers(t *testing.T) {
	app, db := newTestApplication(t)

	ts := newTestServer(t, app.routes())

	adminToken := createTestUser(t, ts, db, "adminuser", userservice.RoleAdmin)
	viewerToken := createTestUser(t, ts, db, "vieweruser", userservice.RoleUser)

	payload := map[string]any{
		"name":        "Engineering",
		"description": "Posts from the engineering team",
		"kind":        "blog",
	}

	t.Run("plain users cannot manage categories", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/categories", payload, &viewerToken)
		assert.Equal(t, http.StatusForbidden, status)
	})

	var id int

	t.Run("create", func(t *testing.T) {
		status, _, body := ts.post(t, "/v1/categories", payload, &adminToken)
		assert.Equal(t, http.StatusCreated, status)

		rawID, ok := body["id"].(float64)
		assert.True(t, ok)
		id = int(rawID)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/categories", payload, &adminToken)
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("list", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/categories?kind=blog", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Len(t, body["categories"], 1)
	})

	t.Run("update and delete", func(t *testing.T) {
		updated := map[string]any{
			"name":        "Platform",
			"description": "Posts from the platform team",
			"kind":        "blog",
		}

		status, _, _ := ts.put(t, fmt.Sprintf("/v1/categories/%d", id), updated, &adminToken)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = ts.delete(t, fmt.Sprintf("/v1/categories/%d", id), &adminToken)
		assert.Equal(t, http.StatusOK, status)

		status, _, body := ts.get(t, "/v1/categories?kind=blog", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Len(t, body["categories"], 0)
	})
}
