package handlers

import (
	"net/http"
	"testing"
)

func TestAuthRegisterLoginMe(t *testing.T) {
	env := setupTestEnv(t)

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/register",
		map[string]string{"email": "New@Test.com", "password": "password123", "displayName": "New User"}, nil)
	assertStatus(t, resp, http.StatusCreated)
	data := dataField(t, decodeJSONMap(t, resp))

	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("expected a token on registration")
	}
	user, _ := data["user"].(map[string]any)
	if user["email"] != "new@test.com" {
		t.Fatalf("email should be lowercased, got %v", user["email"])
	}
	if _, exposed := user["passwordHash"]; exposed {
		t.Fatal("password hash must never be serialized")
	}

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "new@test.com", "password": "password123"}, nil)
	assertStatus(t, resp, http.StatusOK)
	_ = resp.Body.Close()

	resp = performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	me := dataField(t, decodeJSONMap(t, resp))
	if me["email"] != "new@test.com" {
		t.Fatalf("unexpected identity %+v", me)
	}
}

func TestAuthRejectsBadCredentials(t *testing.T) {
	env := setupTestEnv(t)
	createTestUser(t, env.db, "known@test.com", "password123")

	t.Run("wrong password", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "known@test.com", "password": "wrong"}, nil)
		assertStatus(t, resp, http.StatusUnauthorized)
		_ = resp.Body.Close()
	})

	t.Run("unknown account", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "ghost@test.com", "password": "password123"}, nil)
		assertStatus(t, resp, http.StatusUnauthorized)
		_ = resp.Body.Close()
	})

	t.Run("short password on registration", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/register",
			map[string]string{"email": "short@test.com", "password": "tiny"}, nil)
		assertStatus(t, resp, http.StatusBadRequest)
		_ = resp.Body.Close()
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/register",
			map[string]string{"email": "known@test.com", "password": "password123"}, nil)
		assertStatus(t, resp, http.StatusConflict)
		_ = resp.Body.Close()
	})
}

func TestAuthRequiredOnProtectedRoutes(t *testing.T) {
	env := setupTestEnv(t)

	resp := performRequest(t, env.app, http.MethodGet, "/api/files/", nil, nil)
	assertStatus(t, resp, http.StatusUnauthorized)
	_ = resp.Body.Close()

	resp = performRequest(t, env.app, http.MethodGet, "/api/files/", nil, authHeaders("not-a-token"))
	assertStatus(t, resp, http.StatusUnauthorized)
	_ = resp.Body.Close()
}
