package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zainmobiles/backend/internal/domain"
	"zainmobiles/backend/internal/service"
	"zainmobiles/backend/internal/store/memory"
)

const testSecret = "unit-test-secret-key-0123456789abcdef"

func newTestAPI(t *testing.T) (*API, *memory.Store) {
	t.Helper()
	repo := memory.New()
	svc := service.New(repo, nil, nil, 5, 8, time.Second)
	auth := NewAuthManager(testSecret, time.Hour, repo)
	return New(svc, auth, "http://localhost:3000"), repo
}

// seedAdmin inserts an admin account with a plain-text password; the login
// path upgrades it to bcrypt on first use.
func seedAdmin(t *testing.T, repo *memory.Store, email string, password string) {
	t.Helper()
	err := repo.CreateUser(context.Background(), domain.UserAccount{
		Name:     "Test Admin",
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
		Active:   true,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
}

func doJSON(handler http.Handler, method string, path string, body string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got message %q", env.Message)
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode data: %v (data %s)", err, string(env.Data))
		}
	}
}

func loginToken(t *testing.T, handler http.Handler, email string, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := doJSON(handler, http.MethodPost, "/api/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	decodeData(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("login response missing token")
	}
	return resp.Token
}

func TestSignupLoginMeFlow(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(handler, http.MethodPost, "/api/auth/signup",
		`{"name":"Asha","email":"asha@example.com","password":"hunter22"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	var signup domain.LoginResponse
	decodeData(t, rec, &signup)
	if signup.User.Role != domain.RoleCustomer {
		t.Fatalf("signup role = %q, want customer", signup.User.Role)
	}

	rec = doJSON(handler, http.MethodGet, "/api/auth/me", "", signup.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	var me domain.AuthUser
	decodeData(t, rec, &me)
	if me.Email != "asha@example.com" || me.Role != domain.RoleCustomer {
		t.Fatalf("me = %+v", me)
	}

	token := loginToken(t, handler, "asha@example.com", "hunter22")
	if token == "" {
		t.Fatal("expected login token")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	api, repo := newTestAPI(t)
	seedAdmin(t, repo, "admin@example.com", "correct-horse")
	handler := api.Handler()

	rec := doJSON(handler, http.MethodPost, "/api/auth/login",
		`{"email":"admin@example.com","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(handler, http.MethodPost, "/api/auth/signup",
		`{"name":"X","email":"x@example.com","password":"short"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password status = %d, want 400", rec.Code)
	}

	ok := doJSON(handler, http.MethodPost, "/api/auth/signup",
		`{"name":"X","email":"dup@example.com","password":"longenough"}`, "")
	if ok.Code != http.StatusCreated {
		t.Fatalf("first signup status = %d", ok.Code)
	}
	dup := doJSON(handler, http.MethodPost, "/api/auth/signup",
		`{"name":"Y","email":"dup@example.com","password":"longenough"}`, "")
	if dup.Code != http.StatusBadRequest {
		t.Fatalf("duplicate signup status = %d, want 400", dup.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	// httptest requests share a RemoteAddr, so they count against one key.
	var last int
	for i := 0; i < 11; i++ {
		rec := doJSON(handler, http.MethodPost, "/api/auth/login",
			`{"email":"nobody@example.com","password":"nope"}`, "")
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("11th attempt status = %d, want 429", last)
	}
}

func TestLegacyPasswordUpgradedOnLogin(t *testing.T) {
	api, repo := newTestAPI(t)
	seedAdmin(t, repo, "legacy@example.com", "plain-text-pw")
	handler := api.Handler()

	loginToken(t, handler, "legacy@example.com", "plain-text-pw")

	user, err := repo.GetUserByEmail(context.Background(), "legacy@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !isPasswordHash(user.Password) {
		t.Fatalf("password not upgraded to bcrypt: %q", user.Password)
	}

	// The upgraded hash still authenticates.
	loginToken(t, handler, "legacy@example.com", "plain-text-pw")
}

func TestParseTokenRejectsTampering(t *testing.T) {
	api, _ := newTestAPI(t)
	handler := api.Handler()

	rec := doJSON(handler, http.MethodPost, "/api/auth/signup",
		`{"name":"Asha","email":"tamper@example.com","password":"hunter22"}`, "")
	var signup domain.LoginResponse
	decodeData(t, rec, &signup)

	tampered := signup.Token[:len(signup.Token)-2] + "xx"
	me := doJSON(handler, http.MethodGet, "/api/auth/me", "", tampered)
	if me.Code != http.StatusUnauthorized {
		t.Fatalf("tampered token status = %d, want 401", me.Code)
	}
}
