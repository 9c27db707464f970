package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/eventdesk/pkg/auth"
)

const secret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.NewAccessToken("u1", "ann@example.com", auth.RoleManager, secret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	claims, err := auth.NewAuthenticator(secret).Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "ann@example.com" || claims.Role != auth.RoleManager {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	expired, _ := auth.NewAccessToken("u1", "a@b.co", auth.RoleRegular, secret, -time.Minute)
	otherKey, _ := auth.NewAccessToken("u1", "a@b.co", auth.RoleRegular, "other", time.Hour)

	a := auth.NewAuthenticator(secret)
	for name, token := range map[string]string{
		"empty":     "",
		"garbage":   "not-a-jwt",
		"expired":   expired,
		"wrong key": otherKey,
	} {
		if _, err := a.Authenticate(token); !errors.Is(err, auth.ErrUnauthorized) {
			t.Fatalf("%s: err = %v, want ErrUnauthorized", name, err)
		}
	}
}

func TestAuthorize(t *testing.T) {
	manager := &auth.Claims{UserID: "m1", Role: auth.RoleManager}
	regular := &auth.Claims{UserID: "r1", Role: auth.RoleRegular}

	tests := []struct {
		name    string
		actor   *auth.Claims
		action  auth.Action
		owner   string
		wantErr error
	}{
		{"anonymous", nil, auth.ActionEventCreate, "", auth.ErrUnauthorized},
		{"manager creates event", manager, auth.ActionEventCreate, "", nil},
		{"regular creates event", regular, auth.ActionEventCreate, "", auth.ErrForbidden},
		{"regular reads roster", regular, auth.ActionRegistrationRoster, "", auth.ErrForbidden},
		{"regular manages users", regular, auth.ActionUserManage, "", auth.ErrForbidden},
		{"regular reads own registration", regular, auth.ActionRegistrationRead, "r1", nil},
		{"regular reads other registration", regular, auth.ActionRegistrationRead, "r2", auth.ErrForbidden},
		{"manager reads other registration", manager, auth.ActionRegistrationRead, "r2", nil},
		{"regular cancels own", regular, auth.ActionRegistrationCancel, "r1", nil},
		{"regular edits own profile", regular, auth.ActionProfileUpdate, "r1", nil},
		{"regular with empty owner", regular, auth.ActionRegistrationUpdate, "", auth.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.Authorize(tt.actor, tt.action, tt.owner)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHasRole(t *testing.T) {
	regular := &auth.Claims{UserID: "r1", Role: auth.RoleRegular}
	manager := &auth.Claims{UserID: "m1", Role: auth.RoleManager}

	if !auth.HasRole(regular, auth.RoleRegular) || !auth.HasRole(manager, auth.RoleRegular) {
		t.Fatal("REGULAR should be satisfied by any authenticated user")
	}
	if auth.HasRole(regular, auth.RoleManager) {
		t.Fatal("regular user satisfied MANAGER")
	}
	if auth.HasRole(nil, auth.RoleRegular) {
		t.Fatal("nil claims satisfied REGULAR")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !auth.CheckPassword("s3cret-pass", hash) {
		t.Fatal("bcrypt hash did not verify")
	}
	if auth.CheckPassword("wrong", hash) {
		t.Fatal("wrong password verified")
	}

	legacy, err := argon2id.CreateHash("old-pass", argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("argon2id: %v", err)
	}
	if !auth.CheckPassword("old-pass", legacy) {
		t.Fatal("argon2id hash did not verify")
	}
	if auth.CheckPassword("anything", "") {
		t.Fatal("empty hash verified")
	}
}

func TestMiddleware(t *testing.T) {
	a := auth.NewAuthenticator(secret)
	managerToken, _ := auth.NewAccessToken("m1", "m@x.io", auth.RoleManager, secret, time.Hour)
	regularToken, _ := auth.NewAccessToken("r1", "r@x.io", auth.RoleRegular, secret, time.Hour)

	r := chi.NewRouter()
	r.With(a.OptionalAuth).Get("/open", func(w http.ResponseWriter, r *http.Request) {
		if c := auth.FromContext(r.Context()); c != nil {
			w.Write([]byte(c.UserID))
			return
		}
		w.Write([]byte("anon"))
	})
	r.With(a.RequireAuth, auth.Require(auth.ActionUserManage)).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	do := func(path, token string) (int, string) {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		defer resp.Body.Close()
		buf := make([]byte, 64)
		n, _ := resp.Body.Read(buf)
		return resp.StatusCode, string(buf[:n])
	}

	if _, body := do("/open", ""); body != "anon" {
		t.Fatalf("open without token = %q", body)
	}
	if _, body := do("/open", "junk"); body != "anon" {
		t.Fatalf("open with junk token = %q", body)
	}
	if _, body := do("/open", regularToken); body != "r1" {
		t.Fatalf("open with token = %q", body)
	}
	if code, _ := do("/admin", ""); code != http.StatusUnauthorized {
		t.Fatalf("admin without token = %d", code)
	}
	if code, _ := do("/admin", regularToken); code != http.StatusForbidden {
		t.Fatalf("admin as regular = %d", code)
	}
	if code, _ := do("/admin", managerToken); code != http.StatusNoContent {
		t.Fatalf("admin as manager = %d", code)
	}
}
