package domain_test

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/diagnosis/eventdesk/services/auth/internal/domain"
)

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := domain.GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil || len(code) != 6 || n < 100000 || n > 999999 {
			t.Fatalf("code = %q", code)
		}
		seen[code] = true
	}
	if len(seen) < 190 {
		t.Fatalf("only %d distinct codes out of 200", len(seen))
	}
}

func TestVerificationCodeIsValidAt(t *testing.T) {
	issued := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	c := domain.VerificationCode{ExpiresAt: issued.Add(domain.CodeExpiration)}

	if !c.IsValidAt(issued.Add(14 * time.Minute)) {
		t.Fatal("14-minute-old code rejected")
	}
	if c.IsValidAt(issued.Add(16 * time.Minute)) {
		t.Fatal("16-minute-old code accepted")
	}
	c.Attempts = domain.MaxVerificationAttempts
	if c.IsValidAt(issued) {
		t.Fatal("code past its attempt limit accepted")
	}
	c.Attempts = 0
	c.Used = true
	if c.IsValidAt(issued) {
		t.Fatal("used code accepted")
	}
}

func TestHashCode(t *testing.T) {
	hash, err := domain.HashCode("123456")
	if err != nil {
		t.Fatalf("HashCode: %v", err)
	}
	c := domain.VerificationCode{CodeHash: hash}
	if hash == "123456" || !c.Matches("123456") || c.Matches("654321") {
		t.Fatalf("hash = %q", hash)
	}
}

func TestUpdateUserRequestApply(t *testing.T) {
	u := &domain.User{ID: "u1", Email: "old@example.com", Role: "MANAGER", IsActive: true}
	role := " regular "
	req := domain.UpdateUserRequest{FirstName: "A", LastName: "B", Email: " New@Example.com ", Role: &role}
	req.Normalize()
	if err := req.Validate(context.Background()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	req.Apply(u)

	if u.Email != "new@example.com" || u.Role != "REGULAR" || !u.IsActive || u.FirstName != "A" {
		t.Fatalf("applied = %+v", u)
	}
}

func TestSendCodeRequestValidate(t *testing.T) {
	req := domain.SendCodeRequest{Email: "nobody"}
	req.Normalize()
	var ve *domain.ValidationError
	if err := req.Validate(context.Background()); !errors.As(err, &ve) || ve.Fields["email"] == "" {
		t.Fatalf("err = %v", err)
	}
}

func TestUserJSONOmitsHash(t *testing.T) {
	hash := "secret-hash"
	u := &domain.User{ID: "u1", Email: "a@b.co", PasswordHash: &hash, Role: "REGULAR"}
	for name, v := range map[string]any{"user": u, "info": u.ToUserInfo()} {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if strings.Contains(string(raw), hash) {
			t.Fatalf("%s JSON leaks the password hash: %s", name, raw)
		}
	}
}
