package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diagnosis/eventdesk/pkg/auth"
	"github.com/diagnosis/eventdesk/services/auth/internal/domain"
)

func claimsOf(u *domain.User) *auth.Claims {
	return &auth.Claims{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func TestDeleteLastManager(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	boss := f.seedUser(t, "boss@example.com", auth.RoleManager, nil)
	regular := f.seedUser(t, "reg@example.com", auth.RoleRegular, nil)
	actor := claimsOf(boss)

	if err := f.dir.DeleteUser(ctx, boss.ID, actor); !errors.Is(err, domain.ErrLastManager) {
		t.Fatalf("deleting only manager: err = %v, want ErrLastManager", err)
	}
	if err := f.dir.DeleteUser(ctx, regular.ID, actor); err != nil {
		t.Fatalf("deleting regular user: %v", err)
	}

	second := f.seedUser(t, "second@example.com", auth.RoleManager, nil)
	if err := f.dir.DeleteUser(ctx, boss.ID, claimsOf(second)); err != nil {
		t.Fatalf("deleting one of two managers: %v", err)
	}
	if err := f.dir.DeleteUser(ctx, second.ID, claimsOf(second)); !errors.Is(err, domain.ErrLastManager) {
		t.Fatalf("deleting remaining manager: err = %v, want ErrLastManager", err)
	}
}

func TestDeleteManagerCountsInactiveManagers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active := f.seedUser(t, "active@example.com", auth.RoleManager, nil)
	dormant := f.seedUser(t, "dormant@example.com", auth.RoleManager, nil)
	off := false
	role := auth.RoleManager
	if _, err := f.dir.UpdateUser(ctx, dormant.ID, &domain.UpdateUserRequest{
		FirstName: "Dormant", LastName: "Manager", Email: dormant.Email, Role: &role, IsActive: &off,
	}, claimsOf(active)); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if err := f.dir.DeleteUser(ctx, active.ID, claimsOf(active)); err != nil {
		t.Fatalf("delete with an inactive manager left: %v", err)
	}
}

func TestDeleteUserErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.seedUser(t, "boss@example.com", auth.RoleManager, nil)
	regular := f.seedUser(t, "reg@example.com", auth.RoleRegular, nil)

	if err := f.dir.DeleteUser(ctx, "missing", claimsOf(boss)); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("missing user: err = %v", err)
	}
	if err := f.dir.DeleteUser(ctx, boss.ID, claimsOf(regular)); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("regular actor: err = %v", err)
	}
	if err := f.dir.DeleteUser(ctx, boss.ID, nil); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("anonymous actor: err = %v", err)
	}
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := claimsOf(f.seedUser(t, "boss@example.com", auth.RoleManager, nil))

	u, err := f.dir.CreateUser(ctx, &domain.CreateUserRequest{
		FirstName: " Ada ", LastName: "Lovelace", Email: "Ada@Example.com", Password: "analytical", Role: "regular",
	}, boss)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "ada@example.com" || u.FirstName != "Ada" || u.Role != auth.RoleRegular || !u.IsActive {
		t.Fatalf("created = %+v", u)
	}
	if u.PasswordHash == nil || !auth.CheckPassword("analytical", *u.PasswordHash) {
		t.Fatal("password hash does not verify")
	}

	_, err = f.dir.CreateUser(ctx, &domain.CreateUserRequest{
		FirstName: "Ada", LastName: "Again", Email: "ADA@example.com", Password: "x", Role: auth.RoleRegular,
	}, boss)
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("duplicate email: err = %v, want ErrEmailTaken", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)
	boss := claimsOf(f.seedUser(t, "boss@example.com", auth.RoleManager, nil))

	valid := domain.CreateUserRequest{FirstName: "A", LastName: "B", Email: "a@b.co", Password: "pw", Role: auth.RoleManager}
	tests := []struct {
		name  string
		edit  func(r *domain.CreateUserRequest)
		field string
	}{
		{"bad email", func(r *domain.CreateUserRequest) { r.Email = "a@b" }, "email"},
		{"bad role", func(r *domain.CreateUserRequest) { r.Role = "ADMIN" }, "role"},
		{"missing first name", func(r *domain.CreateUserRequest) { r.FirstName = "  " }, "firstName"},
		{"missing password", func(r *domain.CreateUserRequest) { r.Password = "" }, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.edit(&req)
			_, err := f.dir.CreateUser(context.Background(), &req, boss)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Fatalf("fields = %v, want %s", ve.Fields, tt.field)
			}
		})
	}
}

func TestUpdateUserKeepsOmittedRoleAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.seedUser(t, "boss@example.com", auth.RoleManager, nil)
	target := f.seedUser(t, "t@example.com", auth.RoleManager, nil)

	u, err := f.dir.UpdateUser(ctx, target.ID, &domain.UpdateUserRequest{
		FirstName: "New", LastName: "Name", Email: "renamed@example.com",
	}, claimsOf(boss))
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if u.Role != auth.RoleManager || !u.IsActive || u.Email != "renamed@example.com" || u.FirstName != "New" {
		t.Fatalf("updated = %+v", u)
	}

	if _, err := f.dir.UpdateUser(ctx, target.ID, &domain.UpdateUserRequest{
		FirstName: "New", LastName: "Name", Email: "boss@example.com",
	}, claimsOf(boss)); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("email clash: err = %v", err)
	}
	if _, err := f.dir.UpdateUser(ctx, "missing", &domain.UpdateUserRequest{
		FirstName: "X", LastName: "Y", Email: "x@y.co",
	}, claimsOf(boss)); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("missing user: err = %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boss := f.seedUser(t, "boss@example.com", auth.RoleManager, nil)
	alice := f.seedUser(t, "alice@example.com", auth.RoleRegular, nil)
	bob := f.seedUser(t, "bob@example.com", auth.RoleRegular, nil)

	u, err := f.dir.UpdateProfile(ctx, &domain.ProfileRequest{
		FirstName: "Alice", LastName: "Liddell", Email: "alice@example.com",
	}, claimsOf(alice))
	if err != nil {
		t.Fatalf("own profile: %v", err)
	}
	if u.ID != alice.ID || u.LastName != "Liddell" || u.Role != auth.RoleRegular {
		t.Fatalf("updated = %+v", u)
	}

	if _, err := f.dir.UpdateProfile(ctx, &domain.ProfileRequest{
		UserID: bob.ID, FirstName: "B", LastName: "B", Email: "bob@example.com",
	}, claimsOf(alice)); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("editing someone else: err = %v, want ErrForbidden", err)
	}

	if _, err := f.dir.UpdateProfile(ctx, &domain.ProfileRequest{
		UserID: bob.ID, FirstName: "Robert", LastName: "B", Email: "bob@example.com",
	}, claimsOf(boss)); err != nil {
		t.Fatalf("manager editing profile: %v", err)
	}

	if _, err := f.dir.UpdateProfile(ctx, &domain.ProfileRequest{
		FirstName: "Alice", LastName: "L", Email: "bob@example.com",
	}, claimsOf(alice)); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("email clash: err = %v", err)
	}
}

func TestListUsersNewestFirst(t *testing.T) {
	f := newFixture(t)
	boss := f.seedUser(t, "boss@example.com", auth.RoleManager, nil)
	f.seedUser(t, "later@example.com", auth.RoleRegular, nil)

	users, err := f.dir.ListUsers(context.Background(), claimsOf(boss))
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[0].Email != "later@example.com" {
		t.Fatalf("users = %+v", users)
	}

	if _, err := f.dir.ListUsers(context.Background(), &auth.Claims{UserID: "x", Role: auth.RoleRegular}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("regular list: err = %v", err)
	}
}
