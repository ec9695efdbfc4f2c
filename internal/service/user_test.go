package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Payphone-Digital/locatory/internal/dto"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/pkg/geo"
)

func newTestUserService(locator Locator) (*UserService, *userStore) {
	store := newUserStore()
	jwtService := NewJWTService("test-secret", time.Hour)
	return NewUserService(store, jwtService, locator, 24*time.Hour), store
}

func register(t *testing.T, svc *UserService, email string) *dto.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Rahim", Email: email, Password: "secret1", Address: "Dhaka 1212", Preference: []string{"food"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return resp
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestUserService(&fakeLocator{loc: dhaka})

	resp := register(t, svc, "Rahim@Example.com ")
	if resp.Token == "" || resp.RefreshToken == "" {
		t.Fatal("tokens missing")
	}
	if resp.User.Email != "rahim@example.com" || resp.User.Role != "user" {
		t.Errorf("user = %+v", resp.User)
	}
	if resp.User.Location == nil || resp.User.Location.City != "Dhaka" {
		t.Errorf("location not geocoded: %+v", resp.User.Location)
	}
	if stored := store.users[resp.User.ID]; stored.Password == "secret1" {
		t.Error("password stored in clear text")
	}

	if _, err := svc.Register(ctx, &dto.RegisterRequest{Name: "x", Email: "rahim@example.com", Password: "secret1"}); !errors.Is(err, apperrors.ErrEmailExists) {
		t.Errorf("duplicate email: err = %v", err)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "rahim@example.com", Password: "wrong"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "x"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v", err)
	}

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "rahim@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.Authenticate(ctx, login.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Role != "user" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestUserService_RegisterSurvivesGeocoderFailure(t *testing.T) {
	svc, _ := newTestUserService(&fakeLocator{err: geo.ErrUpstream})
	resp := register(t, svc, "a@example.com")
	if resp.User.Location != nil {
		t.Errorf("expected no location, got %+v", resp.User.Location)
	}
}

func TestUserService_LogoutInvalidatesTokens(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUserService(nil)
	resp := register(t, svc, "a@example.com")

	if err := svc.Logout(ctx, resp.User.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, resp.Token); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("token after logout: err = %v", err)
	}
	if _, err := svc.RefreshToken(ctx, resp.RefreshToken); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Errorf("refresh after logout: err = %v", err)
	}
}

func TestUserService_RefreshRotates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUserService(nil)
	resp := register(t, svc, "a@example.com")

	refreshed, err := svc.RefreshToken(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == resp.RefreshToken {
		t.Error("refresh token not rotated")
	}
	if _, err := svc.RefreshToken(ctx, resp.RefreshToken); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Errorf("reusing old refresh token: err = %v", err)
	}

	for _, bad := range []string{"", "garbage", "0.abc", "999.abc"} {
		if _, err := svc.RefreshToken(ctx, bad); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
			t.Errorf("RefreshToken(%q) err = %v", bad, err)
		}
	}
}

func TestUserService_RefreshExpired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUserService(nil)
	resp := register(t, svc, "a@example.com")

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if _, err := svc.RefreshToken(ctx, resp.RefreshToken); !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Errorf("err = %v, want TOKEN_EXPIRED", err)
	}
}

func TestUserService_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUserService(nil)
	resp := register(t, svc, "a@example.com")

	if _, err := svc.UpdatePassword(ctx, resp.User.ID, &dto.UpdatePasswordRequest{CurrentPassword: "nope", NewPassword: "newpass"}); !errors.Is(err, apperrors.ErrIncorrectPassword) {
		t.Errorf("wrong current password: err = %v", err)
	}

	updated, err := svc.UpdatePassword(ctx, resp.User.ID, &dto.UpdatePasswordRequest{CurrentPassword: "secret1", NewPassword: "newpass"})
	if err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, resp.Token); err == nil {
		t.Error("old token still valid after password change")
	}
	if _, err := svc.Authenticate(ctx, updated.Token); err != nil {
		t.Errorf("new token rejected: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "a@example.com", Password: "newpass"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestUserService_ForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestUserService(nil)
	resp := register(t, svc, "a@example.com")

	if _, err := svc.ForgotPassword(ctx, "nobody@example.com"); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("unknown email: err = %v", err)
	}

	issued, err := svc.ForgotPassword(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if stored := store.users[resp.User.ID].ResetPasswordToken; stored == "" || stored == issued.ResetToken {
		t.Errorf("reset token must be stored hashed, got %q", stored)
	}

	if _, err := svc.ResetPassword(ctx, "wrong-token", &dto.ResetPasswordRequest{Password: "reset1"}); !errors.Is(err, apperrors.ErrInvalidResetToken) {
		t.Errorf("wrong token: err = %v", err)
	}
	if _, err := svc.ResetPassword(ctx, issued.ResetToken, &dto.ResetPasswordRequest{Password: "reset1"}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := svc.ResetPassword(ctx, issued.ResetToken, &dto.ResetPasswordRequest{Password: "again1"}); !errors.Is(err, apperrors.ErrInvalidResetToken) {
		t.Errorf("token reuse: err = %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "a@example.com", Password: "reset1"}); err != nil {
		t.Errorf("login after reset: %v", err)
	}
}

func TestUserService_ResetTokenExpires(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUserService(nil)
	register(t, svc, "a@example.com")

	issued, _ := svc.ForgotPassword(ctx, "a@example.com")
	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	if _, err := svc.ResetPassword(ctx, issued.ResetToken, &dto.ResetPasswordRequest{Password: "reset1"}); !errors.Is(err, apperrors.ErrInvalidResetToken) {
		t.Errorf("expired token: err = %v", err)
	}
}

func TestUserService_UpdateDetails(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUserService(&fakeLocator{loc: dhaka})
	a := register(t, svc, "a@example.com")
	register(t, svc, "b@example.com")

	if _, err := svc.UpdateDetails(ctx, a.User.ID, &dto.UpdateDetailsRequest{Email: "b@example.com"}); !errors.Is(err, apperrors.ErrEmailExists) {
		t.Errorf("taken email: err = %v", err)
	}

	got, err := svc.UpdateDetails(ctx, a.User.ID, &dto.UpdateDetailsRequest{Name: "New Name", Preference: []string{"park", "museum"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "New Name" || len(got.PreferredCategory) != 2 {
		t.Errorf("user = %+v", got)
	}
}
