package services

import (
	"context"
	"testing"
	"time"

	"endotrack/models"
	"endotrack/testutil"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	auth := NewAuthService(testutil.NewTestDB(t), testutil.NewTestStore(t), "test-secret", time.Hour)
	auth.Now = func() time.Time { return fixedNow }
	return auth
}

func wantAuthKind(t *testing.T, err error, want AuthErrorKind) {
	t.Helper()
	kind, ok := AuthErrorKindOf(err)
	if !ok || kind != want {
		t.Fatalf("err = %v, want auth error %q", err, want)
	}
}

func TestRegisterLoginSession(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	user, err := auth.Register(ctx, "  Alice@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "alice@example.com" || user.PasswordHash == "correct horse" {
		t.Errorf("user = %+v", user)
	}

	token, loggedIn, err := auth.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("logged in as %s, want %s", loggedIn.ID, user.ID)
	}

	current, err := auth.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if current.ID != user.ID || current.LastLoginAt == nil {
		t.Errorf("current = %+v", current)
	}

	if err := auth.Logout(ctx, token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	_, err = auth.CurrentUser(ctx, token)
	wantAuthKind(t, err, AuthInvalidToken)
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	if _, err := auth.Register(ctx, "bob@example.com", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := auth.Register(ctx, "BOB@example.com", "password2")
	wantAuthKind(t, err, AuthEmailInUse)

	_, err = auth.Register(ctx, "carol@example.com", "short")
	wantAuthKind(t, err, AuthInvalidCredentials)

	_, err = auth.Register(ctx, "not-an-email", "password1")
	wantAuthKind(t, err, AuthInvalidCredentials)
}

func TestLoginRejects(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	user, err := auth.Register(ctx, "dana@example.com", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, err = auth.Login(ctx, "dana@example.com", "wrong-password")
	wantAuthKind(t, err, AuthInvalidCredentials)

	_, _, err = auth.Login(ctx, "nobody@example.com", "password1")
	wantAuthKind(t, err, AuthInvalidCredentials)

	if err := auth.DB.Model(&models.User{}).Where("id = ?", user.ID).Update("disabled", true).Error; err != nil {
		t.Fatalf("disabling user: %v", err)
	}
	_, _, err = auth.Login(ctx, "dana@example.com", "password1")
	wantAuthKind(t, err, AuthDisabled)
}

func TestCurrentUserRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	if _, err := auth.Register(ctx, "erin@example.com", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, _, err := auth.Login(ctx, "erin@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = auth.CurrentUser(ctx, "garbage")
	wantAuthKind(t, err, AuthInvalidToken)

	other := NewAuthService(auth.DB, auth.Cache, "another-secret", time.Hour)
	other.Now = auth.Now
	_, err = other.CurrentUser(ctx, token)
	wantAuthKind(t, err, AuthInvalidToken)

	auth.Now = func() time.Time { return fixedNow.Add(2 * time.Hour) }
	_, err = auth.CurrentUser(ctx, token)
	wantAuthKind(t, err, AuthInvalidToken)
}
