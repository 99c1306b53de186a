// services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"endotrack/models"
	"endotrack/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthErrorKind classifies auth failures for the API.
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthEmailInUse         AuthErrorKind = "email_in_use"
	AuthDisabled           AuthErrorKind = "disabled"
	AuthInvalidToken       AuthErrorKind = "invalid_token"
)

// AuthError is returned for every rejected auth request.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Kind, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// AuthErrorKindOf returns the kind of the AuthError in err's chain.
func AuthErrorKindOf(err error) (AuthErrorKind, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind, true
	}
	return "", false
}

const minPasswordLength = 8

type AuthService struct {
	DB     *gorm.DB
	Cache  store.Cache
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewAuthService(db *gorm.DB, cache store.Cache, secret string, ttl time.Duration) *AuthService {
	return &AuthService{DB: db, Cache: cache, Secret: []byte(secret), TTL: ttl, Now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func revokedKey(jti string) string {
	return "revoked_" + jti
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &AuthError{Kind: AuthInvalidCredentials, Message: "invalid email"}
	}
	if len(password) < minPasswordLength {
		return nil, &AuthError{Kind: AuthInvalidCredentials, Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if count > 0 {
		return nil, &AuthError{Kind: AuthEmailInUse, Message: "email already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	log.Printf("✅ [AUTH] Registered user %s", user.ID)
	return user, nil
}

// Login checks credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, &AuthError{Kind: AuthInvalidCredentials, Message: "wrong email or password"}
		}
		return "", nil, fmt.Errorf("loading user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, &AuthError{Kind: AuthInvalidCredentials, Message: "wrong email or password"}
	}
	if user.Disabled {
		return "", nil, &AuthError{Kind: AuthDisabled, Message: "account disabled"}
	}

	now := s.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
	}).SignedString(s.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}

	if err := s.DB.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		log.Printf("⚠️ [AUTH] Could not record login of %s: %v", user.ID, err)
	}
	return token, &user, nil
}

func (s *AuthService) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil {
		return nil, &AuthError{Kind: AuthInvalidToken, Message: err.Error()}
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, &AuthError{Kind: AuthInvalidToken, Message: "token is missing claims"}
	}
	return claims, nil
}

// Logout revokes the session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if err := s.Cache.Set(ctx, revokedKey(claims.ID), "1"); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// CurrentUser resolves a session token to its account.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if _, err := s.Cache.Get(ctx, revokedKey(claims.ID)); err == nil {
		return nil, &AuthError{Kind: AuthInvalidToken, Message: "session revoked"}
	} else if !errors.Is(err, store.ErrCacheMiss) {
		return nil, fmt.Errorf("checking session: %w", err)
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", claims.Subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &AuthError{Kind: AuthInvalidToken, Message: "unknown user"}
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user.Disabled {
		return nil, &AuthError{Kind: AuthDisabled, Message: "account disabled"}
	}
	return &user, nil
}
