package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/danielharo/rentably-backend/pkg/auth"
	"github.com/danielharo/rentably-backend/pkg/auth/session"
	"github.com/danielharo/rentably-backend/pkg/config"
	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(context.Context, uuid.UUID, time.Time) error {
	return nil
}

type stubSession struct {
	revoked   []string
	rotateErr error
}

func (s *stubSession) Generate(_ context.Context, accessID string) (string, error) {
	return "refresh-" + accessID, nil
}

func (s *stubSession) Rotate(_ context.Context, oldAccessID, _ string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return "new-" + oldAccessID, "refresh-new", nil
}

func (s *stubSession) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "rentably-test",
		ExpirationMinutes: 15,
	}
}

func seedUser(t *testing.T, repo *stubUserRepo, email, password string, role enums.UserRole, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	vendorID := uuid.New()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     "Test User",
		PasswordHash: hash,
		Role:         role,
		VendorID:     &vendorID,
		IsActive:     active,
	}
	repo.byEmail[email] = user
	return user
}

func newAuthService(t *testing.T, repo *stubUserRepo, sess *stubSession) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sess,
		JWTConfig:      jwtTestConfig(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := &stubUserRepo{byEmail: map[string]*models.User{}}
	user := seedUser(t, repo, "vendor@example.com", "Secret123!", enums.UserRoleVendor, true)
	svc := newAuthService(t, repo, &stubSession{})

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "  Vendor@Example.com ", Password: "Secret123!"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatal("expected sanitized user in response")
	}

	claims, err := pkgauth.ParseAccessToken(jwtTestConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatal("claims user mismatch")
	}
	if claims.Role != enums.UserRoleVendor {
		t.Fatalf("expected vendor role, got %s", claims.Role)
	}
	if claims.VendorID == nil || *claims.VendorID != *user.VendorID {
		t.Fatal("claims vendor mismatch")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := &stubUserRepo{byEmail: map[string]*models.User{}}
	seedUser(t, repo, "vendor@example.com", "Secret123!", enums.UserRoleVendor, true)
	seedUser(t, repo, "inactive@example.com", "Secret123!", enums.UserRoleVendor, false)
	svc := newAuthService(t, repo, &stubSession{})

	cases := []struct {
		name  string
		email string
		pass  string
	}{
		{"unknown email", "nobody@example.com", "Secret123!"},
		{"wrong password", "vendor@example.com", "wrong"},
		{"inactive account", "inactive@example.com", "Secret123!"},
		{"empty email", "", "Secret123!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), LoginRequest{Email: tc.email, Password: tc.pass})
			if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected UNAUTHORIZED, got %v", err)
			}
		})
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := &stubUserRepo{byEmail: map[string]*models.User{}}
	user := seedUser(t, repo, "vendor@example.com", "Secret123!", enums.UserRoleVendor, true)
	sess := &stubSession{}
	svc := newAuthService(t, repo, sess)

	claims := &pkgauth.AccessTokenClaims{
		UserID:   user.ID,
		VendorID: user.VendorID,
		Role:     user.Role,
	}
	claims.ID = "old-access-id"

	resp, err := svc.Refresh(context.Background(), claims, RefreshRequest{RefreshToken: "token"})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken != "refresh-new" {
		t.Fatalf("unexpected refresh response: %+v", resp)
	}

	sess.rotateErr = session.ErrInvalidRefreshToken
	_, err = svc.Refresh(context.Background(), claims, RefreshRequest{RefreshToken: "stolen"})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	repo := &stubUserRepo{byEmail: map[string]*models.User{}}
	sess := &stubSession{}
	svc := newAuthService(t, repo, sess)

	claims := &pkgauth.AccessTokenClaims{}
	claims.ID = "access-id"
	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if len(sess.revoked) != 1 || sess.revoked[0] != "access-id" {
		t.Fatalf("expected session revoked, got %v", sess.revoked)
	}

	err := svc.Logout(context.Background(), nil)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}
