package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"adminpanel/internal/audit"
	"adminpanel/internal/auth"
	"adminpanel/internal/cache"
	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/model"
	"adminpanel/internal/repository"
)

const adminStatusCacheKey = "admin_setup:status"
const adminStatusCacheTTL = 60 * time.Second

// RequestMeta carries caller information recorded with audit events.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AdminSetupStatus describes whether first-admin provisioning is still open.
type AdminSetupStatus struct {
	AdminExists   bool  `json:"adminExists"`
	AdminCount    int64 `json:"adminCount"`
	SetupRequired bool  `json:"setupRequired"`
}

// AuthService orchestrates signup, login, token refresh, logout and
// first-admin setup. Each user row holds at most one refresh token; issuing a
// new one unconditionally supersedes the previous session for that account.
type AuthService interface {
	Signup(ctx context.Context, name, email, password string, meta RequestMeta) (*model.User, error)
	Login(ctx context.Context, email, password string, meta RequestMeta) (accessToken, refreshToken string, user *model.User, err error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string, meta RequestMeta) error
	SetupAdmin(ctx context.Context, name, email, password string, meta RequestMeta) (accessToken, refreshToken string, user *model.User, err error)
	SetupStatus(ctx context.Context) (*AdminSetupStatus, error)
}

type authService struct {
	users    repository.UserRepository
	tokens   *auth.TokenService
	hasher   *auth.PasswordHasher
	recorder audit.Recorder
	cache    *cache.Client
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	hasher *auth.PasswordHasher,
	recorder audit.Recorder,
	cacheClient *cache.Client,
) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		recorder: recorder,
		cache:    cacheClient,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a new account with role "user" and returns its public
// profile. No tokens are issued; the caller logs in separately.
func (s *authService) Signup(ctx context.Context, name, email, password string, meta RequestMeta) (*model.User, error) {
	email = normalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check email existence: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:   &user.ID,
		Action:    audit.ActionSignup,
		Details:   map[string]interface{}{"email": email},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return user, nil
}

// Login verifies credentials and issues a fresh token pair. The stored
// refresh token is overwritten unconditionally, so any prior session for the
// account is invalidated. Unknown email and wrong password produce the same
// error.
func (s *authService) Login(ctx context.Context, email, password string, meta RequestMeta) (string, string, *model.User, error) {
	email = normalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.recordLoginFailure(ctx, email, meta)
		return "", "", nil, apperrors.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordLoginFailure(ctx, email, meta)
		return "", "", nil, apperrors.ErrInvalidCredentials
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshToken = &refreshToken

	s.recorder.Record(ctx, audit.Event{
		ActorID:   &user.ID,
		Action:    audit.ActionLogin,
		Details:   map[string]interface{}{"email": email, "outcome": "success"},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return accessToken, refreshToken, user, nil
}

func (s *authService) recordLoginFailure(ctx context.Context, email string, meta RequestMeta) {
	s.recorder.Record(ctx, audit.Event{
		Action:    audit.ActionLoginFailed,
		Details:   map[string]interface{}{"email": email, "outcome": "failure"},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
}

// Refresh exchanges a live refresh token for a new access token. The stored
// token is matched first, then verified cryptographically; a token that
// matches the store but fails verification is cleared so it can never be
// retried. The refresh token itself is not rotated.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.users.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", apperrors.ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}

	if _, err := s.tokens.VerifyRefreshToken(refreshToken); err != nil {
		// defensive revocation: the stored token can never verify again
		_ = s.users.UpdateRefreshToken(ctx, user.ID, nil)
		return "", apperrors.ErrExpiredRefreshToken
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID: &user.ID,
		Action:  audit.ActionRefresh,
	})
	return accessToken, nil
}

// Logout clears the stored refresh token, ending the session. Already-issued
// access tokens are rejected from the next request on by the session gate.
func (s *authService) Logout(ctx context.Context, refreshToken string, meta RequestMeta) error {
	user, err := s.users.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrInvalidRefreshToken
		}
		return fmt.Errorf("lookup refresh token: %w", err)
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:   &user.ID,
		Action:    audit.ActionLogout,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return nil
}

// SetupAdmin provisions the first administrator and logs it in immediately.
// It is refused as soon as any admin account exists.
func (s *authService) SetupAdmin(ctx context.Context, name, email, password string, meta RequestMeta) (string, string, *model.User, error) {
	adminCount, err := s.users.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return "", "", nil, fmt.Errorf("count admins: %w", err)
	}
	if adminCount > 0 {
		return "", "", nil, apperrors.ErrAdminExists
	}

	email = normalizeEmail(email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return "", "", nil, apperrors.ErrDuplicateEmail
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return "", "", nil, fmt.Errorf("check email existence: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return "", "", nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", "", nil, fmt.Errorf("create admin: %w", err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return "", "", nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return "", "", nil, fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshToken = &refreshToken

	_ = s.cache.Delete(ctx, adminStatusCacheKey)

	s.recorder.Record(ctx, audit.Event{
		ActorID:   &user.ID,
		Action:    audit.ActionAdminSetup,
		Details:   map[string]interface{}{"email": email},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return accessToken, refreshToken, user, nil
}

// SetupStatus reports whether an admin exists yet. The answer is cached
// briefly since the endpoint is public and polled by setup UIs.
func (s *authService) SetupStatus(ctx context.Context) (*AdminSetupStatus, error) {
	if data, _ := s.cache.Get(ctx, adminStatusCacheKey); data != nil {
		var cached AdminSetupStatus
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	adminCount, err := s.users.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}
	status := &AdminSetupStatus{
		AdminExists:   adminCount > 0,
		AdminCount:    adminCount,
		SetupRequired: adminCount == 0,
	}

	if payload, err := json.Marshal(status); err == nil {
		_ = s.cache.Set(ctx, adminStatusCacheKey, payload, adminStatusCacheTTL)
	}
	return status, nil
}
