package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"adminpanel/internal/audit"
	"adminpanel/internal/auth"
	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/model"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByRefreshToken(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountWithSession(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

// recorderStub collects audit events so tests can assert on them without a
// broker or database.
type recorderStub struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recorderStub) Record(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorderStub) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.events))
	for _, event := range r.events {
		actions = append(actions, event.Action)
	}
	return actions
}

func newTestTokenService() *auth.TokenService {
	return auth.NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func newTestAuthService(repo *MockUserRepository, recorder *recorderStub) AuthService {
	return NewAuthService(repo, newTestTokenService(), auth.NewPasswordHasher(auth.DefaultBcryptCost), recorder, nil)
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:  "successful signup",
			email: "ana@x.com",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "ana@x.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:  "duplicate email",
			email: "taken@x.com",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "taken@x.com").Return(&model.User{Email: "taken@x.com"}, nil)
			},
			expectedError: apperrors.ErrDuplicateEmail,
		},
		{
			name:  "email is case-normalized",
			email: "Ana@X.com",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "ana@x.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)
			recorder := &recorderStub{}

			svc := newTestAuthService(mockRepo, recorder)
			user, err := svc.Signup(context.Background(), "Ana", tt.email, "Passw0rd!", RequestMeta{IP: "10.0.0.1"})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, model.RoleUser, user.Role)
				assert.Equal(t, "ana@x.com", user.Email)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, "Passw0rd!", user.PasswordHash)
				assert.Contains(t, recorder.actions(), audit.ActionSignup)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hasher := auth.NewPasswordHasher(auth.DefaultBcryptCost)
	hashed, _ := hasher.Hash("Passw0rd!")
	userID := uuid.New()

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login overwrites stored refresh token",
			email:    "ana@x.com",
			password: "Passw0rd!",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "ana@x.com").Return(&model.User{
					ID:           userID,
					Email:        "ana@x.com",
					PasswordHash: hashed,
					Role:         model.RoleUser,
				}, nil)
				// a fresh token is stored unconditionally: last write wins,
				// any prior session for the account is superseded
				m.On("UpdateRefreshToken", mock.Anything, userID, mock.AnythingOfType("*string")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:     "wrong password",
			email:    "ana@x.com",
			password: "wrong",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "ana@x.com").Return(&model.User{
					ID:           userID,
					Email:        "ana@x.com",
					PasswordHash: hashed,
					Role:         model.RoleUser,
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "ghost@x.com",
			password: "Passw0rd!",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "ghost@x.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)
			recorder := &recorderStub{}

			svc := newTestAuthService(mockRepo, recorder)
			accessToken, refreshToken, user, err := svc.Login(context.Background(), tt.email, tt.password, RequestMeta{IP: "10.0.0.1"})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, accessToken)
				assert.Empty(t, refreshToken)
				assert.Nil(t, user)
				assert.Contains(t, recorder.actions(), audit.ActionLoginFailed)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
				assert.NotNil(t, user)
				assert.Contains(t, recorder.actions(), audit.ActionLogin)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// Wrong-password and unknown-email failures must be indistinguishable to the
// caller so the endpoint cannot be used to enumerate accounts.
func TestAuthService_Login_NoEnumerationLeak(t *testing.T) {
	hasher := auth.NewPasswordHasher(auth.DefaultBcryptCost)
	hashed, _ := hasher.Hash("Passw0rd!")

	repoKnown := new(MockUserRepository)
	repoKnown.On("FindByEmail", mock.Anything, "ana@x.com").Return(&model.User{
		ID:           uuid.New(),
		Email:        "ana@x.com",
		PasswordHash: hashed,
	}, nil)

	repoUnknown := new(MockUserRepository)
	repoUnknown.On("FindByEmail", mock.Anything, "ghost@x.com").Return(nil, gorm.ErrRecordNotFound)

	_, _, _, errKnown := newTestAuthService(repoKnown, &recorderStub{}).Login(context.Background(), "ana@x.com", "wrong", RequestMeta{})
	_, _, _, errUnknown := newTestAuthService(repoUnknown, &recorderStub{}).Login(context.Background(), "ghost@x.com", "wrong", RequestMeta{})

	assert.Equal(t, errKnown, errUnknown)
}

func TestAuthService_Refresh(t *testing.T) {
	tokens := newTestTokenService()
	userID := uuid.New()
	validRefresh, _ := tokens.GenerateRefreshToken(userID)

	// signed with a different secret: matches nothing cryptographically even
	// if the store happens to hold it
	foreignTokens := auth.NewTokenService("access-secret", "other-refresh-secret", time.Minute, time.Hour)
	tamperedRefresh, _ := foreignTokens.GenerateRefreshToken(userID)

	t.Run("valid token yields new access token without rotation", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByRefreshToken", mock.Anything, validRefresh).Return(&model.User{
			ID:           userID,
			Role:         model.RoleUser,
			RefreshToken: &validRefresh,
		}, nil)

		svc := NewAuthService(mockRepo, tokens, auth.NewPasswordHasher(auth.DefaultBcryptCost), &recorderStub{}, nil)
		accessToken, err := svc.Refresh(context.Background(), validRefresh)

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		// no UpdateRefreshToken expectation: the refresh token must not rotate
		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown token fails the store-membership check", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByRefreshToken", mock.Anything, validRefresh).Return(nil, gorm.ErrRecordNotFound)

		svc := NewAuthService(mockRepo, tokens, auth.NewPasswordHasher(auth.DefaultBcryptCost), &recorderStub{}, nil)
		accessToken, err := svc.Refresh(context.Background(), validRefresh)

		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
		assert.Empty(t, accessToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("stored but unverifiable token is cleared defensively", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByRefreshToken", mock.Anything, tamperedRefresh).Return(&model.User{
			ID:           userID,
			Role:         model.RoleUser,
			RefreshToken: &tamperedRefresh,
		}, nil)
		mockRepo.On("UpdateRefreshToken", mock.Anything, userID, (*string)(nil)).Return(nil)

		svc := NewAuthService(mockRepo, tokens, auth.NewPasswordHasher(auth.DefaultBcryptCost), &recorderStub{}, nil)
		accessToken, err := svc.Refresh(context.Background(), tamperedRefresh)

		assert.ErrorIs(t, err, apperrors.ErrExpiredRefreshToken)
		assert.Empty(t, accessToken)
		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_Logout(t *testing.T) {
	tokens := newTestTokenService()
	userID := uuid.New()
	refresh, _ := tokens.GenerateRefreshToken(userID)

	t.Run("clears the stored token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByRefreshToken", mock.Anything, refresh).Return(&model.User{
			ID:           userID,
			RefreshToken: &refresh,
		}, nil)
		mockRepo.On("UpdateRefreshToken", mock.Anything, userID, (*string)(nil)).Return(nil)

		recorder := &recorderStub{}
		svc := NewAuthService(mockRepo, tokens, auth.NewPasswordHasher(auth.DefaultBcryptCost), recorder, nil)
		err := svc.Logout(context.Background(), refresh, RequestMeta{})

		assert.NoError(t, err)
		assert.Contains(t, recorder.actions(), audit.ActionLogout)
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByRefreshToken", mock.Anything, refresh).Return(nil, gorm.ErrRecordNotFound)

		svc := NewAuthService(mockRepo, tokens, auth.NewPasswordHasher(auth.DefaultBcryptCost), &recorderStub{}, nil)
		err := svc.Logout(context.Background(), refresh, RequestMeta{})

		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_SetupAdmin(t *testing.T) {
	t.Run("first admin is created and logged in", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("CountByRole", mock.Anything, model.RoleAdmin).Return(int64(0), nil)
		mockRepo.On("FindByEmail", mock.Anything, "root@x.com").Return(nil, gorm.ErrRecordNotFound)
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
		mockRepo.On("UpdateRefreshToken", mock.Anything, mock.Anything, mock.AnythingOfType("*string")).Return(nil)

		recorder := &recorderStub{}
		svc := newTestAuthService(mockRepo, recorder)
		accessToken, refreshToken, user, err := svc.SetupAdmin(context.Background(), "Root", "root@x.com", "Passw0rd!", RequestMeta{})

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		assert.NotNil(t, user)
		assert.Equal(t, model.RoleAdmin, user.Role)
		assert.Contains(t, recorder.actions(), audit.ActionAdminSetup)
		mockRepo.AssertExpectations(t)
	})

	t.Run("refused once any admin exists", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("CountByRole", mock.Anything, model.RoleAdmin).Return(int64(1), nil)

		svc := newTestAuthService(mockRepo, &recorderStub{})
		_, _, user, err := svc.SetupAdmin(context.Background(), "Root", "root2@x.com", "Passw0rd!", RequestMeta{})

		assert.ErrorIs(t, err, apperrors.ErrAdminExists)
		assert.Nil(t, user)
		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_SetupStatus(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("CountByRole", mock.Anything, model.RoleAdmin).Return(int64(2), nil)

	svc := newTestAuthService(mockRepo, &recorderStub{})
	status, err := svc.SetupStatus(context.Background())

	assert.NoError(t, err)
	assert.True(t, status.AdminExists)
	assert.Equal(t, int64(2), status.AdminCount)
	assert.False(t, status.SetupRequired)
	mockRepo.AssertExpectations(t)
}
