package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"adminpanel/internal/audit"
	"adminpanel/internal/auth"
	"adminpanel/internal/cache"
	apperrors "adminpanel/internal/errors"
	"adminpanel/internal/model"
	"adminpanel/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes user-management operations for the admin panel.
type UserService interface {
	CreateUser(ctx context.Context, name, email, password, role string, actor *uuid.UUID, meta RequestMeta) (*model.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, name, email string, actor *uuid.UUID, meta RequestMeta) (*model.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string, actor *uuid.UUID, meta RequestMeta) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID, actor *uuid.UUID, meta RequestMeta) error
}

type userService struct {
	users    repository.UserRepository
	hasher   *auth.PasswordHasher
	recorder audit.Recorder
	cache    *cache.Client
}

// NewUserService builds a UserService with repository, hasher, audit recorder and cache.
func NewUserService(users repository.UserRepository, hasher *auth.PasswordHasher, recorder audit.Recorder, cacheClient *cache.Client) UserService {
	return &userService{users: users, hasher: hasher, recorder: recorder, cache: cacheClient}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

// CreateUser provisions an account on behalf of an administrator. Unlike
// signup the role is chosen by the caller.
func (s *userService) CreateUser(ctx context.Context, name, email, password, role string, actor *uuid.UUID, meta RequestMeta) (*model.User, error) {
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
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:   actor,
		Action:    audit.ActionUserCreated,
		Details:   map[string]interface{}{"user_id": user.ID.String(), "email": email, "role": role},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// UpdateUser changes profile fields. The email stays unique and normalized.
func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, name, email string, actor *uuid.UUID, meta RequestMeta) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	if email != "" {
		email = normalizeEmail(email)
		if email != user.Email {
			existing, err := s.users.FindByEmail(ctx, email)
			if err == nil && existing != nil {
				return nil, apperrors.ErrDuplicateEmail
			}
			if err != nil && err != gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("check email existence: %w", err)
			}
			user.Email = email
		}
	}
	if name != "" {
		user.Name = name
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	s.recorder.Record(ctx, audit.Event{
		ActorID:   actor,
		Action:    audit.ActionUserUpdated,
		Details:   map[string]interface{}{"user_id": id.String()},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return user, nil
}

// UpdateRole changes the user's role. The live session, if any, is left in
// place; access tokens issued before the change keep the old role until they
// expire naturally.
func (s *userService) UpdateRole(ctx context.Context, id uuid.UUID, role string, actor *uuid.UUID, meta RequestMeta) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	previous := user.Role
	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	user.Role = role
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	s.recorder.Record(ctx, audit.Event{
		ActorID:   actor,
		Action:    audit.ActionRoleChanged,
		Details:   map[string]interface{}{"user_id": id.String(), "from": previous, "to": role},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID, actor *uuid.UUID, meta RequestMeta) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrUserNotFound
		}
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	s.recorder.Record(ctx, audit.Event{
		ActorID:   actor,
		Action:    audit.ActionUserDeleted,
		Details:   map[string]interface{}{"user_id": id.String(), "email": user.Email},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return nil
}
