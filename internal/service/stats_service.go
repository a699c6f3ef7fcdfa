package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adminpanel/internal/audit"
	"adminpanel/internal/cache"
	"adminpanel/internal/model"
	"adminpanel/internal/repository"
)

const statsCacheKey = "stats:overview"
const statsCacheTTL = 60 * time.Second

// Overview aggregates the numbers shown on the admin dashboard.
type Overview struct {
	TotalUsers          int64            `json:"total_users"`
	UsersByRole         map[string]int64 `json:"users_by_role"`
	ActiveSessions      int64            `json:"active_sessions"`
	SignupsLast7Days    int64            `json:"signups_last_7_days"`
	LoginsLast24h       int64            `json:"logins_last_24h"`
	FailedLoginsLast24h int64            `json:"failed_logins_last_24h"`
	GeneratedAt         time.Time        `json:"generated_at"`
}

// StatsService computes dashboard statistics.
type StatsService interface {
	Overview(ctx context.Context) (*Overview, error)
}

type statsService struct {
	users repository.UserRepository
	logs  repository.ActivityLogRepository
	cache *cache.Client
}

// NewStatsService builds a StatsService over the user and activity-log stores.
func NewStatsService(users repository.UserRepository, logs repository.ActivityLogRepository, cacheClient *cache.Client) StatsService {
	return &statsService{users: users, logs: logs, cache: cacheClient}
}

// Overview returns aggregated statistics, served from cache for up to a
// minute to keep dashboard refreshes off the database.
func (s *statsService) Overview(ctx context.Context) (*Overview, error) {
	if data, _ := s.cache.Get(ctx, statsCacheKey); data != nil {
		var cached Overview
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	now := time.Now()
	overview := &Overview{
		UsersByRole: make(map[string]int64, 3),
		GeneratedAt: now,
	}

	var err error
	if overview.TotalUsers, err = s.users.CountAll(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	for _, role := range []string{model.RoleUser, model.RoleManager, model.RoleAdmin} {
		count, err := s.users.CountByRole(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("count role %s: %w", role, err)
		}
		overview.UsersByRole[role] = count
	}
	if overview.ActiveSessions, err = s.users.CountWithSession(ctx); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if overview.SignupsLast7Days, err = s.users.CountCreatedSince(ctx, now.AddDate(0, 0, -7)); err != nil {
		return nil, fmt.Errorf("count signups: %w", err)
	}
	if overview.LoginsLast24h, err = s.logs.CountByActionSince(ctx, audit.ActionLogin, now.Add(-24*time.Hour)); err != nil {
		return nil, fmt.Errorf("count logins: %w", err)
	}
	if overview.FailedLoginsLast24h, err = s.logs.CountByActionSince(ctx, audit.ActionLoginFailed, now.Add(-24*time.Hour)); err != nil {
		return nil, fmt.Errorf("count failed logins: %w", err)
	}

	if payload, err := json.Marshal(overview); err == nil {
		_ = s.cache.Set(ctx, statsCacheKey, payload, statsCacheTTL)
	}
	return overview, nil
}
