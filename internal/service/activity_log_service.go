package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"adminpanel/internal/audit"
	"adminpanel/internal/model"
	"adminpanel/internal/repository"
)

// ActivityLogService serves the admin panel's audit-log views.
type ActivityLogService interface {
	List(ctx context.Context, filter repository.ActivityLogFilter) ([]model.ActivityLog, int64, error)
	ExportCSV(ctx context.Context, w io.Writer, filter repository.ActivityLogFilter, actor *uuid.UUID, meta RequestMeta) (int, error)
	Cleanup(ctx context.Context, olderThanDays int, actor *uuid.UUID, meta RequestMeta) (int64, error)
}

type activityLogService struct {
	logs     repository.ActivityLogRepository
	recorder audit.Recorder
}

// NewActivityLogService builds an ActivityLogService.
func NewActivityLogService(logs repository.ActivityLogRepository, recorder audit.Recorder) ActivityLogService {
	return &activityLogService{logs: logs, recorder: recorder}
}

func (s *activityLogService) List(ctx context.Context, filter repository.ActivityLogFilter) ([]model.ActivityLog, int64, error) {
	return s.logs.List(ctx, filter)
}

// ExportCSV streams matching entries as CSV and returns the number of rows
// written (excluding the header).
func (s *activityLogService) ExportCSV(ctx context.Context, w io.Writer, filter repository.ActivityLogFilter, actor *uuid.UUID, meta RequestMeta) (int, error) {
	entries, _, err := s.logs.List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "actor_id", "action", "details", "ip", "user_agent", "created_at"}); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, entry := range entries {
		actorID := ""
		if entry.ActorID != nil {
			actorID = entry.ActorID.String()
		}
		record := []string{
			entry.ID.String(),
			actorID,
			entry.Action,
			entry.Details,
			entry.IP,
			entry.UserAgent,
			entry.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:   actor,
		Action:    audit.ActionLogsExported,
		Details:   map[string]interface{}{"rows": len(entries)},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return len(entries), nil
}

// Cleanup deletes entries older than the given number of days and returns the
// number removed.
func (s *activityLogService) Cleanup(ctx context.Context, olderThanDays int, actor *uuid.UUID, meta RequestMeta) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	deleted, err := s.logs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}

	s.recorder.Record(ctx, audit.Event{
		ActorID:   actor,
		Action:    audit.ActionLogsCleanup,
		Details:   map[string]interface{}{"older_than_days": strconv.Itoa(olderThanDays), "deleted": deleted},
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	})
	return deleted, nil
}
