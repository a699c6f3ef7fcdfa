// Package audit records activity-log events for every auth and admin
// operation. Recording is best-effort: failures are logged locally and never
// propagate to the request that produced the event.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"adminpanel/internal/model"
)

// QueueName is the broker queue audit events are published to.
const QueueName = "audit.events"

// Actions recorded by the auth subsystem.
const (
	ActionSignup       = "auth.signup"
	ActionLogin        = "auth.login"
	ActionLoginFailed  = "auth.login_failed"
	ActionLogout       = "auth.logout"
	ActionRefresh      = "auth.refresh"
	ActionAdminSetup   = "auth.admin_setup"
	ActionUserCreated  = "users.created"
	ActionUserUpdated  = "users.updated"
	ActionRoleChanged  = "users.role_changed"
	ActionUserDeleted  = "users.deleted"
	ActionLogsCleanup  = "logs.cleanup"
	ActionLogsExported = "logs.exported"
)

// Event is one audit occurrence. ActorID is nil for anonymous callers
// (failed logins, signup attempts).
type Event struct {
	ActorID    *uuid.UUID             `json:"actor_id,omitempty"`
	Action     string                 `json:"action"`
	Details    map[string]interface{} `json:"details,omitempty"`
	IP         string                 `json:"ip,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// ToModel converts the event into a persistable activity-log row.
func (e Event) ToModel() *model.ActivityLog {
	details := ""
	if len(e.Details) > 0 {
		if payload, err := json.Marshal(e.Details); err == nil {
			details = string(payload)
		}
	}
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return &model.ActivityLog{
		ActorID:   e.ActorID,
		Action:    e.Action,
		Details:   details,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		CreatedAt: occurred,
	}
}
