package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog represents one audit entry. Entries are written for every auth
// operation regardless of outcome and are best-effort: a failed write never
// fails the request that produced it.
type ActivityLog struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty" gorm:"type:char(36);index"`
	Action    string     `json:"action" gorm:"size:100;not null;index"`
	Details   string     `json:"details,omitempty" gorm:"type:text"` // JSON-encoded map
	IP        string     `json:"ip,omitempty" gorm:"size:64"`
	UserAgent string     `json:"user_agent,omitempty" gorm:"size:255"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
