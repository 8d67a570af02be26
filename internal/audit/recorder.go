// Package audit appends application actions to the audit log.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"admincore/internal/apperr"
	"admincore/internal/auth"
	"admincore/internal/models"
)

// Recorder writes audit log entries. Failures are logged and swallowed: the
// audited operation has already happened and must not fail retroactively.
type Recorder struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func NewRecorder(db *gorm.DB, lg *zap.SugaredLogger) *Recorder {
	return &Recorder{db: db, lg: lg}
}

// Record appends one entry, attributing it to the request principal if any.
func (r *Recorder) Record(ctx context.Context, action, entityKind string, entityID *int64, metadata any) {
	entry := models.AuditLog{
		ActorID:    auth.ActorID(ctx),
		Action:     action,
		EntityKind: entityKind,
		EntityID:   entityID,
		CreatedAt:  time.Now().UTC(),
	}
	if metadata != nil {
		entry.Metadata = models.NewJSONB(metadata)
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		r.lg.Warnw("audit record failed", "action", action, "error", err)
	}
}

// ListForActor returns the newest entries recorded for one actor.
func (r *Recorder) ListForActor(ctx context.Context, actorID int64, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("created_at desc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, apperr.Persistence("list audit logs", err)
	}
	return logs, nil
}

// ListAll returns the newest entries across all actors.
func (r *Recorder) ListAll(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, apperr.Persistence("list audit logs", err)
	}
	return logs, nil
}
