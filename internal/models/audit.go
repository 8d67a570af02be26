package models

import "time"

// Audit carries the creation/modification stamps shared by every managed
// entity. Actor ids are nullable: unauthenticated mutations (seeding,
// migrations) leave them nil.
type Audit struct {
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	CreatedByID  *int64     `gorm:"index" json:"created_by_id,omitempty"`
	ModifiedAt   *time.Time `json:"modified_at,omitempty"`
	ModifiedByID *int64     `json:"modified_by_id,omitempty"`
}

// StampCreated records the creating actor and time. CreatedAt is only set
// once; repeated calls keep the original timestamp.
func (a *Audit) StampCreated(actorID *int64, at time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = at.UTC()
	}
	a.CreatedByID = actorID
}

// StampModified records the modifying actor and time. The timestamp never
// moves backwards relative to an earlier stamp.
func (a *Audit) StampModified(actorID *int64, at time.Time) {
	at = at.UTC()
	if a.ModifiedAt != nil && at.Before(*a.ModifiedAt) {
		at = *a.ModifiedAt
	}
	a.ModifiedAt = &at
	a.ModifiedByID = actorID
}
