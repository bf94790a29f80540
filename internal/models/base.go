package models

import (
	"time"

	"finboard/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all documents.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// DocumentID returns the record's identifier.
func (b *Base) DocumentID() string { return b.ID }

// Owned namespaces a document to the user who created it. Every query
// against an owned document must filter on UserID.
type Owned struct {
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
}

// Owner returns the owning user's identifier.
func (o *Owned) Owner() string { return o.UserID }

// SetOwner stamps the owning user's identifier.
func (o *Owned) SetOwner(id string) { o.UserID = id }
