package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClientState is a per-device snapshot of the UI (draft input, active
// session, speech toggle) so another device can pick up where one left off.
type ClientState struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceTag       string         `gorm:"size:50;uniqueIndex" json:"device_tag"`
	ActiveSessionID *uuid.UUID     `gorm:"type:uuid" json:"active_session_id"`
	Snapshot        datatypes.JSON `gorm:"not null;default:'{}'" json:"snapshot"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (cs *ClientState) BeforeCreate(tx *gorm.DB) error {
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	return nil
}
