// Package models holds the gorm persistence models. They are the
// anti-corruption layer between domain entities and table rows.
package models

import (
	"time"

	"gorm.io/gorm"
)

// ServiceModel is the row backing one provisioned service.
//
// There is deliberately no total_bytes column: the total is always computed
// as upload_bytes + download_bytes so the two can never drift apart.
type ServiceModel struct {
	ID              uint   `gorm:"primarykey"`
	SID             string `gorm:"column:sid;uniqueIndex;not null;size:64"` // external billing service id
	UUID            string `gorm:"uniqueIndex;not null;size:36"`
	TokenHash       string `gorm:"not null;size:255"`
	UploadBytes     uint64 `gorm:"not null;default:0"`
	DownloadBytes   uint64 `gorm:"not null;default:0"`
	BandwidthLimit  uint64 `gorm:"not null;default:0"` // 0 = unlimited
	Status          string `gorm:"not null;default:pending;size:20;index:idx_services_status"`
	SuspendReason   string `gorm:"not null;default:none;size:20"`
	NodeGroupID     *uint  `gorm:"index:idx_services_group"`
	MonthlyResetDay int    `gorm:"not null;default:1"`
	ResetOptOut     bool   `gorm:"not null;default:false"`
	LastResetAt     *time.Time
	Version         int `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM.
func (ServiceModel) TableName() string {
	return "services"
}

// BeforeCreate hook for GORM.
func (m *ServiceModel) BeforeCreate(tx *gorm.DB) error {
	if m.Status == "" {
		m.Status = "pending"
	}
	if m.SuspendReason == "" {
		m.SuspendReason = "none"
	}
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}
