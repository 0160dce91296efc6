package models

import (
	"time"

	"gorm.io/gorm"
)

// NodeGroupModel is the row backing one node group.
type NodeGroupModel struct {
	ID          uint    `gorm:"primarykey"`
	Name        string  `gorm:"uniqueIndex;not null;size:100"`
	Ratio       float64 `gorm:"not null;default:1"`
	DeviceLimit uint    `gorm:"not null;default:0"`
	Status      string  `gorm:"not null;default:enabled;size:20"`
	SortOrder   int     `gorm:"not null;default:0"`
	Version     int     `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM.
func (NodeGroupModel) TableName() string {
	return "node_groups"
}

// BeforeCreate hook for GORM.
func (m *NodeGroupModel) BeforeCreate(tx *gorm.DB) error {
	if m.Status == "" {
		m.Status = "enabled"
	}
	if m.Ratio == 0 {
		m.Ratio = 1
	}
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}
