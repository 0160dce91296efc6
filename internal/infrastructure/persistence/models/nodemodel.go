package models

import (
	"time"

	"gorm.io/gorm"
)

// NodeModel is the row backing one proxy node.
type NodeModel struct {
	ID            uint    `gorm:"primarykey"`
	Name          string  `gorm:"uniqueIndex;not null;size:100"`
	ServerAddress string  `gorm:"not null;size:255"`
	ServerPort    uint16  `gorm:"not null"`
	Protocol      string  `gorm:"not null;default:shadowsocks;size:20"`
	Method        string  `gorm:"not null;size:50"`
	GroupID       uint    `gorm:"not null;default:0;index:idx_nodes_group"`
	Status        string  `gorm:"not null;default:inactive;size:20;index:idx_nodes_status"`
	Rate          float64 `gorm:"not null;default:1"`
	SortOrder     int     `gorm:"not null;default:0"`
	Capacity      uint    `gorm:"not null;default:0"`
	CurrentLoad   uint    `gorm:"not null;default:0"`
	Version       int     `gorm:"not null;default:1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM.
func (NodeModel) TableName() string {
	return "nodes"
}

// BeforeCreate hook for GORM.
func (m *NodeModel) BeforeCreate(tx *gorm.DB) error {
	if m.Status == "" {
		m.Status = "inactive"
	}
	if m.Rate == 0 {
		m.Rate = 1
	}
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}
