package models

import "time"

// UsageRecordModel is one append-only usage audit row. Rows are inserted,
// never updated; old rows are purged by the retention job.
type UsageRecordModel struct {
	ID            uint      `gorm:"primarykey"`
	ServiceID     uint      `gorm:"not null;index:idx_usage_service_time,priority:1"`
	NodeID        uint      `gorm:"not null;index:idx_usage_node"`
	UploadBytes   uint64    `gorm:"not null;default:0"`
	DownloadBytes uint64    `gorm:"not null;default:0"`
	ClientIP      string    `gorm:"size:45"`
	RecordedAt    time.Time `gorm:"not null;index:idx_usage_service_time,priority:2"`
}

// TableName specifies the table name for GORM.
func (UsageRecordModel) TableName() string {
	return "usage_records"
}
