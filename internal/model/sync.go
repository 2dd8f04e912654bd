package model

import "time"

type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

// SyncLog is one append-only row per reconciler run. The watermark is the newest success row
// carrying a stamp.
type SyncLog struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	LastProcessedStamp *string    `json:"last_processed_stamp" gorm:"type:varchar(14)"` // YYYYMMDDHHmmss
	SyncedAt           time.Time  `json:"synced_at" gorm:"not null;index"`
	RecordsSynced      int        `json:"records_synced"`
	Status             SyncStatus `json:"status" gorm:"type:varchar(10);not null"`
	ErrorMessage       *string    `json:"error_message"`
}

// SyncLease is an advisory lock row guarding one batch job.
type SyncLease struct {
	Name      string    `json:"name" gorm:"primaryKey;type:varchar(64)"`
	Holder    string    `json:"holder" gorm:"type:varchar(64)"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Gate is a door reader of the access-control system.
type Gate struct {
	ID   int    `json:"id" gorm:"column:id"`
	Name string `json:"name" gorm:"column:name"`
	IP   string `json:"ip" gorm:"column:ip"`
}

// ExternalAccessRecord is a raw row of the access-control system. Read only.
type ExternalAccessRecord struct {
	DateStamp      string `json:"e_date" gorm:"column:e_date"` // YYYYMMDD
	TimeStamp      string `json:"e_time" gorm:"column:e_time"` // HHmmss
	GateID         int    `json:"g_id" gorm:"column:g_id"`
	ExternalUserID int    `json:"e_id" gorm:"column:e_id"`
	IDNo           string `json:"e_idno" gorm:"column:e_idno"`
	Name           string `json:"e_name" gorm:"column:e_name"`
}

// Stamp is the sortable date+time key of the record.
func (r ExternalAccessRecord) Stamp() string {
	return r.DateStamp + r.TimeStamp
}
