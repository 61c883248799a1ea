package models

import (
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	StatusPending   ReportStatus = "pending"
	StatusConfirmed ReportStatus = "confirmed"
	StatusFailed    ReportStatus = "failed"
)

// ReportStatuses lists every accepted status, in display order.
var ReportStatuses = []ReportStatus{StatusPending, StatusConfirmed, StatusFailed}

func (s ReportStatus) Valid() bool {
	for _, v := range ReportStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Report is the off-chain mirror of an incident report whose content key
// was written to the ledger in transaction TxID.
type Report struct {
	ID             uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Message        string       `gorm:"type:text;not null" json:"message"`
	TxID           string       `gorm:"column:tx_id;size:128;not null;uniqueIndex:idx_reports_tx_id" json:"txId"`
	Timestamp      int64        `gorm:"not null;index:idx_reports_timestamp" json:"timestamp"`
	IsAnonymous    bool         `gorm:"not null;default:false" json:"isAnonymous"`
	PoliceRef      *string      `gorm:"size:100" json:"policeRef"`
	IPFSCid        *string      `gorm:"column:ipfs_cid;size:100" json:"ipfsCid"`
	IncidentDate   *time.Time   `json:"incidentDate"`
	Status         ReportStatus `gorm:"size:20;not null;default:'confirmed';index:idx_reports_status" json:"status"`
	AccountAddress *string      `gorm:"size:100" json:"accountAddress"`
	CreatedAt      time.Time    `gorm:"index:idx_reports_created_at" json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}
