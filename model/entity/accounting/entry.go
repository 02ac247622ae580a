package accounting

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry statuses
const (
	StatusDraft    = "draft"
	StatusPosted   = "posted"
	StatusReversed = "reversed"
)

// Entry is an accounting projection row derived from one approved stock
// movement (unique per movement). Derived, not identical: it carries the
// valued amount, and its own posted/reversed lifecycle for the books.
type Entry struct {
	EntryID    uint            `gorm:"column:entry_id;primaryKey;autoIncrement" json:"entry_id"`
	OrgID      uint            `gorm:"column:org_id;not null;index" json:"org_id"`
	MovementID uint            `gorm:"column:movement_id;not null;uniqueIndex" json:"movement_id"`
	PartID     uint            `gorm:"column:part_id;not null" json:"part_id"`
	Type       string          `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Quantity   int64           `gorm:"column:quantity;not null" json:"quantity"`
	Amount     decimal.Decimal `gorm:"column:amount;type:decimal(14,4);not null" json:"amount"`
	Status     string          `gorm:"column:status;type:varchar(16);not null;default:'draft';index" json:"status"`
	PostedBy   *uint           `gorm:"column:posted_by" json:"posted_by,omitempty"`
	PostedAt   *time.Time      `gorm:"column:posted_at" json:"posted_at,omitempty"`
	ReversedBy *uint           `gorm:"column:reversed_by" json:"reversed_by,omitempty"`
	ReversedAt *time.Time      `gorm:"column:reversed_at" json:"reversed_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (Entry) TableName() string {
	return "stock_accounting_entry"
}
