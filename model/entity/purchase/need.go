package purchase

import (
	"time"

	"gorm.io/datatypes"
)

// Need statuses
const (
	StatusPending     = "pending"
	StatusInQuotation = "in_quotation"
	StatusOrdered     = "ordered"
	StatusFulfilled   = "fulfilled"
)

// Priorities
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// Need is a computed purchase shortage raised when reservable stock cannot
// cover a budget line. At most one open need exists per (org, part code);
// new shortages merge into the open row instead of duplicating it.
type Need struct {
	NeedID            uint           `gorm:"column:need_id;primaryKey;autoIncrement" json:"need_id"`
	OrgID             uint           `gorm:"column:org_id;not null;index:idx_need_org_code" json:"org_id"`
	PartID            uint           `gorm:"column:part_id;not null" json:"part_id"`
	PartCode          string         `gorm:"column:part_code;type:varchar(64);not null;index:idx_need_org_code" json:"part_code"`
	RequiredQuantity  int64          `gorm:"column:required_quantity;not null" json:"required_quantity"`
	AvailableQuantity int64          `gorm:"column:available_quantity;not null" json:"available_quantity"`
	ShortageQuantity  int64          `gorm:"column:shortage_quantity;not null" json:"shortage_quantity"`
	Priority          string         `gorm:"column:priority;type:varchar(16);not null;default:'normal'" json:"priority"`
	Status            string         `gorm:"column:status;type:varchar(16);not null;default:'pending';index" json:"status"`
	RelatedOrders     datatypes.JSON `gorm:"column:related_orders" json:"related_orders"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (Need) TableName() string {
	return "purchase_need"
}

// Open reports whether the need is still actionable by purchasing.
func (n *Need) Open() bool {
	return n.Status == StatusPending || n.Status == StatusInQuotation
}
