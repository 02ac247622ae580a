package count

import (
	"time"

	"github.com/shopspring/decimal"
)

// Count statuses
const (
	StatusDraft      = "draft"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Count types
const (
	TypeFull    = "full"
	TypePartial = "partial"
	TypeCyclic  = "cyclic"
)

// InventoryCount is a physical count session. Expected quantities are
// snapshotted from parts at creation time, so counting happens against an
// explicit point-in-time baseline rather than a moving target.
type InventoryCount struct {
	CountID     uint       `gorm:"column:count_id;primaryKey;autoIncrement" json:"count_id"`
	OrgID       uint       `gorm:"column:org_id;not null;index" json:"org_id"`
	Type        string     `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Status      string     `gorm:"column:status;type:varchar(16);not null;default:'draft'" json:"status"`
	CreatedBy   uint       `gorm:"column:created_by;not null" json:"created_by"`
	ProcessedBy *uint      `gorm:"column:processed_by" json:"processed_by,omitempty"`
	ProcessedAt *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []Item `gorm:"foreignKey:CountID;references:CountID" json:"items,omitempty"`
}

func (InventoryCount) TableName() string {
	return "inventory_count"
}

// Terminal reports whether the count (and its items) are frozen.
func (c *InventoryCount) Terminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusCancelled
}

// Item is one part line on a count. Difference = counted - expected; nil
// CountedQuantity means the line was not counted.
type Item struct {
	ItemID           uint            `gorm:"column:item_id;primaryKey;autoIncrement" json:"item_id"`
	CountID          uint            `gorm:"column:count_id;not null;index" json:"count_id"`
	PartID           uint            `gorm:"column:part_id;not null" json:"part_id"`
	PartCode         string          `gorm:"column:part_code;type:varchar(64);not null" json:"part_code"`
	ExpectedQuantity int64           `gorm:"column:expected_quantity;not null" json:"expected_quantity"`
	CountedQuantity  *int64          `gorm:"column:counted_quantity" json:"counted_quantity,omitempty"`
	Difference       int64           `gorm:"column:difference;not null;default:0" json:"difference"`
	UnitCost         decimal.Decimal `gorm:"column:unit_cost;type:decimal(12,4);not null;default:0" json:"unit_cost"`
	CountedBy        *uint           `gorm:"column:counted_by" json:"counted_by,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (Item) TableName() string {
	return "inventory_count_item"
}
