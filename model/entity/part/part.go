package part

import (
	"time"

	"github.com/shopspring/decimal"
)

// Part holds the current on-hand quantity and unit cost for one part in one
// org. Quantity is only ever written through the movement repository's
// compare-and-swap update; it is the single source of truth for availability.
type Part struct {
	PartID            uint            `gorm:"column:part_id;primaryKey;autoIncrement" json:"part_id"`
	OrgID             uint            `gorm:"column:org_id;not null;uniqueIndex:idx_part_org_code" json:"org_id"`
	Code              string          `gorm:"column:code;type:varchar(64);not null;uniqueIndex:idx_part_org_code" json:"code"`
	Name              string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Quantity          int64           `gorm:"column:quantity;not null;default:0" json:"quantity"`
	UnitCost          decimal.Decimal `gorm:"column:unit_cost;type:decimal(12,4);not null;default:0" json:"unit_cost"`
	LowStockThreshold int64           `gorm:"column:low_stock_threshold;not null;default:0" json:"low_stock_threshold"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (Part) TableName() string {
	return "part"
}
