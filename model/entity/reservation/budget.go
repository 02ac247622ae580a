package reservation

import "time"

// Budget statuses
const (
	BudgetDraft    = "draft"
	BudgetApproved = "approved"
	BudgetReserved = "reserved"
)

// Budget is an approved service-order budget whose item lines drive
// reservations. Approval itself happens outside the core; only approved
// budgets are reservable.
type Budget struct {
	BudgetID  uint      `gorm:"column:budget_id;primaryKey;autoIncrement" json:"budget_id"`
	OrgID     uint      `gorm:"column:org_id;not null;index" json:"org_id"`
	OrderID   *uint     `gorm:"column:order_id" json:"order_id,omitempty"`
	Status    string    `gorm:"column:status;type:varchar(16);not null;default:'draft'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []BudgetItem `gorm:"foreignKey:BudgetID;references:BudgetID" json:"items,omitempty"`
}

func (Budget) TableName() string {
	return "budget"
}

// BudgetItem is one required part/quantity line on a budget.
type BudgetItem struct {
	BudgetItemID uint  `gorm:"column:budget_item_id;primaryKey;autoIncrement" json:"budget_item_id"`
	BudgetID     uint  `gorm:"column:budget_id;not null;index" json:"budget_id"`
	PartID       uint  `gorm:"column:part_id;not null" json:"part_id"`
	Quantity     int64 `gorm:"column:quantity;not null" json:"quantity"`
}

func (BudgetItem) TableName() string {
	return "budget_item"
}
