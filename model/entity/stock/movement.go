package stock

import "time"

// Movement types
const (
	TypeEntry      = "entry"
	TypeExit       = "exit"
	TypeAdjustment = "adjustment"
	TypeWriteOff   = "write_off"
)

// Approval statuses
const (
	ApprovalApproved = "approved"
	ApprovalPending  = "pending"
	ApprovalRejected = "rejected"
)

// Movement is one immutable ledger row per stock quantity change. Rows are
// never updated after creation except for the approval status transition and
// its audit fields. NewQuantity = PreviousQuantity + Quantity holds against
// the part's quantity at commit time; the chain of previous/new quantities
// totally orders the ledger per part.
type Movement struct {
	MovementID       uint       `gorm:"column:movement_id;primaryKey;autoIncrement" json:"movement_id"`
	OrgID            uint       `gorm:"column:org_id;not null;index:idx_movement_org_part" json:"org_id"`
	PartID           uint       `gorm:"column:part_id;not null;index:idx_movement_org_part" json:"part_id"`
	Type             string     `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Quantity         int64      `gorm:"column:quantity;not null" json:"quantity"`
	PreviousQuantity int64      `gorm:"column:previous_quantity;not null" json:"previous_quantity"`
	NewQuantity      int64      `gorm:"column:new_quantity;not null" json:"new_quantity"`
	OrderID          *uint      `gorm:"column:order_id" json:"order_id,omitempty"`
	ReservationID    *uint      `gorm:"column:reservation_id" json:"reservation_id,omitempty"`
	Reason           string     `gorm:"column:reason;type:varchar(255)" json:"reason"`
	RequiresApproval bool       `gorm:"column:requires_approval;not null;default:false" json:"requires_approval"`
	ApprovalStatus   string     `gorm:"column:approval_status;type:varchar(16);not null;default:'approved'" json:"approval_status"`
	ApprovedBy       *uint      `gorm:"column:approved_by" json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreatedBy        uint       `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Movement) TableName() string {
	return "stock_movement"
}

// ValidType reports whether t is one of the movement types.
func ValidType(t string) bool {
	switch t {
	case TypeEntry, TypeExit, TypeAdjustment, TypeWriteOff:
		return true
	}
	return false
}

// Signed normalizes a requested quantity to the ledger's signed convention:
// exits and write-offs subtract stock, entries add, adjustments carry their
// own sign.
func Signed(movementType string, quantity int64) int64 {
	switch movementType {
	case TypeExit, TypeWriteOff:
		if quantity > 0 {
			return -quantity
		}
		return quantity
	case TypeEntry:
		if quantity < 0 {
			return -quantity
		}
		return quantity
	default:
		return quantity
	}
}
