package reservation

import "time"

// Reservation statuses
const (
	StatusReserved  = "reserved"
	StatusPartial   = "partial"
	StatusSeparated = "separated"
	StatusApplied   = "applied"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// Reservation is a logical hold of a part quantity against an approved
// budget. Counters, not row locks: 0 <= applied <= separated <= reserved.
// The held quantity is excluded from availability but never subtracted from
// on-hand stock until consumption writes an exit movement.
type Reservation struct {
	ReservationID     uint       `gorm:"column:reservation_id;primaryKey;autoIncrement" json:"reservation_id"`
	OrgID             uint       `gorm:"column:org_id;not null;index:idx_resv_org_part" json:"org_id"`
	PartID            uint       `gorm:"column:part_id;not null;index:idx_resv_org_part" json:"part_id"`
	BudgetID          uint       `gorm:"column:budget_id;not null;index" json:"budget_id"`
	OrderID           *uint      `gorm:"column:order_id" json:"order_id,omitempty"`
	QuantityReserved  int64      `gorm:"column:quantity_reserved;not null" json:"quantity_reserved"`
	QuantitySeparated int64      `gorm:"column:quantity_separated;not null;default:0" json:"quantity_separated"`
	QuantityApplied   int64      `gorm:"column:quantity_applied;not null;default:0" json:"quantity_applied"`
	Status            string     `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	ReservedBy        uint       `gorm:"column:reserved_by;not null" json:"reserved_by"`
	ReservedAt        time.Time  `gorm:"column:reserved_at;not null" json:"reserved_at"`
	ExpiresAt         time.Time  `gorm:"column:expires_at;not null" json:"expires_at"`
	SeparatedBy       *uint      `gorm:"column:separated_by" json:"separated_by,omitempty"`
	SeparatedAt       *time.Time `gorm:"column:separated_at" json:"separated_at,omitempty"`
	AppliedBy         *uint      `gorm:"column:applied_by" json:"applied_by,omitempty"`
	AppliedAt         *time.Time `gorm:"column:applied_at" json:"applied_at,omitempty"`
	CancelledBy       *uint      `gorm:"column:cancelled_by" json:"cancelled_by,omitempty"`
	CancelledAt       *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason      string     `gorm:"column:cancel_reason;type:varchar(255)" json:"cancel_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservation"
}

// Terminal reports whether the reservation can no longer change state.
func (r *Reservation) Terminal() bool {
	switch r.Status {
	case StatusApplied, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Unapplied returns the quantity still held (reserved minus applied).
func (r *Reservation) Unapplied() int64 {
	return r.QuantityReserved - r.QuantityApplied
}
