// Package models holds the GraphQL view types. They are flat projections of
// the storage entities: int32 for GraphQL Int, decimals and timestamps as
// strings.
package models

type Part struct {
	ID                int32
	Code              string
	Name              string
	Quantity          int32
	UnitCost          string
	LowStockThreshold int32
	IsActive          bool
}

type Movement struct {
	ID               int32
	PartID           int32
	Type             string
	Quantity         int32
	PreviousQuantity int32
	NewQuantity      int32
	Reason           string
	ApprovalStatus   string
	CreatedAt        string
}

type MovementList struct {
	Items []*Movement
	Total int32
}

type Reservation struct {
	ID                int32
	PartID            int32
	BudgetID          int32
	QuantityReserved  int32
	QuantitySeparated int32
	QuantityApplied   int32
	Status            string
	ExpiresAt         string
}

type Need struct {
	ID               int32
	PartCode         string
	RequiredQuantity int32
	ShortageQuantity int32
	Priority         string
	Status           string
}

type AccountingSummary struct {
	Draft       int32
	Posted      int32
	Reversed    int32
	TotalAmount string
}
