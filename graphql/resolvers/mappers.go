package resolvers

import (
	"time"

	gqlmodels "remanerp/graphql/models"
	partEntity "remanerp/model/entity/part"
	purchaseEntity "remanerp/model/entity/purchase"
	resvEntity "remanerp/model/entity/reservation"
	stockEntity "remanerp/model/entity/stock"
)

func mapPart(p *partEntity.Part) *gqlmodels.Part {
	return &gqlmodels.Part{
		ID:                int32(p.PartID),
		Code:              p.Code,
		Name:              p.Name,
		Quantity:          int32(p.Quantity),
		UnitCost:          p.UnitCost.String(),
		LowStockThreshold: int32(p.LowStockThreshold),
		IsActive:          p.IsActive,
	}
}

func mapParts(rows []partEntity.Part) []*gqlmodels.Part {
	out := make([]*gqlmodels.Part, 0, len(rows))
	for i := range rows {
		out = append(out, mapPart(&rows[i]))
	}
	return out
}

func mapMovement(m *stockEntity.Movement) *gqlmodels.Movement {
	return &gqlmodels.Movement{
		ID:               int32(m.MovementID),
		PartID:           int32(m.PartID),
		Type:             m.Type,
		Quantity:         int32(m.Quantity),
		PreviousQuantity: int32(m.PreviousQuantity),
		NewQuantity:      int32(m.NewQuantity),
		Reason:           m.Reason,
		ApprovalStatus:   m.ApprovalStatus,
		CreatedAt:        m.CreatedAt.Format(time.RFC3339),
	}
}

func mapMovements(rows []stockEntity.Movement) []*gqlmodels.Movement {
	out := make([]*gqlmodels.Movement, 0, len(rows))
	for i := range rows {
		out = append(out, mapMovement(&rows[i]))
	}
	return out
}

func mapReservations(rows []resvEntity.Reservation) []*gqlmodels.Reservation {
	out := make([]*gqlmodels.Reservation, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		out = append(out, &gqlmodels.Reservation{
			ID:                int32(r.ReservationID),
			PartID:            int32(r.PartID),
			BudgetID:          int32(r.BudgetID),
			QuantityReserved:  int32(r.QuantityReserved),
			QuantitySeparated: int32(r.QuantitySeparated),
			QuantityApplied:   int32(r.QuantityApplied),
			Status:            r.Status,
			ExpiresAt:         r.ExpiresAt.Format(time.RFC3339),
		})
	}
	return out
}

func mapNeeds(rows []purchaseEntity.Need) []*gqlmodels.Need {
	out := make([]*gqlmodels.Need, 0, len(rows))
	for i := range rows {
		n := &rows[i]
		out = append(out, &gqlmodels.Need{
			ID:               int32(n.NeedID),
			PartCode:         n.PartCode,
			RequiredQuantity: int32(n.RequiredQuantity),
			ShortageQuantity: int32(n.ShortageQuantity),
			Priority:         n.Priority,
			Status:           n.Status,
		})
	}
	return out
}
