package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	purchaseEntity "remanerp/model/entity/purchase"
	purchaseRepo "remanerp/model/repository/purchase"
)

// Service maintains purchase needs: one open row per (org, part code) that
// accumulates shortages from reservation coverage gaps until procurement
// picks it up.
type Service struct {
	db    *gorm.DB
	needs *purchaseRepo.NeedRepository
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, needs: purchaseRepo.NewNeedRepository(db)}
}

// NeedInput describes one shortage to record.
type NeedInput struct {
	PartID   uint   `json:"part_id"`
	PartCode string `json:"part_code"`
	Required int64  `json:"required_quantity"`
	Available int64 `json:"available_quantity"`
	OrderID  *uint  `json:"order_id,omitempty"`
}

var statusRank = map[string]int{
	purchaseEntity.StatusPending:     0,
	purchaseEntity.StatusInQuotation: 1,
	purchaseEntity.StatusOrdered:     2,
	purchaseEntity.StatusFulfilled:   3,
}

func derivePriority(available, shortage int64) string {
	switch {
	case available <= 0:
		return purchaseEntity.PriorityUrgent
	case shortage*2 >= available:
		return purchaseEntity.PriorityHigh
	default:
		return purchaseEntity.PriorityNormal
	}
}

var priorityRank = map[string]int{
	purchaseEntity.PriorityLow:    0,
	purchaseEntity.PriorityNormal: 1,
	purchaseEntity.PriorityHigh:   2,
	purchaseEntity.PriorityUrgent: 3,
}

// CreateOrReuseNeed records a shortage in its own transaction.
func (s *Service) CreateOrReuseNeed(ctx context.Context, orgID uint, in NeedInput) (*purchaseEntity.Need, error) {
	var need *purchaseEntity.Need
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		need, err = s.CreateOrReuseNeedTx(tx, orgID, in)
		return err
	})
	return need, err
}

// CreateOrReuseNeedTx records a shortage inside the caller's transaction.
// When an open need already exists for the part code it is merged: quantities
// accumulate, the related order list is extended, and priority only
// escalates. Fulfilled or otherwise closed needs never absorb new shortages.
func (s *Service) CreateOrReuseNeedTx(tx *gorm.DB, orgID uint, in NeedInput) (*purchaseEntity.Need, error) {
	shortage := in.Required - in.Available
	if shortage <= 0 {
		return nil, fmt.Errorf("no shortage for %s: required %d, available %d", in.PartCode, in.Required, in.Available)
	}
	priority := derivePriority(in.Available, shortage)

	existing, err := purchaseRepo.FindOpenByPartCode(tx, orgID, in.PartCode)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		need := &purchaseEntity.Need{
			OrgID:             orgID,
			PartID:            in.PartID,
			PartCode:          in.PartCode,
			RequiredQuantity:  in.Required,
			AvailableQuantity: in.Available,
			ShortageQuantity:  shortage,
			Priority:          priority,
			Status:            purchaseEntity.StatusPending,
			RelatedOrders:     ordersJSON(nil, in.OrderID),
		}
		if err := tx.Create(need).Error; err != nil {
			return nil, fmt.Errorf("create purchase need: %w", err)
		}
		return need, nil
	}

	existing.RequiredQuantity += in.Required
	existing.ShortageQuantity += shortage
	existing.AvailableQuantity = in.Available
	if priorityRank[priority] > priorityRank[existing.Priority] {
		existing.Priority = priority
	}
	existing.RelatedOrders = ordersJSON(existing.RelatedOrders, in.OrderID)
	existing.UpdatedAt = time.Now()
	if err := tx.Save(existing).Error; err != nil {
		return nil, fmt.Errorf("merge purchase need: %w", err)
	}
	return existing, nil
}

// ordersJSON appends orderID to the stored order list, skipping duplicates.
func ordersJSON(current datatypes.JSON, orderID *uint) datatypes.JSON {
	var orders []uint
	if len(current) > 0 {
		_ = json.Unmarshal(current, &orders)
	}
	if orderID != nil {
		for _, id := range orders {
			if id == *orderID {
				orderID = nil
				break
			}
		}
		if orderID != nil {
			orders = append(orders, *orderID)
		}
	}
	if orders == nil {
		orders = []uint{}
	}
	out, _ := json.Marshal(orders)
	return out
}

func (s *Service) ListNeeds(ctx context.Context, orgID uint, status string) ([]purchaseEntity.Need, error) {
	if status != "" {
		if _, ok := statusRank[status]; !ok {
			return nil, ErrInvalidStatus
		}
	}
	return s.needs.List(orgID, status)
}

// AdvanceNeed moves a need along pending, in_quotation, ordered, fulfilled.
// Backward moves are rejected.
func (s *Service) AdvanceNeed(ctx context.Context, orgID, needID uint, status string) (*purchaseEntity.Need, error) {
	rank, ok := statusRank[status]
	if !ok {
		return nil, ErrInvalidStatus
	}
	need, err := s.needs.FindByID(orgID, needID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNeedNotFound
		}
		return nil, err
	}
	if rank <= statusRank[need.Status] {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, need.Status, status)
	}
	need.Status = status
	need.UpdatedAt = time.Now()
	if err := s.needs.Save(need); err != nil {
		return nil, err
	}
	return need, nil
}
