package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"remanerp/config"
	"remanerp/core/alerts"
	"remanerp/core/cache"
	"remanerp/core/search"
	partEntity "remanerp/model/entity/part"
	stockEntity "remanerp/model/entity/stock"
	partRepo "remanerp/model/repository/part"
	stockRepo "remanerp/model/repository/stock"
)

// Service is the movement ledger: every stock quantity change goes through
// RecordMovement, which writes the immutable ledger row and the part update
// in one transaction guarded by a compare-and-swap on the part's quantity.
type Service struct {
	db        *gorm.DB
	parts     *partRepo.PartRepository
	movements *stockRepo.MovementRepository
	notifier  alerts.Notifier
	search    *search.Service
	cfg       *config.Config
}

func NewService(db *gorm.DB, notifier alerts.Notifier) (*Service, error) {
	parts, err := partRepo.NewPartRepository(db)
	if err != nil {
		return nil, err
	}
	return &Service{
		db:        db,
		parts:     parts,
		movements: stockRepo.NewMovementRepository(db),
		notifier:  notifier,
		search:    search.GetService(),
		cfg:       config.Get(),
	}, nil
}

// MovementInput is the request to record one stock change.
type MovementInput struct {
	PartID           uint   `json:"part_id"`
	Type             string `json:"type"`
	Quantity         int64  `json:"quantity"`
	Reason           string `json:"reason"`
	OrderID          *uint  `json:"order_id,omitempty"`
	ReservationID    *uint  `json:"reservation_id,omitempty"`
	RequiresApproval bool   `json:"requires_approval"`
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (s *Service) threshold(p *partEntity.Part) int64 {
	if p.LowStockThreshold > 0 {
		return p.LowStockThreshold
	}
	return s.cfg.LowStockDefault
}

// RecordMovement validates and records one quantity change. Movements at or
// above the approval threshold (or explicitly flagged) are written as pending
// and leave the part untouched until approval. The part update is a
// compare-and-swap against the quantity read at the start of the operation;
// a concurrent writer makes the operation fail with ErrConflict instead of
// clobbering the ledger chain.
func (s *Service) RecordMovement(ctx context.Context, orgID, actorID uint, in MovementInput) (*stockEntity.Movement, *partEntity.Part, error) {
	if !stockEntity.ValidType(in.Type) {
		return nil, nil, ErrInvalidType
	}
	if in.Quantity == 0 {
		return nil, nil, ErrInvalidQuantity
	}
	signed := stockEntity.Signed(in.Type, in.Quantity)

	var movement stockEntity.Movement
	var updated partEntity.Part

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p partEntity.Part
		if err := tx.Where("org_id = ? AND part_id = ?", orgID, in.PartID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPartNotFound
			}
			return err
		}

		prev := p.Quantity
		newQty := prev + signed
		if newQty < 0 {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, prev, -signed)
		}

		requiresApproval := in.RequiresApproval || abs64(signed) >= s.cfg.ApprovalThreshold
		status := stockEntity.ApprovalApproved
		if requiresApproval {
			status = stockEntity.ApprovalPending
		}

		movement = stockEntity.Movement{
			OrgID:            orgID,
			PartID:           in.PartID,
			Type:             in.Type,
			Quantity:         signed,
			PreviousQuantity: prev,
			NewQuantity:      newQty,
			OrderID:          in.OrderID,
			ReservationID:    in.ReservationID,
			Reason:           in.Reason,
			RequiresApproval: requiresApproval,
			ApprovalStatus:   status,
			CreatedBy:        actorID,
			CreatedAt:        time.Now(),
		}
		if err := tx.Create(&movement).Error; err != nil {
			return fmt.Errorf("create movement: %w", err)
		}

		if status == stockEntity.ApprovalApproved {
			ok, err := partRepo.CASUpdateQuantity(tx, orgID, in.PartID, prev, newQty)
			if err != nil {
				return err
			}
			if !ok {
				return ErrConflict
			}
			p.Quantity = newQty
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.PublishEffects(ctx, &movement, &updated)
	return &movement, &updated, nil
}

// Apply records a system-generated movement inside the caller's transaction.
// System movements bypass the approval gate: the stock effect they describe is
// already decided by the calling workflow. Callers must invoke PublishEffects
// once their transaction commits.
func (s *Service) Apply(tx *gorm.DB, orgID, actorID uint, in MovementInput) (*stockEntity.Movement, *partEntity.Part, error) {
	if !stockEntity.ValidType(in.Type) {
		return nil, nil, ErrInvalidType
	}
	if in.Quantity == 0 {
		return nil, nil, ErrInvalidQuantity
	}
	signed := stockEntity.Signed(in.Type, in.Quantity)

	var p partEntity.Part
	if err := tx.Where("org_id = ? AND part_id = ?", orgID, in.PartID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPartNotFound
		}
		return nil, nil, err
	}

	prev := p.Quantity
	newQty := prev + signed
	if newQty < 0 {
		return nil, nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, prev, -signed)
	}

	movement := stockEntity.Movement{
		OrgID:            orgID,
		PartID:           in.PartID,
		Type:             in.Type,
		Quantity:         signed,
		PreviousQuantity: prev,
		NewQuantity:      newQty,
		OrderID:          in.OrderID,
		ReservationID:    in.ReservationID,
		Reason:           in.Reason,
		ApprovalStatus:   stockEntity.ApprovalApproved,
		CreatedBy:        actorID,
		CreatedAt:        time.Now(),
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, nil, fmt.Errorf("create movement: %w", err)
	}

	ok, err := partRepo.CASUpdateQuantity(tx, orgID, in.PartID, prev, newQty)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrConflict
	}
	p.Quantity = newQty
	return &movement, &p, nil
}

// PublishEffects runs the fire-and-forget side effects of a recorded
// movement: cache invalidation, search indexing, and alert evaluation.
func (s *Service) PublishEffects(ctx context.Context, m *stockEntity.Movement, p *partEntity.Part) {
	cache.GetInstance().InvalidateTag(fmt.Sprintf("parts:%d", m.OrgID))

	if m.ApprovalStatus == stockEntity.ApprovalPending {
		s.notifier.Notify(ctx, alerts.Alert{
			OrgID:      m.OrgID,
			Kind:       alerts.KindMovementPending,
			PartID:     m.PartID,
			MovementID: m.MovementID,
			Quantity:   m.Quantity,
			Message:    fmt.Sprintf("movement %d on part %s awaits approval", m.MovementID, p.Code),
		})
		return
	}

	s.search.IndexMovement(ctx, m)

	threshold := s.threshold(p)
	crossed := m.NewQuantity <= threshold && m.PreviousQuantity > threshold
	emptied := m.NewQuantity == 0 && m.PreviousQuantity > 0
	// Alert on the downward crossing, not on every movement below it
	if crossed || emptied {
		kind := alerts.KindLowStock
		if m.NewQuantity == 0 {
			kind = alerts.KindOutOfStock
		}
		s.notifier.Notify(ctx, alerts.Alert{
			OrgID:     m.OrgID,
			Kind:      kind,
			PartID:    p.PartID,
			PartCode:  p.Code,
			Quantity:  m.NewQuantity,
			Threshold: threshold,
			Message:   fmt.Sprintf("part %s at %d (threshold %d)", p.Code, m.NewQuantity, threshold),
		})
	}
}

// ApproveMovement applies a pending movement to stock. The previous/new
// quantities are recomputed against the part's quantity at approval time,
// preserving the movement's signed quantity; the ledger chain stays ordered.
func (s *Service) ApproveMovement(ctx context.Context, orgID, actorID, movementID uint) (*stockEntity.Movement, error) {
	var movement stockEntity.Movement
	var updated partEntity.Part

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ? AND movement_id = ?", orgID, movementID).First(&movement).Error; err != nil {
			return err
		}
		if movement.ApprovalStatus != stockEntity.ApprovalPending {
			return ErrNotPending
		}

		var p partEntity.Part
		if err := tx.Where("org_id = ? AND part_id = ?", orgID, movement.PartID).First(&p).Error; err != nil {
			return err
		}

		prev := p.Quantity
		newQty := prev + movement.Quantity
		if newQty < 0 {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientStock, prev, -movement.Quantity)
		}

		now := time.Now()
		res := tx.Model(&stockEntity.Movement{}).
			Where("movement_id = ? AND approval_status = ?", movementID, stockEntity.ApprovalPending).
			Updates(map[string]interface{}{
				"approval_status":   stockEntity.ApprovalApproved,
				"approved_by":       actorID,
				"approved_at":       now,
				"previous_quantity": prev,
				"new_quantity":      newQty,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrNotPending
		}

		ok, err := partRepo.CASUpdateQuantity(tx, orgID, movement.PartID, prev, newQty)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflict
		}

		movement.ApprovalStatus = stockEntity.ApprovalApproved
		movement.ApprovedBy = &actorID
		movement.ApprovedAt = &now
		movement.PreviousQuantity = prev
		movement.NewQuantity = newQty
		p.Quantity = newQty
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.PublishEffects(ctx, &movement, &updated)
	return &movement, nil
}

// RejectMovement closes a pending movement with no stock effect.
func (s *Service) RejectMovement(ctx context.Context, orgID, actorID, movementID uint) (*stockEntity.Movement, error) {
	var movement stockEntity.Movement

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ? AND movement_id = ?", orgID, movementID).First(&movement).Error; err != nil {
			return err
		}
		if movement.ApprovalStatus != stockEntity.ApprovalPending {
			return ErrNotPending
		}

		now := time.Now()
		res := tx.Model(&stockEntity.Movement{}).
			Where("movement_id = ? AND approval_status = ?", movementID, stockEntity.ApprovalPending).
			Updates(map[string]interface{}{
				"approval_status": stockEntity.ApprovalRejected,
				"approved_by":     actorID,
				"approved_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrNotPending
		}
		movement.ApprovalStatus = stockEntity.ApprovalRejected
		movement.ApprovedBy = &actorID
		movement.ApprovedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

// ListMovements lists ledger rows for an org.
func (s *Service) ListMovements(ctx context.Context, orgID uint, f stockRepo.ListFilter) ([]stockEntity.Movement, int64, error) {
	return s.movements.List(orgID, f)
}

// SearchMovements looks movements up by reason text. Uses elasticsearch when
// configured, a SQL LIKE scan otherwise.
func (s *Service) SearchMovements(ctx context.Context, orgID uint, query string, size int) ([]stockEntity.Movement, error) {
	if size <= 0 {
		size = 20
	}

	ids, err := s.search.SearchMovements(ctx, orgID, query, size)
	if err == nil {
		if len(ids) == 0 {
			return []stockEntity.Movement{}, nil
		}
		var rows []stockEntity.Movement
		if err := s.db.WithContext(ctx).
			Where("org_id = ? AND movement_id IN ?", orgID, ids).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		// Preserve relevance order from the index
		byID := make(map[uint]stockEntity.Movement, len(rows))
		for _, m := range rows {
			byID[m.MovementID] = m
		}
		ordered := make([]stockEntity.Movement, 0, len(rows))
		for _, id := range ids {
			if m, ok := byID[id]; ok {
				ordered = append(ordered, m)
			}
		}
		return ordered, nil
	}
	if !errors.Is(err, search.ErrUnavailable) {
		return nil, err
	}

	var rows []stockEntity.Movement
	err = s.db.WithContext(ctx).
		Where("org_id = ? AND reason LIKE ?", orgID, "%"+query+"%").
		Order("created_at DESC").
		Limit(size).
		Find(&rows).Error
	return rows, err
}

// LowStockScan walks every tenant's active parts and raises an alert for each
// one at or below its threshold. Backs the scheduled scan; returns the number
// of parts flagged.
func (s *Service) LowStockScan(ctx context.Context) (int, error) {
	parts, err := s.parts.ListBelowThresholdAllOrgs(s.cfg.LowStockDefault)
	if err != nil {
		return 0, err
	}
	for i := range parts {
		p := &parts[i]
		threshold := s.threshold(p)
		kind := alerts.KindLowStock
		if p.Quantity == 0 {
			kind = alerts.KindOutOfStock
		}
		s.notifier.Notify(ctx, alerts.Alert{
			OrgID:     p.OrgID,
			Kind:      kind,
			PartID:    p.PartID,
			PartCode:  p.Code,
			Quantity:  p.Quantity,
			Threshold: threshold,
			Message:   fmt.Sprintf("part %s at %d (threshold %d)", p.Code, p.Quantity, threshold),
		})
	}
	return len(parts), nil
}

// RecalcPart returns a part's book quantity next to the approved ledger sum
// so callers can detect drift. Operational tool behind stock:recalc.
func (s *Service) RecalcPart(ctx context.Context, orgID, partID uint) (book, ledger int64, err error) {
	p, err := s.parts.FindByID(orgID, partID)
	if err != nil {
		return 0, 0, err
	}
	sum, err := s.movements.SumApproved(orgID, partID)
	if err != nil {
		return 0, 0, err
	}
	return p.Quantity, sum, nil
}
