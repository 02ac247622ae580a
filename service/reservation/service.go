package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"remanerp/config"
	"remanerp/core/alerts"
	partEntity "remanerp/model/entity/part"
	purchaseEntity "remanerp/model/entity/purchase"
	resvEntity "remanerp/model/entity/reservation"
	stockEntity "remanerp/model/entity/stock"
	resvRepo "remanerp/model/repository/reservation"
	purchaseSvc "remanerp/service/purchase"
	stockSvc "remanerp/service/stock"
)

// Service manages logical holds of stock against approved budgets. A
// reservation never subtracts from on-hand quantity; it only reduces the
// availability other reservations see. Stock leaves the building exclusively
// through Consume, which writes an exit movement.
type Service struct {
	db       *gorm.DB
	resvs    *resvRepo.ReservationRepository
	stock    *stockSvc.Service
	purchase *purchaseSvc.Service
	notifier alerts.Notifier
	cfg      *config.Config
}

func NewService(db *gorm.DB, stock *stockSvc.Service, purchase *purchaseSvc.Service, notifier alerts.Notifier) *Service {
	return &Service{
		db:       db,
		resvs:    resvRepo.NewReservationRepository(db),
		stock:    stock,
		purchase: purchase,
		notifier: notifier,
		cfg:      config.Get(),
	}
}

// ReserveResult is the outcome of reserving one budget: the reservations
// created for covered quantities and the purchase needs raised for shortages.
type ReserveResult struct {
	Reservations []resvEntity.Reservation `json:"reservations"`
	Needs        []purchaseEntity.Need    `json:"needs"`
}

// ReserveFromBudget walks an approved budget's lines and places a hold per
// line. Availability is on-hand minus what other active reservations already
// hold. A fully covered line yields a reserved hold; a short line yields a
// partial hold for whatever was covered plus a purchase need for the rest. A
// line with zero coverage yields only the need. Each line commits on its own,
// so a failure partway leaves earlier lines reserved.
func (s *Service) ReserveFromBudget(ctx context.Context, orgID, actorID, budgetID uint) (*ReserveResult, error) {
	budget, err := s.resvs.FindBudget(orgID, budgetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, err
	}
	if budget.Status != resvEntity.BudgetApproved {
		return nil, fmt.Errorf("%w: status %s", ErrBudgetNotApproved, budget.Status)
	}

	result := &ReserveResult{}
	now := time.Now()
	expires := now.AddDate(0, 0, s.cfg.ReservationExpiryDays)

	for _, item := range budget.Items {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var p partEntity.Part
			if err := tx.Where("org_id = ? AND part_id = ?", orgID, item.PartID).First(&p).Error; err != nil {
				return fmt.Errorf("budget line part %d: %w", item.PartID, err)
			}

			held, err := resvRepo.HeldQuantity(tx, orgID, item.PartID, 0)
			if err != nil {
				return err
			}
			available := p.Quantity - held
			if available < 0 {
				available = 0
			}

			covered := item.Quantity
			if covered > available {
				covered = available
			}
			shortage := item.Quantity - covered

			if covered > 0 {
				status := resvEntity.StatusReserved
				if shortage > 0 {
					status = resvEntity.StatusPartial
				}
				hold := resvEntity.Reservation{
					OrgID:            orgID,
					PartID:           item.PartID,
					BudgetID:         budgetID,
					OrderID:          budget.OrderID,
					QuantityReserved: covered,
					Status:           status,
					ReservedBy:       actorID,
					ReservedAt:       now,
					ExpiresAt:        expires,
				}
				if err := tx.Create(&hold).Error; err != nil {
					return fmt.Errorf("create reservation: %w", err)
				}
				result.Reservations = append(result.Reservations, hold)
			}

			if shortage > 0 {
				need, err := s.purchase.CreateOrReuseNeedTx(tx, orgID, purchaseSvc.NeedInput{
					PartID:    item.PartID,
					PartCode:  p.Code,
					Required:  item.Quantity,
					Available: covered,
					OrderID:   budget.OrderID,
				})
				if err != nil {
					return err
				}
				result.Needs = append(result.Needs, *need)
			}
			return nil
		})
		if err != nil {
			return result, err
		}
	}

	budget.Status = resvEntity.BudgetReserved
	if err := s.resvs.SaveBudget(budget); err != nil {
		return result, err
	}
	return result, nil
}

// Separate stages quantity for physical picking. Bookkeeping only, no stock
// effect.
func (s *Service) Separate(ctx context.Context, orgID, actorID, reservationID uint, qty int64) (*resvEntity.Reservation, error) {
	var resv resvEntity.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ? AND reservation_id = ?", orgID, reservationID).First(&resv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if resv.Terminal() {
			return fmt.Errorf("%w: %s", ErrAlreadyTerminal, resv.Status)
		}
		if qty <= 0 || qty > resv.QuantityReserved-resv.QuantitySeparated {
			return fmt.Errorf("%w: %d of %d separable", ErrInvalidQuantity, qty, resv.QuantityReserved-resv.QuantitySeparated)
		}

		now := time.Now()
		resv.QuantitySeparated += qty
		resv.SeparatedBy = &actorID
		resv.SeparatedAt = &now
		if resv.QuantitySeparated == resv.QuantityReserved {
			resv.Status = resvEntity.StatusSeparated
		}
		return tx.Save(&resv).Error
	})
	if err != nil {
		return nil, err
	}
	return &resv, nil
}

// ConsumeItem asks to apply quantity from one reservation to an order.
type ConsumeItem struct {
	ReservationID uint  `json:"reservation_id"`
	Quantity      int64 `json:"quantity"`
}

// ConsumeResult reports one item's outcome. Err is nil on success.
type ConsumeResult struct {
	ReservationID uint                  `json:"reservation_id"`
	Movement      *stockEntity.Movement `json:"movement,omitempty"`
	Err           error                 `json:"-"`
}

// Consume applies separated quantities to an order. Per item, one
// transaction writes the exit movement and bumps the applied counter; items
// fail independently. This is the only path by which a reservation reduces
// on-hand stock.
func (s *Service) Consume(ctx context.Context, orgID, actorID, orderID uint, items []ConsumeItem) []ConsumeResult {
	results := make([]ConsumeResult, 0, len(items))
	for _, item := range items {
		res := ConsumeResult{ReservationID: item.ReservationID}
		var part *partEntity.Part

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var resv resvEntity.Reservation
			if err := tx.Where("org_id = ? AND reservation_id = ?", orgID, item.ReservationID).First(&resv).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrReservationNotFound
				}
				return err
			}
			if resv.Terminal() {
				return fmt.Errorf("%w: %s", ErrAlreadyTerminal, resv.Status)
			}
			if item.Quantity <= 0 {
				return ErrInvalidQuantity
			}
			if resv.QuantitySeparated-resv.QuantityApplied < item.Quantity {
				return fmt.Errorf("%w: %d separated, %d applied, %d requested",
					ErrInsufficientSeparated, resv.QuantitySeparated, resv.QuantityApplied, item.Quantity)
			}

			rid := resv.ReservationID
			movement, p, err := s.stock.Apply(tx, orgID, actorID, stockSvc.MovementInput{
				PartID:        resv.PartID,
				Type:          stockEntity.TypeExit,
				Quantity:      item.Quantity,
				Reason:        fmt.Sprintf("reservation %d consumed for order %d", rid, orderID),
				OrderID:       &orderID,
				ReservationID: &rid,
			})
			if err != nil {
				return err
			}
			res.Movement = movement
			part = p

			now := time.Now()
			resv.QuantityApplied += item.Quantity
			resv.AppliedBy = &actorID
			resv.AppliedAt = &now
			if resv.QuantityApplied == resv.QuantityReserved {
				resv.Status = resvEntity.StatusApplied
			}
			return tx.Save(&resv).Error
		})
		if err != nil {
			res.Movement = nil
			res.Err = err
		} else if res.Movement != nil && part != nil {
			s.stock.PublishEffects(ctx, res.Movement, part)
		}
		results = append(results, res)
	}
	return results
}

// Cancel releases a reservation's remaining hold. The release is purely
// logical: what was already applied left through the ledger, the rest was
// never subtracted, so no movement is written.
func (s *Service) Cancel(ctx context.Context, orgID, actorID, reservationID uint, reason string) (*resvEntity.Reservation, int64, error) {
	var resv resvEntity.Reservation
	var released int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ? AND reservation_id = ?", orgID, reservationID).First(&resv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if resv.Terminal() {
			return fmt.Errorf("%w: %s", ErrAlreadyTerminal, resv.Status)
		}

		released = resv.Unapplied()
		now := time.Now()
		resv.Status = resvEntity.StatusCancelled
		resv.CancelledBy = &actorID
		resv.CancelledAt = &now
		resv.CancelReason = reason
		return tx.Save(&resv).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return &resv, released, nil
}

// Extend pushes a reservation's expiry out. Overdue reservations extend from
// now instead of the stale deadline.
func (s *Service) Extend(ctx context.Context, orgID, actorID, reservationID uint, days int) (*resvEntity.Reservation, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidQuantity, days)
	}
	var resv resvEntity.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ? AND reservation_id = ?", orgID, reservationID).First(&resv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if resv.Terminal() {
			return fmt.Errorf("%w: %s", ErrAlreadyTerminal, resv.Status)
		}
		base := resv.ExpiresAt
		if now := time.Now(); base.Before(now) {
			base = now
		}
		resv.ExpiresAt = base.AddDate(0, 0, days)
		return tx.Save(&resv).Error
	})
	if err != nil {
		return nil, err
	}
	return &resv, nil
}

// ListExpiring returns active reservations expiring within the window.
func (s *Service) ListExpiring(ctx context.Context, orgID uint, within time.Duration) ([]resvEntity.Reservation, error) {
	return s.resvs.ListExpiring(orgID, time.Now().Add(within))
}

// List returns reservations for an org, optionally narrowed by status.
func (s *Service) List(ctx context.Context, orgID uint, status string) ([]resvEntity.Reservation, error) {
	return s.resvs.ListByStatus(orgID, status)
}

// ExpireOverdue flips overdue active reservations to expired and emits an
// alert per reservation. Expiry is advisory: nothing is released physically
// because held quantity was never subtracted from on-hand stock. Returns how
// many reservations were expired.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.resvs.ListOverdueAllOrgs(time.Now())
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, resv := range overdue {
		res := s.db.WithContext(ctx).Model(&resvEntity.Reservation{}).
			Where("reservation_id = ? AND status = ?", resv.ReservationID, resv.Status).
			Update("status", resvEntity.StatusExpired)
		if res.Error != nil {
			log.Printf("expire reservation %d: %v", resv.ReservationID, res.Error)
			continue
		}
		if res.RowsAffected != 1 {
			// Lost a race with a state change, leave it alone.
			continue
		}
		expired++
		s.notifier.Notify(ctx, alerts.Alert{
			OrgID:         resv.OrgID,
			Kind:          alerts.KindReservationExpired,
			PartID:        resv.PartID,
			ReservationID: resv.ReservationID,
			Quantity:      resv.Unapplied(),
			Message:       fmt.Sprintf("reservation %d expired holding %d", resv.ReservationID, resv.Unapplied()),
		})
	}
	return expired, nil
}
