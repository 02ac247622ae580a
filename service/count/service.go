package count

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"remanerp/config"
	countEntity "remanerp/model/entity/count"
	partEntity "remanerp/model/entity/part"
	stockEntity "remanerp/model/entity/stock"
	countRepo "remanerp/model/repository/count"
	stockSvc "remanerp/service/stock"
)

// Service runs inventory count sessions: snapshot expected quantities,
// collect physical counts, then reconcile the differences into adjustment
// movements through the stock ledger.
type Service struct {
	db     *gorm.DB
	counts *countRepo.CountRepository
	stock  *stockSvc.Service
	cfg    *config.Config
}

func NewService(db *gorm.DB, stock *stockSvc.Service) *Service {
	return &Service{
		db:     db,
		counts: countRepo.NewCountRepository(db),
		stock:  stock,
		cfg:    config.Get(),
	}
}

func validCountType(t string) bool {
	switch t {
	case countEntity.TypeFull, countEntity.TypePartial, countEntity.TypeCyclic:
		return true
	}
	return false
}

// CreateCount snapshots the matching active parts into a draft count. A full
// count ignores filters and takes every active part; partial and cyclic
// counts narrow the selection through the decoded filters.
func (s *Service) CreateCount(ctx context.Context, orgID, actorID uint, countType string, rawFilters map[string]interface{}) (*countEntity.InventoryCount, error) {
	if !validCountType(countType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCountType, countType)
	}
	filters := &Filters{}
	if countType != countEntity.TypeFull {
		var err error
		filters, err = DecodeFilters(rawFilters)
		if err != nil {
			return nil, err
		}
	}

	var c countEntity.InventoryCount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&partEntity.Part{}).Where("org_id = ? AND is_active = ?", orgID, true)
		if filters.CodePrefix != "" {
			query = query.Where("code LIKE ?", filters.CodePrefix+"%")
		}
		if len(filters.PartIDs) > 0 {
			query = query.Where("part_id IN ?", filters.PartIDs)
		}
		if filters.BelowThreshold {
			query = query.Where(
				"quantity <= CASE WHEN low_stock_threshold > 0 THEN low_stock_threshold ELSE ? END",
				s.cfg.LowStockDefault,
			)
		}

		var parts []partEntity.Part
		if err := query.Order("code").Find(&parts).Error; err != nil {
			return err
		}
		if len(parts) == 0 {
			return ErrEmptySnapshot
		}

		c = countEntity.InventoryCount{
			OrgID:     orgID,
			Type:      countType,
			Status:    countEntity.StatusDraft,
			CreatedBy: actorID,
		}
		for _, p := range parts {
			c.Items = append(c.Items, countEntity.Item{
				PartID:           p.PartID,
				PartCode:         p.Code,
				ExpectedQuantity: p.Quantity,
				UnitCost:         p.UnitCost,
			})
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Start moves a draft count into progress.
func (s *Service) Start(ctx context.Context, orgID, actorID, countID uint) (*countEntity.InventoryCount, error) {
	c, err := s.counts.FindByID(orgID, countID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCountNotFound
		}
		return nil, err
	}
	if c.Status != countEntity.StatusDraft {
		return nil, fmt.Errorf("%w: status %s", ErrNotDraft, c.Status)
	}
	c.Status = countEntity.StatusInProgress
	if err := s.counts.Save(c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateItem records a physical count for one line. The parent count must be
// in progress; processed or cancelled counts are frozen.
func (s *Service) UpdateItem(ctx context.Context, orgID, actorID, itemID uint, counted int64) (*countEntity.Item, error) {
	if counted < 0 {
		return nil, ErrInvalidCounted
	}
	item, parent, err := s.counts.FindItem(orgID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCountNotFound
		}
		return nil, err
	}
	if parent.Status != countEntity.StatusInProgress {
		return nil, fmt.Errorf("%w: status %s", ErrNotInProgress, parent.Status)
	}

	item.CountedQuantity = &counted
	item.Difference = counted - item.ExpectedQuantity
	item.CountedBy = &actorID
	item.UpdatedAt = time.Now()
	if err := s.counts.SaveItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Process reconciles an in-progress count: every counted line with a nonzero
// difference becomes one adjustment movement, and the count flips to
// completed. The status flip is guarded inside the same transaction that
// posts the adjustments, so running Process twice adjusts stock exactly once.
func (s *Service) Process(ctx context.Context, orgID, actorID, countID uint) (*countEntity.InventoryCount, []stockEntity.Movement, error) {
	var c *countEntity.InventoryCount
	var movements []stockEntity.Movement
	var parts []*partEntity.Part

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loaded countEntity.InventoryCount
		if err := tx.Preload("Items").Where("org_id = ? AND count_id = ?", orgID, countID).First(&loaded).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCountNotFound
			}
			return err
		}
		if loaded.Status == countEntity.StatusCompleted {
			return ErrAlreadyProcessed
		}
		if loaded.Status != countEntity.StatusInProgress {
			return fmt.Errorf("%w: status %s", ErrNotInProgress, loaded.Status)
		}

		now := time.Now()
		res := tx.Model(&countEntity.InventoryCount{}).
			Where("count_id = ? AND status = ?", countID, countEntity.StatusInProgress).
			Updates(map[string]interface{}{
				"status":       countEntity.StatusCompleted,
				"processed_by": actorID,
				"processed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrAlreadyProcessed
		}

		for i := range loaded.Items {
			item := &loaded.Items[i]
			if item.CountedQuantity == nil || item.Difference == 0 {
				continue
			}
			movement, p, err := s.stock.Apply(tx, orgID, actorID, stockSvc.MovementInput{
				PartID:   item.PartID,
				Type:     stockEntity.TypeAdjustment,
				Quantity: item.Difference,
				Reason:   fmt.Sprintf("inventory count %d: %s counted %d, expected %d", countID, item.PartCode, *item.CountedQuantity, item.ExpectedQuantity),
			})
			if err != nil {
				return fmt.Errorf("item %s: %w", item.PartCode, err)
			}
			movements = append(movements, *movement)
			parts = append(parts, p)
		}

		loaded.Status = countEntity.StatusCompleted
		loaded.ProcessedBy = &actorID
		loaded.ProcessedAt = &now
		c = &loaded
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for i := range movements {
		s.stock.PublishEffects(ctx, &movements[i], parts[i])
	}
	return c, movements, nil
}

// CancelCount abandons a draft or in-progress count without stock effect.
func (s *Service) CancelCount(ctx context.Context, orgID, actorID, countID uint) (*countEntity.InventoryCount, error) {
	c, err := s.counts.FindByID(orgID, countID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCountNotFound
		}
		return nil, err
	}
	if c.Terminal() {
		return nil, fmt.Errorf("%w: status %s", ErrAlreadyProcessed, c.Status)
	}
	c.Status = countEntity.StatusCancelled
	if err := s.counts.Save(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get loads one count with its items.
func (s *Service) Get(ctx context.Context, orgID, countID uint) (*countEntity.InventoryCount, error) {
	c, err := s.counts.FindByID(orgID, countID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCountNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns counts for an org, optionally by status.
func (s *Service) List(ctx context.Context, orgID uint, status string) ([]countEntity.InventoryCount, error) {
	return s.counts.List(orgID, status)
}

// Divergence summarizes how far a count drifted from the book quantities.
type Divergence struct {
	TotalItems      int             `json:"total_items"`
	CountedItems    int             `json:"counted_items"`
	DivergentItems  int             `json:"divergent_items"`
	UnitsUp         int64           `json:"units_up"`
	UnitsDown       int64           `json:"units_down"`
	FinancialImpact decimal.Decimal `json:"financial_impact"`
}

// DivergenceReport aggregates a count's items. Pure, no database access;
// financial impact is the signed sum of difference times unit cost.
func DivergenceReport(items []countEntity.Item) Divergence {
	d := Divergence{TotalItems: len(items), FinancialImpact: decimal.Zero}
	for _, item := range items {
		if item.CountedQuantity == nil {
			continue
		}
		d.CountedItems++
		if item.Difference == 0 {
			continue
		}
		d.DivergentItems++
		if item.Difference > 0 {
			d.UnitsUp += item.Difference
		} else {
			d.UnitsDown += -item.Difference
		}
		d.FinancialImpact = d.FinancialImpact.Add(item.UnitCost.Mul(decimal.NewFromInt(item.Difference)))
	}
	return d
}
