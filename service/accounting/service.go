package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	acctEntity "remanerp/model/entity/accounting"
	partEntity "remanerp/model/entity/part"
	acctRepo "remanerp/model/repository/accounting"
	stockRepo "remanerp/model/repository/stock"
)

// Service projects approved stock movements into valued accounting entries.
// The projection is one-way and append-only on the movement side; entries
// have their own draft, posted, reversed lifecycle for the books.
type Service struct {
	db        *gorm.DB
	entries   *acctRepo.EntryRepository
	movements *stockRepo.MovementRepository
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		db:        db,
		entries:   acctRepo.NewEntryRepository(db),
		movements: stockRepo.NewMovementRepository(db),
	}
}

// Sync derives one draft entry per approved movement that has none yet.
// The unique movement_id index makes concurrent syncs collapse into one
// entry per movement; duplicates are skipped, not errors. Returns how many
// entries were created.
func (s *Service) Sync(ctx context.Context, orgID uint) (int, error) {
	pending, err := s.movements.ListUnprojected(orgID)
	if err != nil {
		return 0, err
	}

	created := 0
	costs := map[uint]decimal.Decimal{}
	for _, m := range pending {
		cost, ok := costs[m.PartID]
		if !ok {
			var p partEntity.Part
			if err := s.db.WithContext(ctx).Where("org_id = ? AND part_id = ?", orgID, m.PartID).First(&p).Error; err != nil {
				return created, fmt.Errorf("part %d for movement %d: %w", m.PartID, m.MovementID, err)
			}
			cost = p.UnitCost
			costs[m.PartID] = cost
		}

		entry := acctEntity.Entry{
			OrgID:      orgID,
			MovementID: m.MovementID,
			PartID:     m.PartID,
			Type:       m.Type,
			Quantity:   m.Quantity,
			Amount:     cost.Mul(decimal.NewFromInt(m.Quantity)),
			Status:     acctEntity.StatusDraft,
			CreatedAt:  time.Now(),
		}
		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "movement_id"}}, DoNothing: true}).
			Create(&entry)
		if res.Error != nil {
			return created, fmt.Errorf("project movement %d: %w", m.MovementID, res.Error)
		}
		if res.RowsAffected == 1 {
			created++
		}
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, orgID uint, f acctRepo.ListFilter) ([]acctEntity.Entry, error) {
	return s.entries.List(orgID, f)
}

func (s *Service) Summary(ctx context.Context, orgID uint) (*acctRepo.Summary, error) {
	return s.entries.Summarize(orgID)
}

// Post moves a draft entry into the books.
func (s *Service) Post(ctx context.Context, orgID, actorID, entryID uint) (*acctEntity.Entry, error) {
	entry, err := s.find(orgID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != acctEntity.StatusDraft {
		return nil, fmt.Errorf("%w: status %s", ErrNotDraft, entry.Status)
	}
	now := time.Now()
	entry.Status = acctEntity.StatusPosted
	entry.PostedBy = &actorID
	entry.PostedAt = &now
	if err := s.entries.Save(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Reverse backs a posted entry out of the books. Reversing twice is an
// error, not a second reversal.
func (s *Service) Reverse(ctx context.Context, orgID, actorID, entryID uint) (*acctEntity.Entry, error) {
	entry, err := s.find(orgID, entryID)
	if err != nil {
		return nil, err
	}
	switch entry.Status {
	case acctEntity.StatusReversed:
		return nil, ErrAlreadyReversed
	case acctEntity.StatusPosted:
	default:
		return nil, fmt.Errorf("%w: status %s", ErrNotPosted, entry.Status)
	}
	now := time.Now()
	entry.Status = acctEntity.StatusReversed
	entry.ReversedBy = &actorID
	entry.ReversedAt = &now
	if err := s.entries.Save(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) find(orgID, entryID uint) (*acctEntity.Entry, error) {
	entry, err := s.entries.FindByID(orgID, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}
