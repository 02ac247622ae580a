package accounting

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	acctEntity "remanerp/model/entity/accounting"
)

type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Create(e *acctEntity.Entry) error {
	return r.db.Create(e).Error
}

func (r *EntryRepository) FindByID(orgID, entryID uint) (*acctEntity.Entry, error) {
	var e acctEntity.Entry
	err := r.db.Where("org_id = ? AND entry_id = ?", orgID, entryID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EntryRepository) Save(e *acctEntity.Entry) error {
	return r.db.Save(e).Error
}

// ListFilter narrows entry listings. Zero values mean "no filter".
type ListFilter struct {
	Status string
	From   time.Time
	To     time.Time
}

func (r *EntryRepository) List(orgID uint, f ListFilter) ([]acctEntity.Entry, error) {
	query := r.db.Where("org_id = ?", orgID)
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if !f.From.IsZero() {
		query = query.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		query = query.Where("created_at < ?", f.To)
	}
	var entries []acctEntity.Entry
	err := query.Order("entry_id").Find(&entries).Error
	return entries, err
}

// Summary aggregates entry counts per status and the total posted amount.
type Summary struct {
	Draft       int64           `json:"draft"`
	Posted      int64           `json:"posted"`
	Reversed    int64           `json:"reversed"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func (r *EntryRepository) Summarize(orgID uint) (*Summary, error) {
	s := &Summary{TotalAmount: decimal.Zero}

	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := r.db.Model(&acctEntity.Entry{}).
		Where("org_id = ?", orgID).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, rw := range rows {
		switch rw.Status {
		case acctEntity.StatusDraft:
			s.Draft = rw.N
		case acctEntity.StatusPosted:
			s.Posted = rw.N
		case acctEntity.StatusReversed:
			s.Reversed = rw.N
		}
	}

	var posted []acctEntity.Entry
	if err := r.db.Where("org_id = ? AND status = ?", orgID, acctEntity.StatusPosted).Find(&posted).Error; err != nil {
		return nil, err
	}
	for _, e := range posted {
		s.TotalAmount = s.TotalAmount.Add(e.Amount)
	}
	return s, nil
}
