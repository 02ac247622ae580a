package stock

import (
	"time"

	"gorm.io/gorm"

	stockEntity "remanerp/model/entity/stock"
)

type MovementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) FindByID(orgID, movementID uint) (*stockEntity.Movement, error) {
	var m stockEntity.Movement
	err := r.db.Where("org_id = ? AND movement_id = ?", orgID, movementID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListFilter narrows movement listings. Zero values mean "no filter".
type ListFilter struct {
	PartID         uint
	Type           string
	ApprovalStatus string
	From           time.Time
	To             time.Time
	Page           int
	PageSize       int
}

func (r *MovementRepository) List(orgID uint, f ListFilter) ([]stockEntity.Movement, int64, error) {
	query := r.db.Model(&stockEntity.Movement{}).Where("org_id = ?", orgID)
	if f.PartID != 0 {
		query = query.Where("part_id = ?", f.PartID)
	}
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if f.ApprovalStatus != "" {
		query = query.Where("approval_status = ?", f.ApprovalStatus)
	}
	if !f.From.IsZero() {
		query = query.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		query = query.Where("created_at < ?", f.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	var movements []stockEntity.Movement
	err := query.Order("created_at DESC, movement_id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&movements).Error
	return movements, total, err
}

// SumApproved returns the signed sum of all approved movement quantities for
// a part. Used by stock:recalc to rebuild book quantity from the ledger.
func (r *MovementRepository) SumApproved(orgID, partID uint) (int64, error) {
	var total int64
	err := r.db.Model(&stockEntity.Movement{}).
		Where("org_id = ? AND part_id = ? AND approval_status = ?", orgID, partID, stockEntity.ApprovalApproved).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

// ListUnprojected returns approved movements that have no accounting entry yet.
func (r *MovementRepository) ListUnprojected(orgID uint) ([]stockEntity.Movement, error) {
	var movements []stockEntity.Movement
	err := r.db.
		Where("org_id = ? AND approval_status = ?", orgID, stockEntity.ApprovalApproved).
		Where("movement_id NOT IN (SELECT movement_id FROM stock_accounting_entry WHERE org_id = ?)", orgID).
		Order("movement_id").
		Find(&movements).Error
	return movements, err
}
