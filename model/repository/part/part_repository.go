package part

import (
	"database/sql"

	"gorm.io/gorm"

	partEntity "remanerp/model/entity/part"
)

type PartRepository struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

func NewPartRepository(db *gorm.DB) (*PartRepository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &PartRepository{db: db, sqlDB: sqlDB}, nil
}

func (r *PartRepository) Create(p *partEntity.Part) error {
	return r.db.Create(p).Error
}

func (r *PartRepository) Save(p *partEntity.Part) error {
	return r.db.Save(p).Error
}

func (r *PartRepository) FindByID(orgID, partID uint) (*partEntity.Part, error) {
	var p partEntity.Part
	err := r.db.Where("org_id = ? AND part_id = ?", orgID, partID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartRepository) FindByCode(orgID uint, code string) (*partEntity.Part, error) {
	var p partEntity.Part
	err := r.db.Where("org_id = ? AND code = ?", orgID, code).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetQuantity returns the current on-hand quantity without loading the row.
// Uses raw SQL for minimal overhead.
func (r *PartRepository) GetQuantity(orgID, partID uint) (int64, bool) {
	const query = `SELECT quantity FROM part WHERE org_id = ? AND part_id = ? LIMIT 1`
	var qty sql.NullInt64
	if err := r.sqlDB.QueryRow(query, orgID, partID).Scan(&qty); err != nil || !qty.Valid {
		return 0, false
	}
	return qty.Int64, true
}

// ListActive returns active parts for an org, optionally filtered by code prefix.
func (r *PartRepository) ListActive(orgID uint, codePrefix string) ([]partEntity.Part, error) {
	var parts []partEntity.Part
	query := r.db.Where("org_id = ? AND is_active = ?", orgID, true)
	if codePrefix != "" {
		query = query.Where("code LIKE ?", codePrefix+"%")
	}
	err := query.Order("code").Find(&parts).Error
	return parts, err
}

// ListBelowThreshold returns parts whose on-hand quantity is at or below
// their low-stock threshold (or the fallback when the part carries none).
func (r *PartRepository) ListBelowThreshold(orgID uint, fallback int64) ([]partEntity.Part, error) {
	var parts []partEntity.Part
	err := r.db.
		Where("org_id = ? AND is_active = ?", orgID, true).
		Where("quantity <= CASE WHEN low_stock_threshold > 0 THEN low_stock_threshold ELSE ? END", fallback).
		Find(&parts).Error
	return parts, err
}

// ListBelowThresholdAllOrgs is ListBelowThreshold across every tenant, for
// the scheduled scan.
func (r *PartRepository) ListBelowThresholdAllOrgs(fallback int64) ([]partEntity.Part, error) {
	var parts []partEntity.Part
	err := r.db.
		Where("is_active = ?", true).
		Where("quantity <= CASE WHEN low_stock_threshold > 0 THEN low_stock_threshold ELSE ? END", fallback).
		Find(&parts).Error
	return parts, err
}

// CASUpdateQuantity sets the part's quantity to newQty only if it still
// equals prevQty, in the caller's transaction. A false return means a
// concurrent writer got there first and the caller must fail with a conflict.
func CASUpdateQuantity(tx *gorm.DB, orgID, partID uint, prevQty, newQty int64) (bool, error) {
	res := tx.Model(&partEntity.Part{}).
		Where("org_id = ? AND part_id = ? AND quantity = ?", orgID, partID, prevQty).
		Update("quantity", newQty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
