package purchase

import (
	"errors"

	"gorm.io/gorm"

	purchaseEntity "remanerp/model/entity/purchase"
)

type NeedRepository struct {
	db *gorm.DB
}

func NewNeedRepository(db *gorm.DB) *NeedRepository {
	return &NeedRepository{db: db}
}

var openStatuses = []string{
	purchaseEntity.StatusPending,
	purchaseEntity.StatusInQuotation,
}

// FindOpenByPartCode returns the single open need for a part code, or nil
// when none exists. Runs in the caller's transaction so the reuse-or-create
// decision is made against committed state.
func FindOpenByPartCode(tx *gorm.DB, orgID uint, partCode string) (*purchaseEntity.Need, error) {
	var need purchaseEntity.Need
	err := tx.Where("org_id = ? AND part_code = ? AND status IN ?", orgID, partCode, openStatuses).
		First(&need).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &need, nil
}

func (r *NeedRepository) FindByID(orgID, needID uint) (*purchaseEntity.Need, error) {
	var need purchaseEntity.Need
	err := r.db.Where("org_id = ? AND need_id = ?", orgID, needID).First(&need).Error
	if err != nil {
		return nil, err
	}
	return &need, nil
}

func (r *NeedRepository) List(orgID uint, status string) ([]purchaseEntity.Need, error) {
	var needs []purchaseEntity.Need
	query := r.db.Where("org_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("priority, created_at").Find(&needs).Error
	return needs, err
}

func (r *NeedRepository) Save(need *purchaseEntity.Need) error {
	return r.db.Save(need).Error
}
