package count

import (
	"gorm.io/gorm"

	countEntity "remanerp/model/entity/count"
)

type CountRepository struct {
	db *gorm.DB
}

func NewCountRepository(db *gorm.DB) *CountRepository {
	return &CountRepository{db: db}
}

// Create inserts the count together with its snapshot items.
func (r *CountRepository) Create(c *countEntity.InventoryCount) error {
	return r.db.Create(c).Error
}

func (r *CountRepository) FindByID(orgID, countID uint) (*countEntity.InventoryCount, error) {
	var c countEntity.InventoryCount
	err := r.db.Preload("Items").Where("org_id = ? AND count_id = ?", orgID, countID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindItem loads a count item together with its parent (for status checks).
// The item query joins through the parent so tenant scoping applies to the
// item lookup itself, not just the parent fetch.
func (r *CountRepository) FindItem(orgID, itemID uint) (*countEntity.Item, *countEntity.InventoryCount, error) {
	var item countEntity.Item
	err := r.db.
		Joins("JOIN inventory_count ON inventory_count.count_id = inventory_count_item.count_id").
		Where("inventory_count.org_id = ? AND inventory_count_item.item_id = ?", orgID, itemID).
		First(&item).Error
	if err != nil {
		return nil, nil, err
	}
	var parent countEntity.InventoryCount
	if err := r.db.Where("org_id = ? AND count_id = ?", orgID, item.CountID).First(&parent).Error; err != nil {
		return nil, nil, err
	}
	return &item, &parent, nil
}

func (r *CountRepository) SaveItem(item *countEntity.Item) error {
	return r.db.Save(item).Error
}

func (r *CountRepository) Save(c *countEntity.InventoryCount) error {
	return r.db.Save(c).Error
}

func (r *CountRepository) List(orgID uint, status string) ([]countEntity.InventoryCount, error) {
	var counts []countEntity.InventoryCount
	query := r.db.Where("org_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&counts).Error
	return counts, err
}
