package reservation

import (
	"time"

	"gorm.io/gorm"

	resvEntity "remanerp/model/entity/reservation"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) FindByID(orgID, reservationID uint) (*resvEntity.Reservation, error) {
	var resv resvEntity.Reservation
	err := r.db.Where("org_id = ? AND reservation_id = ?", orgID, reservationID).First(&resv).Error
	if err != nil {
		return nil, err
	}
	return &resv, nil
}

func (r *ReservationRepository) FindBudget(orgID, budgetID uint) (*resvEntity.Budget, error) {
	var b resvEntity.Budget
	err := r.db.Preload("Items").Where("org_id = ? AND budget_id = ?", orgID, budgetID).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *ReservationRepository) SaveBudget(b *resvEntity.Budget) error {
	return r.db.Save(b).Error
}

// activeStatuses are the states in which a reservation still holds quantity.
var activeStatuses = []string{
	resvEntity.StatusReserved,
	resvEntity.StatusPartial,
	resvEntity.StatusSeparated,
}

// HeldQuantity sums the unapplied held quantity across active reservations
// for a part, excluding one reservation when excludeID is non-zero. The sum
// runs inside the caller's transaction so availability math and the insert
// it guards see the same rows.
func HeldQuantity(tx *gorm.DB, orgID, partID, excludeID uint) (int64, error) {
	query := tx.Model(&resvEntity.Reservation{}).
		Where("org_id = ? AND part_id = ? AND status IN ?", orgID, partID, activeStatuses)
	if excludeID != 0 {
		query = query.Where("reservation_id <> ?", excludeID)
	}
	var held int64
	err := query.Select("COALESCE(SUM(quantity_reserved - quantity_applied), 0)").Scan(&held).Error
	return held, err
}

func (r *ReservationRepository) ListByBudget(orgID, budgetID uint) ([]resvEntity.Reservation, error) {
	var resvs []resvEntity.Reservation
	err := r.db.Where("org_id = ? AND budget_id = ?", orgID, budgetID).Find(&resvs).Error
	return resvs, err
}

func (r *ReservationRepository) ListByStatus(orgID uint, status string) ([]resvEntity.Reservation, error) {
	var resvs []resvEntity.Reservation
	query := r.db.Where("org_id = ?", orgID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("reserved_at DESC").Find(&resvs).Error
	return resvs, err
}

// ListExpiring returns non-terminal reservations whose expiry falls before
// the deadline. Expiry is advisory: callers decide what to do with them.
func (r *ReservationRepository) ListExpiring(orgID uint, deadline time.Time) ([]resvEntity.Reservation, error) {
	var resvs []resvEntity.Reservation
	err := r.db.
		Where("org_id = ? AND status IN ? AND expires_at < ?", orgID, activeStatuses, deadline).
		Order("expires_at").
		Find(&resvs).Error
	return resvs, err
}

// ListOverdueAllOrgs returns overdue active reservations across every org,
// for the sweep job.
func (r *ReservationRepository) ListOverdueAllOrgs(now time.Time) ([]resvEntity.Reservation, error) {
	var resvs []resvEntity.Reservation
	err := r.db.
		Where("status IN ? AND expires_at < ?", activeStatuses, now).
		Find(&resvs).Error
	return resvs, err
}

func (r *ReservationRepository) Save(resv *resvEntity.Reservation) error {
	return r.db.Save(resv).Error
}
