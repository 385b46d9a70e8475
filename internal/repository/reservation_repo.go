package repository

import (
	"context"
	"errors"
	"time"

	"inventory-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationRepo interface {
	Create(ctx context.Context, res *models.Reservation) error
	GetWithLines(ctx context.Context, id string) (*models.Reservation, error)

	// MarkIfPending переводит PENDING-резервацию в терминальный статус.
	// false — резервация уже не PENDING (параллельный commit/release/expire).
	MarkIfPending(ctx context.Context, id string, to models.ReservationStatus) (bool, error)

	// ListExpired — PENDING-резервации с истёкшим дедлайном.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error)
	// ListExpiredByItems — то же, но только резервации, держащие указанные позиции.
	ListExpiredByItems(ctx context.Context, itemIDs []uuid.UUID, now time.Time) ([]models.Reservation, error)
}

type reservationRepo struct{ db *gorm.DB }

func NewReservationRepo(db *gorm.DB) ReservationRepo { return &reservationRepo{db: db} }

func (r *reservationRepo) Create(ctx context.Context, res *models.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *reservationRepo) GetWithLines(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.WithContext(ctx).Preload("Lines").First(&res, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepo) MarkIfPending(ctx context.Context, id string, to models.ReservationStatus) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, models.ReservationPending).
		Update("status", to)
	return tx.RowsAffected > 0, tx.Error
}

func (r *reservationRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	q := r.db.WithContext(ctx).
		Preload("Lines").
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.ReservationPending, now).
		Order("expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var list []models.Reservation
	err := q.Find(&list).Error
	return list, err
}

func (r *reservationRepo) ListExpiredByItems(ctx context.Context, itemIDs []uuid.UUID, now time.Time) ([]models.Reservation, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Distinct("reservations.id").
		Joins("JOIN reservation_lines rl ON rl.reservation_id = reservations.id").
		Where("reservations.status = ? AND reservations.expires_at IS NOT NULL AND reservations.expires_at <= ?", models.ReservationPending, now).
		Where("rl.item_id IN ?", itemIDs).
		Pluck("reservations.id", &ids).Error
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	var list []models.Reservation
	err = r.db.WithContext(ctx).Preload("Lines").Where("id IN ?", ids).Find(&list).Error
	return list, err
}
