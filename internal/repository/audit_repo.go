package repository

import (
	"context"

	"inventory-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepo interface {
	Append(ctx context.Context, entries []models.AuditEntry) error
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.AuditEntry, error)
	// ReplayStock восстанавливает on_hand/reserved позиции из журнала —
	// для сверки живого состояния независимо от stock_lines.
	ReplayStock(ctx context.Context, itemID uuid.UUID) (onHand, reserved int64, err error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepo(db *gorm.DB) AuditRepo { return &auditRepo{db: db} }

func (r *auditRepo) Append(ctx context.Context, entries []models.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *auditRepo) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.AuditEntry, error) {
	var list []models.AuditEntry
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("seq ASC").
		Find(&list).Error
	return list, err
}

func (r *auditRepo) ReplayStock(ctx context.Context, itemID uuid.UUID) (int64, int64, error) {
	var sums struct {
		OnHand   int64
		Reserved int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.AuditEntry{}).
		Select("COALESCE(SUM(on_hand_delta),0) AS on_hand, COALESCE(SUM(reserved_delta),0) AS reserved").
		Where("item_id = ?", itemID).
		Scan(&sums).Error
	return sums.OnHand, sums.Reserved, err
}
