package repository

import (
	"context"
	"errors"
	"inventory-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockRepo interface {
	Get(ctx context.Context, itemID uuid.UUID) (*models.StockLine, error)
	Create(ctx context.Context, line *models.StockLine) error

	// UpdateCAS — единственная мутация строки склада: условный UPDATE,
	// который проходит только если version не изменился с момента чтения.
	// false без ошибки означает проигранную гонку — вызывающий перечитывает
	// строку и повторяет попытку.
	UpdateCAS(ctx context.Context, itemID uuid.UUID, expectedVersion, onHand, reserved int64) (bool, error)
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepo(db *gorm.DB) StockRepo { return &stockRepo{db: db} }

func (r *stockRepo) Get(ctx context.Context, itemID uuid.UUID) (*models.StockLine, error) {
	var line models.StockLine
	err := r.db.WithContext(ctx).First(&line, "item_id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *stockRepo) Create(ctx context.Context, line *models.StockLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *stockRepo) UpdateCAS(ctx context.Context, itemID uuid.UUID, expectedVersion, onHand, reserved int64) (bool, error) {
	tx := r.db.WithContext(ctx).Exec(`
UPDATE stock_lines
SET on_hand   = @on_hand,
    reserved  = @reserved,
    version   = version + 1,
    updated_at = now()
WHERE item_id = @item
  AND version = @ver
`, map[string]any{
		"item":     itemID,
		"ver":      expectedVersion,
		"on_hand":  onHand,
		"reserved": reserved,
	})
	return tx.RowsAffected > 0, tx.Error
}
