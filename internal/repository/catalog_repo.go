package repository

import (
	"context"
	"errors"
	"strings"

	"inventory-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemListFilter struct {
	CategoryID *uuid.UUID
	VendorID   *uuid.UUID
	OnlyActive *bool
	Query      string // по name/sku
	Limit      int
	Offset     int
}

// LowStockRow — строка отчёта по позициям ниже порога.
type LowStockRow struct {
	ItemID            uuid.UUID
	SKU               string
	Name              string
	OnHand            int64
	Reserved          int64
	LowStockThreshold int64
}

type CatalogRepo interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	GetItemBySKU(ctx context.Context, sku string) (*models.Item, error)
	UpdateItemFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	ListItems(ctx context.Context, f ItemListFilter) ([]models.Item, int64, error)
	ListLowStock(ctx context.Context) ([]LowStockRow, error)
	DeleteItem(ctx context.Context, id uuid.UUID) (bool, error)

	CreateCategory(ctx context.Context, c *models.ItemCategory) error
	ListCategories(ctx context.Context) ([]models.ItemCategory, error)
	GetCategoryByName(ctx context.Context, name string) (*models.ItemCategory, error)

	CreateUnit(ctx context.Context, u *models.UnitOfMeasure) error
	ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error)
	GetUnitByName(ctx context.Context, name string) (*models.UnitOfMeasure, error)

	CreateVendor(ctx context.Context, v *models.Vendor) error
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	GetVendorByName(ctx context.Context, name string) (*models.Vendor, error)
}

type catalogRepo struct{ db *gorm.DB }

func NewCatalogRepo(db *gorm.DB) CatalogRepo { return &catalogRepo{db: db} }

func (r *catalogRepo) CreateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *catalogRepo) GetItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var it models.Item
	err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *catalogRepo) GetItemBySKU(ctx context.Context, sku string) (*models.Item, error) {
	var it models.Item
	err := r.db.WithContext(ctx).Where("lower(sku) = lower(?)", sku).First(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *catalogRepo) UpdateItemFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Updates(fields).Error
}

func (r *catalogRepo) ListItems(ctx context.Context, f ItemListFilter) ([]models.Item, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Item{})

	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.VendorID != nil {
		q = q.Where("vendor_id = ?", *f.VendorID)
	}
	if f.OnlyActive != nil {
		q = q.Where("is_active = ?", *f.OnlyActive)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		q = q.Where("lower(name) LIKE lower(?) OR lower(sku) LIKE lower(?)", "%"+s+"%", "%"+s+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var list []models.Item
	if err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListLowStock — активные позиции, у которых available упал ниже порога.
func (r *catalogRepo) ListLowStock(ctx context.Context) ([]LowStockRow, error) {
	var rows []LowStockRow
	err := r.db.WithContext(ctx).
		Table("items").
		Select("items.id AS item_id, items.sku, items.name, s.on_hand, s.reserved, items.low_stock_threshold").
		Joins("JOIN stock_lines s ON s.item_id = items.id").
		Where("items.is_active AND (s.on_hand - s.reserved) < items.low_stock_threshold").
		Order("items.sku ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *catalogRepo) DeleteItem(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

func (r *catalogRepo) CreateCategory(ctx context.Context, c *models.ItemCategory) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *catalogRepo) ListCategories(ctx context.Context) ([]models.ItemCategory, error) {
	var list []models.ItemCategory
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *catalogRepo) GetCategoryByName(ctx context.Context, name string) (*models.ItemCategory, error) {
	var c models.ItemCategory
	err := r.db.WithContext(ctx).Where("lower(name) = lower(?)", name).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *catalogRepo) CreateUnit(ctx context.Context, u *models.UnitOfMeasure) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *catalogRepo) ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error) {
	var list []models.UnitOfMeasure
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *catalogRepo) GetUnitByName(ctx context.Context, name string) (*models.UnitOfMeasure, error) {
	var u models.UnitOfMeasure
	err := r.db.WithContext(ctx).Where("lower(name) = lower(?)", name).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *catalogRepo) CreateVendor(ctx context.Context, v *models.Vendor) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *catalogRepo) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	var list []models.Vendor
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *catalogRepo) GetVendorByName(ctx context.Context, name string) (*models.Vendor, error) {
	var v models.Vendor
	err := r.db.WithContext(ctx).Where("lower(name) = lower(?)", name).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
