package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type catalogService struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewCatalogService(repo *repository.Repository) *catalogService {
	return &catalogService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *catalogService) requireAuth(ctx context.Context) (string, Role, error) {
	caller, ok := CallerFromContext(ctx)
	if !ok {
		return "", "", ErrUnauthorized
	}
	role, ok := RoleFromContext(ctx)
	if !ok {
		return "", "", ErrUnauthorized
	}
	return caller, role, nil
}

func (s *catalogService) requireAdmin(ctx context.Context) error {
	_, role, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}
	if role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *catalogService) CreateItem(ctx context.Context, in ItemInput) (*models.Item, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	item := &models.Item{
		SKU:               strings.TrimSpace(in.SKU),
		Name:              strings.TrimSpace(in.Name),
		Description:       strings.TrimSpace(in.Description),
		CategoryID:        in.CategoryID,
		VendorID:          in.VendorID,
		UnitID:            in.UnitID,
		LowStockThreshold: in.LowStockThreshold,
		IsActive:          in.IsActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.repo.WithTx(func(tx *repository.Repository) error {
		if existing, err := tx.Catalog.GetItemBySKU(ctx, item.SKU); err != nil {
			return err
		} else if existing != nil {
			return ErrSKUAlreadyExists
		}
		return tx.Catalog.CreateItem(ctx, item)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrSKUAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *catalogService) GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.repo.Catalog.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *catalogService) ListItems(ctx context.Context, f ItemListFilter) ([]models.Item, int64, error) {
	return s.repo.Catalog.ListItems(ctx, repository.ItemListFilter{
		CategoryID: f.CategoryID,
		VendorID:   f.VendorID,
		OnlyActive: f.OnlyActive,
		Query:      f.Query,
		Limit:      f.Limit,
		Offset:     f.Offset,
	})
}

func (s *catalogService) ListLowStockItems(ctx context.Context) ([]LowStockItem, error) {
	rows, err := s.repo.Catalog.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LowStockItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, LowStockItem{
			ItemID:            r.ItemID,
			SKU:               r.SKU,
			Name:              r.Name,
			OnHand:            r.OnHand,
			Reserved:          r.Reserved,
			Available:         r.OnHand - r.Reserved,
			LowStockThreshold: r.LowStockThreshold,
		})
	}
	return out, nil
}

func (s *catalogService) UpdateItem(ctx context.Context, itemID uuid.UUID, patch ItemPatch) (*models.Item, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	item, err := s.repo.Catalog.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	// SKU не патчится: идентичность позиции неизменяема.
	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		fields["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.CategoryID != nil {
		fields["category_id"] = *patch.CategoryID
	}
	if patch.VendorID != nil {
		fields["vendor_id"] = *patch.VendorID
	}
	if patch.UnitID != nil {
		fields["unit_id"] = *patch.UnitID
	}
	if patch.LowStockThreshold != nil {
		if *patch.LowStockThreshold < 0 {
			return nil, ErrInvalidQuantity
		}
		fields["low_stock_threshold"] = *patch.LowStockThreshold
	}
	if patch.IsActive != nil {
		fields["is_active"] = *patch.IsActive
	}

	if len(fields) == 0 {
		return item, nil
	}
	fields["updated_at"] = s.now()

	if err := s.repo.Catalog.UpdateItemFields(ctx, itemID, fields); err != nil {
		return nil, err
	}
	return s.repo.Catalog.GetItemByID(ctx, itemID)
}

func (s *catalogService) DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return false, err
	}

	item, err := s.repo.Catalog.GetItemByID(ctx, itemID)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, ErrItemNotFound
	}

	line, err := s.repo.Stock.Get(ctx, itemID)
	if err != nil {
		return false, err
	}
	if line != nil && line.Reserved > 0 {
		return false, ErrHeldStock
	}

	return s.repo.Catalog.DeleteItem(ctx, itemID)
}

func (s *catalogService) CreateCategory(ctx context.Context, name, description string) (*models.ItemCategory, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if existing, err := s.repo.Catalog.GetCategoryByName(ctx, name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrAlreadyExists
	}
	c := &models.ItemCategory{Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.Catalog.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return c, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]models.ItemCategory, error) {
	return s.repo.Catalog.ListCategories(ctx)
}

func (s *catalogService) CreateUnit(ctx context.Context, name, abbreviation, description string) (*models.UnitOfMeasure, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if existing, err := s.repo.Catalog.GetUnitByName(ctx, name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrAlreadyExists
	}
	u := &models.UnitOfMeasure{
		Name:         name,
		Abbreviation: strings.TrimSpace(abbreviation),
		Description:  strings.TrimSpace(description),
	}
	if err := s.repo.Catalog.CreateUnit(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return u, nil
}

func (s *catalogService) ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error) {
	return s.repo.Catalog.ListUnits(ctx)
}

func (s *catalogService) CreateVendor(ctx context.Context, name, description string) (*models.Vendor, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if existing, err := s.repo.Catalog.GetVendorByName(ctx, name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrAlreadyExists
	}
	v := &models.Vendor{Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.Catalog.CreateVendor(ctx, v); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return v, nil
}

func (s *catalogService) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	return s.repo.Catalog.ListVendors(ctx)
}
