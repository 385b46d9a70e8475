package service

import (
	"context"
	"time"

	"inventory-service/internal/models"

	"github.com/google/uuid"
)

type ItemInput struct {
	SKU               string
	Name              string
	Description       string
	CategoryID        *uuid.UUID
	VendorID          *uuid.UUID
	UnitID            *uuid.UUID
	LowStockThreshold int64
	IsActive          bool
}

type ItemPatch struct {
	Name              *string
	Description       *string
	CategoryID        *uuid.UUID
	VendorID          *uuid.UUID
	UnitID            *uuid.UUID
	LowStockThreshold *int64
	IsActive          *bool
}

type ItemListFilter struct {
	CategoryID *uuid.UUID
	VendorID   *uuid.UUID
	OnlyActive *bool
	Query      string
	Limit      int
	Offset     int
}

// LowStockItem — строка отчёта о позициях ниже порога пополнения.
type LowStockItem struct {
	ItemID            uuid.UUID
	SKU               string
	Name              string
	OnHand            int64
	Reserved          int64
	Available         int64
	LowStockThreshold int64
}

// StockInfo — строка склада плюс сигнал о падении ниже порога позиции.
type StockInfo struct {
	Line     models.StockLine
	LowStock bool
}

type ReserveLine struct {
	ItemID   uuid.UUID
	Quantity int64
}

type CatalogService interface {
	CreateItem(ctx context.Context, in ItemInput) (*models.Item, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	ListItems(ctx context.Context, f ItemListFilter) ([]models.Item, int64, error)
	// ListLowStockItems — отчёт по активным позициям с available ниже порога.
	ListLowStockItems(ctx context.Context) ([]LowStockItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, patch ItemPatch) (*models.Item, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error)

	CreateCategory(ctx context.Context, name, description string) (*models.ItemCategory, error)
	ListCategories(ctx context.Context) ([]models.ItemCategory, error)
	CreateUnit(ctx context.Context, name, abbreviation, description string) (*models.UnitOfMeasure, error)
	ListUnits(ctx context.Context) ([]models.UnitOfMeasure, error)
	CreateVendor(ctx context.Context, name, description string) (*models.Vendor, error)
	ListVendors(ctx context.Context) ([]models.Vendor, error)
}

// ReservationEngine — единственный владелец мутаций stock_lines и reservations.
type ReservationEngine interface {
	GetStock(ctx context.Context, itemID uuid.UUID) (*StockInfo, error)
	// InitializeStock заводит строку склада под позицию. ErrAlreadyExists при повторе.
	InitializeStock(ctx context.Context, itemID uuid.UUID, onHand int64) (*models.StockLine, error)

	// Reserve — атомарно по всему набору строк: либо удержаны все, либо ни одной.
	// Пустой reservationID означает сгенерировать; повтор с тем же id и тем же
	// набором строк возвращает существующую резервацию без побочных эффектов.
	Reserve(ctx context.Context, reservationID string, lines []ReserveLine, ttl time.Duration) (*models.Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (*models.Reservation, error)
	Commit(ctx context.Context, reservationID string) error
	Release(ctx context.Context, reservationID string) error

	// ExpireOverdue снимает удержания всех просроченных PENDING-резерваций.
	ExpireOverdue(ctx context.Context) (int, error)
}
