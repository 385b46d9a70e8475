package http

import (
	"time"

	"inventory-service/internal/models"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func NewErrorResponse(code, msg string) ErrorResponse {
	return ErrorResponse{Code: code, Error: msg}
}

type CreateItemRequest struct {
	SKU               string     `json:"sku" binding:"required"`
	Name              string     `json:"name" binding:"required"`
	Description       string     `json:"description"`
	CategoryID        *uuid.UUID `json:"category_id"`
	VendorID          *uuid.UUID `json:"vendor_id"`
	UnitID            *uuid.UUID `json:"unit_id"`
	LowStockThreshold int64      `json:"low_stock_threshold"`
	IsActive          *bool      `json:"is_active"`
}

type UpdateItemRequest struct {
	Name              *string    `json:"name"`
	Description       *string    `json:"description"`
	CategoryID        *uuid.UUID `json:"category_id"`
	VendorID          *uuid.UUID `json:"vendor_id"`
	UnitID            *uuid.UUID `json:"unit_id"`
	LowStockThreshold *int64     `json:"low_stock_threshold"`
	IsActive          *bool      `json:"is_active"`
}

type ItemListResponse struct {
	Items []models.Item `json:"items"`
	Total int64         `json:"total"`
}

type LowStockItemResponse struct {
	ItemID            uuid.UUID `json:"item_id"`
	SKU               string    `json:"sku"`
	Name              string    `json:"name"`
	OnHand            int64     `json:"on_hand"`
	Reserved          int64     `json:"reserved"`
	Available         int64     `json:"available"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
}

type LowStockListResponse struct {
	Items []LowStockItemResponse `json:"items"`
}

type CreateNamedRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateUnitRequest struct {
	Name         string `json:"name" binding:"required"`
	Abbreviation string `json:"abbreviation" binding:"required"`
	Description  string `json:"description"`
}

type InitializeStockRequest struct {
	OnHand int64 `json:"on_hand" binding:"min=0"`
}

type StockResponse struct {
	ItemID    uuid.UUID `json:"item_id"`
	OnHand    int64     `json:"on_hand"`
	Reserved  int64     `json:"reserved"`
	Available int64     `json:"available"`
	Version   int64     `json:"version"`
	LowStock  bool      `json:"low_stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReserveLineRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int64     `json:"quantity" binding:"required"`
}

type ReserveRequest struct {
	// ReservationID — idempotency key вызывающего; пустой — сгенерируем.
	ReservationID string               `json:"reservation_id"`
	Lines         []ReserveLineRequest `json:"lines" binding:"required"`
	TTLSeconds    int64                `json:"ttl_seconds"`
}

type ReservationLineResponse struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int64     `json:"quantity"`
}

type ReservationResponse struct {
	ReservationID string                    `json:"reservation_id"`
	Status        string                    `json:"status"`
	Lines         []ReservationLineResponse `json:"lines"`
	CreatedAt     time.Time                 `json:"created_at"`
	ExpiresAt     *time.Time                `json:"expires_at,omitempty"`
}

func toReservationResponse(res *models.Reservation) ReservationResponse {
	out := ReservationResponse{
		ReservationID: res.ID,
		Status:        string(res.Status),
		CreatedAt:     res.CreatedAt,
		ExpiresAt:     res.ExpiresAt,
	}
	for _, l := range res.Lines {
		out.Lines = append(out.Lines, ReservationLineResponse{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return out
}
