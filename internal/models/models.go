package models

import (
	"time"

	"github.com/google/uuid"
)

type ItemCategory struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"type:text;not null;uniqueIndex"`
	Description string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (ItemCategory) TableName() string {
	return "item_categories"
}

type UnitOfMeasure struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"type:text;not null;uniqueIndex"`
	Abbreviation string    `gorm:"type:text;not null;uniqueIndex"`
	Description  string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (UnitOfMeasure) TableName() string {
	return "unit_of_measures"
}

type Vendor struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"type:text;not null;uniqueIndex"`
	Description string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Vendor) TableName() string {
	return "vendors"
}

type Item struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string    `gorm:"type:text;not null"` // неизменяемый после создания
	Name        string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text"`

	CategoryID *uuid.UUID `gorm:"type:uuid;index"`
	VendorID   *uuid.UUID `gorm:"type:uuid;index"`
	UnitID     *uuid.UUID `gorm:"type:uuid;index"`

	LowStockThreshold int64 `gorm:"not null;default:0"`
	IsActive          bool  `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Item) TableName() string {
	return "items"
}

// StockLine — строка склада 1:1 с items. version растёт на каждой мутации,
// все условные UPDATE проверяют его (optimistic locking).
type StockLine struct {
	ItemID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	OnHand   int64     `gorm:"not null;default:0"`
	Reserved int64     `gorm:"not null;default:0"`
	Version  int64     `gorm:"not null;default:0"`

	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (StockLine) TableName() string {
	return "stock_lines"
}

// Available — сколько ещё можно зарезервировать.
func (s StockLine) Available() int64 {
	return s.OnHand - s.Reserved
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationCommitted ReservationStatus = "COMMITTED"
	ReservationReleased  ReservationStatus = "RELEASED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

// Terminal — COMMITTED/RELEASED/EXPIRED необратимы.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCommitted || s == ReservationReleased || s == ReservationExpired
}

type Reservation struct {
	// ID — idempotency key, задаётся вызывающим сервисом или генерируется.
	ID     string            `gorm:"type:text;primaryKey"`
	Status ReservationStatus `gorm:"type:text;not null;default:'PENDING';index"`

	Lines []ReservationLine `gorm:"foreignKey:ReservationID;references:ID"`

	CreatedAt time.Time  `gorm:"not null;default:now();index"`
	ExpiresAt *time.Time `gorm:"index"`
}

func (Reservation) TableName() string {
	return "reservations"
}

type ReservationLine struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ReservationID string    `gorm:"type:text;not null;index;uniqueIndex:ux_reservation_lines_res_item"`
	ItemID        uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_reservation_lines_res_item"`
	Quantity      int64     `gorm:"not null"`
}

func (ReservationLine) TableName() string {
	return "reservation_lines"
}

type AuditOp string

const (
	AuditInitialize AuditOp = "INITIALIZE"
	AuditReserve    AuditOp = "RESERVE"
	AuditCommit     AuditOp = "COMMIT"
	AuditRelease    AuditOp = "RELEASE"
	AuditExpire     AuditOp = "EXPIRE"
)

// AuditEntry — append-only журнал всех мутаций склада. Никогда не изменяется
// и не удаляется; по нему сверяется живое состояние stock_lines.
type AuditEntry struct {
	Seq           int64     `gorm:"primaryKey;autoIncrement"`
	Op            AuditOp   `gorm:"type:text;not null"`
	ItemID        uuid.UUID `gorm:"type:uuid;not null;index"`
	OnHandDelta   int64     `gorm:"not null"`
	ReservedDelta int64     `gorm:"not null"`
	ReservationID string    `gorm:"type:text;index"`
	ResultVersion int64     `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}
