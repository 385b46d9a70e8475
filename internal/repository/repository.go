package repository

import "gorm.io/gorm"

type Repository struct {
	DB           *gorm.DB
	Catalog      CatalogRepo
	Stock        StockRepo
	Reservations ReservationRepo
	Audit        AuditRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:           db,
		Catalog:      NewCatalogRepo(db),
		Stock:        NewStockRepo(db),
		Reservations: NewReservationRepo(db),
		Audit:        NewAuditRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// Глобальная транзакция на весь набор репо
func (r *Repository) WithTx(fn func(tx *Repository) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}
