package migrate

import (
	"context"
	"inventory-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto
	CreateChecks           bool // CHECK-constraint'ы
	CreateIndexes          bool // индексы и UNIQUE
	CreateFKsViaSQL        bool // FK через Exec после AutoMigrate
	CreateUpdatedAtTrigger bool // триггеры updated_at
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
	}
}

func MigrateInventoryDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы каталога/склада")

	if opt.CreateExtensions {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("pgcrypto error", zap.Error(err))
			return err
		}
	}

	log.Info("Создание таблиц: каталог, stock_lines, reservations, audit_entries")
	if err := db.AutoMigrate(
		&models.ItemCategory{},
		&models.UnitOfMeasure{},
		&models.Vendor{},
		&models.Item{},
		&models.StockLine{},
		&models.Reservation{},
		&models.ReservationLine{},
		&models.AuditEntry{},
	); err != nil {
		log.Error("AutoMigrate error", zap.Error(err))
		return err
	}

	if opt.CreateUpdatedAtTrigger {
		if err := db.Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_items_updated ON items;
CREATE TRIGGER trg_items_updated BEFORE UPDATE ON items
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_stock_lines_updated ON stock_lines;
CREATE TRIGGER trg_stock_lines_updated BEFORE UPDATE ON stock_lines
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
			log.Error("triggers error", zap.Error(err))
			return err
		}
	}

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")

		// Главный инвариант склада: 0 <= reserved <= on_hand.
		if err := db.Exec(`
ALTER TABLE stock_lines
	DROP CONSTRAINT IF EXISTS chk_stock_lines_non_negative,
	ADD CONSTRAINT chk_stock_lines_non_negative
	CHECK (on_hand >= 0 AND reserved >= 0 AND reserved <= on_hand);
`).Error; err != nil {
			log.Error("chk stock_lines", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE stock_lines
	DROP CONSTRAINT IF EXISTS chk_stock_lines_version_non_negative,
	ADD CONSTRAINT chk_stock_lines_version_non_negative
	CHECK (version >= 0);
`).Error; err != nil {
			log.Error("chk stock_lines.version", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE reservation_lines
	DROP CONSTRAINT IF EXISTS chk_reservation_lines_quantity_gt_zero,
	ADD CONSTRAINT chk_reservation_lines_quantity_gt_zero
	CHECK (quantity > 0);
`).Error; err != nil {
			log.Error("chk reservation_lines.qty", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE reservations
	DROP CONSTRAINT IF EXISTS chk_reservations_status_allowed,
	ADD CONSTRAINT chk_reservations_status_allowed
	CHECK (status IN ('PENDING','COMMITTED','RELEASED','EXPIRED'));
`).Error; err != nil {
			log.Error("chk reservations.status", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE items
	DROP CONSTRAINT IF EXISTS chk_items_low_stock_threshold_non_negative,
	ADD CONSTRAINT chk_items_low_stock_threshold_non_negative
	CHECK (low_stock_threshold >= 0);
`).Error; err != nil {
			log.Error("chk items.low_stock_threshold", zap.Error(err))
			return err
		}
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов и уникальностей")

		// SKU — глобальная идентичность позиции, без учёта регистра
		if err := db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_items_sku
ON items (lower(sku));
`).Error; err != nil {
			log.Error("ux items.sku", zap.Error(err))
			return err
		}

		// Скан просроченных PENDING-резерваций для expire_overdue
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_reservations_pending_expires
ON reservations (expires_at)
WHERE status = 'PENDING' AND expires_at IS NOT NULL;
`).Error; err != nil {
			log.Error("ix reservations pending_expires", zap.Error(err))
			return err
		}

		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_audit_entries_item_seq
ON audit_entries (item_id, seq);
`).Error; err != nil {
			log.Error("ix audit item_seq", zap.Error(err))
			return err
		}
	}

	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")

		if err := db.Exec(`
ALTER TABLE stock_lines
  DROP CONSTRAINT IF EXISTS fk_stock_lines_item,
  ADD CONSTRAINT fk_stock_lines_item
    FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("fk stock_lines.item_id", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE reservation_lines
  DROP CONSTRAINT IF EXISTS fk_reservation_lines_reservation,
  ADD CONSTRAINT fk_reservation_lines_reservation
    FOREIGN KEY (reservation_id) REFERENCES reservations(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("fk reservation_lines.reservation_id", zap.Error(err))
			return err
		}

		// CASCADE: историю хранит audit_entries, строки резерваций — рабочее
	// состояние. Удаление позиции с активным удержанием отбивает сервис.
	if err := db.Exec(`
ALTER TABLE reservation_lines
  DROP CONSTRAINT IF EXISTS fk_reservation_lines_item,
  ADD CONSTRAINT fk_reservation_lines_item
    FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("fk reservation_lines.item_id", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE items
  DROP CONSTRAINT IF EXISTS fk_items_category,
  ADD CONSTRAINT fk_items_category
    FOREIGN KEY (category_id) REFERENCES item_categories(id) ON DELETE SET NULL;
`).Error; err != nil {
			log.Error("fk items.category_id", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE items
  DROP CONSTRAINT IF EXISTS fk_items_vendor,
  ADD CONSTRAINT fk_items_vendor
    FOREIGN KEY (vendor_id) REFERENCES vendors(id) ON DELETE SET NULL;
`).Error; err != nil {
			log.Error("fk items.vendor_id", zap.Error(err))
			return err
		}

		if err := db.Exec(`
ALTER TABLE items
  DROP CONSTRAINT IF EXISTS fk_items_unit,
  ADD CONSTRAINT fk_items_unit
    FOREIGN KEY (unit_id) REFERENCES unit_of_measures(id) ON DELETE SET NULL;
`).Error; err != nil {
			log.Error("fk items.unit_id", zap.Error(err))
			return err
		}
	}

	log.Info("Миграция базы каталога/склада успешно завершена")
	return nil
}
