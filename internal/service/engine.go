package service

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errLedgerCorrupt — reserved оказался меньше удержания резервации; такое
// состояние недостижимо через движок и означает внешнее вмешательство в базу.
var errLedgerCorrupt = errors.New("stock ledger invariant violated")

type EngineConfig struct {
	MaxCASRetries         int
	DefaultReservationTTL time.Duration
}

type reservationEngine struct {
	repo  *repository.Repository
	audit *AuditLog
	cfg   EngineConfig
	log   *zap.Logger
	now   func() time.Time
}

func NewReservationEngine(repo *repository.Repository, audit *AuditLog, cfg EngineConfig, log *zap.Logger) *reservationEngine {
	if cfg.MaxCASRetries <= 0 {
		cfg.MaxCASRetries = 5
	}
	return &reservationEngine{
		repo:  repo,
		audit: audit,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

func (e *reservationEngine) requireAuth(ctx context.Context) (string, Role, error) {
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

// requireWriter: reserve/commit/release доступны только order-service и админу.
func (e *reservationEngine) requireWriter(ctx context.Context) error {
	_, role, err := e.requireAuth(ctx)
	if err != nil {
		return err
	}
	if role != RoleOrderService && role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func (e *reservationEngine) GetStock(ctx context.Context, itemID uuid.UUID) (*StockInfo, error) {
	if _, _, err := e.requireAuth(ctx); err != nil {
		return nil, err
	}

	item, err := e.repo.Catalog.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	line, err := e.repo.Stock.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, ErrStockNotFound
	}

	return &StockInfo{
		Line:     *line,
		LowStock: line.Available() < item.LowStockThreshold,
	}, nil
}

func (e *reservationEngine) InitializeStock(ctx context.Context, itemID uuid.UUID, onHand int64) (*models.StockLine, error) {
	_, role, err := e.requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if role != RoleAdmin {
		return nil, ErrForbidden
	}
	if onHand < 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := e.repo.Catalog.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	line := &models.StockLine{
		ItemID:  itemID,
		OnHand:  onHand,
		Version: 1,
	}
	entries := []models.AuditEntry{{
		Op:            models.AuditInitialize,
		ItemID:        itemID,
		OnHandDelta:   onHand,
		ResultVersion: 1,
	}}

	err = e.repo.WithTx(func(tx *repository.Repository) error {
		if existing, err := tx.Stock.Get(ctx, itemID); err != nil {
			return err
		} else if existing != nil {
			return ErrAlreadyExists
		}
		if err := tx.Stock.Create(ctx, line); err != nil {
			return err
		}
		if e.audit.Durable() {
			return e.audit.AppendTx(ctx, tx, entries)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}

	e.audit.Finish(ctx, entries)
	return line, nil
}

func (e *reservationEngine) Reserve(ctx context.Context, reservationID string, lines []ReserveLine, ttl time.Duration) (*models.Reservation, error) {
	if err := e.requireWriter(ctx); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrReservationEmpty
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if _, dup := seen[l.ItemID]; dup {
			return nil, ErrDuplicateItem
		}
		seen[l.ItemID] = struct{}{}
	}

	if reservationID == "" {
		reservationID = uuid.NewString()
	} else {
		existing, err := e.repo.Reservations.GetWithLines(ctx, reservationID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return e.resolveIdempotent(existing, lines)
		}
	}

	// Фиксированный порядок захвата строк защищает пересекающиеся
	// резервации от взаимного livelock.
	sorted := make([]ReserveLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].ItemID[:], sorted[j].ItemID[:]) < 0
	})

	itemIDs := make([]uuid.UUID, 0, len(sorted))
	for _, l := range sorted {
		itemIDs = append(itemIDs, l.ItemID)
	}
	// Ленивое снятие просроченных удержаний на затронутых позициях.
	if err := e.expireTouching(ctx, itemIDs); err != nil {
		e.log.Warn("lazy expiry sweep failed", zap.Error(err))
	}

	now := e.now()
	if ttl <= 0 {
		ttl = e.cfg.DefaultReservationTTL
	}
	var expiresAt *time.Time
	if ttl > 0 {
		t := now.Add(ttl)
		expiresAt = &t
	}

	res := &models.Reservation{
		ID:        reservationID,
		Status:    models.ReservationPending,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	for _, l := range sorted {
		res.Lines = append(res.Lines, models.ReservationLine{
			ReservationID: reservationID,
			ItemID:        l.ItemID,
			Quantity:      l.Quantity,
		})
	}

	var entries []models.AuditEntry
	err := e.repo.WithTx(func(tx *repository.Repository) error {
		if err := tx.Reservations.Create(ctx, res); err != nil {
			return err
		}
		for _, l := range sorted {
			ver, err := e.casMutate(ctx, tx, l.ItemID, func(sl *models.StockLine) error {
				if sl.Available() < l.Quantity {
					return ErrInsufficientStock
				}
				sl.Reserved += l.Quantity
				return nil
			})
			if err != nil {
				return err
			}
			entries = append(entries, models.AuditEntry{
				Op:            models.AuditReserve,
				ItemID:        l.ItemID,
				ReservedDelta: l.Quantity,
				ReservationID: reservationID,
				ResultVersion: ver,
			})
		}
		if e.audit.Durable() {
			return e.audit.AppendTx(ctx, tx, entries)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Гонка двух вызовов с одним id: проигравший применяет то же
		// правило идемпотентности к уже записанной резервации.
		existing, getErr := e.repo.Reservations.GetWithLines(ctx, reservationID)
		if getErr == nil && existing != nil {
			return e.resolveIdempotent(existing, lines)
		}
		return nil, ErrIdempotencyConflict
	}
	if err != nil {
		return nil, err
	}

	e.audit.Finish(ctx, entries)
	return res, nil
}

// resolveIdempotent: повтор с тем же id и тем же набором строк возвращает
// существующую резервацию, с другим набором — конфликт.
func (e *reservationEngine) resolveIdempotent(existing *models.Reservation, lines []ReserveLine) (*models.Reservation, error) {
	if len(existing.Lines) != len(lines) {
		return nil, ErrIdempotencyConflict
	}
	want := make(map[uuid.UUID]int64, len(lines))
	for _, l := range lines {
		want[l.ItemID] = l.Quantity
	}
	for _, l := range existing.Lines {
		if q, ok := want[l.ItemID]; !ok || q != l.Quantity {
			return nil, ErrIdempotencyConflict
		}
	}
	return existing, nil
}

func (e *reservationEngine) GetReservation(ctx context.Context, reservationID string) (*models.Reservation, error) {
	if _, _, err := e.requireAuth(ctx); err != nil {
		return nil, err
	}
	res, err := e.repo.Reservations.GetWithLines(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}
	return res, nil
}

func (e *reservationEngine) Commit(ctx context.Context, reservationID string) error {
	return e.finalize(ctx, reservationID, models.ReservationCommitted)
}

func (e *reservationEngine) Release(ctx context.Context, reservationID string) error {
	return e.finalize(ctx, reservationID, models.ReservationReleased)
}

func (e *reservationEngine) finalize(ctx context.Context, reservationID string, to models.ReservationStatus) error {
	if err := e.requireWriter(ctx); err != nil {
		return err
	}

	res, err := e.repo.Reservations.GetWithLines(ctx, reservationID)
	if err != nil {
		return err
	}
	if res == nil {
		return ErrReservationNotFound
	}
	if res.Status != models.ReservationPending {
		return ErrInvalidState
	}
	if res.ExpiresAt != nil && e.now().After(*res.ExpiresAt) {
		// Просроченная PENDING уже не фиксируется и не отпускается вручную —
		// истекает на месте.
		if _, err := e.expireOne(ctx, res); err != nil {
			return err
		}
		return ErrInvalidState
	}

	var entries []models.AuditEntry
	err = e.repo.WithTx(func(tx *repository.Repository) error {
		entries, err = e.settle(ctx, tx, res, to)
		return err
	})
	if err != nil {
		return err
	}

	e.audit.Finish(ctx, entries)
	return nil
}

func (e *reservationEngine) ExpireOverdue(ctx context.Context) (int, error) {
	list, err := e.repo.Reservations.ListExpired(ctx, e.now(), 0)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range list {
		applied, err := e.expireOne(ctx, &list[i])
		if err != nil {
			return count, err
		}
		if applied {
			count++
		}
	}
	return count, nil
}

// expireTouching — ленивый аналог ExpireOverdue для позиций резервируемого набора.
func (e *reservationEngine) expireTouching(ctx context.Context, itemIDs []uuid.UUID) error {
	list, err := e.repo.Reservations.ListExpiredByItems(ctx, itemIDs, e.now())
	if err != nil {
		return err
	}
	for i := range list {
		if _, err := e.expireOne(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *reservationEngine) expireOne(ctx context.Context, res *models.Reservation) (bool, error) {
	var entries []models.AuditEntry
	err := e.repo.WithTx(func(tx *repository.Repository) error {
		var err error
		entries, err = e.settle(ctx, tx, res, models.ReservationExpired)
		return err
	})
	if errors.Is(err, ErrInvalidState) {
		// параллельный commit/release/expire успел раньше
		return false, nil
	}
	if err != nil {
		return false, err
	}

	e.audit.Finish(ctx, entries)
	e.log.Info("reservation expired",
		zap.String("reservation_id", res.ID),
		zap.Int("lines", len(res.Lines)),
	)
	return true, nil
}

// settle выполняет терминальный переход PENDING -> to и соответствующие
// мутации stock_lines в рамках переданной транзакции.
func (e *reservationEngine) settle(ctx context.Context, tx *repository.Repository, res *models.Reservation, to models.ReservationStatus) ([]models.AuditEntry, error) {
	ok, err := tx.Reservations.MarkIfPending(ctx, res.ID, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	var op models.AuditOp
	switch to {
	case models.ReservationCommitted:
		op = models.AuditCommit
	case models.ReservationReleased:
		op = models.AuditRelease
	case models.ReservationExpired:
		op = models.AuditExpire
	default:
		return nil, ErrInvalidState
	}

	lines := make([]models.ReservationLine, len(res.Lines))
	copy(lines, res.Lines)
	sort.Slice(lines, func(i, j int) bool {
		return bytes.Compare(lines[i].ItemID[:], lines[j].ItemID[:]) < 0
	})

	var entries []models.AuditEntry
	for _, l := range lines {
		qty := l.Quantity
		ver, err := e.casMutate(ctx, tx, l.ItemID, func(sl *models.StockLine) error {
			if sl.Reserved < qty {
				return errLedgerCorrupt
			}
			sl.Reserved -= qty
			if to == models.ReservationCommitted {
				sl.OnHand -= qty
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		entry := models.AuditEntry{
			Op:            op,
			ItemID:        l.ItemID,
			ReservedDelta: -qty,
			ReservationID: res.ID,
			ResultVersion: ver,
		}
		if to == models.ReservationCommitted {
			entry.OnHandDelta = -qty
		}
		entries = append(entries, entry)
	}

	if e.audit.Durable() {
		if err := e.audit.AppendTx(ctx, tx, entries); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// casMutate — цикл read-compute-write по одной строке склада: перечитывает
// строку, применяет mutate и пишет назад условным UPDATE по version.
// Возвращает версию строки после успешной записи.
func (e *reservationEngine) casMutate(ctx context.Context, tx *repository.Repository, itemID uuid.UUID, mutate func(*models.StockLine) error) (int64, error) {
	for attempt := 0; attempt < e.cfg.MaxCASRetries; attempt++ {
		line, err := tx.Stock.Get(ctx, itemID)
		if err != nil {
			return 0, err
		}
		if line == nil {
			return 0, ErrStockNotFound
		}

		if err := mutate(line); err != nil {
			return 0, err
		}

		ok, err := tx.Stock.UpdateCAS(ctx, itemID, line.Version, line.OnHand, line.Reserved)
		if err != nil {
			return 0, err
		}
		if ok {
			return line.Version + 1, nil
		}
		// проигранная гонка за version — перечитываем и повторяем
	}
	return 0, ErrContention
}
