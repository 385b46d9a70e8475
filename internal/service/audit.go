package service

import (
	"context"
	"fmt"

	"inventory-service/internal/models"
	"inventory-service/internal/repository"

	"go.uber.org/zap"
)

// AuditProducer зеркалирует записи журнала во внешнюю шину (Kafka).
type AuditProducer interface {
	Publish(ctx context.Context, entries []models.AuditEntry) error
}

// AuditLog — append-only приёмник журнала мутаций склада.
//
// durable=true: запись идёт внутри транзакции операции, её ошибка откатывает
// операцию. durable=false: запись best-effort после коммита — ошибка уходит
// в лог и в операционный канал, но не ломает видимый вызывающему результат
// (системой записи остаётся stock_lines).
type AuditLog struct {
	repo     *repository.Repository
	producer AuditProducer // nil — зеркало выключено
	log      *zap.Logger
	durable  bool
	opsErrs  chan error
}

func NewAuditLog(repo *repository.Repository, producer AuditProducer, log *zap.Logger, durable bool) *AuditLog {
	return &AuditLog{
		repo:     repo,
		producer: producer,
		log:      log,
		durable:  durable,
		opsErrs:  make(chan error, 64),
	}
}

func (a *AuditLog) Durable() bool { return a.durable }

// Errors — операционный канал ошибок недолговечной записи журнала.
func (a *AuditLog) Errors() <-chan error { return a.opsErrs }

// AppendTx пишет записи в рамках транзакции операции (durable-путь).
func (a *AuditLog) AppendTx(ctx context.Context, tx *repository.Repository, entries []models.AuditEntry) error {
	if err := tx.Audit.Append(ctx, entries); err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWrite, err)
	}
	return nil
}

// Finish завершает журналирование успешной операции: best-effort запись в
// базу (если не durable — durable-путь уже записал в транзакции) и зеркало.
func (a *AuditLog) Finish(ctx context.Context, entries []models.AuditEntry) {
	if len(entries) == 0 {
		return
	}
	if !a.durable {
		if err := a.repo.Audit.Append(ctx, entries); err != nil {
			a.report(fmt.Errorf("%w: %v", ErrAuditWrite, err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Publish(ctx, entries); err != nil {
			a.report(fmt.Errorf("audit mirror publish: %w", err))
		}
	}
}

func (a *AuditLog) report(err error) {
	a.log.Warn("audit write failed", zap.Error(err))
	select {
	case a.opsErrs <- err:
	default: // канал полон — не блокируем операцию
	}
}
