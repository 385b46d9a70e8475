package sweeper

import (
	"context"
	"time"

	"inventory-service/internal/service"

	"go.uber.org/zap"
)

// Sweeper периодически снимает удержания просроченных резерваций.
type Sweeper struct {
	engine   service.ReservationEngine
	interval time.Duration
	log      *zap.Logger
	stopCh   chan struct{}
}

func New(engine service.ReservationEngine, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		engine:   engine,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info("starting expiry sweeper", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

func (s *Sweeper) Stop() {
	s.log.Info("stopping expiry sweeper")
	close(s.stopCh)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Выполняем сразу при старте
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			s.log.Info("expiry sweeper stopped")
			return
		case <-ctx.Done():
			s.log.Info("expiry sweeper cancelled")
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.engine.ExpireOverdue(ctx)
	if err != nil {
		s.log.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.log.Info("expired reservations released", zap.Int("count", count))
	}
}
