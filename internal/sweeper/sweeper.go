package sweeper

import (
	"context"
	"time"

	"github.com/pushp314/shortlink-backend/internal/service"
	"github.com/pushp314/shortlink-backend/pkg/logger"
)

// Sweeper periodically deletes expired links.
type Sweeper struct {
	links    *service.LinkService
	interval time.Duration
}

func New(links *service.LinkService, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{links: links, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.links.SweepExpired(ctx); err != nil {
		logger.Error().Err(err).Msg("Expired link sweep failed")
	}
}
