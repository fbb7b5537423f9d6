package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type endedCompleter interface {
	CompleteEnded(ctx context.Context) (int, error)
}

// Sweeper periodically completes confirmed bookings that have ended.
type Sweeper struct {
	bookings endedCompleter
	interval time.Duration
	logger   zerolog.Logger
}

func NewSweeper(bookings endedCompleter, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		bookings: bookings,
		interval: interval,
		logger:   logger.With().Str("module", "sweeper").Logger(),
	}
}

// Start blocks until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	n, err := s.bookings.CompleteEnded(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to complete ended bookings")
		return
	}
	if n > 0 {
		s.logger.Info().Int("completed", n).Msg("ended bookings completed")
	}
}
