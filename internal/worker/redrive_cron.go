package worker

// redrive_cron.go
// Background goroutine that periodically re-enqueues notification jobs
// parked in the DLQ. Only drains while the circuit breaker is closed,
// so a downed SMTP server is not hammered with stale jobs.

import (
	"context"
	"encoding/json"
	"time"

	"cotizador/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redriveTickInterval = 30 * time.Second
	redriveBatchSize    = 10
	// Entries that already burned this many attempts stay parked for
	// manual inspection.
	maxRedriveAttempts = 9
)

// RedriveCronConfig holds the dependencies for the redrive goroutine.
type RedriveCronConfig struct {
	RDB        *redis.Client
	CB         *infra.CircuitBreaker
	Dispatcher *Dispatcher
}

// StartRedriveCron launches a goroutine that ticks every 30s and moves a
// small batch of DLQ entries back to the main queue. It respects the
// context for graceful shutdown.
func StartRedriveCron(ctx context.Context, cfg RedriveCronConfig) {
	go func() {
		ticker := time.NewTicker(redriveTickInterval)
		defer ticker.Stop()

		log.Info().Msg("redrive_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("redrive_cron: shutting down")
				return
			case <-ticker.C:
				processRedrives(ctx, cfg)
			}
		}
	}()
}

func processRedrives(ctx context.Context, cfg RedriveCronConfig) {
	// Skip the whole tick while the breaker is open.
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("redrive_cron: circuit breaker is open, skipping tick")
		return
	}

	for i := 0; i < redriveBatchSize; i++ {
		entry, raw, err := PopDLQ(ctx, cfg.RDB, QueueNotificaciones)
		if err != nil {
			log.Error().Err(err).Msg("redrive_cron: corrupt or unreadable DLQ entry, discarding")
			continue
		}
		if entry == nil {
			return
		}
		if entry.Attempts >= maxRedriveAttempts {
			// Park it again at the head so it is not re-inspected
			// every tick.
			RestoreToDLQ(ctx, cfg.RDB, QueueNotificaciones, raw)
			log.Warn().
				Str("job_type", entry.JobType).
				Int("attempts", entry.Attempts).
				Msg("redrive_cron: entry exceeded max redrive attempts, leaving in DLQ")
			return
		}

		var payload NotificacionJobPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			log.Error().Err(err).Msg("redrive_cron: corrupt payload, discarding")
			continue
		}
		if err := cfg.Dispatcher.EnqueueNotificacion(ctx, payload); err != nil {
			log.Error().Err(err).Msg("redrive_cron: failed to re-enqueue, restoring DLQ entry")
			RestoreToDLQ(ctx, cfg.RDB, QueueNotificaciones, raw)
			return
		}
		log.Info().
			Str("job_type", entry.JobType).
			Int("attempts", entry.Attempts).
			Msg("redrive_cron: entry re-enqueued")
	}
}
