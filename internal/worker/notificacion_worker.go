package worker

// notificacion_worker.go
// Processes quotation-notification jobs from QueueNotificaciones.
// Sends a confirmation email to the vendor through the SMTP mailer,
// protected by the circuit breaker. Jobs that exhaust their retries
// are moved to the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cotizador/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const maxNotificacionAttempts = 3

// NotificacionJobPayload is the job envelope sent to QueueNotificaciones.
type NotificacionJobPayload struct {
	CotizacionID  string `json:"cotizacion_id"`
	ClienteNombre string `json:"cliente_nombre"`
	ToEmail       string `json:"to_email,omitempty"`
	Attempts      int    `json:"attempts,omitempty"`
}

// NotificacionWorker sends quotation confirmation emails.
type NotificacionWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewNotificacionWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client) *NotificacionWorker {
	return &NotificacionWorker{mailer: mailer, cb: cb, rdb: rdb}
}

// Process sends the confirmation email with exponential backoff.
// If the circuit breaker is open or all attempts fail, the job goes
// to the DLQ; the redrive cron re-enqueues it once SMTP recovers.
func (w *NotificacionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload NotificacionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Debug().Str("cotizacion_id", payload.CotizacionID).Msg("notificacion_worker: no destination email, skipping")
		return
	}

	subject := "Cotización registrada"
	body := fmt.Sprintf("La cotización %s para %s fue registrada correctamente.", payload.CotizacionID, payload.ClienteNombre)

	err := withRetry(ctx, maxNotificacionAttempts, func(attempt int) error {
		return w.cb.Execute(func() error {
			return w.mailer.SendNotificacion(payload.ToEmail, subject, body)
		})
	})
	if err != nil {
		payload.Attempts += maxNotificacionAttempts
		data, _ := json.Marshal(payload)
		SendToDLQ(ctx, w.rdb, QueueNotificaciones, "notificacion", data,
			fmt.Sprintf("send failed after %d attempts: %v", maxNotificacionAttempts, err),
			payload.Attempts)
		return
	}
	log.Info().Str("to", payload.ToEmail).Str("cotizacion_id", payload.CotizacionID).Msg("notificacion_worker: email sent")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
