package worker

// dlq.go — Dead Letter Queue
// Los jobs de notificación que agotan sus reintentos se estacionan en una
// lista Redis por cola de origen (dlq:{cola_original}). El redrive cron los
// vuelve a encolar cuando el SMTP se recupera; pasado el tope de intentos
// quedan para inspección manual.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry envuelve un job fallido con metadata de diagnóstico.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
	Attempts      int             `json:"attempts"`
}

// SendToDLQ estaciona un job fallido. Nunca devuelve error: si la DLQ misma
// falla solo se loguea, un job de notificación no justifica tumbar al worker.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// PopDLQ saca la entrada más antigua de la DLQ de una cola. Devuelve el raw
// original para poder restaurarla intacta si el redrive falla a mitad de
// camino. (nil, "", nil) cuando la DLQ está vacía.
func PopDLQ(ctx context.Context, rdb *redis.Client, queue string) (*DLQEntry, string, error) {
	raw, err := rdb.RPop(ctx, DLQPrefix+queue).Result()
	if err == redis.Nil {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	var entry DLQEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, raw, err
	}
	return &entry, raw, nil
}

// RestoreToDLQ devuelve una entrada (en su forma raw) a la cabeza de la DLQ,
// preservando el orden de inspección.
func RestoreToDLQ(ctx context.Context, rdb *redis.Client, queue string, raw string) {
	if err := rdb.LPush(ctx, DLQPrefix+queue, raw).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to restore entry")
	}
}

// DLQLength expone la profundidad de la DLQ para el health check.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
