package handler

import (
	"context"
	"net/http"
	"time"

	"cotizador/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reporta conectividad de DB y Redis más la profundidad de la cola de
// notificaciones y su DLQ. Solo DB/Redis degradan el status: una DLQ con
// entradas es una alerta operativa, no una caída del servicio.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		var pendientes, enDLQ int64
		if redisStatus == "connected" {
			pendientes, _ = rdb.LLen(ctx, worker.QueueNotificaciones).Result()
			enDLQ, _ = worker.DLQLength(ctx, rdb, worker.QueueNotificaciones)
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":                        status == http.StatusOK,
			"db":                        dbStatus,
			"redis":                     redisStatus,
			"notificaciones_pendientes": pendientes,
			"notificaciones_dlq":        enDLQ,
		})
	}
}
