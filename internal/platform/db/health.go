package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const healthPingTimeout = 5 * time.Second

// Health is the payload served on /health/db: a liveness verdict plus the
// pool counters an operator needs when order saves start timing out.
type Health struct {
	Status        string `json:"status"`
	TotalConns    int32  `json:"total_conns"`
	IdleConns     int32  `json:"idle_conns"`
	AcquiredConns int32  `json:"acquired_conns"`
	MaxConns      int32  `json:"max_conns"`
	Error         string `json:"error,omitempty"`
}

// CheckHealth pings the database under a short timeout and summarizes the
// pool. A failed ping yields status "unavailable" with the cause attached.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) Health {
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()

	stat := pool.Stat()
	h := Health{
		Status:        "ok",
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}
	if err := pool.Ping(ctx); err != nil {
		h.Status = "unavailable"
		h.Error = err.Error()
	}
	return h
}

// HealthHandler serves the pool summary, 503 when the ping fails.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := CheckHealth(c.Request().Context(), pool)
		if h.Status != "ok" {
			return c.JSON(http.StatusServiceUnavailable, h)
		}
		return c.JSON(http.StatusOK, h)
	}
}
