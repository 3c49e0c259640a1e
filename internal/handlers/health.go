package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Health reports 200 when every dependency answers within two seconds.
func Health(deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}
		for name, dep := range deps {
			if err := dep.PingContext(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = err.Error()
				continue
			}
			checks[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	}
}
