package realtime

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/frer-max/fassr/internal/state"
)

// DefaultHeartbeat is the interval between keep-alive comments.
const DefaultHeartbeat = 25 * time.Second

// StreamHandler serves GET /api/updates. The first frame acknowledges the
// connection; after that every orders signal becomes one update frame.
func StreamHandler(hub *Hub, heartbeat time.Duration, metrics *Metrics, logger *zap.Logger) gin.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Content-Type", "text/event-stream")
		header.Set("Cache-Control", "no-cache, no-transform")
		header.Set("Connection", "keep-alive")
		header.Set("X-Accel-Buffering", "no")

		sub := hub.Subscribe()
		defer sub.Close()

		c.Status(http.StatusOK)
		if err := WriteEvent(c.Writer, FrameConnected); err != nil {
			return
		}
		c.Writer.Flush()
		metrics.frame(FrameConnected)
		logger.Debug("update stream opened", zap.String("remote", c.ClientIP()))

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		ctx := c.Request.Context()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case <-sub.Done():
				return false
			case <-ticker.C:
				if err := WriteComment(w, "ping"); err != nil {
					return false
				}
				metrics.frame("ping")
				return true
			case <-sub.Ready():
				for _, sig := range sub.Drain() {
					if sig.Kind != state.Orders {
						continue
					}
					if err := WriteEvent(w, FrameUpdate); err != nil {
						return false
					}
					metrics.frame(FrameUpdate)
				}
				return true
			}
		})
		logger.Debug("update stream closed", zap.String("remote", c.ClientIP()))
	}
}
