package gateway

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"ChatStory/logger"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

type health struct {
	Status     string  `json:"status"`
	Uptime     string  `json:"uptime"`
	Goroutines int     `json:"goroutines"`
	RSS        uint64  `json:"rss_bytes,omitempty"`
	CPU        float64 `json:"cpu_percent,omitempty"`
	Online     int     `json:"online"`
}

func (s *Server) handleHealth(c *gin.Context) {
	h := health{
		Status:     "ok",
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Online:     s.hub.Stats().Online,
	}

	ctx := c.Request.Context()
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
			h.RSS = mem.RSS
		}
		if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
			h.CPU = cpu
		}
	} else {
		logger.Debug("[Gateway] process stats unavailable", zap.Error(err))
	}

	c.JSON(http.StatusOK, h)
}
