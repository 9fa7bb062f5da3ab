package gateway

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ChatStory/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleIndex serves index.html. Over HTTP/2 the assets the page loads
// first are pushed along with it.
func (s *Server) handleIndex(c *gin.Context) {
	dir := s.cfg.HTTP.StaticDir
	if p := c.Writer.Pusher(); p != nil {
		pushAssets(p, dir, s.cfg.HTTP.PushAssets)
	}
	c.File(filepath.Join(dir, "index.html"))
}

// pushAssets pushes every asset present under dir and returns how many
// were accepted.
func pushAssets(p http.Pusher, dir string, assets []string) int {
	n := 0
	for _, a := range assets {
		if !strings.HasPrefix(a, "/") {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(a))); err != nil {
			continue
		}
		if err := p.Push(a, nil); err != nil {
			logger.Debug("[Gateway] push asset", zap.String("path", a), zap.Error(err))
			continue
		}
		n++
	}
	return n
}
