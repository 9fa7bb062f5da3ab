package gateway

import (
	"net/http"

	"ChatStory/logger"
	"ChatStory/middleware/security"
	"ChatStory/service/push"
	"ChatStory/tools/errs"
	"ChatStory/tools/safe"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type messageRequest struct {
	Msg *string `json:"msg" binding:"required"`
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// fail renders err. Unknown sessions get a bare 401 like the auth
// middleware gives them.
func fail(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	if status == http.StatusUnauthorized {
		c.AbortWithStatus(status)
		return
	}
	msg := http.StatusText(status)
	if ce, found := errs.AsCode(err); found {
		msg = ce.Msg
	}
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": msg})
}

func (s *Server) handleRegister(c *gin.Context) {
	ch := push.NewSSEChannel(s.cfg.Chat.SendBuffer, s.cfg.Chat.Heartbeat)
	id := s.hub.Register(ch)
	defer s.hub.Unregister(id)

	push.SetStreamHeaders(c.Writer.Header())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.HTTP.CookieName, id, 0, "/", "", s.cfg.TLSEnabled(), false)
	c.Status(http.StatusOK)

	if err := ch.Serve(c.Request.Context(), c.Writer); err != nil {
		logger.Debug("[Gateway] stream ended", zap.String("session", id), zap.Error(err))
	}
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Info("[Gateway] websocket upgrade failed", zap.Error(err))
		return
	}

	ch := push.NewWSChannel(conn, s.cfg.Chat.SendBuffer, push.WSOptions{
		WriteTimeout: s.cfg.Chat.WriteTimeout,
		PingInterval: s.cfg.Chat.Heartbeat,
		MaxMessage:   s.cfg.Chat.MaxMessage,
	})
	id := s.hub.Register(ch)
	defer s.hub.Unregister(id)
	safe.Go("ws-writer", ch.WritePump)

	ctx := c.Request.Context()
	err = ch.ReadPump(func(in push.Inbound) {
		if err := s.ops.Dispatch(ctx, id, in); err != nil {
			logger.Info("[Gateway] ws op failed", zap.String("session", id), zap.String("op", string(in.Op)), zap.Error(err))
		}
	})
	if err != nil {
		logger.Debug("[Gateway] ws read ended", zap.String("session", id), zap.Error(err))
	}
}

func (s *Server) handleMatch(c *gin.Context) {
	if err := s.match(c.Request.Context(), security.SessionID(c), c.GetHeader("token")); err != nil {
		fail(c, err)
		return
	}
	ok(c)
}

func (s *Server) handleLeave(c *gin.Context) {
	if err := s.hub.Leave(security.SessionID(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c)
}

func (s *Server) handleTyping(c *gin.Context) {
	if err := s.hub.Typing(security.SessionID(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c)
}

func (s *Server) handleMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrBadPayload.WrapMsg(err.Error()))
		return
	}
	if err := s.message(security.SessionID(c), *req.Msg); err != nil {
		fail(c, err)
		return
	}
	ok(c)
}

func (s *Server) handleCancel(c *gin.Context) {
	if err := s.hub.Dequeue(security.SessionID(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c)
}

func (s *Server) handleStats(c *gin.Context) {
	resp := gin.H{"hub": s.hub.Stats()}
	if s.stats == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	ctx := c.Request.Context()
	totals, err := s.stats.Totals(ctx)
	if err != nil {
		logger.Warn("[Gateway] read totals", zap.Error(err))
	} else {
		resp["totals"] = totals
	}

	// the caller's own session only
	if id, err := c.Cookie(s.cfg.HTTP.CookieName); err == nil && s.hub.Exists(id) {
		node, found, err := s.stats.PresenceLookup(ctx, id)
		switch {
		case err != nil:
			logger.Warn("[Gateway] read presence", zap.String("session", id), zap.Error(err))
		case found:
			resp["presence"] = gin.H{"session": id, "node": node}
		}
	}
	c.JSON(http.StatusOK, resp)
}
