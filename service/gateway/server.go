package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ChatStory/global/config"
	"ChatStory/middleware"
	"ChatStory/middleware/security"
	"ChatStory/service/chat"
	"ChatStory/service/push"
	"ChatStory/service/storage"
	"ChatStory/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

// BotChecker decides whether a client token belongs to a bot.
type BotChecker interface {
	IsBot(ctx context.Context, token string) bool
}

// StatsReader exposes cluster wide counters and session presence for /stats.
type StatsReader interface {
	Totals(ctx context.Context) (storage.Totals, error)
	PresenceLookup(ctx context.Context, session string) (node string, ok bool, err error)
}

type Deps struct {
	Config *config.AppConfig
	Hub    *chat.Hub
	Bots   BotChecker
	// Stats is optional.
	Stats StatsReader
}

// Server is the HTTP surface of the chat: push streams, client operations
// and a few read-only endpoints.
type Server struct {
	cfg      *config.AppConfig
	hub      *chat.Hub
	bots     BotChecker
	stats    StatsReader
	mids     *middleware.MiddlewareManager
	ops      *push.Dispatcher
	upgrader websocket.Upgrader
	engine   *gin.Engine
	started  time.Time
}

func NewServer(d Deps) *Server {
	safe.MustNotNil(d.Config, "config")
	safe.MustNotNil(d.Hub, "hub")

	s := &Server{
		cfg:     d.Config,
		hub:     d.Hub,
		bots:    d.Bots,
		stats:   d.Stats,
		mids:    middleware.NewManager(),
		started: time.Now(),
	}
	if s.bots == nil {
		s.bots = humans{}
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(s.cfg.HTTP.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	s.ops = s.newDispatcher()
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	s.mids.Add(middleware.AccessLog(), middleware.Recovery(), middleware.Origin(s.cfg.HTTP.AllowedOrigins))
	r.Use(s.mids.Use())

	rt := middleware.Routes{
		R: r,
		Auth: security.Middleware(security.Options{
			CookieName: s.cfg.HTTP.CookieName,
			Exists:     s.hub.Exists,
		}),
	}
	rt.GET("/register", s.handleRegister, middleware.RouteOpt{})
	rt.GET("/ws", s.handleWS, middleware.RouteOpt{})
	rt.GETPOST("/match", s.handleMatch, middleware.RouteOpt{IsAuth: true})
	rt.GETPOST("/leave", s.handleLeave, middleware.RouteOpt{IsAuth: true})
	rt.GETPOST("/typing", s.handleTyping, middleware.RouteOpt{IsAuth: true})
	rt.GETPOST("/cancel", s.handleCancel, middleware.RouteOpt{IsAuth: true})
	rt.POST("/message", s.handleMessage, middleware.RouteOpt{IsAuth: true})
	rt.GET("/stats", s.handleStats, middleware.RouteOpt{})
	rt.GET("/healthz", s.handleHealth, middleware.RouteOpt{})

	if dir := s.cfg.HTTP.StaticDir; dir != "" {
		r.GET("/", s.handleIndex)
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(dir))))
	} else {
		r.NoRoute(func(c *gin.Context) {
			c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte("<h1>Page Not Found</h1>"))
		})
	}
	return r
}

// Run serves until ctx ends, then shuts the listeners down. With TLS
// enabled a second plain listener redirects to redirect_to.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var redirect *http.Server
	if s.cfg.TLSEnabled() && s.cfg.HTTP.RedirectPort > 0 {
		redirect = &http.Server{
			Addr:              s.cfg.HTTP.Host + ":" + strconv.Itoa(s.cfg.HTTP.RedirectPort),
			Handler:           RedirectHandler(s.cfg.HTTP.RedirectTo),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	errCh := make(chan error, 2)
	go func() {
		glog.Infof("http listening on %s tls=%v", srv.Addr, s.cfg.TLSEnabled())
		var err error
		if s.cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(s.cfg.HTTP.TLSCert, s.cfg.HTTP.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()
	if redirect != nil {
		go func() {
			glog.Infof("redirect listening on %s -> %s", redirect.Addr, s.cfg.HTTP.RedirectTo)
			errCh <- redirect.ListenAndServe()
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	// streams only end when their sessions are closed
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		glog.Warningf("http shutdown: %v", err)
	}
	if redirect != nil {
		_ = redirect.Shutdown(shutdownCtx)
	}

	if errors.Is(runErr, http.ErrServerClosed) {
		return nil
	}
	return runErr
}

// RedirectHandler answers every request with a permanent redirect to target.
func RedirectHandler(target string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc := target
		if loc == "" {
			loc = "https://" + r.Host + r.URL.RequestURI()
		}
		http.Redirect(w, r, loc, http.StatusMovedPermanently)
	})
}

type humans struct{}

func (humans) IsBot(context.Context, string) bool { return false }
