// Package gateway is the boundary adapter (§2, §6): the only part of this
// repo that knows about HTTP. It exposes read-only snapshot queries over the
// session manager and, as an enrichment beyond the distilled spec's read
// endpoints, a websocket stream of vitals pushes. It is the teacher's API
// gateway trimmed to a read-only reporting surface — no auth, no order
// submission, no rate limiting, because none of those exist in this domain
// (§1: authentication is out of scope).
package gateway

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/solaris-clearae/edflow/internal/session"
	"github.com/solaris-clearae/edflow/internal/stream"
)

// Gateway is the gin-based HTTP boundary over one session.Manager.
type Gateway struct {
	router   *gin.Engine
	sessions *session.Manager
	broker   *stream.Broker
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

// New returns a Gateway with its routes already registered. broker may be
// nil to disable the /ws endpoint.
func New(sessions *session.Manager, broker *stream.Broker, log *logrus.Entry) *Gateway {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(log))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"*"},
	}))

	g := &Gateway{
		router:   router,
		sessions: sessions,
		broker:   broker,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	g.setupRoutes()
	return g
}

func (g *Gateway) setupRoutes() {
	g.router.GET("/status", g.requireSession(), g.getStatus)
	g.router.GET("/alerts", g.requireSession(), g.getAlerts)
	g.router.GET("/facilities", g.requireSession(), g.getFacilities)

	if g.broker != nil {
		g.router.GET("/ws", g.requireSession(), g.handleWebSocket)
	}
}

// Run starts the HTTP server on addr, blocking until it exits (§6's default
// listen 0.0.0.0:8000, configurable by the caller).
func (g *Gateway) Run(addr string) error {
	return g.router.Run(addr)
}

// Handler exposes the underlying http.Handler for callers that manage their
// own http.Server (graceful shutdown).
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// requireSession rejects a request missing session_id with a 422-class
// client error (§6); a present session_id is never rejected, even if it
// names a session that does not exist yet — unknown sessions are created on
// demand (§7).
func (g *Gateway) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"error": "session_id is required",
			})
			return
		}
		c.Set("session_id", sessionID)
		c.Next()
	}
}

func sessionIDOf(c *gin.Context) string {
	return c.MustGet("session_id").(string)
}

func ginLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("request handled")
	}
}
