// Package api is the HTTP surface: the websocket upgrade, account
// register/login, health, status and Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hvz-game/server/internal/auth"
	"github.com/hvz-game/server/internal/metrics"
	"github.com/hvz-game/server/internal/world"
	"go.uber.org/zap"
)

const authTimeout = 5 * time.Second

// Config wires the router to the rest of the server.
type Config struct {
	Log     *zap.Logger
	Auth    auth.Provider
	Tokens  *auth.TokenIssuer
	Metrics *metrics.Metrics      // nil disables /metrics
	WS      http.Handler          // websocket upgrade, nil disables /ws
	Status  func() *world.Summary // latest tick summary, safe off the game loop
}

type credentials struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

// NewRouter builds the gin engine.
func NewRouter(cfg Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(cfg.Log))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.GinMiddleware())
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	if cfg.WS != nil {
		r.GET("/ws", gin.WrapH(cfg.WS))
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{cfg: cfg}
	api := r.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.GET("/status", h.status)
	}
	return r
}

type handlers struct {
	cfg Config
}

func (h *handlers) register(c *gin.Context) {
	h.authenticate(c, true)
}

func (h *handlers) login(c *gin.Context) {
	h.authenticate(c, false)
}

func (h *handlers) authenticate(c *gin.Context, register bool) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, auth.Result{Success: false, Message: "invalid request"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), authTimeout)
	defer cancel()

	res := auth.Authenticate(ctx, h.cfg.Auth, h.cfg.Tokens, register, req.Username, req.Password, req.DisplayName)
	switch {
	case res.Success && register:
		c.JSON(http.StatusCreated, res)
	case res.Success:
		c.JSON(http.StatusOK, res)
	case register:
		c.JSON(http.StatusBadRequest, res)
	default:
		c.JSON(http.StatusUnauthorized, res)
	}
	h.cfg.Log.Info("HTTP 驗證",
		zap.String("account", auth.NormalizeName(req.Username)),
		zap.Bool("register", register),
		zap.Bool("success", res.Success))
}

func (h *handlers) status(c *gin.Context) {
	if h.cfg.Status == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "not running"})
		return
	}
	c.JSON(http.StatusOK, h.cfg.Status())
}

// requestLogger logs every request at Debug, 5xx at Warn.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("HTTP 請求失敗", fields...)
			return
		}
		log.Debug("HTTP 請求", fields...)
	}
}
