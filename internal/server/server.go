package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"TradeTerminal/internal/catalog"
	"TradeTerminal/internal/collector"
	"TradeTerminal/internal/logger"
	"TradeTerminal/internal/recorder"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server exposes the dashboard over HTTP and websocket.
type Server struct {
	Collector *collector.Collector
	Catalog   *catalog.Catalog
	Recorder  recorder.Recorder
	Hub       *Hub

	engine *gin.Engine
	http   *http.Server
}

// New builds the router. debug enables gin's debug mode.
func New(addr string, debug bool, col *collector.Collector, rec recorder.Recorder, hub *Hub) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}

	s := &Server{
		Collector: col,
		Catalog:   col.Catalog,
		Recorder:  rec,
		Hub:       hub,
		engine:    gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/catalog", s.getCatalog)
	api.GET("/dashboard", s.getDashboard)
	api.GET("/chart", s.getChart)
	api.GET("/macro", s.getMacro)
	api.GET("/scanner", s.getScanner)
	api.GET("/sourcing/:asset", s.getSourcing)
	api.GET("/history", s.getRuns)
	api.GET("/history/:symbol", s.getHistory)

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{hub: s.Hub, conn: conn, send: make(chan Message, 16)}
	if !s.Hub.join(client) {
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}
