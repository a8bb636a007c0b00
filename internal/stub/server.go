// Package stub is a small local implementation of the answering service's
// HTTP API. Answers are grounded in a JSON article corpus by term overlap.
package stub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/priyanshu2307/Newschat/internal/config"
	"github.com/priyanshu2307/Newschat/internal/logging"
	"github.com/priyanshu2307/Newschat/internal/models"
	"go.uber.org/zap"
)

// DefaultTopK is how many articles an answer draws on.
const DefaultTopK = 3

// Opts holds parameters for creating a Server.
type Opts struct {
	Corpus     *Corpus       // required
	SessionTTL time.Duration // defaults to DefaultSessionTTL
	TopK       int           // defaults to DefaultTopK
	Offline    bool          // report "offline" from /status
	Logger     *zap.Logger
}

// Server answers the chat API from memory.
type Server struct {
	corpus   *Corpus
	sessions *sessionStore
	topK     int
	offline  bool
	logger   *zap.Logger
}

// NewServer creates a Server.
func NewServer(opts Opts) (*Server, error) {
	if opts.Corpus == nil {
		return nil, fmt.Errorf("stub: corpus is required")
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Server{
		corpus:   opts.Corpus,
		sessions: newSessionStore(opts.SessionTTL),
		topK:     topK,
		offline:  opts.Offline,
		logger:   logging.OrNop(opts.Logger).Named("stub"),
	}, nil
}

// Router returns the gin engine serving the API.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))
	s.registerRoutes(router)
	return router
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/status", s.handleStatus)
	router.POST("/sessions", s.handleCreateSession)
	router.POST("/ingest/file", s.handleIngestFile)

	sessions := router.Group("/sessions/:id", s.requireSession)
	sessions.GET("", s.handleHistory)
	sessions.DELETE("", s.handleClear)
	sessions.POST("/messages", s.handleMessage)
}

type statusResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	ArticlesCount int    `json:"articles_count"`
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) handleStatus(c *gin.Context) {
	if s.offline {
		c.JSON(http.StatusOK, statusResponse{
			Status:        "offline",
			Message:       "System is offline",
			ArticlesCount: s.corpus.Count(),
		})
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		Status:        models.StatusOnline,
		Message:       "System is operational",
		ArticlesCount: s.corpus.Count(),
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	id := s.sessions.create()
	s.logger.Info("session created", zap.String("session_id", id))
	c.JSON(http.StatusOK, gin.H{"session_id": id})
}

// requireSession rejects requests for unknown or expired sessions with 404.
func (s *Server) requireSession(c *gin.Context) {
	if !s.sessions.exists(c.Param("id")) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}
	c.Next()
}

func (s *Server) handleHistory(c *gin.Context) {
	history, ok := s.sessions.history(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) handleClear(c *gin.Context) {
	id := c.Param("id")
	if !s.sessions.clear(id) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}
	s.logger.Info("session cleared", zap.String("session_id", id))
	c.JSON(http.StatusOK, statusResponse{
		Status:        "success",
		Message:       "Session cleared",
		ArticlesCount: s.corpus.Count(),
	})
}

func (s *Server) handleMessage(c *gin.Context) {
	id := c.Param("id")
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "message is required"})
		return
	}

	hits := s.corpus.Search(req.Message, s.topK)
	reply := answer(hits)
	if !s.sessions.appendMessages(id, models.UserMessage(req.Message), models.AssistantMessage(reply)) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}
	s.logger.Debug("answered",
		zap.String("session_id", id), zap.Int("hits", len(hits)))
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

func (s *Server) handleIngestFile(c *gin.Context) {
	n, err := s.corpus.Reload()
	if err != nil {
		s.logger.Error("ingest failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	s.logger.Info("corpus ingested", zap.Int("articles", n))
	c.JSON(http.StatusOK, statusResponse{
		Status:        "success",
		Message:       fmt.Sprintf("Ingested %d articles from file", n),
		ArticlesCount: n,
	})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// StartOpts holds configuration for running the stub service.
type StartOpts struct {
	Config  config.StubConfig
	Offline bool
	Out     io.Writer
	Logger  *zap.Logger
}

// Start loads the corpus, schedules its reloads and serves the API. It
// blocks until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	cfg := opts.Config
	if cfg.Port <= 0 {
		cfg.Port = 8000
	}
	logger := logging.OrNop(opts.Logger)

	corpus, err := LoadCorpus(cfg.ArticlesPath)
	if err != nil {
		return err
	}
	srv, err := NewServer(Opts{
		Corpus:     corpus,
		SessionTTL: cfg.SessionTTL,
		TopK:       cfg.TopK,
		Offline:    opts.Offline,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	stopReload, err := scheduleReload(corpus, cfg.ReloadSchedule, logger)
	if err != nil {
		return err
	}
	defer stopReload()

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Stub service running at http://localhost:%d (%d articles)\n", cfg.Port, corpus.Count())
	}
	logger.Info("stub listening", zap.Int("port", cfg.Port), zap.Int("articles", corpus.Count()))

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("stub: %w", err)
	}
	return nil
}
