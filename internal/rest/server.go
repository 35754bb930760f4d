// Package rest serves the teamboard HTTP API.
package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/rest/handlers"
	"github.com/tgienger/teamboard/internal/rest/response"
)

// Options configure the server.
type Options struct {
	Addr string
	// UserHeader carries the caller's user id. Identity is issued upstream.
	UserHeader string
}

// Server wraps the gin router.
type Server struct {
	router *gin.Engine
	log    *logrus.Entry
	opts   Options
}

// NewServer builds the router and registers every handler.
func NewServer(svc *app.Service, log *logrus.Entry, opts Options) *Server {
	if opts.UserHeader == "" {
		opts.UserHeader = "X-User-ID"
	}

	router := gin.New()
	router.Use(requestID(), requestLogger(log), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(identity(opts.UserHeader))

	handlers.NewBoardHandler(svc, log).EnrichRoutes(api)
	handlers.NewTaskHandler(svc, log).EnrichRoutes(api)
	handlers.NewDependencyHandler(svc, log).EnrichRoutes(api)
	handlers.NewTimerHandler(svc, log).EnrichRoutes(api)
	handlers.NewProjectHandler(svc, log).EnrichRoutes(api)

	return &Server{router: router, log: log, opts: opts}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.opts.Addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(response.RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": c.GetString(response.RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"user_id":    c.GetString(response.UserIDKey),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			if last := c.Errors.Last(); last != nil {
				entry = entry.WithError(last.Err)
			}
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Info("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

func identity(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(header))
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error{
				Kind:      "unauthenticated",
				Message:   "missing " + header + " header",
				RequestID: c.GetString(response.RequestIDKey),
			})
			return
		}
		c.Set(response.UserIDKey, user)
		c.Next()
	}
}
