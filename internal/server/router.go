// Package server exposes the dashboard over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/satpel-tasikmalaya/jembatan/internal/dashboard"
	"github.com/satpel-tasikmalaya/jembatan/internal/view"
	"github.com/satpel-tasikmalaya/jembatan/pkg/types"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// SetupRouter creates and configures the Gin router. metrics may be nil.
func SetupRouter(dash *dashboard.Dashboard, board *view.Board, metrics http.Handler, cfg types.ServerConfig, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	// Allow all origins unless a list is configured.
	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || containsWildcard(cfg.CORSOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(dash, board)

	v1 := router.Group("/v1")
	v1.GET("/view", handler.GetView)
	v1.GET("/stats", handler.GetStats)
	v1.PUT("/filter/:key", handler.ApplyFilter)
	v1.POST("/markers/:key/activate", handler.ActivateMarker)

	bridges := v1.Group("/bridges")
	bridges.GET("", handler.ListBridges)
	bridges.POST("", handler.CreateBridge)
	bridges.GET("/:id", handler.GetBridge)
	bridges.PATCH("/:id", handler.UpdateBridge)
	bridges.DELETE("/:id", handler.DeleteBridge)
	bridges.POST("/:id/foto", handler.UploadPhoto)
	bridges.DELETE("/:id/foto", handler.DeletePhoto)
	bridges.POST("/:id/focus", handler.FocusBridge)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
	router.GET("/health", handler.HealthCheck)

	return router
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// requestLogger logs one line per request.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.Last().Error())
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("http server stopped")
	return nil
}
