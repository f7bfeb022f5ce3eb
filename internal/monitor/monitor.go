// Package monitor serves health, metrics and snapshot-preview endpoints while
// a run is in progress.
package monitor

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"znews/internal/metrics"
	"znews/internal/snapshot"
)

type Server struct {
	echo         *echo.Echo
	snapshotPath string
}

func NewServer(snapshotPath string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, snapshotPath: snapshotPath}

	e.GET("/health", s.health)
	e.GET("/metrics", s.stats)
	e.GET("/news.json", s.news)

	return s
}

// Start blocks until the server stops.
func (s *Server) Start(port string) error {
	return s.echo.Start(":" + port)
}

func (s *Server) health(c echo.Context) error {
	stats := metrics.Global.GetStats()

	status := http.StatusOK
	body := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if healthy, ok := stats["is_healthy"].(bool); ok && !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
		if lastErr, ok := stats["last_error"].(string); ok && lastErr != "" {
			body["error"] = lastErr
		}
	}
	return c.JSON(status, body)
}

func (s *Server) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, metrics.Global.GetStats())
}

func (s *Server) news(c echo.Context) error {
	snap, err := snapshot.Read(s.snapshotPath)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "no snapshot available yet",
		})
	}
	return c.JSON(http.StatusOK, snap)
}
