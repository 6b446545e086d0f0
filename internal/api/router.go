package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"voice-alerts-go/internal/logger"
	"voice-alerts-go/internal/notify"
)

type RouterOptions struct {
	CORSOrigins []string
	// RecordingsDir is served under RecordingsURL when audio is stored locally.
	RecordingsDir string
	RecordingsURL string
}

func NewRouter(h *Handler, hub *notify.Hub, log *logger.Logger, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(log))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.RecordingsDir != "" && opts.RecordingsURL != "" {
		r.Static(opts.RecordingsURL, opts.RecordingsDir)
	}

	api := r.Group("/api")
	{
		api.POST("/voice/analyze", h.Analyze)

		api.GET("/alerts/list", h.ListAlerts)
		api.PATCH("/alerts/update", h.UpdateAlert)
		api.GET("/alerts/stats", h.Stats)
		api.GET("/alerts/export", h.Export)
		if hub != nil {
			api.GET("/alerts/ws", gin.WrapF(hub.ServeWS))
		}
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "X-Request-ID")
	return cfg
}
