package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/aegisrules/aegis/internal/api/handlers"
	"github.com/aegisrules/aegis/internal/config"
	"github.com/aegisrules/aegis/internal/metrics"
	"github.com/aegisrules/aegis/internal/models"
	"github.com/aegisrules/aegis/internal/paging"
	"github.com/aegisrules/aegis/internal/services"
)

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) error {
	if err := db.AutoMigrate(
		&models.Ruleset{},
		&models.RulesetFile{},
		&models.Release{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	notificationService := services.NewNotificationService(db, cfg.NotifyURLs)
	codec := paging.NewCodec(cfg.PageTokenSecret)
	rulesetService := services.NewRulesetService(db, codec, cfg.MaxRulesets, cfg.MaxSourceBytes)
	releaseService := services.NewReleaseService(db, notificationService)

	router.GET("/healthz", handlers.HealthHandler)

	// Each call gets its own registry so route registration stays
	// re-runnable in tests.
	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")

	rulesetHandler := handlers.NewRulesetHandler(rulesetService)
	v1.POST("/projects/:project/rulesets", rulesetHandler.Create)
	v1.GET("/projects/:project/rulesets", rulesetHandler.List)
	v1.GET("/projects/:project/rulesets/:ruleset", rulesetHandler.Get)
	v1.DELETE("/projects/:project/rulesets/:ruleset", rulesetHandler.Delete)

	releaseHandler := handlers.NewReleaseHandler(releaseService)
	v1.GET("/projects/:project/releases/:release", releaseHandler.Get)
	v1.PUT("/projects/:project/releases/:release", releaseHandler.Put)

	notificationHandler := handlers.NewNotificationHandler(notificationService)
	v1.GET("/notifications", notificationHandler.List)
	v1.POST("/notifications/:id/read", notificationHandler.MarkAsRead)
	v1.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)

	return nil
}
