package routes_test

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aegisrules/aegis/internal/api/routes"
	"github.com/aegisrules/aegis/internal/config"
)

func setupRoutesTestDB(t *testing.T) *gorm.DB {
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	return db
}

func TestRegisterRouteTable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupRoutesTestDB(t)

	router := gin.New()
	if err := routes.Register(router, db, config.Config{PageTokenSecret: "test-secret"}); err != nil {
		t.Fatalf("register routes: %v", err)
	}

	// Verify routes are registered by checking the routes list
	routeInfo := router.Routes()

	expectedRoutes := map[string]bool{
		"POST /v1/projects/:project/rulesets":            false,
		"GET /v1/projects/:project/rulesets":             false,
		"GET /v1/projects/:project/rulesets/:ruleset":    false,
		"DELETE /v1/projects/:project/rulesets/:ruleset": false,
		"GET /v1/projects/:project/releases/:release":    false,
		"PUT /v1/projects/:project/releases/:release":    false,
		"GET /v1/notifications":                          false,
		"POST /v1/notifications/:id/read":                false,
		"POST /v1/notifications/read-all":                false,
		"GET /healthz":                                   false,
		"GET /metrics":                                   false,
	}

	for _, route := range routeInfo {
		key := route.Method + " " + route.Path
		if _, exists := expectedRoutes[key]; exists {
			expectedRoutes[key] = true
		}
	}

	for route, found := range expectedRoutes {
		assert.True(t, found, "route %s should be registered", route)
	}
}
