package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/qollect/internal/plugins/auth"
	"github.com/keyxmakerx/qollect/internal/plugins/categories"
	"github.com/keyxmakerx/qollect/internal/plugins/modules"
	"github.com/keyxmakerx/qollect/internal/plugins/productmodules"
	"github.com/keyxmakerx/qollect/internal/plugins/products"
	"github.com/keyxmakerx/qollect/internal/plugins/testdata"
)

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to each plugin's route registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// --- Public Routes (no auth required) ---

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", a.healthz)

	// --- API Routes ---
	// Every route below requires an API key; writes require the admin role.

	a.Keys = auth.NewKeyService(auth.NewKeyRepository(a.DB))

	api := e.Group("/api/v1",
		a.limiter.Middleware(),
		auth.RequireAPIKey(a.Keys),
	)
	write := auth.RequireWrite()

	// auth plugin (identity, key management)
	auth.RegisterRoutes(api, auth.NewHandler(a.Keys))

	// products plugin
	productService := products.NewProductService(products.NewProductRepository(a.DB), a.Publisher)
	products.RegisterRoutes(api, products.NewHandler(productService), write)

	// modules plugin
	moduleService := modules.NewModuleService(modules.NewModuleRepository(a.DB), a.Publisher)
	modules.RegisterRoutes(api, modules.NewHandler(moduleService), write)

	// categories plugin
	categoryService := categories.NewCategoryService(categories.NewCategoryRepository(a.DB), a.Publisher)
	categories.RegisterRoutes(api, categories.NewHandler(categoryService), write)

	// product-module associations
	assignmentService := productmodules.NewProductModuleService(productmodules.NewProductModuleRepository(a.DB), a.Publisher)
	productmodules.RegisterRoutes(api, productmodules.NewHandler(assignmentService), write)

	// test data plugin
	testDataService := testdata.NewTestDataService(testdata.NewTestDataRepository(a.DB), a.Publisher)
	testdata.RegisterRoutes(api, testdata.NewHandler(testDataService), write)
}

// healthz pings every backing service. Returns 503 listing the failed
// dependencies if any check fails.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			slog.Warn("health check failed", slog.String("dependency", name), slog.Any("error", err))
			failed[name] = "unreachable"
		}
	}
	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"failed": failed,
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
