package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/legalbook/legalbook/api"
	"github.com/legalbook/legalbook/config"
	"github.com/legalbook/legalbook/internal/auth"
	"github.com/legalbook/legalbook/internal/gate"
	"github.com/legalbook/legalbook/internal/session"
	"github.com/legalbook/legalbook/internal/workflow"
)

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, authSvc auth.AuthUseCase, flowSvc workflow.WorkflowUseCase, views api.BookingViews, sessions *session.Manager) error {
	router := newRouter(cfg, authSvc, flowSvc, views, sessions)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(cfg *config.Config, authSvc auth.AuthUseCase, flowSvc workflow.WorkflowUseCase, views api.BookingViews, sessions *session.Manager) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if len(cfg.HTTP.AllowedOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.HTTP.AllowedOrigins
		corsCfg.AllowCredentials = true
		router.Use(cors.New(corsCfg))
	}

	// The gate runs before anything under the protected prefixes renders.
	router.Use(gate.Middleware(session.IsValid))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := api.NewAuthHandler(authSvc, flowSvc, sessions)
	authHandler.Register(router.Group("/auth"))

	bookingHandler := api.NewBookingHandler(flowSvc, sessions)
	bookingHandler.Register(router.Group("/booking"))

	viewsHandler := api.NewViewsHandler(views, sessions)
	viewsHandler.RegisterDashboard(router.Group("/dashboard"))
	viewsHandler.RegisterAdmin(router.Group("/admin"))

	return router
}
