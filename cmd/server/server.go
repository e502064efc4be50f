package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"nudeploy/cmd/root"
	"nudeploy/controllers"
	"nudeploy/internal/config"
	"nudeploy/internal/logger"
	"nudeploy/internal/middleware"
	"nudeploy/services"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the HTTP API server",
	Long:  `Serve the package API, /healthz and Prometheus /metrics until interrupted`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return startServer(ctx)
	},
}

/**
 * Build the gin engine with every route
 * @param {*services.Deployer} deployer - Deployer behind the package API
 * @returns {*gin.Engine} Router ready to serve
 */
func NewRouter(deployer *services.Deployer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.MetricsMiddleware())

	controllers.NewAPIController(services.NewServer(deployer)).RegisterRoutes(router)
	controllers.NewPackageController(deployer).RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func startServer(ctx context.Context) error {
	cfg := config.App()
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	deployer, err := services.GetDeployer()
	if err != nil {
		return err
	}
	defer deployer.Close()

	listeners, err := CreateListeners(ListenAddrs(cfg.Server.Address, cfg.Server.Socket))
	if len(listeners) == 0 {
		if err == nil {
			err = errors.New("no listen address configured")
		}
		return fmt.Errorf("start server: %w", err)
	}

	srv := &http.Server{
		Handler:           NewRouter(deployer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	for _, l := range listeners {
		wg.Add(1)
		go func(l net.Listener) {
			defer wg.Done()
			logger.Infof("Server: listening on %s://%s", l.Addr().Network(), l.Addr().String())
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Server: serve %s failed: %v", l.Addr().String(), err)
			}
		}(l)
	}

	<-ctx.Done()
	logger.Info("Server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server: shutdown failed: %v", err)
	}
	wg.Wait()
	if cfg.Server.Socket != "" {
		os.Remove(cfg.Server.Socket)
	}
	return nil
}

func init() {
	root.RootCmd.AddCommand(serverCmd)

	serverCmd.Example = `  nudeploy server
  NUDEPLOY_SERVER_ADDRESS=0.0.0.0:8089 nudeploy server`
}
