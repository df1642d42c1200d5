// Command netchatd runs the multi-user line chat server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	_ "go.uber.org/automaxprocs"

	"github.com/infodancer/netchatd/internal/adminhttp"
	"github.com/infodancer/netchatd/internal/chat"
	"github.com/infodancer/netchatd/internal/config"
	"github.com/infodancer/netchatd/internal/logging"
	"github.com/infodancer/netchatd/internal/metrics"
	"github.com/infodancer/netchatd/internal/server"
	"github.com/infodancer/netchatd/internal/wsgateway"

	"github.com/go-chi/chi/v5"
)

func main() {
	flags := config.ParseFlags()

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)

	var collector metrics.Collector = &metrics.NoopCollector{}
	if cfg.Metrics.Enabled {
		collector = metrics.NewPrometheusCollector(prometheus.DefaultRegisterer)
	}

	credentials := chat.NewCredentialStore(cfg.Credentials.Path)
	if closeWatch, err := credentials.Watch(logger); err != nil {
		logger.Warn("credential file watcher unavailable", "error", err.Error())
	} else if closeWatch != nil {
		defer closeWatch()
	}

	registry := chat.NewRegistry(cfg.Limits.MaxClients)
	mailbox := chat.NewMailbox(cfg.Limits.MailboxCapacity)
	recent := chat.NewRecentRing(cfg.Limits.RecentBufferSize)
	broadcaster := chat.NewBroadcaster(registry, mailbox, collector)
	handler := chat.Handler(credentials, registry, mailbox, recent, broadcaster, collector)

	srv, err := server.New(server.Config{Cfg: &cfg, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating server: %v\n", err)
		os.Exit(1)
	}
	srv.SetHandler(handler)

	ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), logger))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	coordinator := chat.NewCoordinator(registry, broadcaster, logger)
	go func() {
		<-ctx.Done()
		coordinator.Shutdown(5 * time.Second)
		srv.Shutdown()
	}()

	if cfg.Admin.Enabled {
		router := chi.NewRouter()
		adminRouter := adminhttp.NewRouter(registry, cfg.Metrics.Enabled)
		router.Mount("/", adminRouter)

		if cfg.WebSocket.Enabled {
			gateway := wsgateway.NewGateway(handler, cfg.Timeouts.IdleTimeout(), logger)
			gateway.Mount(router, cfg.WebSocket.Path)
		}

		adminServer := &http.Server{Addr: cfg.Admin.Address, Handler: router}
		go func() {
			logger.Info("admin HTTP surface listening", "address", cfg.Admin.Address)
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("admin HTTP surface error", "error", err.Error())
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = adminServer.Shutdown(shutdownCtx)
		}()
	} else if cfg.WebSocket.Enabled {
		router := chi.NewRouter()
		gateway := wsgateway.NewGateway(handler, cfg.Timeouts.IdleTimeout(), logger)
		gateway.Mount(router, cfg.WebSocket.Path)

		wsServer := &http.Server{Addr: cfg.WebSocket.Address, Handler: router}
		go func() {
			logger.Info("websocket gateway listening", "address", cfg.WebSocket.Address, "path", cfg.WebSocket.Path)
			if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("websocket gateway error", "error", err.Error())
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = wsServer.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("starting netchatd", "hostname", cfg.Hostname, "listen", cfg.Listen, "max_clients", cfg.Limits.MaxClients)

	runErr := srv.Run(ctx)

	logger.Info("netchatd stopped")

	if runErr != nil && runErr != context.Canceled {
		fmt.Fprintf(os.Stderr, "server error: %v\n", runErr)
		os.Exit(1)
	}
}
