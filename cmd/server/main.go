package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/codeprobe/analysis"
	"github.com/isdmx/codeprobe/config"
	"github.com/isdmx/codeprobe/history"
	"github.com/isdmx/codeprobe/httpapi"
	"github.com/isdmx/codeprobe/logger"
	"github.com/isdmx/codeprobe/mcpserver"
	"github.com/isdmx/codeprobe/provider"
	"github.com/isdmx/codeprobe/ratelimit"
	"github.com/isdmx/codeprobe/rules"
	"github.com/isdmx/codeprobe/sandbox"
)

// Slack added to the slowest operation when sizing HTTP write timeouts
const writeTimeoutSlack = 15 * time.Second

func main() {
	fx.New(options()).Run()
}

func options() fx.Option {
	return fx.Options(
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Analysis
			newRuleSet,
			rules.NewEngine,
			newRateLimiter,
			provider.NewFromConfig,
			newCoordinator,

			// Sandbox executor based on config
			newRegistry,
			sandbox.NewExecutor,

			newHistory,
			newMCPServer,
			newAPIServer,
		),

		fx.Invoke(serve),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)
}

// newRuleSet loads the configured rules. A broken rule file degrades to an
// empty rule set instead of stopping the server.
func newRuleSet(cfg *config.Config, log *zap.Logger) *rules.RuleSet {
	rs, err := rules.Load(cfg.Analysis.RulesPath, log)
	if err != nil {
		log.Error("Failed to load analysis rules, continuing without rules", zap.Error(err))
	}
	log.Info("Analysis rules loaded",
		zap.String("source", cfg.Analysis.RulesPath),
		zap.Int("rules", rs.Size()))
	return rs
}

func newRateLimiter(cfg *config.Config) *ratelimit.Window {
	return ratelimit.New(cfg.RateWindow(), cfg.Analysis.RateLimit.MaxCalls)
}

func newCoordinator(cfg *config.Config, engine *rules.Engine, limiter *ratelimit.Window, gen provider.Generator, log *zap.Logger) *analysis.Coordinator {
	return analysis.NewCoordinator(engine, limiter, log,
		analysis.WithGenerator(gen),
		analysis.WithMinRemoteLength(cfg.Analysis.MinRemoteLength))
}

func newRegistry(cfg *config.Config) (*sandbox.Registry, error) {
	return sandbox.NewRegistry(cfg.Languages)
}

// newHistory opens the history store, or returns nil when history is disabled
func newHistory(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*history.Store, error) {
	if !cfg.History.Enabled {
		log.Info("Analysis history disabled")
		return nil, nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(store.Close))

	log.Info("Analysis history enabled", zap.String("path", cfg.History.Path))
	return store, nil
}

func newMCPServer(cfg *config.Config, log *zap.Logger, exec sandbox.SandboxExecutor, coordinator *analysis.Coordinator) (*mcpserver.MCPServer, error) {
	return mcpserver.New(cfg, log, exec, coordinator)
}

func newAPIServer(log *zap.Logger, exec sandbox.SandboxExecutor, coordinator *analysis.Coordinator,
	gen provider.Generator, store *history.Store, mcp *mcpserver.MCPServer) *httpapi.Server {
	opts := []httpapi.Option{
		httpapi.WithVendor(provider.Vendor(gen)),
		httpapi.WithMCPHandler(mcp.HTTPHandler()),
	}
	if store != nil {
		opts = append(opts, httpapi.WithHistory(store))
	}
	return httpapi.New(log, exec, coordinator, opts...)
}

// serve starts the configured transport
func serve(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, log *zap.Logger,
	mcp *mcpserver.MCPServer, api *httpapi.Server) error {
	switch cfg.Server.Transport {
	case "stdio":
		lc.Append(fx.StartHook(func() {
			go func() {
				if err := mcp.ServeStdio(); err != nil {
					log.Error("MCP stdio server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				_ = shutdowner.Shutdown()
			}()
		}))
		return nil

	case "http":
		srv := newHTTPServer(cfg, api)
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				ln, err := net.Listen("tcp", srv.Addr)
				if err != nil {
					return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
				}
				log.Info("HTTP server listening", zap.String("addr", srv.Addr))
				go func() {
					if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("HTTP server stopped", zap.Error(err))
						_ = shutdowner.Shutdown(fx.ExitCode(1))
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				log.Info("Shutting down HTTP server")
				return srv.Shutdown(ctx)
			},
		})
		return nil

	default:
		return fmt.Errorf("unsupported transport: %s", cfg.Server.Transport)
	}
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	slowest := cfg.GetTimeout()
	if pt := cfg.ProviderTimeout(); pt > slowest {
		slowest = pt
	}
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      slowest + writeTimeoutSlack,
		IdleTimeout:       60 * time.Second,
	}
}
