package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/RowanDark/playfair/internal/api"
	"github.com/RowanDark/playfair/internal/cipher"
	"github.com/RowanDark/playfair/internal/config"
	"github.com/RowanDark/playfair/internal/env"
	"github.com/RowanDark/playfair/internal/logging"
	"github.com/RowanDark/playfair/internal/playfair"
	"github.com/RowanDark/playfair/internal/rpc"
)

func runServe(args []string) int {
	cfg, ok := loadConfig()
	if !ok {
		return 1
	}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	httpAddr := fs.String("http", cfg.Server.HTTPAddr, "HTTP API listen address; empty disables it")
	grpcAddr := fs.String("grpc", cfg.Server.GRPCAddr, "gRPC listen address; empty disables it")
	staticToken := fs.String("static-token", "", "token that may mint API JWTs (defaults to $PLAYFAIR_STATIC_TOKEN)")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	cacheSize := fs.Int("cache", 256, "number of key squares kept in memory")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *staticToken == "" {
		if v, ok := env.Lookup("PLAYFAIR_STATIC_TOKEN", "PF_STATIC_TOKEN"); ok {
			*staticToken = strings.TrimSpace(v)
		}
	}
	cfg.Server.HTTPAddr = strings.TrimSpace(*httpAddr)
	cfg.Server.GRPCAddr = strings.TrimSpace(*grpcAddr)
	if cfg.Server.HTTPAddr == "" && cfg.Server.GRPCAddr == "" {
		fmt.Fprintln(stderr, "serve: at least one of --http or --grpc is required")
		return 2
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(stderr, "serve: %v\n", err)
		return 2
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	audit, err := newAuditLogger(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "serve: audit log: %v\n", err)
		return 1
	}
	defer audit.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, *staticToken, *cacheSize, logger, audit); err != nil {
		logger.Error("serve failed", "error", err)
		return 1
	}
	return 0
}

func newAuditLogger(cfg config.Config) (*logging.AuditLogger, error) {
	if path := strings.TrimSpace(cfg.AuditLogPath); path != "" {
		return logging.NewAuditLogger("playfair", logging.WithoutStdout(), logging.WithFile(path))
	}
	return logging.NewAuditLogger("playfair")
}

// serve runs the configured listeners until ctx is cancelled or one of them
// fails.
func serve(ctx context.Context, cfg config.Config, staticToken string, cacheSize int, logger *slog.Logger, audit *logging.AuditLogger) error {
	ciphers := playfair.NewCache(cacheSize, cfg.CipherOptions()...)
	cipher.UseCipherCache(ciphers)

	recipes := cipher.NewRecipeManager(recipesDir(cfg))
	if err := recipes.LoadRecipes(); err != nil {
		return fmt.Errorf("load recipes: %w", err)
	}

	// Everything that can fail is set up before the first goroutine starts,
	// so an early return never leaves a server running.
	var apiServer *api.Server
	if cfg.Server.HTTPAddr != "" {
		var err error
		apiServer, err = api.NewServer(api.Config{
			Addr:        cfg.Server.HTTPAddr,
			StaticToken: staticToken,
			JWTSecret:   []byte(cfg.Server.JWTSecret),
			JWTIssuer:   cfg.Server.JWTIssuer,
			Defaults:    map[string]any{"filler": cfg.Filler, "fold_j": cfg.FoldJ},
			Ciphers:     ciphers,
			Recipes:     recipes,
			Registry:    cipher.Default(),
			Audit:       audit.WithComponent("api"),
			Logger:      logger.With("component", "api"),
		})
		if err != nil {
			return fmt.Errorf("configure api: %w", err)
		}
	}

	var lis net.Listener
	if cfg.Server.GRPCAddr != "" {
		var err error
		lis, err = net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Server.GRPCAddr, err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if apiServer != nil {
		g.Go(func() error {
			return apiServer.Run(ctx)
		})
	}

	if lis != nil {
		rpcLogger := logger.With("component", "rpc")
		srv := grpc.NewServer(grpc.ChainUnaryInterceptor(rpc.UnaryLoggingInterceptor(rpcLogger)))
		health := rpc.Register(srv, rpc.NewService(
			rpc.WithCache(ciphers),
			rpc.WithAuditLogger(audit.WithComponent("rpc")),
			rpc.WithLogger(rpcLogger),
		))
		g.Go(func() error {
			rpcLogger.Info("grpc listening", "addr", lis.Addr().String())
			if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			health.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
			srv.GracefulStop()
			return nil
		})
	}

	_ = audit.Emit(logging.AuditEvent{EventType: logging.EventServerLifecycle, Decision: logging.DecisionInfo, Reason: "started"})
	err := g.Wait()
	_ = audit.Emit(logging.AuditEvent{EventType: logging.EventServerLifecycle, Decision: logging.DecisionInfo, Reason: "stopped"})
	return err
}
