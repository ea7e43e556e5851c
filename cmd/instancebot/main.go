package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	lambdaadapter "github.com/jonny/instance-bot/internal/adapter/inbound/lambda"
	"github.com/jonny/instance-bot/internal/adapter/inbound/webhook"
	"github.com/jonny/instance-bot/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/instance-bot/internal/adapter/outbound/ec2"
	"github.com/jonny/instance-bot/internal/config"
	"github.com/jonny/instance-bot/internal/domain/service"
	"github.com/jonny/instance-bot/pkg/health"
	"github.com/jonny/instance-bot/pkg/metrics"
	"github.com/jonny/instance-bot/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (empty: defaults and environment only)")
	printVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *printVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = buildLogger(cfg.Logging)

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// --- EC2 ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ec2Client, err := ec2.NewClient(ctx, ec2.ClientConfig{
		Region:      cfg.Instance.Region,
		MaxAttempts: cfg.Instance.MaxAttempts,
	})
	if err != nil {
		logger.Error("failed to create EC2 client", "error", err)
		os.Exit(1)
	}
	controlPlane := ec2.NewControlPlane(ec2Client, ec2.Config{
		InstanceID:  cfg.Instance.ID,
		CallTimeout: cfg.Instance.CallTimeout,
	}, m)

	// --- Domain services ---
	commander := service.NewCommander(controlPlane, logger)

	// --- Interaction handler ---
	verifier, err := buildVerifier(cfg.Discord)
	if err != nil {
		logger.Error("invalid discord public key", "error", err)
		os.Exit(1)
	}
	if !verifier.Enabled() {
		logger.Warn("discord.publicKey is not configured; every interaction will be rejected")
	}

	handler := webhook.NewHandler(verifier, commander, webhook.HandlerOptions{
		Logger:       logger,
		Metrics:      m,
		MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
	})

	mode := cfg.Runtime.ResolveMode(os.Getenv)
	logger.Info("instance-bot starting",
		"version", version.String(),
		"mode", mode,
		"instanceID", cfg.Instance.ID,
		"region", cfg.Instance.Region,
	)

	if mode == config.ModeLambda {
		// API Gateway fronts the function; throttling belongs there.
		adapter := lambdaadapter.NewAdapter(webhook.Chain(handler, webhook.ChainConfig{
			Logger:       logger,
			MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
		}), logger)
		awslambda.StartWithOptions(adapter.Handle, awslambda.WithContext(ctx))
		return
	}

	var rateLimit *middleware.RateLimitConfig
	if cfg.Webhook.RateLimit.Enabled {
		rateLimit = &middleware.RateLimitConfig{
			RequestsPerMinute: cfg.Webhook.RateLimit.RequestsPerMinute,
			Burst:             cfg.Webhook.RateLimit.Burst,
			TrustProxy:        cfg.Webhook.RateLimit.TrustProxy,
		}
	}
	webhookServer := webhook.NewServer(webhook.ServerConfig{
		Port:            cfg.Server.Port,
		Path:            cfg.Webhook.Path,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Webhook.MaxBodyBytes,
		RateLimit:       rateLimit,
	}, handler, logger)

	// --- Health checker ---
	checker := health.NewChecker(cfg.Instance.CallTimeout)
	checker.Register("ec2", controlPlane.HealthCheck)

	// --- Metrics server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", m.Handler())
	metricsMux.HandleFunc("/healthz", checker.LivenessHandler())
	metricsMux.HandleFunc("/readyz", checker.ReadinessHandler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsMux,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Interaction HTTP server.
	g.Go(func() error {
		return webhookServer.Start(gCtx)
	})

	// Metrics/health server.
	if cfg.Server.MetricsPort > 0 {
		g.Go(func() error {
			logger.Info("starting metrics server", "port", cfg.Server.MetricsPort)
			errCh := make(chan error, 1)
			go func() {
				if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()
			select {
			case <-gCtx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				return metricsServer.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		})
	} else {
		logger.Info("metrics server disabled")
	}

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("instance-bot stopped")
}

// buildVerifier returns a disabled verifier, which rejects every request,
// when no key is configured. Blank keys count as unconfigured.
func buildVerifier(cfg config.DiscordConfig) (*webhook.Verifier, error) {
	vcfg := webhook.VerifierConfig{MaxClockSkew: cfg.MaxClockSkew}
	if key := strings.TrimSpace(cfg.PublicKey); key != "" {
		pub, err := webhook.ParsePublicKey(key)
		if err != nil {
			return nil, err
		}
		vcfg.PublicKey = pub
	}
	return webhook.NewVerifier(vcfg), nil
}

// buildLogger constructs a slog.Logger based on config.
func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
