// Command bureau-sandbox serves fake credit bureau APIs so the service can be
// exercised locally without real credentials.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/bureau/sandbox"
	"github.com/pendencias/backend/internal/infrastructure/config"
	"github.com/pendencias/backend/internal/infrastructure/logger"
)

func main() {
	var (
		port     string
		latency  time.Duration
		seed     int64
		failing  string
		logLevel string
	)
	flag.StringVar(&port, "port", "", "Listen port (default: sandbox.port)")
	flag.DurationVar(&latency, "latency", -1, "Latency added to every response (default: sandbox.latency)")
	flag.Int64Var(&seed, "seed", 0, "Generator seed (default: sandbox.seed)")
	flag.StringVar(&failing, "fail", "", "Comma separated bureaus answering 503, e.g. spc,quod")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if port == "" {
		port = cfg.Sandbox.Port
	}
	if latency < 0 {
		latency = cfg.Sandbox.Latency
	}
	if seed == 0 {
		seed = cfg.Sandbox.Seed
	}

	failingCodes, err := parseProviders(failing)
	if err != nil {
		log.Fatal("Invalid -fail value", zap.Error(err))
	}

	// accept exactly the keys the service is configured to send
	keys := make(map[pendency.ProviderCode]string)
	for _, key := range config.ProviderKeys {
		if p, ok := cfg.Bureau.Provider(key); ok && p.APIKey != "" {
			keys[pendency.ProviderCode(strings.ToUpper(key))] = p.APIKey
		}
	}

	gin.SetMode(gin.ReleaseMode)
	server := sandbox.New(sandbox.Config{
		Seed:    uint64(seed),
		Latency: latency,
		APIKeys: keys,
		Failing: failingCodes,
	}, log)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           server.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Bureau sandbox starting",
			zap.String("addr", srv.Addr),
			zap.Duration("latency", latency),
			zap.Int64("seed", seed),
			zap.Int("pinned_keys", len(keys)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start sandbox", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down sandbox...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Sandbox forced to shutdown", zap.Error(err))
	}
}

func parseProviders(list string) ([]pendency.ProviderCode, error) {
	var codes []pendency.ProviderCode
	for _, raw := range strings.Split(list, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		code, err := pendency.ParseProviderCode(raw)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}
