// Command server runs the ED flow simulator's HTTP boundary: the
// multi-tenant session manager's background driver plus the read-only
// `/status`, `/alerts`, `/facilities` (and `/ws`) endpoints (§6).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/solaris-clearae/edflow/internal/gateway"
	"github.com/solaris-clearae/edflow/internal/session"
	"github.com/solaris-clearae/edflow/internal/stream"
)

var (
	host         string
	port         string
	tickInterval time.Duration
	seed         int64
	logLevel     string
	noWebsocket  bool
)

var rootCmd = &cobra.Command{
	Use:   "edflow-server",
	Short: "Multi-tenant ED flow simulator and clinical intelligence auditor",
	Run:   run,
}

func init() {
	rootCmd.Flags().StringVar(&host, "host", getEnv("EDFLOW_HOST", "0.0.0.0"), "listen host")
	rootCmd.Flags().StringVar(&port, "port", getEnv("EDFLOW_PORT", "8000"), "listen port")
	rootCmd.Flags().DurationVar(&tickInterval, "tick-interval", getEnvDuration("EDFLOW_TICK_INTERVAL", session.DefaultTickInterval), "wallclock period between simulated ticks")
	rootCmd.Flags().Int64Var(&seed, "seed", getEnvInt64("EDFLOW_SEED", 0), "RNG seed salt, for reproducible runs")
	rootCmd.Flags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&noWebsocket, "no-websocket", false, "disable the /ws vitals push endpoint")
}

// getEnv returns the named environment variable, or defaultVal if unset or
// empty — the teacher's cmd/gateway loadConfig idiom, so the binary stays
// configurable by env var in a container that doesn't pass flags.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvInt64(key string, defaultVal int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}

func run(cmd *cobra.Command, args []string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level: %s", logLevel)
	}
	logger := logrus.New()
	logger.SetLevel(level)
	log := logrus.NewEntry(logger)

	var broker *stream.Broker
	if !noWebsocket {
		broker = stream.NewBroker()
	}

	manager := session.NewManager(tickInterval, log, broker, seed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager.Start(ctx)

	gw := gateway.New(manager, broker, log)

	addr := host + ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      gw.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("edflow server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()
	manager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}
	log.Info("edflow server stopped")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
