package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/andrwkng/recordlog/internal/log"
	"github.com/andrwkng/recordlog/internal/server"
)

func main() {
	config := viper.New()
	config.SetEnvPrefix("RECORDLOG")
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	config.AutomaticEnv()
	cmd := &cobra.Command{
		Use: "server",
		PreRun: func(cmd *cobra.Command, _ []string) {
			config.BindPFlags(cmd.Flags())
		},
		Run: func(cmd *cobra.Command, _ []string) {
			logger := getLogger(config)
			defer logger.Sync()

			clog := server.NewCommitLog(log.New())

			lis, err := net.Listen(
				"tcp",
				fmt.Sprintf(":%d", config.GetInt("rpc-port")),
			)
			if err != nil {
				logger.Fatal("failed to start",
					zap.Error(errors.Wrap(err, "failed to bind rpc listener")))
			}
			gsrv, err := server.NewGRPCServer(&server.Config{
				CommitLog: clog,
			})
			if err != nil {
				logger.Fatal("failed to start",
					zap.Error(errors.Wrap(err, "failed to create rpc server")))
			}
			healthServer := health.NewServer()
			healthServer.Resume()
			healthpb.RegisterHealthServer(gsrv, healthServer)
			go func() {
				if err := gsrv.Serve(lis); err != nil {
					logger.Fatal("rpc server failed", zap.Error(err))
				}
			}()

			httpsrv := server.NewHTTPServer(
				fmt.Sprintf(":%d", config.GetInt("http-port")),
				clog,
			)
			go func() {
				err := httpsrv.ListenAndServe()
				if err != nil && err != http.ErrServerClosed {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()

			if port := config.GetInt("metrics-port"); port > 0 {
				go serveMonitoring(port, logger)
			}

			logger.Info("server started",
				zap.Int("rpc_port", config.GetInt("rpc-port")),
				zap.Int("http_port", config.GetInt("http-port")),
			)

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc,
				syscall.SIGINT,
				syscall.SIGTERM,
				syscall.SIGQUIT,
			)
			<-sigc

			logger.Info("shutting down")
			healthServer.Shutdown()

			ctx, cancel := context.WithTimeout(
				context.Background(), 5*time.Second,
			)
			defer cancel()
			if err := httpsrv.Shutdown(ctx); err != nil {
				logger.Warn("failed to shut down http server",
					zap.Error(err))
			}
			go func() {
				<-time.After(1 * time.Second)
				gsrv.Stop()
			}()
			gsrv.GracefulStop()
			logger.Info("server stopped")
		},
	}
	cmd.Flags().Int("rpc-port", 8400, "Port for the gRPC listener.")
	cmd.Flags().Int("http-port", 8080, "Port for the JSON/HTTP listener.")
	cmd.Flags().Int("metrics-port", 0,
		"Port for the monitoring listener. Set to 0 to disable it.")
	cmd.Flags().Bool("debug", false, "Use a development logger.")
	cmd.Execute()
}

func getLogger(config *viper.Viper) *zap.Logger {
	var logger *zap.Logger
	var err error
	if config.GetBool("debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	return logger
}

func serveMonitoring(port int, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
	if err != nil {
		logger.Error("monitoring listener failed", zap.Error(err))
	}
}
