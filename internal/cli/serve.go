package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dshills/coreview/internal/hub"
	"github.com/dshills/coreview/internal/metrics"
	"github.com/dshills/coreview/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the review API and collaboration relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		if flagAddr != "" {
			c.Server.Addr = flagAddr
		}

		m := metrics.New()
		engine, closeEngine, err := buildEngine(c, c.Server.HistoryTurns, m)
		if err != nil {
			return err
		}
		defer closeEngine()

		if c.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.New(engine, server.Options{
			Addr:                c.Server.Addr,
			AllowedOrigins:      c.Server.AllowedOrigins,
			ReviewRatePerMinute: c.Server.ReviewRatePerMinute,
			ReviewBurst:         c.Server.ReviewBurst,
			Hub: hub.Options{
				MaxMessageBytes: c.Server.MaxMessageBytes,
				PingInterval:    time.Duration(c.Server.PingIntervalSeconds) * time.Second,
			},
			Provider: engine.Provider(),
			Logger:   logger.Named("server"),
			Metrics:  m,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("starting server",
			zap.String("addr", c.Server.Addr),
			zap.String("provider", engine.Provider()),
			zap.String("version", version))
		if err := srv.Run(ctx); err != nil {
			return fail(ExitRuntimeError, err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, :8080)")
}
