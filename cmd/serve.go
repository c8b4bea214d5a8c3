package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/csvtally/internal/analysis"
	"github.com/KaramelBytes/csvtally/internal/api"
	cfgpkg "github.com/KaramelBytes/csvtally/internal/config"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (/api/aggregate, /api/unique)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") && serveAddr != "" {
			c.ListenAddr = serveAddr
		}
		if err := c.Validate(); err != nil {
			return err
		}
		log, err := newLogger(c)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, c, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config listen_addr)")
}

func newHTTPServer(c *cfgpkg.Global, log *zap.Logger) *http.Server {
	pipeline := analysis.NewPipeline(log, analysis.Options{SkipUnreadable: c.SkipUnreadableFiles})
	handler := api.NewServer(pipeline, api.Options{
		MaxUploadBytes: c.MaxUploadBytes(),
		AllowedOrigins: c.CORSAllowedOrigins,
		RateLimitRPS:   c.RateLimitRPS,
		RateLimitBurst: c.RateLimitBurst,
	}, log)
	return &http.Server{
		Addr:         c.ListenAddr,
		Handler:      handler,
		ReadTimeout:  c.ReadTimeout(),
		WriteTimeout: c.WriteTimeout(),
		IdleTimeout:  c.IdleTimeout(),
		ErrorLog:     zap.NewStdLog(log),
	}
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for at most the configured shutdown timeout.
func serve(ctx context.Context, c *cfgpkg.Global, log *zap.Logger) error {
	srv := newHTTPServer(c, log)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting",
			zap.String("addr", c.ListenAddr),
			zap.String("max_upload", humanize.IBytes(uint64(c.MaxUploadBytes()))),
			zap.Bool("skip_unreadable_files", c.SkipUnreadableFiles),
			zap.Float64("rate_limit_rps", c.RateLimitRPS),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info("server stopped")
		return nil
	})

	return g.Wait()
}
