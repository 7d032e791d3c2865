package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"socialscraper/pkg/importer"
	"socialscraper/pkg/logger"
	"socialscraper/pkg/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the import over HTTP",
	Long: `Serve GET and POST /import. Options are read from the query string or
a form body and use the import command's names: scrapers, request, tags,
count, user_id and screen_name.

The response is JSON: {"success", "status", "feedbacks"}, with the HTTP
status of the first unsuccessful network.`,
	Example: `  socialscraper serve --addr :8080
  curl 'http://localhost:8080/import?scrapers=instagram&tags=football'`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{"addr": serveAddr})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, err := BuildContainer(cfg)
	if err != nil {
		return err
	}

	return container.Invoke(func(h *importer.Handler, im *importer.Importer, st *store.GormStore, log logger.Logger) error {
		defer st.Close()

		srv := &http.Server{
			Addr: cfg.Server.Addr,
			Handler: importer.Chain(h.Routes(),
				importer.Recover(log),
				importer.RequestLogger(log),
				importer.OTel("socialscraper.import"),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.LogComponentStart("server", map[string]interface{}{
				"addr":     srv.Addr,
				"scrapers": im.Available(),
			})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
