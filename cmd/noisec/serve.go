package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [flags] [directory]",
	Short: "Serve rendered HTML pages over HTTP",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("failed to get addr flag: %w", err)
	}
	dir := "html"
	if len(args) == 1 {
		dir = args[0]
	} else if manifest, err := loadManifest(cmd); err != nil {
		return err
	} else if manifest != nil && manifest.Config.Render.Out != "" {
		dir = manifest.Resolve(manifest.Config.Render.Out)
	}
	if st, err := os.Stat(dir); err != nil {
		return fmt.Errorf("nothing to serve: %w", err)
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           logRequests(http.FileServer(http.Dir(dir))),
		ReadHeaderTimeout: 5 * time.Second,
	}
	fmt.Fprintf(cmd.OutOrStdout(), "serving %s on http://%s/\n", dir, ln.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"elapsed": time.Since(start),
		}).Info("request")
	})
}
