package app

import (
	"context"
	"fmt"
	"net"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/netziya/shell-server/internal/config"
	"github.com/netziya/shell-server/internal/core"
	"github.com/netziya/shell-server/internal/store"
	"github.com/netziya/shell-server/internal/store/fsstore"
	"github.com/netziya/shell-server/internal/store/s3store"
	"github.com/netziya/shell-server/internal/store/sqlite"
	transporthttp "github.com/netziya/shell-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	index           store.FileIndex
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	blobs, err := newBlobStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}
	logger.Info().Str("backend", cfg.Storage.Backend).Msg("blob store initialized")

	index, err := sqlite.New(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("init file index: %w", err)
	}
	logger.Info().Str("index_path", cfg.IndexPath).Msg("file index initialized")

	hub := core.NewHub()
	server := transporthttp.NewServer(hub, blobs, index, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		index:           index,
		log:             logger,
	}, nil
}

func newBlobStore(cfg *config.Config) (store.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "", "fs":
		return fsstore.New(cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes)
	case "s3":
		return s3store.New(context.Background(), s3store.Config{
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Bucket:    cfg.Storage.S3.Bucket,
			Region:    cfg.Storage.S3.Region,
			UseSSL:    cfg.Storage.S3.UseSSL,
		}, cfg.Storage.MaxUploadBytes)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	a.log.Info().Str("url", a.lanURL()).Msg("server listening")

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the file index and other resources.
func (a *App) cleanup() {
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close file index")
		} else {
			a.log.Info().Msg("file index closed")
		}
	}
}

// lanURL guesses the LAN-reachable URL for sharing room links. The
// outbound UDP dial never sends a packet; it only asks the kernel which
// source address it would route from.
func (a *App) lanURL() string {
	host := "127.0.0.1"
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			host = addr.IP.String()
		}
		conn.Close()
	}

	port := a.server.Addr
	if i := strings.LastIndex(port, ":"); i >= 0 {
		port = port[i+1:]
	}
	return fmt.Sprintf("http://%s:%s", host, port)
}
