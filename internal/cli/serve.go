package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eleven-am/larder/internal/api"
	"github.com/eleven-am/larder/internal/auth"
	"github.com/eleven-am/larder/internal/logger"
	"github.com/eleven-am/larder/internal/migrator"
	"github.com/eleven-am/larder/internal/service"
	"github.com/eleven-am/larder/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand(g *globals) *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the HTTP API until interrupted. With --memory the data lives in
process memory and is lost on exit, which is useful for local testing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if memory {
				if err := g.config.validateAuth(); err != nil {
					return err
				}
			} else if err := g.config.Validate(); err != nil {
				return err
			}

			st, err := g.openStore(ctx, memory)
			if err != nil {
				return err
			}
			defer st.Close()

			listener, err := net.Listen("tcp", g.config.Server.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", g.config.Server.Addr, err)
			}
			cmd.Printf("Listening on %s\n", listener.Addr())

			return serve(ctx, *g.config, st, listener)
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", false, "keep data in memory instead of PostgreSQL")

	return cmd
}

// openStore returns the in-memory store or a migrated PostgreSQL store
func (g *globals) openStore(ctx context.Context, memory bool) (store.Store, error) {
	if memory {
		return store.NewMemory(), nil
	}

	db, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}

	if g.config.Migrations.AutoApply {
		m, err := migrator.NewMigrator(db, g.config.Migrations.Table)
		if err == nil {
			_, err = m.Up(ctx)
		}
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return store.NewPostgres(db), nil
}

// serve runs the API on listener until ctx is cancelled, then drains
// in-flight requests for at most the configured shutdown timeout
func serve(ctx context.Context, config Config, st store.Store, listener net.Listener) error {
	log := logger.CLI()

	issuer, err := auth.NewIssuer(config.Auth.SecretKey, config.Auth.TokenTTL)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Handler:           api.NewServer(service.New(st, issuer), st).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	log.Info("server started", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", config.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
