package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcosogg/budgetflow/internal/config"
	"github.com/marcosogg/budgetflow/internal/logging"
	"github.com/marcosogg/budgetflow/internal/notify"
	"github.com/marcosogg/budgetflow/internal/reminders"
	"github.com/marcosogg/budgetflow/internal/revolut"
	"github.com/marcosogg/budgetflow/internal/server"
	"github.com/marcosogg/budgetflow/internal/store"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := logging.New(cfg.LogLevel, cfg.AppEnv)

			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			table, err := loadTable(cfg)
			if err != nil {
				return err
			}
			sink, err := revolut.NewFileFailureLog(cfg.FailureLogPath)
			if err != nil {
				return err
			}

			scheduler := reminders.NewScheduler(st, notify.NewLogSender(log), log)
			if err := scheduler.Start(); err != nil {
				return err
			}
			defer scheduler.Stop()

			srv := &http.Server{
				Addr:    cfg.ListenAddr,
				Handler: server.New(st, table, sink, log).Handler(),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", cfg.ListenAddr).Info("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}
