package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/inkpot/internal/logging"
	"github.com/mesh-intelligence/inkpot/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP",
		Long: "Serve the post list, post pages and widget endpoints until interrupted.\n" +
			"The listen address defaults to server.addr from config.yaml.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (host:port)")
	return cmd
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command, addr string) error {
	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	views, err := a.openCounter()
	if err != nil {
		return err
	}
	defer views.Close()

	log, err := logging.New("web", cmd.ErrOrStderr(), logging.Options{Level: a.cfg.Log.Level, Format: a.cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("config log section: %w", err)
	}

	srv, err := web.New(backend, views, web.Options{
		SiteTitle:   a.cfg.Site.Title,
		CountOnRead: a.cfg.Views.CountOnRead,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	log.Info("starting", "addr", addr, "counter", a.cfg.Counter.Backend, "count_on_read", a.cfg.Views.CountOnRead)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return sysError(err)
	}
	return nil
}
