package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rustyeddy/fxlot/calc"
	"github.com/rustyeddy/fxlot/internal/scheduler"
	"github.com/rustyeddy/fxlot/pricing"
	"github.com/rustyeddy/fxlot/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calculator HTTP API and refresh rates on a schedule",
	Long: `Start the HTTP API and, when refresh is enabled and an API key is set,
the scheduled rate refresh. Both stop on SIGINT or SIGTERM.

Examples:
  fxlot serve
  fxlot serve --addr :9090 --refresh-now`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr       string
	serveRefreshNow bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveRefreshNow, "refresh-now", false, "start a rate fetch immediately")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveAddr != "" {
		a.cfg.Server.Addr = serveAddr
	}

	var fetcher *pricing.Fetcher
	if a.cfg.Provider.APIKey != "" {
		fetcher, err = a.fetcher()
		if err != nil {
			return err
		}
	} else {
		a.log.Warn().Msg("No API key configured, rate refresh disabled")
	}

	srvCfg := server.Config{
		Addr:           a.cfg.Server.Addr,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Version:        version,
		Log:            a.log,
		Engine:         calc.NewEngine(a.store, fetcher),
		Fetcher:        fetcher,
	}
	if a.journal != nil {
		srvCfg.Journal = a.journal
	}
	srv := server.New(srvCfg)

	sched := scheduler.New(a.log)
	if fetcher != nil && a.cfg.Refresh.Enabled {
		if err := sched.AddJob(a.cfg.Refresh.Schedule, pricing.RefreshJob{Fetcher: fetcher}); err != nil {
			return err
		}
	}

	if fetcher != nil && serveRefreshNow {
		if err := fetcher.FetchAsync(ctx, nil); err != nil {
			a.log.Warn().Err(err).Msg("Initial rate refresh not started")
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		sched.Stop()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
