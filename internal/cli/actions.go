package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"forumd/internal/common/fsutil"
	"forumd/internal/config"
	"forumd/internal/forum"
	"forumd/internal/httpapi"
)

// Command implementations, swappable in tests.
var (
	fnServe   = serve
	fnLoad    = load
	fnSignals = printSignals
)

const shutdownTimeout = 5 * time.Second

func serve(ctx context.Context, cfg config.Config, opts *Options, log zerolog.Logger) error {
	app := forum.New(cfg, nil, log)

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetRequestTimeout(opts.RequestTimeout)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, cfg.CORS.Methods, cfg.CORS.Headers)
	httpapi.RegisterSignalMetrics(app.Registry)

	// Graceful shutdown (Ctrl+C / SIGTERM)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(app), ReadHeaderTimeout: 10 * time.Second}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Str("data_file", cfg.DataFile).Msg("forumd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startErr := app.Start(gctx)
		if startErr == nil {
			<-gctx.Done()
		}
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown error")
		}
		if startErr != nil {
			return startErr
		}
		return app.Close()
	})
	return g.Wait()
}

// load restores the data file, loads dir with DB signals detached and
// writes the result back.
func load(ctx context.Context, cfg config.Config, dir string, out io.Writer, log zerolog.Logger) error {
	if !fsutil.PathExists(dir) {
		return fmt.Errorf("fixtures dir %s does not exist", dir)
	}
	app := forum.New(cfg, nil, log)
	if err := app.Start(ctx); err != nil {
		return err
	}
	res, err := app.LoadFixtures(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "loaded %d objects from %d files\n", res.Total(), len(res.Files))
	return app.Close()
}

// printSignals lists every channel with its listeners. DB channels are the
// ones detached during bulk loads.
func printSignals(cfg config.Config, out io.Writer, log zerolog.Logger) error {
	app := forum.New(cfg, nil, log)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tDB\tLISTENERS")
	for _, c := range app.Signals().Channels {
		db := ""
		if c.DB {
			db = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, db, strings.Join(c.Listeners, ","))
	}
	return tw.Flush()
}
