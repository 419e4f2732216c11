package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// buildRootCmdWith constructs the command tree around opts.
func buildRootCmdWith(opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "forumd",
		Short:         "Q&A forum service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Config file (.yaml, .json or .toml; defaults FORUMD_CONFIG)")
	pf.StringVar(&opts.Addr, "addr", opts.Addr, "HTTP listen address, e.g. :8080 (defaults FORUMD_ADDR)")
	pf.StringVar(&opts.DataFile, "data-file", opts.DataFile, "JSON file the store is restored from and persisted to")
	pf.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level: debug|info|warn|error (defaults FORUMD_LOG_LEVEL or info)")
	pf.BoolVar(&opts.LogPretty, "log-pretty", opts.LogPretty, "Human readable console logs")
	pf.BoolVar(&opts.M2MChanged, "m2m-changed", opts.M2MChanged, "Send m2m_changed signals (also detached during bulk loads)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cmd.Flags().Visit(func(f *pflag.Flag) { opts.set[f.Name] = true })
	}

	serveCmd := &cobra.Command{Use: "serve", Short: "Run the HTTP server", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := opts.resolve()
		if err != nil {
			return err
		}
		log := newLogger(os.Stderr, cfg.LogLevel, opts.LogPretty)
		return fnServe(cmd.Context(), cfg, opts, log)
	}}
	serveCmd.Flags().StringVar(&opts.CORSOrigins, "cors-origins", opts.CORSOrigins, "Comma separated allowed origins; enables CORS (defaults FORUMD_CORS_ORIGINS)")
	serveCmd.Flags().DurationVar(&opts.RequestTimeout, "request-timeout", opts.RequestTimeout, "Per-request timeout (0 disables)")

	loadCmd := &cobra.Command{Use: "load <fixtures-dir>", Short: "Load fixtures with DB signals detached", Example: "  forumd load ./fixtures --data-file forum.json", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := opts.resolve()
		if err != nil {
			return err
		}
		log := newLogger(os.Stderr, cfg.LogLevel, opts.LogPretty)
		return fnLoad(cmd.Context(), cfg, args[0], cmd.OutOrStdout(), log)
	}}

	signalsCmd := &cobra.Command{Use: "signals", Short: "List signal channels and listeners", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := opts.resolve()
		if err != nil {
			return err
		}
		log := newLogger(os.Stderr, cfg.LogLevel, opts.LogPretty)
		return fnSignals(cfg, cmd.OutOrStdout(), log)
	}}

	root.AddCommand(serveCmd, loadCmd, signalsCmd)
	return root
}
