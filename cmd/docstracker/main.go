package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"docstracker/internal/auth"
	"docstracker/internal/config"
	"docstracker/internal/email/noop"
	"docstracker/internal/email/ses"
	"docstracker/internal/port"
	"docstracker/internal/service"
	s3storage "docstracker/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(cfg).ExecuteContext(ctx)
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "docstracker",
		Short:         "Reconcile customs-clearance documents against the required-document matrix",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfg.Reference.Dir, "reference", cfg.Reference.Dir, "directory holding reference.yaml or syntax.csv and template.csv")
	pf.BoolVar(&cfg.Reference.IgnoreCase, "ignore-case", cfg.Reference.IgnoreCase, "match literal pattern text case-insensitively")
	pf.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	pf.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format (text or json)")

	root.AddCommand(newRunCmd(cfg), newCheckAccessCmd(cfg), newClassifyCmd(cfg), newTokenCmd(cfg))
	return root
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [root]",
		Short: "Scan a root folder, evaluate every group and write the report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Scan.Root = args[0]
			}
			log := config.NewLogger(cfg.Log)
			svc, err := newService(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			summary, err := svc.Run(cmd.Context(), service.RunInputFromConfig(cfg))
			if err != nil {
				return err
			}
			return printSummary(cmd, summary)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Master.Path, "master", cfg.Master.Path, "declaration master (CSV or XLSX)")
	f.BoolVar(&cfg.Master.Require, "require-master", cfg.Master.Require, "fail instead of falling back to per-folder mode")
	f.IntVar(&cfg.Master.KeyDigits, "key-digits", cfg.Master.KeyDigits, "digits kept in a normalized declaration key")
	f.StringVar(&cfg.Reference.FallbackType, "fallback-type", cfg.Reference.FallbackType, "matrix row used for unknown declaration types")
	f.IntVar(&cfg.Scan.Workers, "workers", cfg.Scan.Workers, "concurrent folder scans and evaluations")
	f.BoolVar(&cfg.Scan.HashFiles, "hash", cfg.Scan.HashFiles, "record a SHA-256 per scanned file")
	f.BoolVar(&cfg.Scan.SkipHidden, "skip-hidden", cfg.Scan.SkipHidden, "ignore dot-files and office lock files")
	f.StringVarP(&cfg.Output.Dir, "out", "o", cfg.Output.Dir, "output directory (defaults to the root)")
	f.StringVar(&cfg.Output.Prefix, "prefix", cfg.Output.Prefix, "report file name prefix")
	f.BoolVar(&cfg.Output.XLSX, "xlsx", cfg.Output.XLSX, "also write the XLSX workbook")
	f.BoolVar(&cfg.Output.Publish, "publish", cfg.Output.Publish, "upload artifacts to S3")
	return cmd
}

func newCheckAccessCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check-access <root>",
		Short: "Verify the root folder exists and is writable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service.NewReconcileService(nil, nil, cfg, config.NewLogger(cfg.Log))
			if err := svc.CheckAccess(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s is readable and writable\n", args[0])
			return nil
		},
	}
}

func newClassifyCmd(cfg *config.Config) *cobra.Command {
	var invoice string
	cmd := &cobra.Command{
		Use:   "classify <stem>...",
		Short: "Print the document type and tokens extracted from file stems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service.NewReconcileService(nil, nil, cfg, config.NewLogger(cfg.Log))
			out, err := svc.Classify(cmd.Context(), service.ClassifyInput{
				ReferenceDir: cfg.Reference.Dir,
				IgnoreCase:   cfg.Reference.IgnoreCase,
				Invoice:      invoice,
				Stems:        args,
			})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, c := range out {
				fmt.Fprintf(w, "%s\t%s", c.Stem, c.DocType)
				for _, name := range c.Tokens.Names() {
					fmt.Fprintf(w, "\t%s=%s", name, c.Tokens[name])
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&invoice, "invoice", "", "bind {INVOICE} to this folder name")
	return cmd
}

func newTokenCmd(cfg *config.Config) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a bearer token for the HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := auth.NewTokenManager(cfg.Auth)
			if err != nil {
				return fmt.Errorf("%w (set DOCSTRACKER_AUTH_SECRET)", err)
			}
			token, err := tokens.Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", cfg.Auth.TokenTTL, "token lifetime")
	return cmd
}

// newService wires the optional S3 publisher and the configured notifier.
func newService(ctx context.Context, cfg *config.Config, log *logrus.Logger) (service.ReconcileService, error) {
	var store port.ArtifactStore
	if cfg.Output.Publish {
		s, err := s3storage.NewArtifactStore(ctx, &cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		store = s
	}

	var notifier port.RunNotifier
	switch cfg.Email.Provider {
	case "ses":
		n, err := ses.NewSESNotifier(ctx, cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SES notifier: %w", err)
		}
		notifier = n
	default:
		notifier = noop.NewNoopNotifier(log)
	}
	return service.NewReconcileService(store, notifier, cfg, log), nil
}

func printSummary(cmd *cobra.Command, s *service.RunSummary) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s (%s): %d/%d groups complete, %d files, %d diagnostics\n",
		s.RunID, s.Mode, s.Totals.CompleteGroups, s.Totals.Groups, s.Totals.FilesScanned, len(s.Diagnostics))
	for _, a := range s.Artifacts {
		fmt.Fprintf(w, "  %s  %s\n", a.SHA256, a.Path)
	}
	for _, l := range s.Links {
		fmt.Fprintf(w, "  published %s: %s\n", l.Name, l.URL)
	}
	if len(s.Diagnostics) == 0 {
		return nil
	}
	enc := json.NewEncoder(cmd.ErrOrStderr())
	enc.SetIndent("", "  ")
	return enc.Encode(s.Diagnostics)
}
