/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cli implements the vcsync command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/carverauto/vcsync/pkg/config"
	"github.com/carverauto/vcsync/pkg/events"
	"github.com/carverauto/vcsync/pkg/journal"
	"github.com/carverauto/vcsync/pkg/lifecycle"
	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/netbox"
	"github.com/carverauto/vcsync/pkg/sync"
	"github.com/carverauto/vcsync/pkg/version"
)

const (
	defaultConfigPath = "/etc/vcsync/config.yaml"
	serviceName       = "vcsync"
)

var errRunFailed = errors.New("synchronization run failed")

type options struct {
	configPath string
	dryRun     bool
}

// NewRootCommand builds the vcsync command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "vcsync",
		Short:         "Synchronize VMware vCenter inventory into NetBox",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to the JSON or YAML config file")

	root.AddCommand(
		newRunCommand(opts),
		newServeCommand(opts),
		newValidateCommand(opts),
		newVersionCommand(),
	)

	return root
}

// Execute runs the command line against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newRunCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one synchronization and exit",
		Long: `Load NetBox, reconcile every configured vCenter against it and write the
changes back. The exit status is non-zero when any source, write, event or
journal entry failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(ctx))

			result, runErr := a.syncer.RunOnce(ctx)

			fmt.Fprint(cmd.OutOrStdout(), renderSummary(result, runErr, newStyles()))

			if runErr != nil {
				return errRunFailed
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Log planned NetBox writes instead of sending them")

	return cmd
}

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Synchronize on every poll interval until stopped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(cmd.Context()))

			return lifecycle.RunService(cmd.Context(), a.syncer, a.log, 0)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Log planned NetBox writes instead of sending them")

	return cmd
}

func newValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}

			st := newStyles()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, st.success.Render(fmt.Sprintf("Configuration %s is valid", opts.configPath)))

			for _, name := range cfg.SourceNames() {
				src := cfg.Sources[name]
				fmt.Fprintf(out, "  source %s -> %s\n", name, src.HostFQDN)
			}

			fmt.Fprintln(out, st.hint.Render(fmt.Sprintf("NetBox %s, poll interval %s", cfg.NetBox.URL, cfg.Interval())))

			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), serviceName+" "+version.Get().String())
		},
	}
}

func loadConfig(ctx context.Context, path string) (*sync.Config, error) {
	bootstrap, err := lifecycle.InitializeLogger(ctx, &logger.Config{Level: "warn", Output: "stderr"})
	if err != nil {
		return nil, err
	}

	var cfg sync.Config

	if err := config.NewConfig(bootstrap).LoadAndValidate(ctx, path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// app holds a configured Syncer and everything that must be closed with it.
type app struct {
	log     logger.Logger
	syncer  *sync.Syncer
	closers []func(context.Context) error
}

func newApp(ctx context.Context, opts *options) (a *app, err error) {
	cfg, err := loadConfig(ctx, opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.dryRun {
		cfg.NetBox.DryRun = true
	}

	log, err := lifecycle.InitializeLogger(ctx, cfg.Logging)
	if err != nil {
		return nil, err
	}

	a = &app{log: log}

	defer func() {
		if err != nil {
			_ = a.close(context.WithoutCancel(ctx))
		}
	}()

	shutdown, err := lifecycle.InitializeTelemetry(ctx, serviceName, cfg.Logging, log)
	if err != nil {
		return nil, err
	}

	a.closers = append(a.closers, shutdown)

	var syncOpts []sync.Option

	if cfg.NATS.Enabled() {
		pub, err := events.Connect(ctx, cfg.NATS, log)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, func(context.Context) error { return pub.Close() })
		syncOpts = append(syncOpts, sync.WithEvents(pub))
	}

	if cfg.Journal.Enabled() {
		j, err := journal.Open(ctx, cfg.Journal, log)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, func(context.Context) error {
			j.Close()
			return nil
		})
		syncOpts = append(syncOpts, sync.WithJournal(j))
	}

	a.syncer, err = sync.New(cfg, netbox.New(&cfg.NetBox, nil, log), log, syncOpts...)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("version", version.GetVersion()).
		Int("sources", len(cfg.Sources)).
		Bool("dry_run", cfg.NetBox.DryRun).
		Bool("events", cfg.NATS.Enabled()).
		Bool("journal", cfg.Journal.Enabled()).
		Msg("vcsync initialized")

	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}

	a.closers = nil

	if err := errors.Join(errs...); err != nil {
		a.log.Warn().Err(err).Msg("Shutdown finished with errors")
		return err
	}

	return nil
}
