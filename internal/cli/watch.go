package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/msageha/flowguide/internal/rules"
	"github.com/msageha/flowguide/internal/setup"
	"github.com/msageha/flowguide/internal/status"
	"github.com/msageha/flowguide/internal/watch"
)

func (a *app) newWatchCommand() *cobra.Command {
	var (
		metricsAddr string
		jsonOutput  bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-print the status whenever the selection or catalog file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.Metrics.Addr = metricsAddr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			eng, err := a.engine(cat, rules.NewMetrics(reg))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.cfg.Metrics.Addr != "" {
				srv, err := watch.ListenMetrics(a.cfg.Metrics.Addr, reg, a.logger)
				if err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						a.logger.Warnf("metrics shutdown: %v", err)
					}
				}()
			}

			render := func(r *rules.Report) error {
				fmt.Fprintf(a.out, "%s %s\n", strings.Repeat("-", 8), time.Now().Format(time.RFC3339))
				return status.Write(a.out, r, jsonOutput)
			}
			opts := watch.Options{
				CatalogPath: a.catalogPath(),
				Debounce:    a.cfg.Watch.Debounce(),
			}
			return watch.New(eng, a.store(), a.loader, opts, render, a.logger).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	return cmd
}

func (a *app) newInitCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create .flowguide/ with a config, an editable catalog and an empty selection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := "."
			if a.projectDir != "" {
				dir = a.projectDir
			}
			if len(args) == 1 {
				dir = args[0]
			}
			if err := setup.Run(dir, name); err != nil {
				return fmt.Errorf("init: %w", err)
			}
			absDir, _ := filepath.Abs(dir)
			fmt.Fprintf(a.out, "Initialized %s/ in %s\n", setup.Dir, absDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name (default: directory name)")
	return cmd
}

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "flowguide %s\n", Version)
		},
	}
}
