// Package cmd provides the nitrogenctl commands.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/baylab/nitrogen-dashboard/internal/adapter/registry"
	"github.com/baylab/nitrogen-dashboard/internal/adapter/source"
	"github.com/baylab/nitrogen-dashboard/internal/domain"
	"github.com/baylab/nitrogen-dashboard/internal/observability"
	"github.com/baylab/nitrogen-dashboard/internal/pipeline"
)

type rootOptions struct {
	dataDir  string
	registry string
	verbose  bool
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "nitrogenctl",
		Short: "Render, export and check nitrogen scenario dashboards",
		Long: `nitrogenctl works on scenario data trees offline, without the HTTP service.

Examples:
  nitrogenctl render --scenario 2030 --out dashboard-2030.json
  nitrogenctl export --scenario 2017 --out nitrogen-2017.xlsx
  nitrogenctl validate --data-dir ./data
  nitrogenctl genfixture --out ./testdata/data --counties 25`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "data", "directory holding one sub-directory per scenario")
	root.PersistentFlags().StringVar(&opts.registry, "registry", "", "HCL scenario registry (default is the built-in 2017/2030/2050 set)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRenderCmd(opts),
		newExportCmd(opts),
		newChartCmd(opts),
		newValidateCmd(opts),
		newGenfixtureCmd(opts),
	)
	return root
}

func (o *rootOptions) logger() *zap.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger, err := observability.NewLogger(level, "console")
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (o *rootOptions) loadRegistry() (*domain.Registry, error) {
	return registry.Load(o.registry)
}

func (o *rootOptions) loader(reg *domain.Registry, logger *zap.Logger, metrics *observability.Metrics) *pipeline.Loader {
	return pipeline.NewLoader(reg, source.NewFileSource(o.dataDir), observability.Named(logger, "loader"), metrics)
}

// presenter builds an uncached presenter; each CLI run assembles once.
func (o *rootOptions) presenter() (*pipeline.Presenter, error) {
	reg, err := o.loadRegistry()
	if err != nil {
		return nil, err
	}
	logger := o.logger()
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())
	return pipeline.NewPresenter(reg, o.loader(reg, logger, metrics), observability.Named(logger, "pipeline"), metrics), nil
}

// writeOutput sends fn's output to path, or to the command's stdout when path
// is empty or "-".
func writeOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close() //nolint:errcheck // already failing
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
