package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/baylab/nitrogen-dashboard/internal/adapter/chart"
	"github.com/baylab/nitrogen-dashboard/internal/adapter/xlsx"
	"github.com/baylab/nitrogen-dashboard/internal/domain"
)

type outputOptions struct {
	scenario string
	out      string
}

func (o *outputOptions) register(cmd *cobra.Command, outHelp string) {
	cmd.Flags().StringVarP(&o.scenario, "scenario", "s", "", "scenario id (default is the registry default)")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", outHelp)
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &outputOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Assemble a scenario dashboard and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOutput(cmd, root, opts, func(w io.Writer, d *domain.Dashboard) error {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			})
		},
	}
	opts.register(cmd, "output file (default stdout)")
	return cmd
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &outputOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the summary tables of a scenario to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOutput(cmd, root, opts, xlsx.Write)
		},
	}
	opts.register(cmd, "output .xlsx file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newChartCmd(root *rootOptions) *cobra.Command {
	opts := &outputOptions{}
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render the nitrogen-loss categories of a scenario as a PNG bar chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOutput(cmd, root, opts, chart.LossBars)
		},
	}
	opts.register(cmd, "output .png file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runOutput(cmd *cobra.Command, root *rootOptions, opts *outputOptions, fn func(io.Writer, *domain.Dashboard) error) error {
	p, err := root.presenter()
	if err != nil {
		return err
	}
	id := domain.ScenarioID(opts.scenario)
	if id == "" {
		id = p.Registry().Default().ID
	}

	dash, err := p.Dashboard(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("scenario %s (%s): %w", id, domain.ErrorKind(err), err)
	}
	return writeOutput(cmd, opts.out, func(w io.Writer) error { return fn(w, dash) })
}
