package cmd

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
	"github.com/baylab/nitrogen-dashboard/internal/observability"
)

// Relative tolerance for comparing float sums built in different orders.
const sumTolerance = 1e-9

var errValidationFailed = errors.New("validation failed")

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// scenarioData is one scenario as far as it could be processed.
type scenarioData struct {
	id      domain.ScenarioID
	tables  *domain.ScenarioTables
	derived *domain.Derived
	dash    *domain.Dashboard
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the data integrity of every registered scenario",
		Long: `Loads, derives and assembles every registered scenario and checks:

  - every table parses with its required columns,
  - per-row loss totals match their category columns,
  - county totals and category maps conserve the scenario total,
  - displayed millions round-trip within half a display unit,
  - every dashboard section is complete.

Exits with status 1 when any phase fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, root)
		},
	}
}

func runValidate(cmd *cobra.Command, root *rootOptions) error {
	reg, err := root.loadRegistry()
	if err != nil {
		return err
	}
	logger := root.logger()
	loader := root.loader(reg, logger, observability.NewMetricsWith(prometheus.NewRegistry()))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Nitrogen Scenario Data Validation ===")
	fmt.Fprintln(out)

	load := &phase{name: "Schema and records"}
	var data []scenarioData
	for _, s := range reg.Scenarios() {
		tables, err := loader.Load(cmd.Context(), s.ID)
		if err != nil {
			load.errorf("%s: [%s] %v", s.ID, domain.ErrorKind(err), err)
			continue
		}
		derived := domain.Derive(tables)
		data = append(data, scenarioData{id: s.ID, tables: tables, derived: derived, dash: domain.Assemble(derived)})
	}

	phases := []*phase{
		load,
		validateRowTotals(data),
		validateConservation(data),
		validateRounding(data),
		validateSections(data),
	}
	return report(out, phases, data)
}

func report(out io.Writer, phases []*phase, data []scenarioData) error {
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	for _, d := range data {
		counts := d.tables.RowCounts()
		fmt.Fprintf(out, "Scenario %s:", d.id)
		for _, t := range domain.Tables {
			fmt.Fprintf(out, " %s=%d", t, counts[t])
		}
		fmt.Fprintln(out)

		totals := summaryTotals(d.tables.LossSummary)
		if len(totals) == 0 {
			continue
		}
		fmt.Fprintf(out, "  %s totals:", domain.TableLossSummary)
		for _, col := range slices.Sorted(maps.Keys(totals)) {
			fmt.Fprintf(out, " %s=%s", col, strconv.FormatFloat(totals[col], 'f', -1, 64))
		}
		fmt.Fprintln(out)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return nil
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return errValidationFailed
}

// summaryTotals sums each numeric loss summary column over all counties.
func summaryTotals(rows []domain.LossSummaryRecord) map[string]float64 {
	totals := make(map[string]float64)
	for _, r := range rows {
		for col, v := range r.Values {
			totals[col] += v
		}
	}
	return totals
}

func validateRowTotals(data []scenarioData) *phase {
	p := &phase{name: "Per-row loss totals"}
	for _, d := range data {
		for i, r := range d.tables.CropStage {
			if got, want := d.derived.CropRowTotals[i], r.Losses[0]+r.Losses[1]; got != want {
				p.errorf("%s: crop row %d (%s %s): total %v, want %v", d.id, i+1, r.FIPS, r.Commodity, got, want)
			}
		}
		for i, r := range d.tables.AnimalStage {
			var want float64
			for _, v := range r.Losses {
				want += v
			}
			if got := d.derived.AnimalRowTotals[i]; got != want {
				p.errorf("%s: animal row %d (%s %s): total %v, want %v", d.id, i+1, r.FIPS, r.Commodity, got, want)
			}
		}
	}
	return p
}

func validateConservation(data []scenarioData) *phase {
	p := &phase{name: "County total conservation"}
	for _, d := range data {
		grand := d.derived.GrandTotal()

		var counties float64
		for _, c := range d.derived.CountyTotals {
			counties += c.Value
		}
		if !closeEnough(counties, grand) {
			p.errorf("%s: county totals sum to %v, scenario total is %v", d.id, counties, grand)
		}

		var categories float64
		for i, series := range d.derived.LossSeries {
			var mapped float64
			for _, c := range series {
				mapped += c.Value
			}
			if !closeEnough(mapped, d.derived.CategoryTotals[i]) {
				p.errorf("%s: %s map sums to %v, category total is %v", d.id, domain.LossCategories[i].Column, mapped, d.derived.CategoryTotals[i])
			}
			categories += d.derived.CategoryTotals[i]
		}
		if !closeEnough(categories, grand) {
			p.errorf("%s: category totals sum to %v, scenario total is %v", d.id, categories, grand)
		}
	}
	return p
}

func validateRounding(data []scenarioData) *phase {
	p := &phase{name: "Rounding round trip"}
	const halfUnit = 5_000.0 + 1e-6
	for _, d := range data {
		rows := d.dash.NitrogenLossTable.Rows
		for i := range domain.LossCategories {
			raw := d.derived.CategoryTotals[i]
			if back := rows[i].Total.Float64() * 1_000_000; math.Abs(back-raw) > halfUnit {
				p.errorf("%s: %s shows %s for %v", d.id, rows[i].ID, rows[i].Total, raw)
			}
		}
		total := rows[len(rows)-1]
		if back := total.Total.Float64() * 1_000_000; math.Abs(back-d.derived.GrandTotal()) > halfUnit {
			p.errorf("%s: total shows %s for %v", d.id, total.Total, d.derived.GrandTotal())
		}
	}
	return p
}

func validateSections(data []scenarioData) *phase {
	p := &phase{name: "Dashboard sections"}
	for _, d := range data {
		for _, name := range domain.Sections {
			if _, ok := d.dash.Section(name); !ok {
				p.errorf("%s: section %s missing", d.id, name)
			}
		}
		if n := len(d.dash.NitrogenLossMaps); n != len(domain.LossCategories)+1 {
			p.errorf("%s: %d loss maps, want %d", d.id, n, len(domain.LossCategories)+1)
		}
		for _, s := range d.dash.TradeFlowSections {
			if len(s.Maps) != 3 {
				p.errorf("%s: %s has %d maps, want 3", d.id, s.Stage, len(s.Maps))
			}
		}
		for _, m := range d.dash.NitrogenLossMaps {
			for _, r := range m.Regions {
				if r.Color < 0 || math.IsNaN(r.Color) {
					p.errorf("%s: %s county %s colour %v", d.id, m.ID, r.FIPS, r.Color)
				}
			}
		}
	}
	return p
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= sumTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
