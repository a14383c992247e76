package cmd

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
)

var (
	fixtureCrops   = []string{"corn", "soybeans", "wheat"}
	fixtureAnimals = []string{"beef_cattle", "broilers", "dairy_cattle", "hogs_and_pigs"}
	fixtureAreas   = []string{"corn_for_grain", "soybeans", "winter_wheat"}
)

const maxFixtureCounties = 499

type genfixtureOptions struct {
	out      string
	counties int
	seed     uint64
}

func newGenfixtureCmd(root *rootOptions) *cobra.Command {
	opts := &genfixtureOptions{}
	cmd := &cobra.Command{
		Use:   "genfixture",
		Short: "Write a synthetic scenario data tree for every registered scenario",
		Long: `Generates the five source tables of every registered scenario with
whole-number quantities. The same seed and county count always produce the
same files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.counties < 1 || opts.counties > maxFixtureCounties {
				return fmt.Errorf("--counties must be between 1 and %d", maxFixtureCounties)
			}
			reg, err := root.loadRegistry()
			if err != nil {
				return err
			}
			for i, s := range reg.Scenarios() {
				dir := filepath.Join(opts.out, s.Dir)
				rng := rand.New(rand.NewPCG(opts.seed, uint64(i)))
				if err := writeFixture(dir, rng, opts.counties, 1+0.25*float64(i)); err != nil {
					return fmt.Errorf("scenario %s: %w", s.ID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %s\n", s.ID, dir)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory")
	cmd.Flags().IntVar(&opts.counties, "counties", 10, "number of synthetic counties")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "random seed")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

type fixtureCounty struct {
	fips  string
	name  string
	total float64
}

func writeFixture(dir string, rng *rand.Rand, counties int, scale float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	qty := func(upper int) float64 { return math.Round(float64(rng.IntN(upper)) * scale) }
	county := make([]fixtureCounty, counties)
	for i := range county {
		county[i] = fixtureCounty{fips: fmt.Sprintf("51%03d", 2*i+1), name: fmt.Sprintf("County %03d", 2*i+1)}
	}

	crop := [][]string{domain.RequiredColumns(domain.TableCropStage)}
	for i := range county {
		for _, commodity := range fixtureCrops {
			row := []string{county[i].fips, county[i].name, commodity}
			for range domain.CropLossCount {
				v := qty(1_000_000)
				county[i].total += v
				row = append(row, formatQty(v))
			}
			for range domain.StageFlowColumns(domain.StageCrop) {
				row = append(row, formatQty(qty(500_000)))
			}
			crop = append(crop, row)
		}
	}

	animal := [][]string{domain.RequiredColumns(domain.TableAnimalStage)}
	flowCols := len(domain.StageFlowColumns(domain.StageLiveAnimal)) + len(domain.StageFlowColumns(domain.StageAnimalProduct))
	for i := range county {
		for _, commodity := range fixtureAnimals {
			row := []string{county[i].fips, county[i].name, commodity}
			for range domain.AnimalLossCount {
				v := qty(200_000)
				county[i].total += v
				row = append(row, formatQty(v))
			}
			for range flowCols {
				row = append(row, formatQty(qty(800_000)))
			}
			animal = append(animal, row)
		}
	}

	summary := [][]string{append(domain.RequiredColumns(domain.TableLossSummary), "total_nitrogen_loss")}
	for _, c := range county {
		summary = append(summary, []string{c.fips, c.name, formatQty(c.total)})
	}

	inventory := [][]string{domain.RequiredColumns(domain.TableInventory)}
	for _, commodity := range fixtureAnimals {
		inventory = append(inventory, []string{commodity, formatQty(qty(50_000) * float64(counties))})
	}
	area := [][]string{domain.RequiredColumns(domain.TableHarvestedArea)}
	for _, commodity := range fixtureAreas {
		area = append(area, []string{commodity, formatQty(qty(20_000) * float64(counties))})
	}

	files := map[domain.TableName][][]string{
		domain.TableLossSummary:   summary,
		domain.TableHarvestedArea: area,
		domain.TableInventory:     inventory,
		domain.TableCropStage:     crop,
		domain.TableAnimalStage:   animal,
	}
	for _, t := range domain.Tables {
		if err := writeCSV(filepath.Join(dir, t.File()), files[t]); err != nil {
			return err
		}
	}
	return nil
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
