package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baylab/nitrogen-dashboard/internal/adapter/source"
	"github.com/baylab/nitrogen-dashboard/internal/domain"
	"github.com/baylab/nitrogen-dashboard/internal/observability"
	"github.com/baylab/nitrogen-dashboard/internal/pipeline"
)

const fixtureDir = "testdata/data"

func newFixtureLoader(t *testing.T, root string) (*pipeline.Loader, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	return pipeline.NewLoader(domain.DefaultRegistry(), source.NewFileSource(root), zap.NewNop(), metrics), metrics
}

// copyScenario copies one fixture scenario into a fresh data root so a test
// can corrupt individual tables.
func copyScenario(t *testing.T, id string) string {
	t.Helper()
	root := t.TempDir()
	dst := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dst, 0o755))

	entries, err := os.ReadDir(filepath.Join(fixtureDir, id))
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(fixtureDir, id, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dst, e.Name()), data, 0o644))
	}
	return root
}

func writeTable(t *testing.T, root, id string, table domain.TableName, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, id, table.File()), []byte(content), 0o644))
}

func TestLoader_LoadFixture(t *testing.T) {
	loader, metrics := newFixtureLoader(t, fixtureDir)

	tables, err := loader.Load(context.Background(), "2017")
	require.NoError(t, err)

	assert.Equal(t, domain.ScenarioID("2017"), tables.Scenario.ID)
	require.Len(t, tables.CropStage, 3)
	require.Len(t, tables.AnimalStage, 2)
	assert.Len(t, tables.Inventory, 2)
	assert.Len(t, tables.HarvestedArea, 2)
	require.Len(t, tables.LossSummary, 2)

	accomack := tables.CropStage[0]
	assert.Equal(t, "51001", accomack.FIPS)
	assert.Equal(t, "Accomack", accomack.County)
	assert.Equal(t, "corn", accomack.Commodity)
	assert.Equal(t, [domain.CropLossCount]float64{1_000_000, 500_000}, accomack.Losses)
	assert.Equal(t, domain.TradeFlow{Import: 100_000, Export: 200_000, WithinCounty: 300_000}, accomack.Flow)

	dairy := tables.AnimalStage[0]
	assert.Empty(t, dairy.County)
	assert.Equal(t, "dairy_cattle", dairy.Commodity)
	assert.Equal(t, domain.TradeFlow{Import: 2_000_000, Export: 1_000_000, WithinCounty: 500_000}, dairy.LiveAnimal)

	summary := tables.LossSummary[0]
	assert.Equal(t, 1_940_000.0, summary.Values["total_nitrogen_loss"])
	assert.NotContains(t, summary.Values, "state")

	assert.Equal(t, domain.ProductionRecord{Commodity: "dairy_cattle", Value: 1234.567}, tables.Inventory[0])

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.RecordsLoaded.WithLabelValues(string(domain.TableCropStage))))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsLoaded.WithLabelValues(string(domain.TableAnimalStage))))
}

func TestLoader_LegacyColumnNames(t *testing.T) {
	loader, _ := newFixtureLoader(t, fixtureDir)

	tables, err := loader.Load(context.Background(), "2030")
	require.NoError(t, err)

	assert.Equal(t, 330_000.0, tables.CropStage[0].Flow.WithinCounty)
	assert.Equal(t, 500_000.0, tables.AnimalStage[0].LiveAnimal.WithinCounty)
	assert.Equal(t, 25_000.0, tables.AnimalStage[0].AnimalProduct.WithinCounty)
}

func TestLoader_NormalizesFIPS(t *testing.T) {
	loader, _ := newFixtureLoader(t, fixtureDir)

	tables, err := loader.Load(context.Background(), "2050")
	require.NoError(t, err)

	assert.Equal(t, "51001", tables.CropStage[0].FIPS)
	assert.Equal(t, "01001", tables.CropStage[1].FIPS)
	assert.Equal(t, "51001", tables.AnimalStage[0].FIPS)
}

func TestLoader_UnknownScenario(t *testing.T) {
	loader, _ := newFixtureLoader(t, fixtureDir)

	_, err := loader.Load(context.Background(), "2099")
	assert.ErrorIs(t, err, domain.ErrUnknownScenario)
}

func TestLoader_MissingData(t *testing.T) {
	loader, _ := newFixtureLoader(t, t.TempDir())

	_, err := loader.Load(context.Background(), "2017")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Equal(t, "data_unavailable", domain.ErrorKind(err))
}

func TestLoader_MissingTable(t *testing.T) {
	root := copyScenario(t, "2017")
	require.NoError(t, os.Remove(filepath.Join(root, "2017", domain.TableAnimalStage.File())))
	loader, _ := newFixtureLoader(t, root)

	_, err := loader.Load(context.Background(), "2017")
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestLoader_SchemaMismatch(t *testing.T) {
	root := copyScenario(t, "2017")
	writeTable(t, root, "2017", domain.TableCropStage,
		"FIPS,county,commodity,nitrogen_loss1,import_crop_processing_nitrogen,export_crop_processing_nitrogen,within_county_crop_processing_nitrogen\n"+
			"51001,Accomack,corn,1,2,3,4\n")
	loader, _ := newFixtureLoader(t, root)

	tables, err := loader.Load(context.Background(), "2017")
	require.Error(t, err)
	assert.Nil(t, tables)

	var serr *domain.SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, domain.TableCropStage, serr.Table)
	assert.Equal(t, []string{"nitrogen_loss2"}, serr.Missing)
}

func TestLoader_MalformedRecord(t *testing.T) {
	tests := []struct {
		name   string
		table  domain.TableName
		csv    string
		line   int
		column string
	}{
		{
			name:  "negative loss",
			table: domain.TableCropStage,
			csv: "FIPS,county,commodity,nitrogen_loss1,nitrogen_loss2,import_crop_processing_nitrogen,export_crop_processing_nitrogen,within_county_crop_processing_nitrogen\n" +
				"51001,Accomack,corn,1,2,3,4,5\n" +
				"51001,Accomack,soybeans,-5,2,3,4,5\n",
			line:   3,
			column: "nitrogen_loss1",
		},
		{
			name:  "short row",
			table: domain.TableCropStage,
			csv: "FIPS,county,commodity,nitrogen_loss1,nitrogen_loss2,import_crop_processing_nitrogen,export_crop_processing_nitrogen,within_county_crop_processing_nitrogen\n" +
				"51001,Accomack,corn,1,2,3,4\n",
			line: 2,
		},
		{
			name:   "non-numeric summary value",
			table:  domain.TableLossSummary,
			csv:    "FIPS,county,total_nitrogen_loss\n51001,Accomack,12x\n24001,Allegany,5\n",
			line:   2,
			column: "total_nitrogen_loss",
		},
		{
			name:   "negative summary value",
			table:  domain.TableLossSummary,
			csv:    "FIPS,county,total_nitrogen_loss\n51001,Accomack,12\n24001,Allegany,-5\n",
			line:   3,
			column: "total_nitrogen_loss",
		},
		{
			name:   "empty summary value",
			table:  domain.TableLossSummary,
			csv:    "FIPS,county,state,total_nitrogen_loss\n51001,Accomack,VA,\n",
			line:   2,
			column: "total_nitrogen_loss",
		},
		{
			name:   "unlisted text column in summary",
			table:  domain.TableLossSummary,
			csv:    "FIPS,county,region,total_nitrogen_loss\n51001,Accomack,Eastern Shore,12\n",
			line:   2,
			column: "region",
		},
		{
			name:   "bad FIPS",
			table:  domain.TableLossSummary,
			csv:    "FIPS,county\nnot-a-code,Accomack\n",
			line:   2,
			column: domain.ColFIPS,
		},
		{
			name:   "empty inventory value",
			table:  domain.TableInventory,
			csv:    "Commodity,Total Inventory (head)\ndairy_cattle,\n",
			line:   2,
			column: domain.ColInventory,
		},
		{
			name:   "missing commodity",
			table:  domain.TableHarvestedArea,
			csv:    "Commodity,Total Harvested Area (Acre)\n,12\n",
			line:   2,
			column: domain.ColProductionCommodity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := copyScenario(t, "2017")
			writeTable(t, root, "2017", tt.table, tt.csv)
			loader, _ := newFixtureLoader(t, root)

			_, err := loader.Load(context.Background(), "2017")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedRecord)

			var rerr *domain.RecordError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.table, rerr.Table)
			assert.Equal(t, tt.line, rerr.Line)
			assert.Equal(t, tt.column, rerr.Column)
		})
	}
}

func TestLoader_CanceledContext(t *testing.T) {
	loader, _ := newFixtureLoader(t, fixtureDir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Load(ctx, "2017")
	assert.ErrorIs(t, err, context.Canceled)
}
