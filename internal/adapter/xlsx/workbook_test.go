package xlsx_test

import (
	"bytes"
	"testing"

	"github.com/baylab/nitrogen-dashboard/internal/adapter/xlsx"
	"github.com/baylab/nitrogen-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testDashboard() *domain.Dashboard {
	return domain.Assemble(domain.Derive(&domain.ScenarioTables{
		Scenario: domain.Scenario{ID: "2017", Label: "2017"},
		CropStage: []domain.CropStageRecord{
			{FIPS: "51001", County: "Accomack", Commodity: "corn", Losses: [domain.CropLossCount]float64{1_000_000, 500_000}},
		},
		AnimalStage: []domain.AnimalStageRecord{
			{
				FIPS: "51001", County: "Accomack", Commodity: "dairy_cattle",
				LiveAnimal: domain.TradeFlow{Import: 2_000_000, Export: 1_000_000, WithinCounty: 500_000},
			},
		},
		Inventory:     []domain.ProductionRecord{{Commodity: "dairy_cattle", Value: 1234.567}},
		HarvestedArea: []domain.ProductionRecord{{Commodity: "corn_for_grain", Value: 10}},
	}))
}

func openWorkbook(t *testing.T, d *domain.Dashboard) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, xlsx.Write(&buf, d))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWrite_Sheets(t *testing.T) {
	f := openWorkbook(t, testDashboard())

	assert.Equal(t, []string{
		xlsx.LossSheet,
		"Crop Stage",
		"Live Animal Stage",
		"Animal Product Stage",
		xlsx.InventorySheet,
		xlsx.HarvestedAreaSheet,
	}, f.GetSheetList())
}

func TestWrite_LossSheet(t *testing.T) {
	f := openWorkbook(t, testDashboard())

	rows, err := f.GetRows(xlsx.LossSheet)
	require.NoError(t, err)
	require.Len(t, rows, len(domain.LossCategories)+2)
	assert.Equal(t, []string{"Nitrogen Loss ID", "Nitrogen Loss Type", "Total (K Tons)"}, rows[0])
	assert.Equal(t, []string{"Nitrogen Loss Stage 1", "N input not taken by crop", "1"}, rows[1])
	assert.Equal(t, []string{"Total Nitrogen Loss", "Total Nitrogen Loss", "1.5"}, rows[len(rows)-1])
}

func TestWrite_TradeAndProductionSheets(t *testing.T) {
	f := openWorkbook(t, testDashboard())

	rows, err := f.GetRows("Live Animal Stage")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Dairy Cattle", "2", "1", "0.5"}, rows[1])

	rows, err = f.GetRows(xlsx.InventorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Dairy Cattle", "1234.57"}, rows[1])
}

func TestWrite_EmptyDashboard(t *testing.T) {
	f := openWorkbook(t, domain.Assemble(domain.Derive(&domain.ScenarioTables{})))

	rows, err := f.GetRows("Crop Stage")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
