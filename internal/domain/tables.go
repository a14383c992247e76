package domain

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// TableName identifies one of the five per-scenario source tables.
type TableName string

const (
	TableLossSummary   TableName = "nitrogen_losses"
	TableHarvestedArea TableName = "harvested_area"
	TableInventory     TableName = "inventory"
	TableCropStage     TableName = "crop_stage"
	TableAnimalStage   TableName = "animal_stage"
)

// Tables lists the source tables in load order.
var Tables = []TableName{
	TableLossSummary,
	TableHarvestedArea,
	TableInventory,
	TableCropStage,
	TableAnimalStage,
}

var tableFiles = map[TableName]string{
	TableLossSummary:   "nitrogen_losses_summary.csv",
	TableHarvestedArea: "harvested_area_by_commodity.csv",
	TableInventory:     "inventory_by_commodity.csv",
	TableCropStage:     "crop_processing_nitrogen.csv",
	TableAnimalStage:   "animal_stage_nitrogen.csv",
}

// File returns the CSV file name of the table inside a scenario directory.
func (t TableName) File() string { return tableFiles[t] }

// Column names shared by several tables.
const (
	ColFIPS      = "FIPS"
	ColCounty    = "county"
	ColCommodity = "commodity"

	ColProductionCommodity = "Commodity"
	ColHarvestedArea       = "Total Harvested Area (Acre)"
	ColInventory           = "Total Inventory (head)"
)

// Trade-flow columns, canonical names.
const (
	ColImportCropProcessing       = "import_crop_processing_nitrogen"
	ColExportCropProcessing       = "export_crop_processing_nitrogen"
	ColWithinCountyCropProcessing = "within_county_crop_processing_nitrogen"
	ColImportAnimal               = "import_animal_nitrogen"
	ColExportAnimal               = "export_animal_nitrogen"
	ColWithinCountyAnimal         = "within_county_animal_nitrogen"
	ColImportMeat                 = "import_meat_nitrogen"
	ColExportMeat                 = "export_meat_nitrogen"
	ColWithinCountyMeat           = "within_county_meat_nitrogen"
)

// LegacyColumnRenames maps retained-within-county headers written by older
// model exports to their canonical names. Renaming never changes values.
var LegacyColumnRenames = map[string]string{
	"selfloop_crop_processing_nitrogen": ColWithinCountyCropProcessing,
	"selfloop_animal_nitrogen":          ColWithinCountyAnimal,
	"selfloop_meat_nitrogen":            ColWithinCountyMeat,
}

// LossSummaryTextColumns lists the non-key loss summary columns that carry
// labels rather than quantities. They are skipped when the summary is read;
// every other non-key column must hold a non-negative number.
var LossSummaryTextColumns = []string{"state"}

// IsLossSummaryTextColumn reports whether col is an allowed text column of
// the loss summary table.
func IsLossSummaryTextColumn(col string) bool {
	return slices.Contains(LossSummaryTextColumns, col)
}

// RequiredColumns returns the columns a table must carry after renaming.
func RequiredColumns(t TableName) []string {
	switch t {
	case TableLossSummary:
		return []string{ColFIPS, ColCounty}
	case TableHarvestedArea:
		return []string{ColProductionCommodity, ColHarvestedArea}
	case TableInventory:
		return []string{ColProductionCommodity, ColInventory}
	case TableCropStage:
		cols := []string{ColFIPS, ColCounty, ColCommodity}
		for _, c := range LossCategories[:CropLossCount] {
			cols = append(cols, c.Column)
		}
		return append(cols, StageFlowColumns(StageCrop)...)
	case TableAnimalStage:
		cols := []string{ColFIPS, ColCounty, ColCommodity}
		for _, c := range LossCategories[CropLossCount:] {
			cols = append(cols, c.Column)
		}
		cols = append(cols, StageFlowColumns(StageLiveAnimal)...)
		return append(cols, StageFlowColumns(StageAnimalProduct)...)
	default:
		return nil
	}
}

// TradeFlow is the nitrogen moved by one supply-chain stage of a county/commodity.
type TradeFlow struct {
	Import       float64 `json:"import"`
	Export       float64 `json:"export"`
	WithinCounty float64 `json:"within_county"`
}

// Get returns the quantity for a direction.
func (f TradeFlow) Get(d FlowDirection) float64 {
	switch d {
	case FlowImport:
		return f.Import
	case FlowExport:
		return f.Export
	default:
		return f.WithinCounty
	}
}

// CropStageRecord is one row of the crop-processing table.
type CropStageRecord struct {
	FIPS      string
	County    string
	Commodity string
	Losses    [CropLossCount]float64 // nitrogen_loss1, nitrogen_loss2
	Flow      TradeFlow
}

// TotalLoss is loss_1 + loss_2.
func (r CropStageRecord) TotalLoss() float64 {
	return r.Losses[0] + r.Losses[1]
}

// AnimalStageRecord is one row of the animal-stage table.
type AnimalStageRecord struct {
	FIPS          string
	County        string
	Commodity     string
	Losses        [AnimalLossCount]float64 // nitrogen_loss3 .. nitrogen_loss7
	LiveAnimal    TradeFlow
	AnimalProduct TradeFlow
}

// TotalLoss is loss_3 + loss_4 + loss_5 + loss_6 + loss_7.
func (r AnimalStageRecord) TotalLoss() float64 {
	return r.Losses[0] + r.Losses[1] + r.Losses[2] + r.Losses[3] + r.Losses[4]
}

// ProductionRecord is a commodity total: inventory in head or harvested area in acres.
type ProductionRecord struct {
	Commodity string
	Value     float64
}

// LossSummaryRecord is one row of the nitrogen-loss summary table. Columns
// other than FIPS and county are kept by name.
type LossSummaryRecord struct {
	FIPS   string
	County string
	Values map[string]float64
}

// ScenarioTables holds the five tables of one scenario, as loaded.
type ScenarioTables struct {
	Scenario      Scenario
	LossSummary   []LossSummaryRecord
	HarvestedArea []ProductionRecord
	Inventory     []ProductionRecord
	CropStage     []CropStageRecord
	AnimalStage   []AnimalStageRecord
}

// RowCounts reports the number of records per table.
func (t *ScenarioTables) RowCounts() map[TableName]int {
	return map[TableName]int{
		TableLossSummary:   len(t.LossSummary),
		TableHarvestedArea: len(t.HarvestedArea),
		TableInventory:     len(t.Inventory),
		TableCropStage:     len(t.CropStage),
		TableAnimalStage:   len(t.AnimalStage),
	}
}

// NormalizeFIPS returns the zero-padded five-digit form of a county code.
// Integral float spellings such as "51001.0" are accepted.
func NormalizeFIPS(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty FIPS code")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return formatFIPS(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return "", fmt.Errorf("invalid FIPS code")
	}
	return formatFIPS(int64(f))
}

func formatFIPS(n int64) (string, error) {
	if n <= 0 || n > 99999 {
		return "", fmt.Errorf("FIPS code out of range")
	}
	return fmt.Sprintf("%05d", n), nil
}

// ParseQuantity parses a non-negative nitrogen or production quantity.
// Empty cells are rejected rather than read as zero.
func ParseQuantity(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	if v < 0 {
		return 0, fmt.Errorf("negative quantity")
	}
	return v, nil
}
