package domain

const (
	CropLossCount   = 2
	AnimalLossCount = 5
)

// LossCategory is one of the seven supply-chain points where nitrogen is lost.
type LossCategory struct {
	Stage  int    `json:"stage"`
	Column string `json:"column"`
	Label  string `json:"label"`
}

// LossCategories are ordered by stage; the first CropLossCount come from the
// crop-processing table, the rest from the animal-stage table.
var LossCategories = [CropLossCount + AnimalLossCount]LossCategory{
	{Stage: 1, Column: "nitrogen_loss1", Label: "N input not taken by crop"},
	{Stage: 2, Column: "nitrogen_loss2", Label: "Crop processing N loss"},
	{Stage: 3, Column: "nitrogen_loss3", Label: "Feed waste & manure loss"},
	{Stage: 4, Column: "nitrogen_loss4", Label: "Slaughtering/milking/laying N loss"},
	{Stage: 5, Column: "nitrogen_loss5", Label: "Food processing N loss"},
	{Stage: 6, Column: "nitrogen_loss6", Label: "Food N waste"},
	{Stage: 7, Column: "nitrogen_loss7", Label: "Human N waste"},
}

// SupplyStage is a supply-chain stage with its own trade-flow columns.
type SupplyStage int

const (
	StageCrop SupplyStage = iota
	StageLiveAnimal
	StageAnimalProduct
)

// SupplyStages in display order.
var SupplyStages = []SupplyStage{StageCrop, StageLiveAnimal, StageAnimalProduct}

func (s SupplyStage) String() string {
	switch s {
	case StageCrop:
		return "Crop Stage"
	case StageLiveAnimal:
		return "Live Animal Stage"
	case StageAnimalProduct:
		return "Animal Product Stage"
	default:
		return "Unknown Stage"
	}
}

// Key is the snake_case identifier used in artifact ids.
func (s SupplyStage) Key() string {
	switch s {
	case StageCrop:
		return "crop"
	case StageLiveAnimal:
		return "live_animal"
	case StageAnimalProduct:
		return "animal_product"
	default:
		return "unknown"
	}
}

// FlowDirection is where a commodity's nitrogen is consumed relative to where
// it was produced.
type FlowDirection int

const (
	FlowImport FlowDirection = iota
	FlowExport
	FlowWithinCounty
)

// FlowDirections in display order.
var FlowDirections = []FlowDirection{FlowImport, FlowExport, FlowWithinCounty}

func (d FlowDirection) String() string {
	switch d {
	case FlowImport:
		return "Import"
	case FlowExport:
		return "Export"
	default:
		return "Within County"
	}
}

var stageFlowColumns = map[SupplyStage][3]string{
	StageCrop:          {ColImportCropProcessing, ColExportCropProcessing, ColWithinCountyCropProcessing},
	StageLiveAnimal:    {ColImportAnimal, ColExportAnimal, ColWithinCountyAnimal},
	StageAnimalProduct: {ColImportMeat, ColExportMeat, ColWithinCountyMeat},
}

// StageFlowColumns returns the import, export and within-county columns of a stage.
func StageFlowColumns(s SupplyStage) []string {
	cols := stageFlowColumns[s]
	return cols[:]
}

// FlowColumn returns the canonical column of one stage and direction.
func FlowColumn(s SupplyStage, d FlowDirection) string {
	return stageFlowColumns[s][d]
}
