package domain

// SchemaVersion is bumped whenever the Dashboard JSON shape changes.
const SchemaVersion = "1"

// Source paper the scenario data is published with.
const (
	PaperDOI = "10.1088/1748-9326/ad5d0b"
	PaperURL = "https://doi.org/" + PaperDOI
)

// Dashboard sections, addressable individually over the API.
const (
	SectionLossMaps   = "nitrogen_loss_maps"
	SectionLossTable  = "nitrogen_loss_table"
	SectionTradeFlows = "trade_flow_sections"
	SectionProduction = "production"
)

// Sections lists the addressable sections in display order.
var Sections = []string{SectionLossMaps, SectionLossTable, SectionTradeFlows, SectionProduction}

// Colour-bar labels.
const (
	LossColorLabel  = "Log Nitrogen Loss"
	TradeColorLabel = "Log Nitrogen"
)

// Region is one county of a choropleth map. Value is shown on hover, Color
// drives the colour scale.
type Region struct {
	FIPS   string  `json:"fips"`
	County string  `json:"county"`
	Value  float64 `json:"value"`
	Color  float64 `json:"color"`
}

// ChoroplethMap is a county-level map of one quantity.
type ChoroplethMap struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	TabLabel   string   `json:"tab_label"`
	ColorLabel string   `json:"color_label"`
	Regions    []Region `json:"regions"`
}

// Table is a titled table of typed rows. Columns are the display headers in
// row field order.
type Table[T any] struct {
	Title   string   `json:"title,omitempty"`
	Columns []string `json:"columns"`
	Rows    []T      `json:"rows"`
}

// LossRow is a row of the nitrogen-loss table.
type LossRow struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Total Amount `json:"total"`
}

// TradeRow is a row of a stage trade-flow table, in thousands of tons.
type TradeRow struct {
	Commodity    string `json:"commodity"`
	Import       Amount `json:"import"`
	Export       Amount `json:"export"`
	WithinCounty Amount `json:"within_county"`
}

// ProductionRow is a row of the inventory or harvested-area table.
type ProductionRow struct {
	Commodity string `json:"commodity"`
	Value     Amount `json:"value"`
}

// Slice is one wedge of a pie chart.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PieChart shows each commodity's share of a production total.
type PieChart struct {
	Title  string  `json:"title"`
	Slices []Slice `json:"slices"`
}

// TradeSection groups the import, export and within-county maps of one
// supply stage with its per-commodity table.
type TradeSection struct {
	Stage string          `json:"stage"`
	Key   string          `json:"key"`
	Maps  []ChoroplethMap `json:"maps"`
	Table Table[TradeRow] `json:"table"`
}

// ProductionPanel pairs a pie chart with its table.
type ProductionPanel struct {
	Label string               `json:"label"`
	Chart PieChart             `json:"chart"`
	Table Table[ProductionRow] `json:"table"`
}

// Production holds the inventory and harvested-area panels.
type Production struct {
	Inventory     ProductionPanel `json:"inventory"`
	HarvestedArea ProductionPanel `json:"harvested_area"`
}

// Meta describes where a dashboard came from.
type Meta struct {
	SchemaVersion string            `json:"schema_version"`
	RowCounts     map[TableName]int `json:"row_counts"`
	PaperDOI      string            `json:"paper_doi"`
	PaperURL      string            `json:"paper_url"`
}

// Dashboard is everything shown for one scenario. A Dashboard is never
// modified after assembly and may be shared between requests.
type Dashboard struct {
	Scenario          Scenario        `json:"scenario"`
	NitrogenLossMaps  []ChoroplethMap `json:"nitrogen_loss_maps"`
	NitrogenLossTable Table[LossRow]  `json:"nitrogen_loss_table"`
	TradeFlowSections []TradeSection  `json:"trade_flow_sections"`
	Production        Production      `json:"production"`
	Meta              Meta            `json:"meta"`
}

// Section returns one named section of the dashboard.
func (d *Dashboard) Section(name string) (any, bool) {
	switch name {
	case SectionLossMaps:
		return d.NitrogenLossMaps, true
	case SectionLossTable:
		return d.NitrogenLossTable, true
	case SectionTradeFlows:
		return d.TradeFlowSections, true
	case SectionProduction:
		return d.Production, true
	default:
		return nil, false
	}
}
