package domain

import "fmt"

// Fixed titles and column headers of the dashboard.
const (
	TotalLossMapID    = "total_nitrogen_loss"
	TotalLossLabel    = "Total Nitrogen Loss"
	TotalLossMapTitle = "Total Nitrogen Loss by County"

	InventoryTitle     = "Inventory by Commodity"
	HarvestedAreaTitle = "Harvested Area by Commodity"
)

var (
	lossTableColumns  = []string{"Nitrogen Loss ID", "Nitrogen Loss Type", "Total (K Tons)"}
	tradeTableColumns = []string{"Commodity", "Import (K Tons)", "Export (K Tons)", "Within County (K Tons)"}
)

// Assemble turns derived tables into the dashboard artifacts.
func Assemble(d *Derived) *Dashboard {
	return &Dashboard{
		Scenario:          d.Scenario,
		NitrogenLossMaps:  lossMaps(d),
		NitrogenLossTable: lossTable(d),
		TradeFlowSections: tradeSections(d),
		Production: Production{
			Inventory:     productionPanel("Inventory", InventoryTitle, ColInventory, d.Inventory),
			HarvestedArea: productionPanel("Harvested Area", HarvestedAreaTitle, ColHarvestedArea, d.HarvestedArea),
		},
		Meta: Meta{
			SchemaVersion: SchemaVersion,
			RowCounts:     d.RowCounts,
			PaperDOI:      PaperDOI,
			PaperURL:      PaperURL,
		},
	}
}

func lossMaps(d *Derived) []ChoroplethMap {
	maps := make([]ChoroplethMap, 0, len(LossCategories)+1)
	for i, c := range LossCategories {
		maps = append(maps, ChoroplethMap{
			ID:         c.Column,
			Title:      c.Label,
			TabLabel:   c.Label,
			ColorLabel: LossColorLabel,
			Regions:    regions(d.LossSeries[i]),
		})
	}
	return append(maps, ChoroplethMap{
		ID:         TotalLossMapID,
		Title:      TotalLossMapTitle,
		TabLabel:   TotalLossLabel,
		ColorLabel: LossColorLabel,
		Regions:    regions(d.CountyTotals),
	})
}

func lossTable(d *Derived) Table[LossRow] {
	rows := make([]LossRow, 0, len(LossCategories)+1)
	for i, c := range LossCategories {
		rows = append(rows, LossRow{
			ID:    fmt.Sprintf("Nitrogen Loss Stage %d", c.Stage),
			Type:  c.Label,
			Total: Millions(d.CategoryTotals[i]),
		})
	}
	rows = append(rows, LossRow{
		ID:    TotalLossLabel,
		Type:  TotalLossLabel,
		Total: Millions(d.GrandTotal()),
	})
	return Table[LossRow]{Columns: lossTableColumns, Rows: rows}
}

func tradeSections(d *Derived) []TradeSection {
	sections := make([]TradeSection, 0, len(SupplyStages))
	for _, s := range SupplyStages {
		maps := make([]ChoroplethMap, 0, len(FlowDirections))
		for _, dir := range FlowDirections {
			col := FlowColumn(s, dir)
			label := DisplayLabel(col)
			maps = append(maps, ChoroplethMap{
				ID:         col,
				Title:      label + " - " + s.String(),
				TabLabel:   label,
				ColorLabel: TradeColorLabel,
				Regions:    regions(d.FlowSeries[s][dir]),
			})
		}

		rows := make([]TradeRow, 0, len(d.StageSummaries[s]))
		for _, cf := range d.StageSummaries[s] {
			rows = append(rows, TradeRow{
				Commodity:    DisplayLabel(cf.Commodity),
				Import:       Millions(cf.Flow.Import),
				Export:       Millions(cf.Flow.Export),
				WithinCounty: Millions(cf.Flow.WithinCounty),
			})
		}

		sections = append(sections, TradeSection{
			Stage: s.String(),
			Key:   s.Key(),
			Maps:  maps,
			Table: Table[TradeRow]{Title: s.String(), Columns: tradeTableColumns, Rows: rows},
		})
	}
	return sections
}

func productionPanel(label, title, valueColumn string, records []ProductionRecord) ProductionPanel {
	slices := make([]Slice, 0, len(records))
	rows := make([]ProductionRow, 0, len(records))
	for _, r := range records {
		name := DisplayLabel(r.Commodity)
		slices = append(slices, Slice{Label: name, Value: r.Value})
		rows = append(rows, ProductionRow{Commodity: name, Value: Rounded(r.Value)})
	}
	return ProductionPanel{
		Label: label,
		Chart: PieChart{Title: title, Slices: slices},
		Table: Table[ProductionRow]{
			Columns: []string{ColProductionCommodity, valueColumn},
			Rows:    rows,
		},
	}
}

func regions(series []CountyValue) []Region {
	out := make([]Region, len(series))
	for i, cv := range series {
		out[i] = Region{FIPS: cv.FIPS, County: cv.County, Value: cv.Value, Color: cv.Log}
	}
	return out
}
