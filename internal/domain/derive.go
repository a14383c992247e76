package domain

import (
	"math"
	"sort"
)

// CountyValue is one county's quantity and its colour-scale value.
type CountyValue struct {
	FIPS   string
	County string
	Value  float64
	Log    float64 // log1p(Value), for colour mapping only
}

// CommodityFlow is a trade-flow total for one commodity of one stage.
type CommodityFlow struct {
	Commodity string // raw key, e.g. "dairy_cattle"
	Flow      TradeFlow
}

// Derived holds the aggregate tables computed from one scenario.
type Derived struct {
	Scenario Scenario

	CropRowTotals   []float64
	AnimalRowTotals []float64

	CountyTotals []CountyValue
	LossSeries   [len(LossCategories)][]CountyValue
	FlowSeries   [3][3][]CountyValue // [SupplyStage][FlowDirection]

	StageSummaries [3][]CommodityFlow // [SupplyStage], sorted by commodity key

	CategoryTotals [len(LossCategories)]float64
	CropTotal      float64
	AnimalTotal    float64

	Inventory     []ProductionRecord
	HarvestedArea []ProductionRecord
	RowCounts     map[TableName]int
}

// GrandTotal is the sum of all seven loss categories.
func (d *Derived) GrandTotal() float64 {
	return d.CropTotal + d.AnimalTotal
}

// LogScale maps a non-negative quantity onto the colour scale; zero stays zero.
func LogScale(v float64) float64 {
	return math.Log1p(v)
}

// Derive computes every aggregate the dashboard shows. It does not modify t.
func Derive(t *ScenarioTables) *Derived {
	d := &Derived{
		Scenario:        t.Scenario,
		CropRowTotals:   make([]float64, len(t.CropStage)),
		AnimalRowTotals: make([]float64, len(t.AnimalStage)),
		Inventory:       append([]ProductionRecord(nil), t.Inventory...),
		HarvestedArea:   append([]ProductionRecord(nil), t.HarvestedArea...),
		RowCounts:       t.RowCounts(),
	}

	totals := newCountyAccumulator()
	var losses [len(LossCategories)]*countyAccumulator
	for i := range losses {
		losses[i] = newCountyAccumulator()
	}
	var flows [3][3]*countyAccumulator
	for s := range flows {
		for dir := range flows[s] {
			flows[s][dir] = newCountyAccumulator()
		}
	}
	var summaries [3]*commodityAccumulator
	for s := range summaries {
		summaries[s] = newCommodityAccumulator()
	}

	// Crop rows are added before animal rows so the first county name wins in
	// file order across both tables.
	for i, r := range t.CropStage {
		total := r.TotalLoss()
		d.CropRowTotals[i] = total
		d.CropTotal += total
		totals.add(r.FIPS, r.County, total)
		for j, v := range r.Losses {
			losses[j].add(r.FIPS, r.County, v)
			d.CategoryTotals[j] += v
		}
		addFlow(flows[StageCrop], r.FIPS, r.County, r.Flow)
		summaries[StageCrop].add(r.Commodity, r.Flow)
	}

	for i, r := range t.AnimalStage {
		total := r.TotalLoss()
		d.AnimalRowTotals[i] = total
		d.AnimalTotal += total
		totals.add(r.FIPS, r.County, total)
		for j, v := range r.Losses {
			losses[CropLossCount+j].add(r.FIPS, r.County, v)
			d.CategoryTotals[CropLossCount+j] += v
		}
		addFlow(flows[StageLiveAnimal], r.FIPS, r.County, r.LiveAnimal)
		addFlow(flows[StageAnimalProduct], r.FIPS, r.County, r.AnimalProduct)
		summaries[StageLiveAnimal].add(r.Commodity, r.LiveAnimal)
		summaries[StageAnimalProduct].add(r.Commodity, r.AnimalProduct)
	}

	d.CountyTotals = totals.series()
	for i, acc := range losses {
		d.LossSeries[i] = acc.series()
	}
	for s := range flows {
		for dir, acc := range flows[s] {
			d.FlowSeries[s][dir] = acc.series()
		}
		d.StageSummaries[s] = summaries[s].rows()
	}
	return d
}

func addFlow(accs [3]*countyAccumulator, fips, county string, f TradeFlow) {
	for _, dir := range FlowDirections {
		accs[dir].add(fips, county, f.Get(dir))
	}
}

// countyAccumulator groups values by FIPS, summing them and keeping the first
// non-empty county name.
type countyAccumulator struct {
	index map[string]int
	rows  []CountyValue
}

func newCountyAccumulator() *countyAccumulator {
	return &countyAccumulator{index: make(map[string]int)}
}

func (a *countyAccumulator) add(fips, county string, v float64) {
	i, ok := a.index[fips]
	if !ok {
		i = len(a.rows)
		a.index[fips] = i
		a.rows = append(a.rows, CountyValue{FIPS: fips})
	}
	row := &a.rows[i]
	row.Value += v
	if row.County == "" {
		row.County = county
	}
}

func (a *countyAccumulator) series() []CountyValue {
	out := make([]CountyValue, len(a.rows))
	copy(out, a.rows)
	sort.Slice(out, func(i, j int) bool { return out[i].FIPS < out[j].FIPS })
	for i := range out {
		out[i].Log = LogScale(out[i].Value)
	}
	return out
}

type commodityAccumulator struct {
	sums map[string]TradeFlow
}

func newCommodityAccumulator() *commodityAccumulator {
	return &commodityAccumulator{sums: make(map[string]TradeFlow)}
}

func (a *commodityAccumulator) add(commodity string, f TradeFlow) {
	cur := a.sums[commodity]
	cur.Import += f.Import
	cur.Export += f.Export
	cur.WithinCounty += f.WithinCounty
	a.sums[commodity] = cur
}

func (a *commodityAccumulator) rows() []CommodityFlow {
	out := make([]CommodityFlow, 0, len(a.sums))
	for c, f := range a.sums {
		out = append(out, CommodityFlow{Commodity: c, Flow: f})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Commodity < out[j].Commodity })
	return out
}
