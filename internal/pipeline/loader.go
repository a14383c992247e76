package pipeline

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/baylab/nitrogen-dashboard/internal/adapter/csvtable"
	"github.com/baylab/nitrogen-dashboard/internal/domain"
	"github.com/baylab/nitrogen-dashboard/internal/observability"
)

// TableSource opens the raw CSV of one scenario table.
type TableSource interface {
	Open(ctx context.Context, scenario domain.Scenario, table domain.TableName) (io.ReadCloser, error)
}

// Loader reads and validates the five tables of a scenario. It does not cache.
type Loader struct {
	registry *domain.Registry
	source   TableSource
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewLoader creates a Loader for the scenarios in registry.
func NewLoader(registry *domain.Registry, source TableSource, logger *zap.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		registry: registry,
		source:   source,
		logger:   logger,
		metrics:  metrics,
	}
}

// Load reads every table of a scenario. Either all tables load or an error is
// returned: domain.ErrUnknownScenario, domain.ErrDataUnavailable, a
// *domain.SchemaError or a *domain.RecordError.
func (l *Loader) Load(ctx context.Context, id domain.ScenarioID) (*domain.ScenarioTables, error) {
	scenario, err := l.registry.Lookup(id)
	if err != nil {
		return nil, err
	}

	tables := &domain.ScenarioTables{Scenario: scenario}
	steps := []struct {
		table domain.TableName
		row   func(*csvtable.Reader) error
	}{
		{domain.TableLossSummary, func(r *csvtable.Reader) error {
			rec, err := parseLossSummary(r)
			if err != nil {
				return err
			}
			tables.LossSummary = append(tables.LossSummary, rec)
			return nil
		}},
		{domain.TableHarvestedArea, func(r *csvtable.Reader) error {
			rec, err := parseProduction(r, domain.ColHarvestedArea)
			if err != nil {
				return err
			}
			tables.HarvestedArea = append(tables.HarvestedArea, rec)
			return nil
		}},
		{domain.TableInventory, func(r *csvtable.Reader) error {
			rec, err := parseProduction(r, domain.ColInventory)
			if err != nil {
				return err
			}
			tables.Inventory = append(tables.Inventory, rec)
			return nil
		}},
		{domain.TableCropStage, func(r *csvtable.Reader) error {
			rec, err := parseCropStage(r)
			if err != nil {
				return err
			}
			tables.CropStage = append(tables.CropStage, rec)
			return nil
		}},
		{domain.TableAnimalStage, func(r *csvtable.Reader) error {
			rec, err := parseAnimalStage(r)
			if err != nil {
				return err
			}
			tables.AnimalStage = append(tables.AnimalStage, rec)
			return nil
		}},
	}

	for _, step := range steps {
		n, err := l.readTable(ctx, scenario, step.table, step.row)
		if err != nil {
			return nil, fmt.Errorf("load scenario %s: %w", id, err)
		}
		l.metrics.RecordsLoaded.WithLabelValues(string(step.table)).Add(float64(n))
	}

	l.logger.Debug("scenario loaded",
		zap.String("scenario", string(id)),
		zap.Int("crop_rows", len(tables.CropStage)),
		zap.Int("animal_rows", len(tables.AnimalStage)),
	)
	return tables, nil
}

// readTable streams one table through row and returns the number of rows read.
func (l *Loader) readTable(ctx context.Context, scenario domain.Scenario, table domain.TableName, row func(*csvtable.Reader) error) (int, error) {
	rc, err := l.source.Open(ctx, scenario, table)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	r, err := csvtable.NewReader(table, rc)
	if err != nil {
		return 0, err
	}

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		ok, err := r.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		if err := row(r); err != nil {
			return n, err
		}
		n++
	}
}

func parseLossSummary(r *csvtable.Reader) (domain.LossSummaryRecord, error) {
	fips, err := r.FIPS(domain.ColFIPS)
	if err != nil {
		return domain.LossSummaryRecord{}, err
	}
	rec := domain.LossSummaryRecord{
		FIPS:   fips,
		County: r.String(domain.ColCounty),
		Values: make(map[string]float64),
	}
	for _, col := range r.Columns() {
		if col == domain.ColFIPS || col == domain.ColCounty || domain.IsLossSummaryTextColumn(col) {
			continue
		}
		v, err := r.Quantity(col)
		if err != nil {
			return domain.LossSummaryRecord{}, err
		}
		rec.Values[col] = v
	}
	return rec, nil
}

func parseProduction(r *csvtable.Reader, valueCol string) (domain.ProductionRecord, error) {
	commodity, err := r.RequireString(domain.ColProductionCommodity)
	if err != nil {
		return domain.ProductionRecord{}, err
	}
	v, err := r.Quantity(valueCol)
	if err != nil {
		return domain.ProductionRecord{}, err
	}
	return domain.ProductionRecord{Commodity: commodity, Value: v}, nil
}

func parseCropStage(r *csvtable.Reader) (domain.CropStageRecord, error) {
	var rec domain.CropStageRecord
	var err error
	if rec.FIPS, rec.County, rec.Commodity, err = parseKeys(r); err != nil {
		return rec, err
	}
	for i, c := range domain.LossCategories[:domain.CropLossCount] {
		if rec.Losses[i], err = r.Quantity(c.Column); err != nil {
			return rec, err
		}
	}
	rec.Flow, err = parseFlow(r, domain.StageCrop)
	return rec, err
}

func parseAnimalStage(r *csvtable.Reader) (domain.AnimalStageRecord, error) {
	var rec domain.AnimalStageRecord
	var err error
	if rec.FIPS, rec.County, rec.Commodity, err = parseKeys(r); err != nil {
		return rec, err
	}
	for i, c := range domain.LossCategories[domain.CropLossCount:] {
		if rec.Losses[i], err = r.Quantity(c.Column); err != nil {
			return rec, err
		}
	}
	if rec.LiveAnimal, err = parseFlow(r, domain.StageLiveAnimal); err != nil {
		return rec, err
	}
	rec.AnimalProduct, err = parseFlow(r, domain.StageAnimalProduct)
	return rec, err
}

func parseKeys(r *csvtable.Reader) (fips, county, commodity string, err error) {
	if fips, err = r.FIPS(domain.ColFIPS); err != nil {
		return "", "", "", err
	}
	if commodity, err = r.RequireString(domain.ColCommodity); err != nil {
		return "", "", "", err
	}
	return fips, r.String(domain.ColCounty), commodity, nil
}

func parseFlow(r *csvtable.Reader, stage domain.SupplyStage) (domain.TradeFlow, error) {
	var f domain.TradeFlow
	var err error
	if f.Import, err = r.Quantity(domain.FlowColumn(stage, domain.FlowImport)); err != nil {
		return f, err
	}
	if f.Export, err = r.Quantity(domain.FlowColumn(stage, domain.FlowExport)); err != nil {
		return f, err
	}
	f.WithinCounty, err = r.Quantity(domain.FlowColumn(stage, domain.FlowWithinCounty))
	return f, err
}
