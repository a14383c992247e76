// Package xlsx exports the summary tables of a dashboard as an Excel workbook.
package xlsx

import (
	"fmt"
	"io"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names. Trade-flow sheets are named after their stage.
const (
	LossSheet          = "Nitrogen Loss"
	InventorySheet     = "Inventory"
	HarvestedAreaSheet = "Harvested Area"
	defaultSheet       = "Sheet1"
)

// Write renders one sheet per summary table of d and writes the workbook to w.
// Amounts are stored as numbers at their displayed precision.
func Write(w io.Writer, d *domain.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory file

	if err := f.SetSheetName(defaultSheet, LossSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	loss := make([][]any, 0, len(d.NitrogenLossTable.Rows))
	for _, r := range d.NitrogenLossTable.Rows {
		loss = append(loss, []any{r.ID, r.Type, r.Total.Float64()})
	}
	if err := writeSheet(f, LossSheet, d.NitrogenLossTable.Columns, loss); err != nil {
		return err
	}

	for _, s := range d.TradeFlowSections {
		rows := make([][]any, 0, len(s.Table.Rows))
		for _, r := range s.Table.Rows {
			rows = append(rows, []any{r.Commodity, r.Import.Float64(), r.Export.Float64(), r.WithinCounty.Float64()})
		}
		if err := addSheet(f, s.Stage, s.Table.Columns, rows); err != nil {
			return err
		}
	}

	if err := addSheet(f, InventorySheet, d.Production.Inventory.Table.Columns, productionRows(d.Production.Inventory.Table)); err != nil {
		return err
	}
	if err := addSheet(f, HarvestedAreaSheet, d.Production.HarvestedArea.Table.Columns, productionRows(d.Production.HarvestedArea.Table)); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func productionRows(t domain.Table[domain.ProductionRow]) [][]any {
	rows := make([][]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, []any{r.Commodity, r.Value.Float64()})
	}
	return rows
}

func addSheet(f *excelize.File, name string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	return writeSheet(f, name, header, rows)
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]any) error {
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &head); err != nil {
		return fmt.Errorf("sheet %q header: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", name, i+2, err)
		}
	}
	return nil
}
