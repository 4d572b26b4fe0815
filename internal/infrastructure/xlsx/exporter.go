package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/solar-inventario/internal/application/ordering"
	"github.com/jhoicas/solar-inventario/internal/domain/entity"
	"github.com/jhoicas/solar-inventario/internal/domain/inventory"
)

// Hojas del libro exportado.
const (
	SheetOrders   = "Pedidos"
	SheetExcluded = "Excluidos"
)

var _ ordering.OrderListExporter = (*Exporter)(nil)

// Exporter escribe la lista de pedidos como libro XLSX con dos hojas.
type Exporter struct{}

func NewExporter() *Exporter { return &Exporter{} }

func (e *Exporter) Export(w io.Writer, list inventory.OrderList) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetOrders); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetExcluded); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}

	orders := make([][]interface{}, 0, len(list.Entries))
	for _, e := range list.Entries {
		m := e.Material
		orders = append(orders, []interface{}{
			m.MaterialID, m.Description, m.Manufacturer, string(e.DisplayType),
			e.DisplayQuantity, m.Stock, m.ReorderThreshold, priceCell(m), orderDateCell(m),
		})
	}
	if err := writeSheet(f, SheetOrders, []interface{}{
		"materialId", "description", "manufacturer", "displayType",
		"quantity", "stock", "heatStock", "price", "orderDate",
	}, orders); err != nil {
		return err
	}

	excluded := make([][]interface{}, 0, len(list.ExcludedLow))
	for _, m := range list.ExcludedLow {
		excluded = append(excluded, []interface{}{
			m.MaterialID, m.Description, m.Manufacturer, m.Stock, m.ReorderThreshold,
			inventory.DefaultOrderQuantity(m), priceCell(m),
		})
	}
	if err := writeSheet(f, SheetExcluded, []interface{}{
		"materialId", "description", "manufacturer", "stock", "heatStock", "orderQuantity", "price",
	}, excluded); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func priceCell(m *entity.Material) interface{} {
	if m.Price == nil {
		return ""
	}
	return m.Price.InexactFloat64()
}

func orderDateCell(m *entity.Material) interface{} {
	if m.Order == nil {
		return ""
	}
	return m.Order.Date.Format("2006-01-02")
}
