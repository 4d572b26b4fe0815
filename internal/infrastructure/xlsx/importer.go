package xlsx

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/solar-inventario/internal/domain/entity"
)

// RowError fila del archivo que no pudo interpretarse.
type RowError struct {
	Row int // 1-based, como en la hoja
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("fila %d: %v", e.Row, e.Err) }

// ReadMaterials lee la primera hoja. La primera fila es la cabecera; las columnas se
// localizan por nombre (materialId obligatorio). Las filas inválidas se devuelven aparte
// y no detienen la lectura.
func ReadMaterials(r io.Reader) ([]*entity.Material, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("hoja vacía")
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["materialid"]; !ok {
		return nil, nil, fmt.Errorf("falta la columna materialId")
	}

	materials := make([]*entity.Material, 0, len(rows)-1)
	var rowErrs []RowError
	for i := 1; i < len(rows); i++ {
		m, err := parseRow(rows[i], col)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: i + 1, Err: err})
			continue
		}
		if m == nil {
			continue
		}
		materials = append(materials, m)
	}
	return materials, rowErrs, nil
}

// parseRow devuelve nil, nil para filas vacías.
func parseRow(row []string, col map[string]int) (*entity.Material, error) {
	get := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	id := get("materialid")
	if id == "" {
		return nil, nil
	}
	m := &entity.Material{
		MaterialID:   id,
		Description:  get("description"),
		Manufacturer: get("manufacturer"),
		Link:         get("link"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"itemsperunit", &m.ItemsPerUnit},
		{"orderquantity", &m.OrderQuantity},
		{"stock", &m.Stock},
		{"heatstock", &m.ReorderThreshold},
	}
	for _, f := range ints {
		v := get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %q no es un entero", f.name, v)
		}
		*f.dst = n
	}

	if v := get("price"); v != "" {
		p, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
		if err != nil || p.IsNegative() {
			return nil, fmt.Errorf("price: %q no es un importe válido", v)
		}
		m.Price = &p
	}
	if v := get("excludefromautoorder"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return nil, err
		}
		m.ExcludeFromAutoOrder = b
	}
	return m, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "x", "si", "sí", "yes":
		return true, nil
	case "0", "false", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("excludeFromAutoOrder: %q no es un booleano", v)
}
