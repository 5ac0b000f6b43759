package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names
const (
	SheetProducts  = "products"
	SheetSuppliers = "suppliers"
	SheetFactories = "factories"
)

// text and boolean columns; every other column is numeric
var (
	textColumns = map[string]bool{
		"sku": true, "warehouse": true, "product_category": true,
		"supplier_id": true, "material_type": true, "factory_location": true,
	}
	boolColumns = map[string]bool{"is_festival_sensitive": true}
)

// LoadFile reads a request from a .json file or an .xlsx workbook with
// products, suppliers and factories sheets.
func LoadFile(path string) (Request, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return Request{}, fmt.Errorf("unsupported snapshot file %s: want .json or .xlsx", path)
	}
}

func loadJSON(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return req, nil
}

func loadXLSX(path string) (Request, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	var req Request
	if err := readSheet(f, SheetProducts, true, &req.Products); err != nil {
		return Request{}, err
	}
	if err := readSheet(f, SheetSuppliers, false, &req.Suppliers); err != nil {
		return Request{}, err
	}
	if err := readSheet(f, SheetFactories, false, &req.Factories); err != nil {
		return Request{}, err
	}
	return req, nil
}

// readSheet decodes each data row of a sheet into out, keyed by the header
// row. Blank cells are left absent so optional defaults apply.
func readSheet(f *excelize.File, sheet string, required bool, out any) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		if required {
			return fmt.Errorf("xlsx snapshot has no %s sheet", sheet)
		}
		return nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	records := make([]map[string]any, 0, len(rows)-1)
	for n, row := range rows[1:] {
		record := make(map[string]any, len(header))
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if i >= len(header) || header[i] == "" || cell == "" {
				continue
			}
			v, err := cellValue(header[i], cell)
			if err != nil {
				return fmt.Errorf("sheet %s row %d: %w", sheet, n+2, err)
			}
			record[header[i]] = v
		}
		if len(record) > 0 {
			records = append(records, record)
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode sheet %s: %w", sheet, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode sheet %s: %w", sheet, err)
	}
	return nil
}

func cellValue(column, cell string) (any, error) {
	switch {
	case textColumns[column]:
		return cell, nil
	case boolColumns[column]:
		switch strings.ToLower(cell) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
		return nil, fmt.Errorf("column %s: %q is not a boolean", column, cell)
	default:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: %q is not a number", column, cell)
		}
		return v, nil
	}
}
