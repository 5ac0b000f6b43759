package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(minimalRequest), 0o644))

	req, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, req.Products, 1)
	assert.Equal(t, "SKU001", req.Products[0].SKU)
	require.Len(t, req.Suppliers, 1)
	require.Len(t, req.Factories, 1)
}

func TestLoadFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", SheetProducts))
	rows := map[string][][]any{
		SheetProducts: {
			{"sku", "warehouse", "product_category", "current_stock", "forecast_demand", "actual_demand", "production_capacity", "unit_cost", "lead_time_days", "is_festival_sensitive"},
			{"SKU001", "Delhi", "Snacks", 10, 100, 80, 200, 12.5, "", "yes"},
			{"SKU002", "Mumbai", "Beverages", 50, 60, 70, 100, 8, 3, "no"},
		},
		SheetSuppliers: {
			{"supplier_id", "material_type", "reliability_score", "lead_time_days", "moq", "unit_price", "quality_rating"},
			{"S1", "flour", 0.9, 5, 100, 2, 8},
		},
		SheetFactories: {
			{"factory_location", "weekly_capacity", "efficiency_rate", "production_cost_per_unit"},
			{"Pune", 500, 0.85, 4},
		},
	}
	for _, sheet := range []string{SheetSuppliers, SheetFactories} {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for sheet, data := range rows {
		for i, row := range data {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}
	path := filepath.Join(t.TempDir(), "snapshot.xlsx")
	require.NoError(t, f.SaveAs(path))

	req, err := LoadFile(path)
	require.NoError(t, err)

	snap, err := req.ToDomain(testDefaults)
	require.NoError(t, err)
	require.Len(t, snap.Products, 2)
	assert.Equal(t, "SKU001", snap.Products[0].SKU)
	assert.Equal(t, 80, snap.Products[0].ActualDemand)
	assert.Equal(t, 12.5, snap.Products[0].UnitCost)
	assert.Equal(t, 7, snap.Products[0].LeadTimeDays)
	assert.True(t, snap.Products[0].IsFestivalSensitive)
	assert.Equal(t, 3, snap.Products[1].LeadTimeDays)
	assert.False(t, snap.Products[1].IsFestivalSensitive)

	require.Len(t, snap.Suppliers, 1)
	assert.Equal(t, 0.9, snap.Suppliers[0].ReliabilityScore)
	require.Len(t, snap.Factories, 1)
	assert.Equal(t, "Pune", snap.Factories[0].FactoryLocation)
}

func TestLoadFile_XLSXWithoutProducts(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "no products sheet")
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	_, err := LoadFile("snapshot.csv")
	assert.ErrorContains(t, err, "unsupported snapshot file")
}

func TestCellValue(t *testing.T) {
	v, err := cellValue("sku", "00123")
	require.NoError(t, err)
	assert.Equal(t, "00123", v)

	v, err = cellValue("moq", "100")
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	_, err = cellValue("moq", "lots")
	assert.Error(t, err)

	_, err = cellValue("is_festival_sensitive", "maybe")
	assert.Error(t, err)
}
