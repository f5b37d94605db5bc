package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/demand-insight/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRow() map[string]any {
	return map[string]any{
		"Date":               "2024-01-15",
		"Store ID":           "S001",
		"Product ID":         "P001",
		"Category":           "Groceries",
		"Region":             "North",
		"Inventory Level":    231.0,
		"Units Sold":         127.0,
		"Units Ordered":      55.0,
		"Demand Forecast":    135.5,
		"Price":              33.5,
		"Discount":           10.0,
		"Weather Condition":  "Rainy",
		"Holiday/Promotion":  true,
		"Competitor Pricing": 29.69,
		"Seasonality":        "Winter",
	}
}

func TestDecodeRecords(t *testing.T) {
	records, err := DecodeRecords([]map[string]any{sampleRow()})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, "S001", rec.StoreID)
	assert.Equal(t, "P001", rec.ProductID)
	assert.Equal(t, 127.0, rec.UnitsSold)
	assert.Equal(t, 33.5, rec.Price)
	assert.Equal(t, 1.0, rec.HolidayPromotion)
	assert.Equal(t, 29.69, rec.CompetitorPrice)
	assert.Equal(t, "Winter", rec.Seasonality)
}

func TestDecodeRecordsUnderscoreHeaders(t *testing.T) {
	row := map[string]any{
		"Date":       "2024/01/15",
		"Store_ID":   "S002",
		"Product_ID": "P005",
		"Units_Sold": 40,
	}
	records, err := DecodeRecords([]map[string]any{row})
	require.NoError(t, err)
	assert.Equal(t, "S002", records[0].StoreID)
	assert.Equal(t, 40.0, records[0].UnitsSold)
}

func TestDecodeRecordsMissingRequiredField(t *testing.T) {
	row := sampleRow()
	delete(row, "Units Sold")

	_, err := DecodeRecords([]map[string]any{row})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestDecodeRecordsBadDate(t *testing.T) {
	row := sampleRow()
	row["Date"] = "not-a-date"

	_, err := DecodeRecords([]map[string]any{row})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestDecodeRecordsEmpty(t *testing.T) {
	_, err := DecodeRecords(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "Store_ID", NormalizeColumn(" Store ID "))
	assert.Equal(t, "Holiday_Promotion", NormalizeColumn("Holiday/Promotion"))
	assert.Equal(t, "Price", NormalizeColumn("Price"))
}

func TestReadCSV(t *testing.T) {
	csv := "Date,Store ID,Product ID,Units Sold,Price,Discount,Competitor Pricing,Holiday/Promotion,Inventory Level\n" +
		"2024-01-01,S001,P001,120,33.5,10,29.7,0,231\n" +
		"2024-01-02,S001,P001,95,33.5,0,29.7,1,180\n" +
		"bad-date,S001,P001,80,33.5,0,29.7,0,150\n"

	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	records, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, records, 2, "malformed rows are skipped")

	assert.Equal(t, 120.0, records[0].UnitsSold)
	assert.Equal(t, 1.0, records[1].HolidayPromotion)
	assert.Equal(t, 231.0, records[0].InventoryLevel)
}

func TestReadCSVMissingRequiredColumn(t *testing.T) {
	csv := "Date,Store ID,Units Sold\n2024-01-01,S001,120\n"
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	_, err := ReadCSV(path)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
