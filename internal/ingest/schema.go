// internal/ingest/schema.go
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/demand-insight/backend-go/internal/domain"
)

// FieldKind is the semantic type of an upload column.
type FieldKind int

const (
	FieldDate FieldKind = iota
	FieldText
	FieldNumber
	FieldFlag
)

// FieldSpec binds a column name to its semantic type. The schema is fixed and
// validated once at ingestion; rows never decide their own parsing.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool
	assign   func(*domain.ObservationRecord, time.Time, string, float64)
}

// Schema enumerates every accepted upload column. Column names use
// underscores; spaces and slashes in raw headers are normalized first.
var Schema = []FieldSpec{
	{Name: "Date", Kind: FieldDate, Required: true,
		assign: func(r *domain.ObservationRecord, d time.Time, _ string, _ float64) { r.Date = d }},
	{Name: "Store_ID", Kind: FieldText, Required: true,
		assign: func(r *domain.ObservationRecord, _ time.Time, s string, _ float64) { r.StoreID = s }},
	{Name: "Product_ID", Kind: FieldText, Required: true,
		assign: func(r *domain.ObservationRecord, _ time.Time, s string, _ float64) { r.ProductID = s }},
	{Name: "Category", Kind: FieldText,
		assign: func(r *domain.ObservationRecord, _ time.Time, s string, _ float64) { r.Category = s }},
	{Name: "Region", Kind: FieldText,
		assign: func(r *domain.ObservationRecord, _ time.Time, s string, _ float64) { r.Region = s }},
	{Name: "Inventory_Level", Kind: FieldNumber,
		assign: func(r *domain.ObservationRecord, _ time.Time, _ string, f float64) { r.InventoryLevel = f }},
	{Name: "Units_Sold", Kind: FieldNumber, Required: true,
		assign: func(r *domain.ObservationRecord, _ time.Time, _ string, f float64) { r.UnitsSold = f }},
	{Name: "Units_Ordered", Kind: FieldNumber,
		assign: func(r *domain.ObservationRecord, _ time.Time, _ string, f float64) { r.UnitsOrdered = f }},
	{Name: "Demand_Forecast", Kind: FieldNumber,
		assign: func(r *domain.ObservationRecord, _ time.Time, _ string, f float64) { r.DemandForecast = f }},
	{Name: "Price", Kind: FieldNumber,
		assign: func(r *domain.ObservationRecord, _ time.Time, _ string, f float64) { r.Price = f }},
	{Name: "Discount", Kind: FieldNumber,
		assign: func(r *domain.ObservationRecord, _ time.Time, _ string, f float64) { r.Discount = f }},
	{Name: "Weather_Condition", Kind: FieldText,
		assign: func(r *domain.ObservationRecord, _ time.Time, s string, _ float64) { r.WeatherCondition = s }},
	{Name: "Holiday_Promotion", Kind: FieldFlag,
		assign: func(r *domain.ObservationRecord, _ time.Time, _ string, f float64) { r.HolidayPromotion = f }},
	{Name: "Competitor_Pricing", Kind: FieldNumber,
		assign: func(r *domain.ObservationRecord, _ time.Time, _ string, f float64) { r.CompetitorPrice = f }},
	{Name: "Seasonality", Kind: FieldText,
		assign: func(r *domain.ObservationRecord, _ time.Time, s string, _ float64) { r.Seasonality = s }},
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006", time.RFC3339}

// NormalizeColumn maps a raw header ("Store ID", "Holiday/Promotion") to its
// schema name.
func NormalizeColumn(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "_")
	return name
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func parseNumber(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func parseFlag(raw string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "no":
		return 0, nil
	case "1", "true", "yes":
		return 1, nil
	}
	// Some exports carry the flag as a float
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid flag value %q", raw)
	}
	if f > 0 {
		return 1, nil
	}
	return 0, nil
}

// decodeField applies one schema entry to a raw string value.
func decodeField(spec FieldSpec, raw string, rec *domain.ObservationRecord) error {
	switch spec.Kind {
	case FieldDate:
		d, err := parseDate(raw)
		if err != nil {
			return err
		}
		spec.assign(rec, d, "", 0)
	case FieldText:
		spec.assign(rec, time.Time{}, strings.TrimSpace(raw), 0)
	case FieldNumber:
		f, err := parseNumber(raw)
		if err != nil {
			return fmt.Errorf("field %s: %w", spec.Name, err)
		}
		spec.assign(rec, time.Time{}, "", f)
	case FieldFlag:
		f, err := parseFlag(raw)
		if err != nil {
			return fmt.Errorf("field %s: %w", spec.Name, err)
		}
		spec.assign(rec, time.Time{}, "", f)
	}
	return nil
}
