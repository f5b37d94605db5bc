// internal/domain/models.go
package domain

import "time"

// ObservationRecord is a single validated row of sales history for one
// product at one store. It mirrors the upload schema one-to-one.
type ObservationRecord struct {
	Date             time.Time `json:"date"`
	StoreID          string    `json:"store_id"`
	ProductID        string    `json:"product_id"`
	Category         string    `json:"category"`
	Region           string    `json:"region"`
	InventoryLevel   float64   `json:"inventory_level"`
	UnitsSold        float64   `json:"units_sold"`
	UnitsOrdered     float64   `json:"units_ordered"`
	DemandForecast   float64   `json:"demand_forecast"`
	Price            float64   `json:"price"`
	Discount         float64   `json:"discount"`
	WeatherCondition string    `json:"weather_condition"`
	HolidayPromotion float64   `json:"holiday_promotion"`
	CompetitorPrice  float64   `json:"competitor_pricing"`
	Seasonality      string    `json:"seasonality"`
}

// ProductMetrics is the per-product training/forecast summary returned to
// the dashboard.
type ProductMetrics struct {
	ProductID          string   `json:"product_id"`
	SuccessRate        float64  `json:"success_rate"`
	WMAPE              float64  `json:"wmape"`
	GuardrailTriggered bool     `json:"guardrail_triggered"`
	Drivers            []string `json:"drivers"`
	Recommendation     string   `json:"recommendation"`
	PredictedDemand    float64  `json:"predicted_demand"`
	Confidence         float64  `json:"confidence"`
}

// Priority tiers for reorder recommendations.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort rank of a priority (high first).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// ReorderDecision is the inventory decision derived from a demand forecast
// for a single product/store pair.
type ReorderDecision struct {
	AvgDailyDemand    float64    `json:"avg_daily_demand"`
	StdDevDailyDemand float64    `json:"std_dev_daily_demand"`
	SafetyStock       int        `json:"safety_stock"`
	ReorderPoint      int        `json:"reorder_point"`
	CurrentStock      int        `json:"current_stock"`
	RecommendedOrder  int        `json:"recommended_order"`
	Priority          Priority   `json:"priority"`
	StockoutDate      *time.Time `json:"estimated_stockout_date,omitempty"`
}

// ReorderRecommendation is the external row of the recommendations list.
type ReorderRecommendation struct {
	SKUID                 string   `json:"skuId"`
	SKUName               string   `json:"skuName"`
	CurrentStock          int      `json:"currentStock"`
	ReorderPoint          int      `json:"reorderPoint"`
	RecommendedOrder      int      `json:"recommendedOrder"`
	LeadTime              int      `json:"leadTime"`
	Priority              Priority `json:"priority"`
	EstimatedStockoutDate *string  `json:"estimatedStockoutDate,omitempty"`
	ForecastAccuracy      *float64 `json:"forecastAccuracy,omitempty"`
	ModelUsed             *string  `json:"modelUsed,omitempty"`
	ForecastedDemand7d    float64  `json:"forecastedDemand7d"`
	ForecastedDemand14d   float64  `json:"forecastedDemand14d"`
	ForecastedDemand30d   float64  `json:"forecastedDemand30d"`
}

// ROPResult is the /calculate_rop response body for one pair.
type ROPResult struct {
	ProductID string          `json:"product_id"`
	StoreID   string          `json:"store_id"`
	Inputs    ROPInputs       `json:"inputs"`
	Decision  ReorderDecision `json:"results"`
	Detail    ForecastDetail  `json:"forecast_detail"`
}

type ROPInputs struct {
	LeadTimeDays        int     `json:"lead_time_days"`
	ServiceLevelPercent float64 `json:"service_level_percent"`
	ZScoreUsed          float64 `json:"z_score_used"`
}

type ForecastDetail struct {
	ModelUsed           string  `json:"modelUsed"`
	ForecastAccuracy    float64 `json:"forecastAccuracy"`
	ForecastedDemand7d  float64 `json:"forecastedDemand7d"`
	ForecastedDemand14d float64 `json:"forecastedDemand14d"`
	ForecastedDemand30d float64 `json:"forecastedDemand30d"`
}
