package domain

import "fmt"

// Scenario names a hypothetical adjustment applied to forecast inputs for
// what-if analysis.
type Scenario string

const (
	ScenarioBaseline Scenario = "baseline"
	ScenarioDiscount Scenario = "discount"
	ScenarioPriceCut Scenario = "price_cut"
	ScenarioHoliday  Scenario = "holiday"
)

// ParseScenario validates a scenario name from a request.
func ParseScenario(s string) (Scenario, error) {
	switch Scenario(s) {
	case ScenarioBaseline, ScenarioDiscount, ScenarioPriceCut, ScenarioHoliday:
		return Scenario(s), nil
	case "":
		return ScenarioBaseline, nil
	default:
		return "", fmt.Errorf("%w: unknown scenario %q", ErrInvalidRequest, s)
	}
}
