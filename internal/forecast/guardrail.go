// internal/forecast/guardrail.go
package forecast

// validatePriceEffect checks the fitted price-ratio coefficient. Demand must
// not rise with relative price; a positive coefficient beyond the tolerance
// marks the fit as implausible. Returns the active feature set with the price
// regressor removed and whether a violation occurred.
func validatePriceEffect(m *sarxModel, active []string, tolerance float64) ([]string, bool) {
	coef, ok := m.coefficient(priceRatioFeature)
	if !ok || coef <= tolerance {
		return active, false
	}

	kept := make([]string, 0, len(active)-1)
	for _, name := range active {
		if name != priceRatioFeature {
			kept = append(kept, name)
		}
	}
	return kept, true
}
