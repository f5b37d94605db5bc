package domain

import "errors"

var (
	// ErrInsufficientData means a series is too short or too sparse to model.
	// Per-SKU and non-fatal at the batch level.
	ErrInsufficientData = errors.New("insufficient history for forecasting")

	// ErrFitFailure means no candidate model converged, fallbacks included.
	ErrFitFailure = errors.New("model fit failed")

	// ErrInvalidRequest covers malformed horizon, scenario, or lead-time
	// inputs. Fatal to the single request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotTrained is returned when forecast state is requested before any
	// training data has been uploaded.
	ErrNotTrained = errors.New("no trained models available")

	// ErrUnknownSKU is returned for a product/store pair with no history.
	ErrUnknownSKU = errors.New("no data for product/store pair")
)
